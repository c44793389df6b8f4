package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/metrics"
)

const (
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

	defaultTimeout         = 30 * time.Second
	defaultMaxOutputTokens = 500
	defaultTemperature     = 0.1
	maxResponseBytes       = 1 << 20
)

// Client classifies content through a Gemini-style generateContent endpoint
type Client struct {
	endpoint        string
	apiKey          string
	maxOutputTokens int
	temperature     float64
	httpClient      *http.Client
	logger          *zap.Logger
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the generateContent URL
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithAPIKey sets the key sent in the X-goog-api-key header
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMaxOutputTokens bounds the length of the model answer
func WithMaxOutputTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxOutputTokens = n
		}
	}
}

func WithTemperature(t float64) Option {
	return func(c *Client) {
		if t >= 0 {
			c.temperature = t
		}
	}
}

// New creates a Client. A missing API key is allowed: the request is sent
// without one and the provider decides.
func New(opts ...Option) *Client {
	c := &Client{
		endpoint:        DefaultEndpoint,
		maxOutputTokens: defaultMaxOutputTokens,
		temperature:     defaultTemperature,
		httpClient:      &http.Client{Timeout: defaultTimeout},
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify asks the model to categorize content. hint is the locally
// detected content type. Errors are always *ClassificationError; there is
// no retry.
func (c *Client) Classify(ctx context.Context, content string, hint domain.ContentType) (domain.Classification, error) {
	start := time.Now()

	answer, err := c.generate(ctx, buildPrompt(content, hint))
	if err != nil {
		metrics.ObserveAIRequest(string(KindTransport), time.Since(start))
		c.logger.Warn("ai classification failed", zap.Error(err))
		return domain.Classification{}, err
	}

	result, err := ParseAnswer(answer, content)
	if err != nil {
		metrics.ObserveAIRequest(string(KindUnparseable), time.Since(start))
		c.logger.Warn("ai answer unparseable", zap.Error(err), zap.String("answer", preview(answer)))
		return domain.Classification{}, err
	}

	metrics.ObserveAIRequest("ok", time.Since(start))
	c.logger.Debug("ai classification",
		zap.String("category", string(result.Category)),
		zap.String("priority", string(result.Priority)),
		zap.Int("tags", len(result.Tags)),
	)
	return result, nil
}

type generateRequest struct {
	Contents         []generateContent `json:"contents"`
	GenerationConfig generationConfig  `json:"generationConfig"`
}

type generateContent struct {
	Parts []generatePart `json:"parts"`
}

type generatePart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []struct {
		Content generateContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []generateContent{
			{Parts: []generatePart{{Text: prompt}}},
		},
		GenerationConfig: generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxOutputTokens,
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", transportError(0, fmt.Errorf("marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", transportError(0, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-goog-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", transportError(0, fmt.Errorf("http request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", transportError(resp.StatusCode, fmt.Errorf("api error: %s", preview(string(body))))
	}

	var apiResp generateResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", transportError(resp.StatusCode, fmt.Errorf("unmarshal response: %w", err))
	}
	if apiResp.Error != nil {
		return "", transportError(resp.StatusCode, fmt.Errorf("api error: %s", apiResp.Error.Message))
	}
	if len(apiResp.Candidates) == 0 {
		return "", transportError(resp.StatusCode, errors.New("no candidates in response"))
	}

	var sb strings.Builder
	for _, part := range apiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", transportError(resp.StatusCode, errors.New("empty answer"))
	}
	return sb.String(), nil
}

func preview(s string) string {
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
