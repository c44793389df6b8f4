package classifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pbaille/clipnote/internal/domain"
)

func answerEnvelope(text string) map[string]any {
	return map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{
		WithEndpoint(server.URL),
		WithHTTPClient(server.Client()),
		WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	return New(opts...)
}

func TestClientClassify(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-goog-api-key"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		json.NewEncoder(w).Encode(answerEnvelope(
			"Here you go:\n" + `{"category":"work","title":"Job hunt","summary":"Looking for a job.","tags":["career"],"cleanedContent":"I need a job","priority":"high"}`,
		))
	}, WithAPIKey("secret"))

	result, err := client.Classify(context.Background(), "I need a job", domain.TypeText)
	require.NoError(t, err)
	require.Equal(t, domain.Classification{
		Category:       domain.CategoryWork,
		Title:          "Job hunt",
		Summary:        "Looking for a job.",
		Tags:           []string{"career"},
		CleanedContent: "I need a job",
		Priority:       domain.PriorityHigh,
	}, result)

	require.Len(t, got.Contents, 1)
	require.Len(t, got.Contents[0].Parts, 1)
	prompt := got.Contents[0].Parts[0].Text
	require.Contains(t, prompt, "I need a job")
	require.Contains(t, prompt, "personal, work, ideas, links, code, shopping, health, finance, travel, other")
	require.Contains(t, prompt, "low, medium, or high")
	require.Contains(t, prompt, "Detected content type: text")
	require.Equal(t, 0.1, got.GenerationConfig.Temperature)
	require.Equal(t, 500, got.GenerationConfig.MaxOutputTokens)
}

func TestClientWithoutAPIKeySendsNoHeader(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Goog-Api-Key"]
		assert.False(t, present)
		json.NewEncoder(w).Encode(answerEnvelope(`{"category":"ideas"}`))
	})

	result, err := client.Classify(context.Background(), "an app for plants", domain.TypeText)
	require.NoError(t, err)
	require.Equal(t, domain.CategoryIdeas, result.Category)
	require.Equal(t, domain.PriorityMedium, result.Priority)
}

func TestClientTransportErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			status: http.StatusInternalServerError,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
			},
			status: http.StatusTooManyRequests,
		},
		{
			name: "no candidates",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"candidates":[]}`))
			},
			status: http.StatusOK,
		},
		{
			name: "error envelope",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"error":{"message":"quota"}}`))
			},
			status: http.StatusOK,
		},
		{
			name: "envelope is not json",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>proxy</html>`))
			},
			status: http.StatusOK,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			client := newTestClient(t, test.handler)
			_, err := client.Classify(context.Background(), "hello", domain.TypeText)
			require.Error(t, err)

			var ce *ClassificationError
			require.ErrorAs(t, err, &ce)
			require.Equal(t, KindTransport, ce.Kind)
			require.Equal(t, test.status, ce.StatusCode)
		})
	}
}

func TestClientUnparseableAnswer(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(answerEnvelope("I could not decide, sorry."))
	})

	_, err := client.Classify(context.Background(), "hello", domain.TypeText)
	require.True(t, IsKind(err, KindUnparseable))
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	client := New(WithEndpoint(endpoint))
	_, err := client.Classify(context.Background(), "hello", domain.TypeText)
	require.True(t, IsKind(err, KindTransport))
}

func TestClientMakesExactlyOneCall(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.Classify(context.Background(), "hello", domain.TypeText)
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestClientOptions(t *testing.T) {
	c := New(WithMaxOutputTokens(64), WithTemperature(0), WithEndpoint(""))
	require.Equal(t, 64, c.maxOutputTokens)
	require.Equal(t, 0.0, c.temperature)
	require.Equal(t, DefaultEndpoint, c.endpoint)
	require.True(t, strings.HasPrefix(c.endpoint, "https://"))
}
