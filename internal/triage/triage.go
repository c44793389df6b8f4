// Package triage turns raw pasted content into a note payload ready to be
// stored.
package triage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/pbaille/clipnote/internal/classifier"
	"github.com/pbaille/clipnote/internal/domain"
	"github.com/pbaille/clipnote/internal/metrics"
)

// ErrEmptyInput is returned for blank text input. No classification is
// attempted.
var ErrEmptyInput = errors.New("please enter some content")

// AIClassifier is the remote classifier. *classifier.Client implements it.
type AIClassifier interface {
	Classify(ctx context.Context, content string, hint domain.ContentType) (domain.Classification, error)
}

// TitleFetcher looks up the title of a web page
type TitleFetcher interface {
	FetchTitle(ctx context.Context, rawURL string) (string, error)
}

// Triager runs the capture pipeline
type Triager struct {
	ai     AIClassifier
	titles TitleFetcher
	logger *zap.Logger
}

// Option configures a Triager
type Option func(*Triager)

// WithTitleFetcher enables page title lookup for bare URLs
func WithTitleFetcher(f TitleFetcher) Option {
	return func(t *Triager) {
		t.titles = f
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(t *Triager) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a Triager around the given AI classifier
func New(ai AIClassifier, opts ...Option) *Triager {
	t := &Triager{ai: ai, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Triage classifies raw input. The only error is ErrEmptyInput; AI
// failures are absorbed by the keyword fallback.
func (t *Triager) Triage(ctx context.Context, raw domain.RawInput) (domain.NotePayload, error) {
	if raw.Kind == domain.InputImage {
		payload := imagePayload(raw)
		metrics.RecordTriage(string(payload.Source))
		return payload, nil
	}

	if strings.TrimSpace(raw.Text) == "" {
		return domain.NotePayload{}, ErrEmptyInput
	}
	content := raw.Text

	heuristic := classifier.ClassifyHeuristic(content)
	if heuristic.ContentType == domain.TypeURL && t.titles != nil {
		t.enrichTitle(ctx, strings.TrimSpace(content), &heuristic.Metadata)
	}

	outcome := t.classify(ctx, content, heuristic.ContentType)
	if err := outcome.Err(); err != nil {
		t.logger.Info("falling back to keyword classification", zap.Error(err))
	}
	classification, source := outcome.Resolve(content)
	metrics.RecordTriage(string(source))

	t.logger.Debug("triaged note",
		zap.String("type", string(heuristic.ContentType)),
		zap.String("category", string(classification.Category)),
		zap.String("source", string(source)),
	)

	return domain.NotePayload{
		OriginalContent: content,
		CleanedContent:  classification.CleanedContent,
		ContentType:     heuristic.ContentType,
		Category:        classification.Category,
		Title:           classification.Title,
		Summary:         classification.Summary,
		Tags:            classification.Tags,
		Priority:        classification.Priority,
		Metadata:        heuristic.Metadata,
		Source:          source,
	}, nil
}

func (t *Triager) classify(ctx context.Context, content string, hint domain.ContentType) Outcome {
	if t.ai == nil {
		return Failed(errors.New("no ai classifier configured"))
	}
	result, err := t.ai.Classify(ctx, content, hint)
	if err != nil {
		return Failed(err)
	}
	return Succeeded(result)
}

func (t *Triager) enrichTitle(ctx context.Context, rawURL string, meta *domain.Metadata) {
	title, err := t.titles.FetchTitle(ctx, rawURL)
	if err != nil {
		t.logger.Debug("page title lookup failed", zap.String("url", rawURL), zap.Error(err))
		return
	}
	if title = strings.TrimSpace(title); title != "" {
		meta.Title = title
	}
}

// BlobRef is the opaque reference stored in place of image bytes
func BlobRef(blob []byte) string {
	sum := sha256.Sum256(blob)
	return "blob:sha256:" + hex.EncodeToString(sum[:])
}

// imagePayload leaves the descriptive fields empty; images are never
// classified.
func imagePayload(raw domain.RawInput) domain.NotePayload {
	ref := BlobRef(raw.Blob)
	return domain.NotePayload{
		OriginalContent: ref,
		CleanedContent:  ref,
		ContentType:     domain.TypeImage,
		Tags:            []string{},
		Metadata:        domain.Metadata{MimeType: raw.MimeType, Size: len(raw.Blob)},
		Source:          domain.SourceImage,
	}
}
