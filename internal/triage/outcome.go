package triage

import (
	"github.com/pbaille/clipnote/internal/classifier"
	"github.com/pbaille/clipnote/internal/domain"
)

// Outcome is the result of one AI classification attempt: exactly one of
// a classification or an error.
type Outcome struct {
	classification domain.Classification
	err            error
}

// Succeeded wraps a usable AI classification
func Succeeded(c domain.Classification) Outcome {
	return Outcome{classification: c}
}

// Failed wraps a failed AI classification
func Failed(err error) Outcome {
	return Outcome{err: err}
}

// Err returns the failure, or nil for a successful outcome
func (o Outcome) Err() error { return o.err }

// Resolve always yields a classification: the AI one on success, the
// keyword fallback for content otherwise. The returned Source says which.
func (o Outcome) Resolve(content string) (domain.Classification, domain.Source) {
	if o.err != nil {
		return classifier.Fallback(content), domain.SourceFallback
	}
	return o.classification, domain.SourceAI
}
