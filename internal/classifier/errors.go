package classifier

import (
	"errors"
	"fmt"
)

// ErrorKind says why an AI classification could not be used
type ErrorKind string

const (
	// KindTransport covers network failures, non-2xx statuses and
	// envelopes that carry no answer text.
	KindTransport ErrorKind = "transport"
	// KindUnparseable means the answer held no usable JSON object.
	KindUnparseable ErrorKind = "unparseable"
)

// ClassificationError is returned by Client.Classify. Triage absorbs it by
// falling back to keyword classification; it never reaches the user.
type ClassificationError struct {
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ClassificationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("classification %s error (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("classification %s error: %v", e.Kind, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ClassificationError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var ce *ClassificationError
	return errors.As(err, &ce) && ce.Kind == kind
}

func transportError(status int, err error) *ClassificationError {
	return &ClassificationError{Kind: KindTransport, StatusCode: status, Err: err}
}

func unparseableError(err error) *ClassificationError {
	return &ClassificationError{Kind: KindUnparseable, Err: err}
}
