package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// ErrorKind classifies store failures for callers
type ErrorKind string

const (
	KindPermissionDenied ErrorKind = "permissionDenied"
	KindUnavailable      ErrorKind = "unavailable"
	KindInvalidArgument  ErrorKind = "invalidArgument"
	KindNotFound         ErrorKind = "notFound"
	KindUnknown          ErrorKind = "unknown"
)

// StoreError is returned by every Store operation that fails
type StoreError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// KindOf returns the kind of a store error, or KindUnknown for any other
// error. A nil error has no kind.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var se *StoreError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnknown
}

// IsNotFound reports whether err is a notFound store error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func notFound(op, what string) *StoreError {
	return &StoreError{Kind: KindNotFound, Op: op, Err: fmt.Errorf("%s not found", what)}
}

func permissionDenied(op string, err error) *StoreError {
	return &StoreError{Kind: KindPermissionDenied, Op: op, Err: err}
}

func invalidArgument(op string, err error) *StoreError {
	return &StoreError{Kind: KindInvalidArgument, Op: op, Err: err}
}

// wrapError maps driver errors onto store error kinds
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Kind: classify(err), Op: op, Err: err}
}

func classify(err error) ErrorKind {
	if errors.Is(err, sql.ErrNoRows) {
		return KindNotFound
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, sql.ErrConnDone) {
		return KindUnavailable
	}

	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return KindUnknown
	}
	switch sqliteErr.Code {
	case sqlite3.ErrPerm, sqlite3.ErrAuth, sqlite3.ErrReadonly:
		return KindPermissionDenied
	case sqlite3.ErrBusy, sqlite3.ErrLocked, sqlite3.ErrCantOpen, sqlite3.ErrIoErr,
		sqlite3.ErrFull, sqlite3.ErrProtocol, sqlite3.ErrNomem:
		return KindUnavailable
	case sqlite3.ErrConstraint, sqlite3.ErrMismatch, sqlite3.ErrRange, sqlite3.ErrTooBig:
		return KindInvalidArgument
	case sqlite3.ErrNotFound:
		return KindNotFound
	default:
		return KindUnknown
	}
}
