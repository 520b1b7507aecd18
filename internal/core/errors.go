package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a core failure for the transport layer.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConflict   ErrorKind = "conflict"
	KindNotFound   ErrorKind = "not_found"
	KindIntegrity  ErrorKind = "integrity"
)

// Error is the single error type returned by core operations. Every failing
// call produces exactly one Error; the wrapped cause, if any, is preserved
// for logging.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// Integrity wraps an underlying storage failure. The enclosing unit of work
// has already been rolled back by the time callers see it.
func Integrity(msg string, err error) *Error {
	return &Error{Kind: KindIntegrity, Msg: msg, Err: err}
}

// KindOf returns the kind of err. Unclassified errors are treated as
// integrity failures: they only arise from the storage engine.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindIntegrity
}
