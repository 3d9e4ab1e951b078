package container

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the container reports.
type Kind string

const (
	KindValidation              Kind = "validation"
	KindNoImplementation        Kind = "no implementation"
	KindAmbiguousImplementation Kind = "ambiguous implementation"
	KindBindingConflict         Kind = "binding conflict"
	KindDuplicatePreinitialized Kind = "duplicate preinitialized"
	KindMissingImplementation   Kind = "missing implementation"
	KindNotFound                Kind = "not found"
)

// Sentinels for errors.Is. Any *Error of the same Kind matches.
var (
	ErrValidation              = &Error{Kind: KindValidation}
	ErrNoImplementation        = &Error{Kind: KindNoImplementation}
	ErrAmbiguousImplementation = &Error{Kind: KindAmbiguousImplementation}
	ErrBindingConflict         = &Error{Kind: KindBindingConflict}
	ErrDuplicatePreinitialized = &Error{Kind: KindDuplicatePreinitialized}
	ErrMissingImplementation   = &Error{Kind: KindMissingImplementation}
	ErrNotFound                = &Error{Kind: KindNotFound}
)

// Error is the single error type returned by the container.
//
// Key is set when the failure concerns one binding; Field when it concerns a
// marked field. Cause holds the underlying error, if any.
type Error struct {
	Kind    Kind
	Message string
	Key     *BindingKey
	Field   string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "container: " + string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error with the same Kind, so the package sentinels work
// with errors.Is regardless of message or key.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ── Constructors ──────────────────────────────────────────────────────────────

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func keyError(kind Kind, key BindingKey, format string, args ...any) *Error {
	e := newError(kind, format, args...)
	e.Key = &key
	return e
}

// wrap turns an arbitrary failure into an *Error of the given kind. Errors that
// already are *Error pass through untouched so their kind survives.
func wrap(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	ce := newError(kind, format, args...)
	ce.Cause = err
	return ce
}
