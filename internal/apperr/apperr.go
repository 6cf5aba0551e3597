// Package apperr classifies failures that are shown to end users.
package apperr

import (
	"errors"
	"fmt"
)

// Kind names a user-facing failure class.
type Kind string

const (
	KindIdentity         Kind = "identity_error"
	KindAuthentication   Kind = "authentication_error"
	KindReauthentication Kind = "reauthentication_error"
	KindWrite            Kind = "write_error"
	KindValidation       Kind = "validation_failed"
	KindNotFound         Kind = "not_found"
)

// Error carries a Kind, a human-readable message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error without a cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// Is reports whether err carries kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Message returns the user-facing text for err. Provider wording is passed
// through unchanged.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
