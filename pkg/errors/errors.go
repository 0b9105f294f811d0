package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType classifies the failures a scrape run can hit. The types are not
// interchangeable: the CLI reports "could not reach the login page", "login
// rejected", "session expired" and "found nothing new" as distinct outcomes.
type ErrorType string

const (
	// ErrorTypeNavigation: all readiness strategies and attempts exhausted.
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeAuth: login flow reached FAILED (no success signal).
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeChallenge: the verification challenge could not be resolved.
	ErrorTypeChallenge ErrorType = "challenge"
	// ErrorTypeStaleSession: persisted cookies no longer grant access.
	ErrorTypeStaleSession ErrorType = "stale_session"
	// ErrorTypeContext: the browser or page context died mid-run.
	ErrorTypeContext ErrorType = "context"
	// ErrorTypeExtraction: a non-fatal extraction problem.
	ErrorTypeExtraction ErrorType = "extraction"
	// ErrorTypeParsing: malformed persisted data.
	ErrorTypeParsing ErrorType = "parsing"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a classified scraper error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error.
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Wrap creates a classified error around an underlying cause.
func Wrap(t ErrorType, message string, err error) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the classification of err, or ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err is classified as t.
func Is(err error, t ErrorType) bool {
	return TypeOf(err) == t
}

// IsRetryable reports whether an error of the given type is worth another
// attempt. Authentication, stale-session and dead-context failures are
// terminal for the run.
func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrorTypeNavigation, ErrorTypeExtraction:
		return true
	case ErrorTypeAuth, ErrorTypeChallenge, ErrorTypeStaleSession, ErrorTypeContext, ErrorTypeParsing:
		return false
	default:
		return false
	}
}
