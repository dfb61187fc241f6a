package errors

import (
	"errors"
	"fmt"
)

// Type classifies the failures that can occur during dataset generation
type Type string

const (
	// TypeCredentialMissing means a required API credential is absent.
	// Fatal for the whole run; no request is attempted.
	TypeCredentialMissing Type = "credential_missing"

	// TypeProviderQuery covers network or parsing failures while querying
	// an image provider. Local to one attraction's search.
	TypeProviderQuery Type = "provider_query"

	// TypeCandidateInvalid marks a candidate rejected by validation:
	// wrong content type, too small, or undecodable.
	TypeCandidateInvalid Type = "candidate_invalid"

	// TypeFetchTransient covers timeouts and connection resets while
	// downloading a candidate. Treated like TypeCandidateInvalid: the
	// candidate is skipped, never retried.
	TypeFetchTransient Type = "fetch_transient"

	// TypeStorage means the local filesystem failed (disk full,
	// permission denied). Fatal: the run aborts rather than lose data.
	TypeStorage Type = "storage"

	TypeRateLimit   Type = "rate_limit"
	TypeServerError Type = "server_error"
	TypeParsing     Type = "parsing"
	TypeUnknown     Type = "unknown"
)

// Error carries a failure type alongside the message and HTTP code
type Error struct {
	Type    Type
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t Type, message string) *Error {
	return &Error{Type: t, Message: message}
}

// Newf creates a typed error with a formatted message
func Newf(t Type, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a typed error wrapping an underlying cause
func Wrap(t Type, err error, message string) *Error {
	return &Error{Type: t, Message: message, Err: err}
}

// TypeOf returns the type of a typed error, or TypeUnknown
func TypeOf(err error) Type {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return TypeUnknown
}

// IsFatal reports whether an error must abort the whole run instead of
// being counted and skipped
func IsFatal(err error) bool {
	switch TypeOf(err) {
	case TypeCredentialMissing, TypeStorage:
		return true
	default:
		return false
	}
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	switch TypeOf(err) {
	case TypeFetchTransient, TypeRateLimit, TypeServerError:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}
