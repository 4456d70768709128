// Package apperr defines the closed set of failure kinds the API reports
// and their mapping to HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes a failure. Every Kind maps to exactly one HTTP status.
type Kind string

const (
	// KindMissingCredential means no credential was presented.
	KindMissingCredential Kind = "missing_credential"
	// KindInvalidCredential means a bad login, a bad refresh token or an unknown principal.
	KindInvalidCredential Kind = "invalid_credential"
	// KindInvalidToken means a presented access token was malformed, expired or forged.
	KindInvalidToken Kind = "invalid_token"
	// KindForbidden means the principal is authenticated but not allowed.
	KindForbidden Kind = "forbidden"
	// KindConflict means a uniqueness rule was violated.
	KindConflict Kind = "conflict"
	// KindNotFound means the addressed resource does not exist.
	KindNotFound Kind = "not_found"
	// KindValidation means the request itself was malformed.
	KindValidation Kind = "validation"
	// KindInternal covers everything unclassified.
	KindInternal Kind = "internal"
)

// Status returns the HTTP status code for k.
func (k Kind) Status() int {
	switch k {
	case KindMissingCredential, KindInvalidCredential:
		return http.StatusUnauthorized
	case KindInvalidToken, KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// InternalMessage is the only message ever shown for unclassified failures.
const InternalMessage = "internal server error"

// Error is a classified failure. Message is safe to show to clients;
// Cause is for server-side logs only.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	// Details holds optional client-facing detail lines (validation errors).
	Details []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind that keeps cause for logging.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

func MissingCredential(message string) *Error { return New(KindMissingCredential, message) }
func InvalidCredential(message string) *Error { return New(KindInvalidCredential, message) }
func InvalidToken(message string) *Error      { return New(KindInvalidToken, message) }
func Forbidden(message string) *Error         { return New(KindForbidden, message) }
func Conflict(message string) *Error          { return New(KindConflict, message) }
func NotFound(message string) *Error          { return New(KindNotFound, message) }

// Validation creates a Validation error with optional per-field detail lines.
func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Internal wraps an unexpected failure. Its message is never the cause's text.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: InternalMessage, Cause: cause}
}

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the Kind of err, or KindInternal when err is unclassified.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
