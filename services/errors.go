package services

import "fmt"

// Kind classifies a service failure so controllers can map it onto an HTTP
// status without parsing messages.
type Kind string

const (
	KindNotFound          Kind = "NOT_FOUND"
	KindForbidden         Kind = "FORBIDDEN"
	KindInvalidTransition Kind = "INVALID_TRANSITION"
	KindValidationFailed  Kind = "VALIDATION_FAILED"
	KindConflict          Kind = "CONFLICT"
	KindExternalFailure   Kind = "EXTERNAL_FAILURE" // gateway call failed, retryable
	KindSignatureInvalid  Kind = "SIGNATURE_INVALID"
	KindInternal          Kind = "INTERNAL_ERROR"
)

// Error is a service failure with a stable kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a service error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a service error of the given kind around an underlying
// cause.
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// ErrorKind extracts the kind of a service error, or KindInternal for
// anything else.
func ErrorKind(err error) Kind {
	if serviceErr, ok := err.(*Error); ok {
		return serviceErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err is a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	return ErrorKind(err) == kind
}
