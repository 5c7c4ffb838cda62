package classifier

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrNoFace is returned when the image contains no detectable face.
	ErrNoFace = errors.New("classifier: no face detected")

	// ErrUnavailable is returned when no backend is available.
	ErrUnavailable = errors.New("classifier: backend unavailable")

	// ErrNoImage is returned when Classify is called with a nil image.
	ErrNoImage = errors.New("classifier: nil image")

	// ErrClosed is returned when using a backend after Close.
	ErrClosed = errors.New("classifier: closed")
)

// APIError represents an error response from a classification service.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the service.
	Message string

	// Backend identifies which backend returned the error.
	Backend string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("classifier [%s]: API error %d: %s",
		e.Backend, e.StatusCode, e.Message)
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsBadRequest returns true for HTTP 400, which DeepFace uses for
// unreadable images and failed detection.
func (e *APIError) IsBadRequest() bool {
	return e.StatusCode == 400
}

// BackendError wraps an error with backend context.
type BackendError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *BackendError) Error() string {
	return fmt.Sprintf("classifier [%s]: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *BackendError) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with backend context.
func WrapError(backend string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Backend: backend, Err: err}
}

// ChainError aggregates errors from all backends in a chain.
type ChainError struct {
	Errors []error
}

// Error implements the error interface.
func (e *ChainError) Error() string {
	if len(e.Errors) == 0 {
		return "classifier chain: no errors recorded"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("classifier chain: %v", e.Errors[0])
	}
	return fmt.Sprintf("classifier chain: all %d backends failed, last error: %v",
		len(e.Errors), e.Errors[len(e.Errors)-1])
}

// Unwrap exposes every backend error to errors.Is and errors.As.
func (e *ChainError) Unwrap() []error {
	return e.Errors
}
