package bookshelf

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is used when the server rejects a request without a message.
const GenericMessage = "Something went wrong"

// ErrNotFound is returned when a single-resource fetch yields no document.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	// FromServer is false when Message is the generic fallback.
	FromServer bool
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// Unauthorized reports a 401.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError means the request never produced a response.
type NetworkError struct {
	Method string
	Path   string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("execute request %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

func newAPIError(status int, message string) *APIError {
	if message == "" {
		return &APIError{Status: status, Message: GenericMessage}
	}
	return &APIError{Status: status, Message: message, FromServer: true}
}

// ErrorMessage returns the text to show a user for err: the server's own
// message when there is one, otherwise fallback.
func ErrorMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.FromServer {
		return apiErr.Message
	}
	if fallback == "" {
		return GenericMessage
	}
	return fallback
}
