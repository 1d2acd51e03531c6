package api

import (
	"errors"
	"fmt"
	"net/http"
)

// GenericMessage is shown when the server gave no message of its own
const GenericMessage = "Something went wrong. Please try again."

// ErrUnauthorized matches any 401 response via errors.Is
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx gateway response
type Error struct {
	Status  int
	Message string
	// Fields holds field-level validation messages, keyed by field name
	Fields map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// ErrorMessage returns the text to show the user for err: the server's
// message when there is one, otherwise GenericMessage.
func ErrorMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericMessage
}

// FieldErrors returns the server's field-level validation messages, if any
func FieldErrors(err error) map[string]string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Fields
	}
	return nil
}

// IsValidation reports whether the server rejected the request parameters
func IsValidation(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnprocessableEntity
}

// IsNotFound reports a 404
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
