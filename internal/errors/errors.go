package errors

import (
	stderrors "errors"
	"fmt"
)

// HirmesError is the structured error type for the Hirmes client.
// It provides rich context for error handling, logging, and user presentation.
type HirmesError struct {
	// Code is the unique error code (e.g., "ERR_301_TRANSPORT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Transport, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// ServiceMessage is the text the service supplied in its "error" field, if any.
	ServiceMessage string

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *HirmesError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *HirmesError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with HirmesError.
func (e *HirmesError) Is(target error) bool {
	if t, ok := target.(*HirmesError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *HirmesError) WithDetail(key, value string) *HirmesError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *HirmesError) WithSuggestion(suggestion string) *HirmesError {
	e.Suggestion = suggestion
	return e
}

// New creates a new HirmesError with the given code and message.
// Category and severity are derived from the code.
func New(code string, message string, cause error) *HirmesError {
	return &HirmesError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a HirmesError from an existing error.
// The error's message becomes the HirmesError message.
func Wrap(code string, err error) *HirmesError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *HirmesError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// TransportError creates an error for a request that never got a response.
func TransportError(endpoint string, cause error) *HirmesError {
	return New(ErrCodeTransport, fmt.Sprintf("%s: service unreachable", endpoint), cause).
		WithDetail("endpoint", endpoint).
		WithSuggestion("Check that the Hirmes service is running and server.url is correct")
}

// ServiceError creates an error for a response the service marked as failed.
// serviceMessage is the service-supplied text and may be empty.
func ServiceError(endpoint string, status int, serviceMessage string) *HirmesError {
	code := ErrCodeServiceStatus
	msg := fmt.Sprintf("%s: unexpected status %d", endpoint, status)
	if status >= 200 && status < 300 {
		code = ErrCodeServiceError
		msg = fmt.Sprintf("%s: %s", endpoint, serviceMessage)
	}
	e := New(code, msg, nil).
		WithDetail("endpoint", endpoint).
		WithDetail("status", fmt.Sprintf("%d", status))
	e.ServiceMessage = serviceMessage
	return e
}

// DecodeError creates an error for a response body that could not be parsed.
func DecodeError(endpoint string, cause error) *HirmesError {
	return New(ErrCodeDecodeFailed, fmt.Sprintf("%s: malformed response", endpoint), cause).
		WithDetail("endpoint", endpoint)
}

// ValidationError creates an input validation error.
func ValidationError(message string, cause error) *HirmesError {
	return New(ErrCodeInvalidInput, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *HirmesError {
	return New(ErrCodeInternal, message, cause)
}

// As extracts a HirmesError from anywhere in err's chain.
func As(err error) (*HirmesError, bool) {
	var he *HirmesError
	if stderrors.As(err, &he) {
		return he, true
	}
	return nil, false
}

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool {
	return GetCategory(err) == CategoryTransport
}

// IsService reports whether err is a service-side failure.
func IsService(err error) bool {
	return GetCategory(err) == CategoryService
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	he, ok := As(err)
	return ok && he.Severity == SeverityFatal
}

// GetCode extracts the error code from a HirmesError.
// Returns empty string if not a HirmesError.
func GetCode(err error) string {
	if he, ok := As(err); ok {
		return he.Code
	}
	return ""
}

// GetCategory extracts the category from a HirmesError.
// Returns empty string if not a HirmesError.
func GetCategory(err error) Category {
	if he, ok := As(err); ok {
		return he.Category
	}
	return ""
}

// UserMessage returns the text to show the user for err.
// Service errors carrying a service-supplied message are shown verbatim;
// everything else gets the fallback.
func UserMessage(err error, fallback string) string {
	if he, ok := As(err); ok && he.ServiceMessage != "" {
		return he.ServiceMessage
	}
	return fallback
}
