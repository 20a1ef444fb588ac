// Package errors defines the application error taxonomy and its user-facing messages.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Error codes, grouped by class.
const (
	CodeValidation   = "E100"
	CodeStorage      = "E200"
	CodeTransport    = "E300"
	CodeHTTPStatus   = "E310"
	CodeCircuitOpen  = "E320"
	CodeStateError   = "E400"
	CodeUnauthorized = "E401"
	CodeForbidden    = "E403"
	CodeRateLimit    = "E500"
)

// ErrUnauthorized matches any AppError carrying CodeUnauthorized via errors.Is.
var ErrUnauthorized = &AppError{Code: CodeUnauthorized}

// AppError is the error type surfaced to handlers. MessageKey is an i18n key;
// UserMessage is the English fallback when no translation exists.
type AppError struct {
	Code        string
	Message     string
	MessageKey  string
	UserMessage string
	Severity    Severity
	Retryable   bool
	Status      int
	Args        map[string]string
	cause       error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

// Is matches on Code so sentinel values like ErrUnauthorized work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code != "" && t.Code == e.Code
}

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:        CodeValidation,
		Message:     msg,
		MessageKey:  "errors.validation",
		UserMessage: fmt.Sprintf("Invalid input. %s", msg),
		Severity:    SeverityLow,
	}
}

// NewFieldError is a validation error with its own translation key and template args.
func NewFieldError(key, msg string, args map[string]string) *AppError {
	err := NewValidationError(msg)
	err.MessageKey = key
	err.UserMessage = msg
	err.Args = args
	return err
}

func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:        CodeStorage,
		Message:     fmt.Sprintf("storage error: %s", underlyingMsg),
		MessageKey:  "errors.temporary",
		UserMessage: "Temporary problem, please try again later.",
		Severity:    SeverityHigh,
		Retryable:   true,
		cause:       cause,
	}
}

// NewTransportError covers requests that never produced an HTTP response.
func NewTransportError(endpoint string, cause error) *AppError {
	return &AppError{
		Code:        CodeTransport,
		Message:     fmt.Sprintf("request %s failed: %v", endpoint, cause),
		MessageKey:  "errors.request_failed",
		UserMessage: "Request failed. Check your connection and try again.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

// NewHTTPError covers non-2xx responses. serverMsg is the backend's JSON message, if any.
func NewHTTPError(endpoint string, status int, serverMsg string) *AppError {
	switch status {
	case http.StatusUnauthorized:
		return NewUnauthorizedError(endpoint)
	case http.StatusForbidden:
		return &AppError{
			Code:        CodeForbidden,
			Message:     fmt.Sprintf("request %s forbidden", endpoint),
			MessageKey:  "errors.forbidden",
			UserMessage: orFallback(serverMsg, "You do not have access to this section."),
			Severity:    SeverityLow,
			Status:      status,
		}
	}

	userMsg := serverMsg
	key := "errors.server_message"
	if userMsg == "" {
		userMsg = fmt.Sprintf("Server error (%d)", status)
		key = "errors.server_status"
	}

	severity := SeverityLow
	if status >= http.StatusInternalServerError {
		severity = SeverityMedium
	}

	return &AppError{
		Code:        CodeHTTPStatus,
		Message:     fmt.Sprintf("request %s returned %d: %s", endpoint, status, serverMsg),
		MessageKey:  key,
		UserMessage: userMsg,
		Severity:    severity,
		Retryable:   status >= http.StatusInternalServerError || status == http.StatusTooManyRequests,
		Status:      status,
		Args:        map[string]string{"Status": fmt.Sprint(status), "Message": serverMsg},
	}
}

func NewUnauthorizedError(endpoint string) *AppError {
	return &AppError{
		Code:        CodeUnauthorized,
		Message:     fmt.Sprintf("request %s unauthorized", endpoint),
		MessageKey:  "errors.session_expired",
		UserMessage: "Your session has ended. Please log in again.",
		Severity:    SeverityLow,
		Status:      http.StatusUnauthorized,
	}
}

func NewCircuitOpenError(cause error) *AppError {
	return &AppError{
		Code:        CodeCircuitOpen,
		Message:     "backend circuit open",
		MessageKey:  "errors.unavailable",
		UserMessage: "The service is temporarily unavailable.",
		Severity:    SeverityMedium,
		Retryable:   true,
		cause:       cause,
	}
}

func NewStateError(msg string) *AppError {
	return &AppError{
		Code:        CodeStateError,
		Message:     msg,
		MessageKey:  "errors.state",
		UserMessage: "This action is not available right now.",
		Severity:    SeverityMedium,
	}
}

func NewRateLimitError(retryAfter int) *AppError {
	return &AppError{
		Code:        CodeRateLimit,
		Message:     fmt.Sprintf("rate limit exceeded: retry after %d seconds", retryAfter),
		MessageKey:  "errors.rate_limited",
		UserMessage: fmt.Sprintf("Too many requests. Try again in %d seconds.", retryAfter),
		Severity:    SeverityLow,
		Args:        map[string]string{"Seconds": fmt.Sprint(retryAfter)},
	}
}

// IsUnauthorized reports whether err is (or wraps) a 401 from the backend.
func IsUnauthorized(err error) bool {
	return stdErrors.Is(err, ErrUnauthorized)
}

// As is errors.As for *AppError.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stdErrors.As(err, &appErr) && appErr != nil {
		return appErr, true
	}
	return nil, false
}

func orFallback(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
