// Package apperr provides structured application errors with HTTP status
// codes and OpenAI-compatible JSON rendering.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes used across the gateway. These map one-to-one onto the
// failure taxonomy handled by the request router.
const (
	CodeUnknownModel       = "unknown_model"
	CodeInvalidRequest     = "invalid_request"
	CodeNoAccountAvailable = "no_account_available"
	CodeAuthExpired        = "auth_expired"
	CodeRateLimited        = "rate_limited"
	CodeUpstreamError      = "upstream_error"
)

// AppError represents a structured application error.
type AppError struct {
	// HTTPStatusCode is the HTTP status code to return.
	HTTPStatusCode int `json:"-"`
	// Code is an internal error code string.
	Code string `json:"code"`
	// Message is the user-facing error message.
	Message string `json:"message"`
	// Err is the underlying error (not marshaled to JSON).
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// StatusCode reports the HTTP status associated with the error.
func (e *AppError) StatusCode() int {
	return e.HTTPStatusCode
}

// New creates a new AppError.
func New(statusCode int, code, message string, err error) *AppError {
	return &AppError{
		HTTPStatusCode: statusCode,
		Code:           code,
		Message:        message,
		Err:            err,
	}
}

// UnknownModel reports a request for a model id the registry does not know.
func UnknownModel(model string) *AppError {
	return New(http.StatusBadRequest, CodeUnknownModel, fmt.Sprintf("unknown model: %s", model), nil)
}

// InvalidRequest reports a client body that failed to parse.
func InvalidRequest(err error) *AppError {
	return New(http.StatusBadRequest, CodeInvalidRequest, "invalid request body", err)
}

// NoAccountAvailable reports an empty rotation pool for a provider.
func NoAccountAvailable(provider string) *AppError {
	return New(http.StatusServiceUnavailable, CodeNoAccountAvailable, fmt.Sprintf("no account available for provider %s", provider), nil)
}

// AuthExpired reports a credential refresh failure.
func AuthExpired(err error) *AppError {
	return New(http.StatusUnauthorized, CodeAuthExpired, "credential expired and refresh failed", err)
}

// statusCoder is implemented by errors that carry an HTTP status.
type statusCoder interface {
	StatusCode() int
}

// StatusOf extracts the HTTP status carried by err, defaulting to 500.
func StatusOf(err error) int {
	var sc statusCoder
	if errors.As(err, &sc) {
		return sc.StatusCode()
	}
	return http.StatusInternalServerError
}

// ToOpenAIJSON renders err as an OpenAI-style error body:
// {"error":{"message":..., "type":"api_error", "code":...}}.
func ToOpenAIJSON(err error) []byte {
	status := StatusOf(err)
	message := "internal error"
	if err != nil {
		message = err.Error()
	}
	body := map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "api_error",
			"code":    status,
		},
	}
	data, errMarshal := json.Marshal(body)
	if errMarshal != nil {
		return []byte(`{"error":{"message":"internal error","type":"api_error","code":500}}`)
	}
	return data
}
