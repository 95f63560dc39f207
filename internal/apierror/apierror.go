// Package apierror defines the error envelopes returned to API clients.
// Every 4xx/5xx response goes through it so that internal detail (SQL errors,
// stack traces) never reaches the wire.
package apierror

// APIError is the canonical envelope for error responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field binding/validation failures.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Error de validacion", Fields: fields}
}
