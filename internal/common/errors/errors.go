// Package errors provides standardized error handling for the QAA service.
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	ErrCodeModelUnavailable     ErrorCode = "MODEL_UNAVAILABLE"
	ErrCodeModelTimeout         ErrorCode = "MODEL_TIMEOUT"
	ErrCodeModelInvalidResponse ErrorCode = "MODEL_INVALID_RESPONSE"

	ErrCodeAnalysisNotFound ErrorCode = "ANALYSIS_NOT_FOUND"

	ErrCodeAuditWriteFailed ErrorCode = "AUDIT_WRITE_FAILED"
	ErrCodeAuditReadFailed  ErrorCode = "AUDIT_READ_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable input validation error.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request payload validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelUnavailableError creates a retryable downstream model error. It is
// raised when the narrative client exhausted its attempt and candidate budget.
func NewModelUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelUnavailable,
		Message:   "Generative model unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelTimeoutError creates a retryable model timeout error.
func NewModelTimeoutError(model string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelTimeout,
		Message:   "Generative model call timed out",
		Details:   fmt.Sprintf("model: %s", model),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewModelInvalidResponseError creates a non-retryable error for malformed or
// schema-invalid model output.
func NewModelInvalidResponseError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelInvalidResponse,
		Message:   "Generative model returned an invalid qualitative report",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAnalysisNotFoundError creates a non-retryable lookup error.
func NewAnalysisNotFoundError(analysisID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAnalysisNotFound,
		Message:   "Analysis not found or auditing disabled",
		Details:   fmt.Sprintf("analysisId: %s", analysisID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditWriteFailedError creates a retryable audit persistence error.
// Audit failures are logged at the call site and never escalated.
func NewAuditWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditWriteFailed,
		Message:   "Audit record write failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuditReadFailedError creates a retryable audit lookup error.
func NewAuditReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAuditReadFailed,
		Message:   "Audit record read failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected failure. Details are kept for logs and
// audit records; HTTP responses surface only the generic message.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Internal server error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus maps an error code to the HTTP status the API surface returns.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeModelUnavailable, ErrCodeModelTimeout, ErrCodeModelInvalidResponse:
		return http.StatusServiceUnavailable
	case ErrCodeAnalysisNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// AsStandardError extracts a *StandardError from err, wrapping unknown errors
// as internal ones so every failure carries a code.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsDownstream reports whether the error came from the generative model path.
func IsDownstream(err error) bool {
	stdErr := AsStandardError(err)
	switch stdErr.Code {
	case ErrCodeModelUnavailable, ErrCodeModelTimeout, ErrCodeModelInvalidResponse:
		return true
	}
	return false
}
