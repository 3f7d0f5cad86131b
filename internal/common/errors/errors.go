// Package errors provides the standardized error shape returned by the API
// and printed by the CLI.
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Scoring service errors
const (
	ErrCodeScoringServiceError ErrorCode = "SCORING_SERVICE_ERROR"
	ErrCodeScoringUnavailable  ErrorCode = "SCORING_UNAVAILABLE"
	ErrCodeInvalidPrediction   ErrorCode = "INVALID_PREDICTION"
)

// Storage errors
const (
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"
)

// Request errors
const (
	ErrCodeInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrCodeApplicationNotFound ErrorCode = "APPLICATION_NOT_FOUND"
	ErrCodeInternal            ErrorCode = "INTERNAL_ERROR"
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

// NewScoringServiceError wraps a non-2xx response from the scoring service.
func NewScoringServiceError(statusCode int, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringServiceError,
		Message:   "Scoring service returned an error",
		Details:   message,
		Retryable: statusCode >= 500,
		Metadata:  map[string]interface{}{"upstreamStatus": statusCode},
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringUnavailableError covers network failures and timeouts.
func NewScoringUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringUnavailable,
		Message:   "Scoring service could not be reached",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPredictionError covers bodies that do not match the prediction schema.
func NewInvalidPredictionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPrediction,
		Message:   "Scoring service returned a malformed prediction",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorageReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageReadFailed,
		Message:   "Stored applications could not be read",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewStorageWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStorageWriteFailed,
		Message:   "Applications could not be persisted",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewApplicationNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeApplicationNotFound,
		Message:   "Application not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeScoringServiceError, ErrCodeInvalidPrediction:
		return http.StatusBadGateway
	case ErrCodeScoringUnavailable:
		return http.StatusServiceUnavailable
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeApplicationNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	switch code {
	case ErrCodeScoringUnavailable, ErrCodeStorageReadFailed, ErrCodeStorageWriteFailed:
		return true
	}
	return false
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	c := string(code)
	switch {
	case strings.HasPrefix(c, "SCORING_"), c == string(ErrCodeInvalidPrediction):
		return "scoring"
	case strings.HasPrefix(c, "STORAGE_"):
		return "storage"
	case c == string(ErrCodeInvalidRequest), c == string(ErrCodeApplicationNotFound):
		return "client"
	default:
		return "internal"
	}
}
