package errors

import (
	stderrors "errors"
	"time"
)

// ErrorHandler normalizes and logs errors at the edge of the API and CLI.
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle converts err into a StandardError and logs it. Client errors are
// logged at warn level, everything else at error level.
func (h *ErrorHandler) Handle(operation string, err error) *StandardError {
	stdErr := Normalize(err)

	fields := map[string]interface{}{
		"operation":    operation,
		"errorCode":    stdErr.Code,
		"errorMessage": stdErr.Message,
		"errorDetails": stdErr.Details,
		"retryable":    stdErr.Retryable,
		"category":     GetErrorCategory(stdErr.Code),
	}
	if GetErrorCategory(stdErr.Code) == "client" {
		h.logger.Warn("request rejected", fields)
	} else {
		h.logger.Error("operation failed", fields)
	}
	return stdErr
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
