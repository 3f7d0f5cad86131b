package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedResponse marks a 2xx body that does not match the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// ServiceError is a non-2xx response from the scoring service.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("scoring service error (%d): %s", e.StatusCode, e.Message)
}

// TransportError means the call did not produce a usable response: network
// failure, cancellation, unreadable or malformed body. It has no status code.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("scoring %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsServiceError reports whether err is, or wraps, a *ServiceError.
func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// errorMessage extracts a best-effort message from an error body:
// {"error": "..."} first, then a string {"detail": "..."}, else "HTTP <status>".
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error  interface{} `json:"error"`
		Detail interface{} `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if s, ok := payload.Error.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
		if s, ok := payload.Detail.(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}
