package apperror

import (
	"fmt"
	"net/http"
)

// ConfigurationError means a required credential or setting is absent.
// The operation is never attempted.
type ConfigurationError struct {
	Missing string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s is not configured", e.Missing)
}

// ValidationError means caller input violates a precondition. Raised before
// any network call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteServiceError carries a non-2xx or malformed response from the
// provider. Headers is populated only where the full header set matters for
// diagnosis (the resumable-upload handshake).
type RemoteServiceError struct {
	StatusCode int
	Message    string
	Headers    http.Header
}

func (e *RemoteServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("remote service error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote service error (HTTP %d)", e.StatusCode)
}

// NotFoundError means a store or operation handle did not resolve. During
// polling a 404 is treated as "not yet ready", not as permanent absence.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// TransientPollError wraps a status-check failure that must NOT stop the
// poll loop. It is logged and retried on the next interval, never surfaced
// to the user.
type TransientPollError struct {
	StatusCode int
	Message    string
}

func (e *TransientPollError) Error() string {
	return fmt.Sprintf("transient poll error (HTTP %d): %s", e.StatusCode, e.Message)
}

func NewValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
