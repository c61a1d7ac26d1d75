package errors

import (
	"fmt"
	"net/http"
)

// ErrorType represents different types of application errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"

	// Editor taxonomy. Precondition violations and save conflicts are
	// rejected synchronously with zero state change; persist and network
	// failures come from the plan backend.
	ErrorTypePrecondition   ErrorType = "precondition"
	ErrorTypeSaveConflict   ErrorType = "save_conflict"
	ErrorTypePersistFailure ErrorType = "persist_failure"
	ErrorTypeNetwork        ErrorType = "network_failure"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType              `json:"type"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"status_code"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Type == t
}

// NewValidationError creates a new validation error
func NewValidationError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Details:    details,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeAuthentication,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Internal:   internal,
	}
}

// NewPreconditionError rejects an illegal transition (bad drop, release
// while dirty, staging an unsplit team). The board state is untouched.
func NewPreconditionError(message string) *AppError {
	return &AppError{
		Type:       ErrorTypePrecondition,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewSaveConflictError carries the structural warning payload returned by a
// non-forced save; the caller must confirm and re-save with force.
func NewSaveConflictError(message string, details map[string]interface{}) *AppError {
	return &AppError{
		Type:       ErrorTypeSaveConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
		Details:    details,
	}
}

// NewPersistFailureError reports a failed synthetic-pair persistence after
// the local draft has been rolled back.
func NewPersistFailureError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypePersistFailure,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// NewNetworkError reports a blocking plan-backend failure (save, release,
// persist). Advisory preview/validate failures are never surfaced this way.
func NewNetworkError(message string, internal error) *AppError {
	return &AppError{
		Type:       ErrorTypeNetwork,
		Message:    message,
		StatusCode: http.StatusBadGateway,
		Internal:   internal,
	}
}

// ErrorResponse represents the JSON error response
type ErrorResponse struct {
	Error struct {
		Type      ErrorType              `json:"type"`
		Message   string                 `json:"message"`
		Details   map[string]interface{} `json:"details,omitempty"`
		RequestID string                 `json:"request_id,omitempty"`
		Timestamp string                 `json:"timestamp"`
	} `json:"error"`
}
