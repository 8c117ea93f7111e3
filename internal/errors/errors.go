// Package errors provides custom error types for the finanzas API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, optional field-level details and
// optional internal error.
type AppError struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	StatusCode int               `json:"-"`
	Internal   error             `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WithDetails creates a new AppError carrying per-field messages.
func WithDetails(sentinel *AppError, details map[string]string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Details:    details,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidToken       = &AppError{Code: "INVALID_TOKEN", Message: "Invalid or expired token", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
	ErrAccountInactive    = &AppError{Code: "ACCOUNT_INACTIVE", Message: "Account is disabled", StatusCode: http.StatusForbidden}
	ErrAccountLocked      = &AppError{Code: "ACCOUNT_LOCKED", Message: "Account is temporarily locked", StatusCode: http.StatusLocked}
	ErrRateLimited        = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound         = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer   = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrStoreUnavailable = &AppError{Code: "STORE_UNAVAILABLE", Message: "Data store is unavailable, try again later", StatusCode: http.StatusServiceUnavailable}
)

// User and profile errors.
var (
	ErrUserNotFound     = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail   = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
	ErrPasswordMismatch = &AppError{Code: "PASSWORD_MISMATCH", Message: "Passwords do not match", StatusCode: http.StatusBadRequest}
	ErrCannotDeleteSelf = &AppError{Code: "CANNOT_DELETE_SELF", Message: "You cannot delete your own account", StatusCode: http.StatusBadRequest}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidKind         = &AppError{Code: "INVALID_TRANSACTION_KIND", Message: "Unsupported transaction kind", StatusCode: http.StatusBadRequest}
	ErrInvalidPeriod       = &AppError{Code: "INVALID_PERIOD", Message: "Invalid year or month", StatusCode: http.StatusBadRequest}
)
