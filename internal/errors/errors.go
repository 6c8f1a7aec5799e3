// Package errors provides the structured error types used across the shell
// core and the local backend. All service- and store-layer errors use
// AppError so callers can branch on stable codes instead of message text.
package errors

import (
	"errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code (used by the gateway HTTP
// surface), and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
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

// Code extracts the stable error code from err, or "" when err is not an
// AppError.
func Code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Session & authentication errors.
var (
	ErrNotAuthenticated   = &AppError{Code: "NOT_AUTHENTICATED", Message: "No active session", StatusCode: http.StatusUnauthorized}
	ErrInvalidSession     = &AppError{Code: "INVALID_SESSION", Message: "Session token is invalid or expired", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid username or password", StatusCode: http.StatusUnauthorized}
	ErrInvalidPassword    = &AppError{Code: "INVALID_PASSWORD", Message: "Password does not meet requirements", StatusCode: http.StatusBadRequest}
	ErrDuplicateUser      = &AppError{Code: "DUPLICATE_USER", Message: "Username or email already in use", StatusCode: http.StatusConflict}
	ErrUserNotFound       = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound         = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer   = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrRemoteCallFailed = &AppError{Code: "REMOTE_CALL_FAILED", Message: "Remote command failed", StatusCode: http.StatusBadGateway}
	ErrUnknownCommand   = &AppError{Code: "UNKNOWN_COMMAND", Message: "Unknown command", StatusCode: http.StatusNotFound}
)

// Asset & group errors.
var (
	ErrAssetNotFound     = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrAssetTypeNotFound = &AppError{Code: "ASSET_TYPE_NOT_FOUND", Message: "Asset type not found", StatusCode: http.StatusNotFound}
	ErrGroupNotFound     = &AppError{Code: "GROUP_NOT_FOUND", Message: "Group not found", StatusCode: http.StatusNotFound}
	ErrDuplicateCode     = &AppError{Code: "DUPLICATE_CODE", Message: "An asset with this code already exists", StatusCode: http.StatusConflict}
	ErrDuplicateGroup    = &AppError{Code: "DUPLICATE_GROUP_NAME", Message: "A group with this name already exists", StatusCode: http.StatusConflict}
	ErrGroupTypeMismatch = &AppError{Code: "GROUP_TYPE_MISMATCH", Message: "Group does not match the asset type", StatusCode: http.StatusBadRequest}
)

// Investment plan errors.
var (
	ErrPlanNotFound     = &AppError{Code: "PLAN_NOT_FOUND", Message: "Investment plan not found", StatusCode: http.StatusNotFound}
	ErrInvalidFrequency = &AppError{Code: "INVALID_FREQUENCY", Message: "Unsupported plan frequency", StatusCode: http.StatusBadRequest}
	ErrInvalidSchedule  = &AppError{Code: "INVALID_SCHEDULE", Message: "Schedule fields do not match the plan frequency", StatusCode: http.StatusBadRequest}
)

// Import task errors.
var (
	ErrTaskNotFound     = &AppError{Code: "TASK_NOT_FOUND", Message: "Import task not found", StatusCode: http.StatusNotFound}
	ErrUnknownSource    = &AppError{Code: "UNKNOWN_SOURCE", Message: "No market adapter for this asset type and source", StatusCode: http.StatusBadRequest}
	ErrInvalidTimeRange = &AppError{Code: "INVALID_TIME_RANGE", Message: "Import start time must be before end time", StatusCode: http.StatusBadRequest}
)
