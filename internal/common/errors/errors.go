package errors

import (
	"fmt"
	"time"
)

// ErrorCode identifies an application error class on the wire.
type ErrorCode string

const (
	ErrCodeInternal   ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound   ErrorCode = "NOT_FOUND"
	ErrCodeConflict   ErrorCode = "CONFLICT"
	ErrCodeBadRequest ErrorCode = "BAD_REQUEST"

	ErrCodeAirdropNotFound    ErrorCode = "AIRDROP_NOT_FOUND"
	ErrCodeUserNotFound       ErrorCode = "USER_NOT_FOUND"
	ErrCodeWithdrawalNotFound ErrorCode = "WITHDRAWAL_NOT_FOUND"
	ErrCodeTaskNotFound       ErrorCode = "TASK_NOT_FOUND"

	ErrCodeInvalidWallet     ErrorCode = "INVALID_WALLET"
	ErrCodeTaskCompleted     ErrorCode = "TASK_ALREADY_COMPLETED"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_POINTS"
	ErrCodeBelowMinimum      ErrorCode = "BELOW_MINIMUM_WITHDRAWAL"
	ErrCodeWithdrawalLimit   ErrorCode = "WITHDRAWAL_LIMIT_REACHED"
	ErrCodeMaintenance       ErrorCode = "MAINTENANCE_MODE"

	ErrCodeStorage         ErrorCode = "STORAGE_ERROR"
	ErrCodeStorageNotReady ErrorCode = "STORAGE_NOT_READY"
)

// AppError is the typed application error carried from services up to the
// HTTP layer.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether the error maps to HTTP 404.
func (e *AppError) IsNotFound() bool {
	switch e.Code {
	case ErrCodeNotFound, ErrCodeAirdropNotFound, ErrCodeUserNotFound,
		ErrCodeWithdrawalNotFound, ErrCodeTaskNotFound:
		return true
	}
	return false
}

// IsConflict reports whether the error maps to HTTP 409.
func (e *AppError) IsConflict() bool {
	switch e.Code {
	case ErrCodeConflict, ErrCodeTaskCompleted, ErrCodeInsufficientFunds,
		ErrCodeBelowMinimum, ErrCodeWithdrawalLimit:
		return true
	}
	return false
}

// IsValidation reports whether the error maps to HTTP 400.
func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeBadRequest ||
		e.Code == ErrCodeInvalidWallet
}

// IsUnavailable reports whether the error maps to HTTP 503.
func (e *AppError) IsUnavailable() bool {
	return e.Code == ErrCodeMaintenance || e.Code == ErrCodeStorageNotReady
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the common cases.

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	code := ErrCodeNotFound
	switch resource {
	case "airdrop":
		code = ErrCodeAirdropNotFound
	case "user":
		code = ErrCodeUserNotFound
	case "withdrawal":
		code = ErrCodeWithdrawalNotFound
	case "task":
		code = ErrCodeTaskNotFound
	}
	return New(code, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("Storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewConflictError(resource, reason string) *AppError {
	return New(ErrCodeConflict, fmt.Sprintf("Conflict with %s: %s", resource, reason)).
		WithDetail("resource", resource).
		WithDetail("reason", reason)
}

// AsAppError casts err to AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
