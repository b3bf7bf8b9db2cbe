package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	ErrNotFound     ErrorCode = "NOT_FOUND"
	ErrPermission   ErrorCode = "PERMISSION"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigParse ErrorCode = "CONFIG_PARSE"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"

	// Catalog errors
	ErrTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrTemplateInvalid  ErrorCode = "TEMPLATE_INVALID"
	ErrCatalogMissing   ErrorCode = "CATALOG_MISSING"
	ErrCatalogEmpty     ErrorCode = "CATALOG_EMPTY"

	// Probe errors
	ErrProbe ErrorCode = "PROBE"

	// Planner/executor errors
	ErrConflictUnresolved ErrorCode = "CONFLICT_UNRESOLVED"
	ErrMutation           ErrorCode = "MUTATION"
	ErrSymlinkCreate      ErrorCode = "SYMLINK_CREATE"
	ErrCopyWrite          ErrorCode = "COPY_WRITE"
	ErrDirCreate          ErrorCode = "DIR_CREATE"

	// Script errors
	ErrScriptFailed  ErrorCode = "SCRIPT_FAILED"
	ErrScriptTimeout ErrorCode = "SCRIPT_TIMEOUT"

	// Ledger errors
	ErrLedgerRead  ErrorCode = "LEDGER_READ"
	ErrLedgerWrite ErrorCode = "LEDGER_WRITE"

	// Repository errors
	ErrRepoSync   ErrorCode = "REPO_SYNC"
	ErrRepoConfig ErrorCode = "REPO_CONFIG"

	// FileSystem errors
	ErrFileNotFound ErrorCode = "FILE_NOT_FOUND"
	ErrFileAccess   ErrorCode = "FILE_ACCESS"
)

// TemplinkError represents a structured error with code and details
type TemplinkError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *TemplinkError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *TemplinkError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *TemplinkError) Is(target error) bool {
	var targetErr *TemplinkError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new TemplinkError with the given code and message
func New(code ErrorCode, message string) *TemplinkError {
	return &TemplinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new TemplinkError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *TemplinkError {
	return &TemplinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a TemplinkError
func Wrap(err error, code ErrorCode, message string) *TemplinkError {
	if err == nil {
		return nil
	}
	return &TemplinkError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *TemplinkError {
	if err == nil {
		return nil
	}
	return &TemplinkError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *TemplinkError) WithDetail(key string, value interface{}) *TemplinkError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var terr *TemplinkError
	if errors.As(err, &terr) {
		return terr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a TemplinkError
func GetErrorCode(err error) ErrorCode {
	var terr *TemplinkError
	if errors.As(err, &terr) {
		return terr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a TemplinkError
func GetErrorDetails(err error) map[string]interface{} {
	var terr *TemplinkError
	if errors.As(err, &terr) {
		return terr.Details
	}
	return nil
}
