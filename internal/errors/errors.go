// Package errors defines the coded error type shared by the data layer,
// the bootstrap code and failure classification.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode groups failures by how operators should react to them.
type ErrorCode string

const (
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeValidation ErrorCode = "validation" // row refused by the database or the API
	ErrCodeInternal   ErrorCode = "internal"
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeCanceled   ErrorCode = "canceled"
	// ErrCodeUnavailable marks a dependency that stayed down after retrying.
	ErrCodeUnavailable ErrorCode = "unavailable"
	// ErrCodeConfiguration marks settings the process cannot start with.
	ErrCodeConfiguration ErrorCode = "configuration"
)

// AppError carries a code and an optional cause. It unwraps to Cause.
type AppError struct {
	Code    ErrorCode
	Message string
	Cause   error
	// Field is the rejected column, when the database reported one.
	Field string
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *AppError) Unwrap() error { return e.Cause }

func newf(code ErrorCode, format string, args []any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing job or resource.
func NotFoundf(format string, args ...any) *AppError {
	return newf(ErrCodeNotFound, format, args)
}

// Configurationf reports an unusable setting.
func Configurationf(format string, args ...any) *AppError {
	return newf(ErrCodeConfiguration, format, args)
}

// Unavailable wraps the last error of an exhausted retry loop.
func Unavailable(err error, message string) *AppError {
	return Wrap(err, ErrCodeUnavailable, message)
}

// Wrap attaches code and message to err. A nil err stays nil.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{Code: code, Message: message, Cause: err}
}

func asAppError(err error) (*AppError, bool) {
	var appErr *AppError
	ok := errors.As(err, &appErr)
	return appErr, ok
}

// GetCode returns the code of the outermost AppError in err's chain, or "".
func GetCode(err error) ErrorCode {
	if appErr, ok := asAppError(err); ok {
		return appErr.Code
	}
	return ""
}

// GetField returns the rejected column recorded on err, or "".
func GetField(err error) string {
	if appErr, ok := asAppError(err); ok {
		return appErr.Field
	}
	return ""
}

func IsNotFound(err error) bool      { return GetCode(err) == ErrCodeNotFound }
func IsValidation(err error) bool    { return GetCode(err) == ErrCodeValidation }
func IsTimeout(err error) bool       { return GetCode(err) == ErrCodeTimeout }
func IsCanceled(err error) bool      { return GetCode(err) == ErrCodeCanceled }
func IsUnavailable(err error) bool   { return GetCode(err) == ErrCodeUnavailable }
func IsConfiguration(err error) bool { return GetCode(err) == ErrCodeConfiguration }
