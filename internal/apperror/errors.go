// Package apperror defines the error codes surfaced to API clients and the
// error type services use to carry them to the HTTP boundary.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable, machine-readable error identifier.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeOutOfStock         Code = "OUT_OF_STOCK"
	CodeCartEmpty          Code = "CART_EMPTY"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeAccountLocked      Code = "ACCOUNT_LOCKED"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeForbidden          Code = "FORBIDDEN"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is a classified failure. Details carries field-level information for
// validation errors and is omitted otherwise.
type Error struct {
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error's code.
func (e *Error) Status() int {
	return HTTPStatus(e.Code)
}

// New creates an error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error with the given code that keeps err as its cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func NotFound(format string, args ...any) *Error {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func Validation(message string, details map[string]string) *Error {
	return &Error{Code: CodeValidation, Message: message, Details: details}
}

func OutOfStock(format string, args ...any) *Error {
	return New(CodeOutOfStock, fmt.Sprintf(format, args...))
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message)
}

func Internal(message string, err error) *Error {
	return Wrap(CodeInternal, message, err)
}

// ErrCartEmpty, ErrInvalidCredentials and ErrAccountLocked carry no per-call data.
var (
	ErrCartEmpty          = New(CodeCartEmpty, "Cart is empty")
	ErrInvalidCredentials = New(CodeInvalidCredentials, "Invalid username or password")
	ErrAccountLocked      = New(CodeAccountLocked, "Sorry, this user has been locked out")
)

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of err, or CodeInternal when err is unclassified.
func CodeOf(err error) Code {
	if appErr, ok := As(err); ok {
		return appErr.Code
	}
	return CodeInternal
}

// HTTPStatus maps a code to its HTTP status.
func HTTPStatus(code Code) int {
	switch code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeValidation, CodeOutOfStock, CodeCartEmpty:
		return http.StatusBadRequest
	case CodeInvalidCredentials, CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeAccountLocked, CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
