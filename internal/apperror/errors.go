package apperror

import (
	"errors"
	"fmt"
)

// AppError is the error shape surfaced to the boundary layer. Reason is the
// stable identity of the condition; Message is the human-readable text.
type AppError struct {
	Code    Code   `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches on Reason so parametrised errors match their sentinel
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Reason == t.Reason
}

// Constructors
func New(code Code, reason, message string) error {
	return &AppError{Code: code, Reason: reason, Message: message}
}

func Wrap(code Code, reason, message string, cause error) error {
	return &AppError{Code: code, Reason: reason, Message: message, Cause: cause}
}

func InvalidArg(reason, msg string) error {
	return New(CodeInvalidArgument, reason, msg)
}

func NotFound(reason, msg string) error {
	return New(CodeNotFound, reason, msg)
}

func Conflict(reason, msg string) error {
	return New(CodeConflict, reason, msg)
}

func Forbidden(reason, msg string) error {
	return New(CodeForbidden, reason, msg)
}

func Unauthenticated(reason, msg string) error {
	return New(CodeUnauthenticated, reason, msg)
}

// Unavailable wraps a backing store or push channel failure
func Unavailable(msg string, cause error) error {
	return Wrap(CodeUnavailable, "UNAVAILABLE", msg, cause)
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal for anything else.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// ReasonOf returns the stable reason of err, or "INTERNAL"
func ReasonOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Reason
	}
	return "INTERNAL"
}

// MessageOf returns the human-readable message of err without its cause, or
// a generic text for anything that is not an AppError.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}
