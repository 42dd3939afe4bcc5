package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error by how callers are expected to react to it.
type Kind string

const (
	// KindContention is the expected outcome of competing for the same seats. Retryable by the caller.
	KindContention Kind = "CONTENTION"
	// KindValidation is a rejected request that will fail again if repeated unchanged.
	KindValidation Kind = "VALIDATION"
	// KindNotFound signals a stale or unknown reference.
	KindNotFound Kind = "NOT_FOUND"
	// KindUnauthorized and KindForbidden are produced at the HTTP edge only.
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindForbidden    Kind = "FORBIDDEN"
	// KindFatal is an infrastructure failure; the true state of the system is unknown.
	KindFatal Kind = "FATAL"
)

const CodeInternal = "INTERNAL_ERROR"

// Error is the typed error returned by every engine component.
type Error struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so that sentinel errors compare equal to their detailed copies.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a sentinel error.
func New(kind Kind, code, message string) *Error {
	return &Error{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of e carrying details. Sentinels are never mutated.
func (e *Error) WithDetails(details map[string]any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// WithMessage returns a copy of e with a more specific message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

func Contention(code, message string) *Error {
	return New(KindContention, code, message)
}

func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

func Unauthorized(message string) *Error {
	return New(KindUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(message string) *Error {
	return New(KindForbidden, "FORBIDDEN", message)
}

// Fatal wraps an infrastructure failure.
func Fatal(err error, message string) *Error {
	return &Error{
		Kind:    KindFatal,
		Code:    CodeInternal,
		Message: message,
		Err:     err,
	}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf reports the kind of err. Unclassified errors are fatal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindFatal
}

func IsContention(err error) bool {
	return KindOf(err) == KindContention
}

func IsFatal(err error) bool {
	return KindOf(err) == KindFatal
}
