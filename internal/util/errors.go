package util

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindBadRequest ErrorKind = iota + 1
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindConflict
	// KindDomain marks a value-object invariant violation, e.g. an empty identifier.
	KindDomain
)

func (k ErrorKind) Status() int {
	switch k {
	case KindBadRequest, KindDomain:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AppError is the business error returned by services. Fields carries
// field-level validation messages.
type AppError struct {
	Kind   ErrorKind
	Msg    string
	Fields map[string]string
	Cause  error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Cause)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Cause }

func NewAppError(kind ErrorKind, format string, args ...interface{}) error {
	return &AppError{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

func BadRequest(format string, args ...interface{}) error {
	return NewAppError(KindBadRequest, format, args...)
}

func NotFound(format string, args ...interface{}) error {
	return NewAppError(KindNotFound, format, args...)
}

func Domain(format string, args ...interface{}) error {
	return NewAppError(KindDomain, format, args...)
}

// Unauthorized keeps cause in the chain so callers can still errors.Is on sentinels.
func Unauthorized(cause error, msg string) error {
	return &AppError{Kind: KindUnauthorized, Msg: msg, Cause: cause}
}

func Validation(fields map[string]string) error {
	return &AppError{
		Kind:   KindBadRequest,
		Msg:    "La requête contient des données invalides",
		Fields: fields,
	}
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsKind(err error, kind ErrorKind) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Kind == kind
}
