// Package apperrors defines the error taxonomy shared by services and the
// HTTP layer. Services return *Error values; handlers map Kind to a status.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindSignature
)

type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth, KindSignature:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// With attaches an extra response field and returns the same error.
func (e *Error) With(key string, value any) *Error {
	if e.Fields == nil {
		e.Fields = map[string]any{}
	}
	e.Fields[key] = value
	return e
}

func Validation(message string) *Error { return &Error{Kind: KindValidation, Message: message} }
func Auth(message string) *Error       { return &Error{Kind: KindAuth, Message: message} }
func Forbidden(message string) *Error  { return &Error{Kind: KindForbidden, Message: message} }
func NotFound(message string) *Error   { return &Error{Kind: KindNotFound, Message: message} }
func Conflict(message string) *Error   { return &Error{Kind: KindConflict, Message: message} }
func Signature(message string) *Error  { return &Error{Kind: KindSignature, Message: message} }

func Server(message string, err error) *Error {
	return &Error{Kind: KindServer, Message: message, Err: err}
}

// As extracts an *Error from err. Anything else is reported as a server error.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Server("internal server error", err)
}

func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
