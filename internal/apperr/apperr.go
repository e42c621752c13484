// Package apperr defines the typed failures surfaced by the booking core and
// the stable error codes the transport exposes for them.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the machine-readable error code returned to clients.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindBusinessRule Kind = "business_rule_error"
	KindAuth         Kind = "auth_error"
	KindValidation   Kind = "validation_error"
	KindUnexpected   Kind = "unexpected_error"
)

// Error is a classified failure with a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError // validation_error only
}

// FieldError names one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func BusinessRule(msg string) error { return &Error{Kind: KindBusinessRule, Message: msg} }
func Auth(msg string) error         { return &Error{Kind: KindAuth, Message: msg} }

// Validation builds a validation_error carrying per-field details.
func Validation(fields ...FieldError) error {
	return &Error{Kind: KindValidation, Message: "Validation error.", Fields: fields}
}

// As extracts the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies err. Untyped errors are unexpected.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindUnexpected
}

// Status maps a kind to its HTTP status code.
func Status(k Kind) int {
	switch k {
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindBusinessRule:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindValidation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
