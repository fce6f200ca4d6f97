// Package validate produces field-level validation errors.
package validate

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalid is wrapped by every FieldError.
var ErrInvalid = errors.New("validation failed")

// FieldError names the offending field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return ErrInvalid
}

// Field builds a FieldError.
func Field(field, message string) error {
	return &FieldError{Field: field, Message: message}
}

// Required fails when v is blank.
func Required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return Field(field, field+" is required")
	}
	return nil
}

// Email fails when v is not a bare e-mail address. Blank values pass; pair
// with Required when the field is mandatory.
func Email(field, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return Field(field, "must be a valid email address")
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// AsField extracts the FieldError from err.
func AsField(err error) (*FieldError, bool) {
	var fe *FieldError
	ok := errors.As(err, &fe)
	return fe, ok
}
