package model

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// FieldError describes one problem with one form field.
type FieldError struct {
	Field   string
	Problem string
}

func (e FieldError) Error() string { return e.Field + " " + e.Problem }

// ValidationError aggregates every FieldError found in a draft.
type ValidationError struct {
	errs *multierror.Error
}

func (e *ValidationError) Error() string { return e.errs.Error() }

func (e *ValidationError) Unwrap() []error { return e.errs.WrappedErrors() }

// Problems returns the individual field problems in field order.
func (e *ValidationError) Problems() []FieldError {
	out := make([]FieldError, 0, len(e.errs.Errors))
	for _, err := range e.errs.Errors {
		var fe FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Validate checks presence of every field and gives the email a shape check.
// The server remains the authority; this only catches obvious typos before a round-trip.
func (f Fields) Validate() error {
	f = f.Normalize()

	var result *multierror.Error
	if f.FullName == "" {
		result = multierror.Append(result, FieldError{Field: "fullName", Problem: "is required"})
	}
	switch {
	case f.Email == "":
		result = multierror.Append(result, FieldError{Field: "email", Problem: "is required"})
	case !looksLikeEmail(f.Email):
		result = multierror.Append(result, FieldError{Field: "email", Problem: "is not an email address"})
	}
	if f.PhoneNumber == "" {
		result = multierror.Append(result, FieldError{Field: "phoneNumber", Problem: "is required"})
	}

	if result.ErrorOrNil() == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		parts := make([]string, 0, len(errs))
		for _, err := range errs {
			parts = append(parts, err.Error())
		}
		return "invalid user: " + strings.Join(parts, "; ")
	}
	return &ValidationError{errs: result}
}

func looksLikeEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return false
	}
	// Reject display-name forms like "Ana <a@x.com>"; the form holds a bare address.
	return addr.Address == s
}
