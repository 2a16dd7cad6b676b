// Package validation provides declarative request validation on top of validator/v10.
//
// Requests are plain structs whose `validate` tags enumerate the per-field rules.
// Failures come back as field→messages maps worded for API clients.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
)

// Custom tags registered by New.
const (
	TagStrictEmail    = "strict_email"
	TagPasswordPolicy = "password_policy"
	TagFilled         = "filled"
)

// Messages shared with services that raise the same failures outside of struct tags.
const (
	MsgInvalidEmail   = "Please enter a valid email address."
	MsgPasswordPolicy = "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character."
)

// PasswordSymbols is the set of symbols accepted (and one of which is required) in passwords.
const PasswordSymbols = "@$!%*?&"

var strictEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		// Remove options like omitempty, -
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation(TagStrictEmail, func(fl validator.FieldLevel) bool {
		return IsStrictEmail(fl.Field().String())
	})
	_ = v.RegisterValidation(TagPasswordPolicy, func(fl validator.FieldLevel) bool {
		return MeetsPasswordPolicy(fl.Field().String())
	})
	_ = v.RegisterValidation(TagFilled, func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Check validates a struct and returns the collected field messages.
// The error is non-nil only when s cannot be validated at all.
func (v *Validator) Check(s any) (domainerrors.FieldErrors, error) {
	err := v.v.Struct(s)
	if err == nil {
		return nil, nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return nil, err
	}

	var fields domainerrors.FieldErrors
	for _, e := range validationErrs {
		fields.Add(e.Field(), friendlyMessage(e))
	}
	return fields, nil
}

// IsStrictEmail reports whether s looks like a deliverable address
// (local part, domain, and an alphabetic TLD of two or more letters).
func IsStrictEmail(s string) bool {
	return strictEmailPattern.MatchString(s)
}

// MeetsPasswordPolicy reports whether password is at least 8 characters drawn
// from letters, digits and PasswordSymbols, with one of each class present.
func MeetsPasswordPolicy(password string) bool {
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			return false
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(PasswordSymbols, r):
			hasSymbol = true
		default:
			return false
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// DisplayName turns a field key such as "category_id" into "category id".
func DisplayName(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

//nolint:gocyclo // Switch statement covering validation tags is intentionally exhaustive.
func friendlyMessage(e validator.FieldError) string {
	name := DisplayName(e.Field())

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case TagFilled:
		return fmt.Sprintf("The %s field must have a value.", name)
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", name)
	case TagStrictEmail:
		return MsgInvalidEmail
	case TagPasswordPolicy:
		return MsgPasswordPolicy
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", name, e.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", name, e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", name, e.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", name, e.Param())
	case "numeric", "number":
		return fmt.Sprintf("The %s field must be a number.", name)
	case "oneof", "gt", "gte":
		return fmt.Sprintf("The selected %s is invalid.", name)
	case "eqfield":
		return fmt.Sprintf("The %s field must match %s.", name, DisplayName(toSnake(e.Param())))
	case "url":
		return fmt.Sprintf("The %s field must be a valid URL.", name)
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}

// toSnake converts a Go field name like "PasswordConfirmation" to "password_confirmation".
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
