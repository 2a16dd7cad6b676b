package validation_test

import (
	"testing"

	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupRequest struct {
	Name                 string `json:"name" validate:"required,max=255"`
	Email                string `json:"email" validate:"required,max=255,strict_email"`
	Password             string `json:"password" validate:"required,min=8,password_policy"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type patchRequest struct {
	Title  *string `json:"title" validate:"omitnil,filled,max=10"`
	Status string  `json:"status" validate:"required,oneof=pending completed failed"`
	Amount string  `json:"amount" validate:"required,numeric"`
}

func validSignup() signupRequest {
	return signupRequest{
		Name:                 "Alice",
		Email:                "alice@example.com",
		Password:             "Secret1!",
		PasswordConfirmation: "Secret1!",
	}
}

func validate(t *testing.T, v *validation.Validator, s any) error {
	t.Helper()
	fields, err := v.Check(s)
	require.NoError(t, err)
	return fields.Err()
}

func fieldsOf(t *testing.T, err error) domainerrors.FieldErrors {
	t.Helper()
	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domainerrors.CodeValidation, domainErr.Code)
	return domainErr.Fields()
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()
	assert.NoError(t, validate(t, v, validSignup()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name    string
		mutate  func(r *signupRequest)
		field   string
		message string
	}{
		{
			name:    "missing name",
			mutate:  func(r *signupRequest) { r.Name = "" },
			field:   "name",
			message: "The name field is required.",
		},
		{
			name:    "email without tld",
			mutate:  func(r *signupRequest) { r.Email = "alice@example" },
			field:   "email",
			message: validation.MsgInvalidEmail,
		},
		{
			name:    "password too short",
			mutate:  func(r *signupRequest) { r.Password, r.PasswordConfirmation = "Aa1!", "Aa1!" },
			field:   "password",
			message: "The password field must be at least 8 characters.",
		},
		{
			name:    "password without symbol",
			mutate:  func(r *signupRequest) { r.Password, r.PasswordConfirmation = "Secret123", "Secret123" },
			field:   "password",
			message: validation.MsgPasswordPolicy,
		},
		{
			name:    "confirmation mismatch",
			mutate:  func(r *signupRequest) { r.PasswordConfirmation = "Secret2!" },
			field:   "password_confirmation",
			message: "The password confirmation field must match password.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validSignup()
			tt.mutate(&req)

			fields := fieldsOf(t, validate(t, v, req))
			assert.Contains(t, fields[tt.field], tt.message)
		})
	}
}

func TestValidator_OptionalFields(t *testing.T) {
	v := validation.New()

	// Absent optional fields are skipped entirely.
	assert.NoError(t, validate(t, v, patchRequest{Status: "pending", Amount: "19.99"}))

	blank := "   "
	fields := fieldsOf(t, validate(t, v, patchRequest{Title: &blank, Status: "pending", Amount: "1"}))
	assert.Equal(t, []string{"The title field must have a value."}, fields["title"])

	long := "a very long title"
	fields = fieldsOf(t, validate(t, v, patchRequest{Title: &long, Status: "pending", Amount: "1"}))
	assert.Equal(t, []string{"The title field must not be greater than 10 characters."}, fields["title"])
}

func TestValidator_EnumAndNumeric(t *testing.T) {
	v := validation.New()

	fields := fieldsOf(t, validate(t, v, patchRequest{Status: "refunded", Amount: "abc"}))
	assert.Equal(t, []string{"The selected status is invalid."}, fields["status"])
	assert.Equal(t, []string{"The amount field must be a number."}, fields["amount"])
}

func TestMeetsPasswordPolicy(t *testing.T) {
	tests := []struct {
		password string
		want     bool
	}{
		{"Secret1!", true},
		{"Passw0rd@Long", true},
		{"secret1!", false},  // no upper
		{"SECRET1!", false},  // no lower
		{"Secretty!", false}, // no digit
		{"Secret12", false},  // no symbol
		{"Secret1#", false},  // symbol outside the accepted set
		{"Sécret1!", false},  // non-ascii
		{"Se1!", false},      // too short
		{"Secret 1!", false}, // whitespace
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, validation.MeetsPasswordPolicy(tt.password))
		})
	}
}

func TestIsStrictEmail(t *testing.T) {
	assert.True(t, validation.IsStrictEmail("a.b+c@mail.example.org"))
	assert.False(t, validation.IsStrictEmail("a@b"))
	assert.False(t, validation.IsStrictEmail("a@b.c"))
	assert.False(t, validation.IsStrictEmail("no-at-sign.com"))
}
