// Package service implements the bookstore's business operations.
//
// Every operation receives the authenticated caller explicitly; nothing is
// read from ambient request state. Validation failures come back as
// *errors.Error values with CodeValidation and a FieldErrors detail map.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/listenupapp/bookstore-server/internal/domain"
	domainerrors "github.com/listenupapp/bookstore-server/internal/errors"
	"github.com/listenupapp/bookstore-server/internal/media/files"
	"github.com/listenupapp/bookstore-server/internal/store"
	"github.com/listenupapp/bookstore-server/internal/validation"
)

// Principal is the authenticated caller of a request.
type Principal struct {
	User    *domain.User
	TokenID string
}

// UserID returns the caller's user ID, or 0 for an anonymous caller.
func (p *Principal) UserID() int64 {
	if p == nil || p.User == nil {
		return 0
	}
	return p.User.ID
}

// Upload is a file received with a request, read fully into memory.
type Upload struct {
	Filename string
	Data     []byte
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}

func orNewValidator(v *validation.Validator) *validation.Validator {
	if v == nil {
		return validation.New()
	}
	return v
}

// validationFailed turns collected field messages into a validation error whose
// message summarizes them in the given field order.
func validationFailed(fields domainerrors.FieldErrors, order ...string) error {
	if fields.Empty() {
		return nil
	}
	return domainerrors.ValidationWithDetails(fields.Summary(order), fields)
}

// check runs struct-tag validation and returns the collected messages.
func check(v *validation.Validator, req any) (domainerrors.FieldErrors, error) {
	fields, err := v.Check(req)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "validate request")
	}
	return fields, nil
}

// parseID parses a positive integer identifier from form input.
func parseID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// nullIfEmpty maps an empty form value to SQL NULL.
func nullIfEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// referenceExists validates an ID field that must point at an existing row.
// It records "The selected <field> is invalid." when it does not and returns
// the parsed ID otherwise.
func referenceExists(
	ctx context.Context,
	fields *domainerrors.FieldErrors,
	field, raw string,
	exists func(context.Context, int64) (bool, error),
) (int64, error) {
	if fields.Has(field) {
		return 0, nil
	}
	id, ok := parseID(raw)
	if ok {
		found, err := exists(ctx, id)
		if err != nil {
			return 0, domainerrors.Wrapf(err, domainerrors.CodeInternal, "check %s", field)
		}
		ok = found
	}
	if !ok {
		fields.Add(field, "The selected "+validation.DisplayName(field)+" is invalid.")
		return 0, nil
	}
	return id, nil
}

// checkUpload applies rule to an optional upload.
func checkUpload(fields *domainerrors.FieldErrors, field string, up *Upload, rule files.Rule) {
	if up == nil {
		return
	}
	if _, violation := rule.Check(up.Data); violation != files.ViolationNone {
		fields.Add(field, rule.Message(validation.DisplayName(field), violation))
	}
}

// notFoundOr maps store.ErrNotFound to a domain not-found with msg and
// wraps anything else as internal.
func notFoundOr(err error, msg, op string) error {
	if errors.Is(err, store.ErrNotFound) {
		return domainerrors.NotFound(msg)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, op)
}
