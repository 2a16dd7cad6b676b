package errors

import (
	"fmt"
	"slices"
	"sort"
)

// FieldErrors maps request field names to their human readable failures.
// The zero value is ready to use.
type FieldErrors map[string][]string

// Add appends a message for field.
func (f *FieldErrors) Add(field, msg string) {
	if *f == nil {
		*f = make(FieldErrors)
	}
	(*f)[field] = append((*f)[field], msg)
}

// Merge copies every message from other into f.
func (f *FieldErrors) Merge(other FieldErrors) {
	for field, msgs := range other {
		for _, msg := range msgs {
			f.Add(field, msg)
		}
	}
}

// Has reports whether field already has at least one message.
func (f FieldErrors) Has(field string) bool {
	return len(f[field]) > 0
}

// Empty reports whether no messages were collected.
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Summary returns the headline message for the collected failures: the
// first message in field order, plus a count of the rest. Fields missing
// from order follow it alphabetically.
func (f FieldErrors) Summary(order []string) string {
	total := 0
	first := ""
	for _, field := range f.orderedFields(order) {
		msgs := f[field]
		if first == "" && len(msgs) > 0 {
			first = msgs[0]
		}
		total += len(msgs)
	}

	switch {
	case total <= 1:
		return first
	case total == 2:
		return first + " (and 1 more error)"
	default:
		return fmt.Sprintf("%s (and %d more errors)", first, total-1)
	}
}

func (f FieldErrors) orderedFields(order []string) []string {
	fields := make([]string, 0, len(f))
	for _, field := range order {
		if _, ok := f[field]; ok && !slices.Contains(fields, field) {
			fields = append(fields, field)
		}
	}
	rest := make([]string, 0, len(f))
	for field := range f {
		if !slices.Contains(fields, field) {
			rest = append(rest, field)
		}
	}
	sort.Strings(rest)
	return append(fields, rest...)
}

// Err returns a validation *Error carrying f, or nil when f is empty.
func (f FieldErrors) Err() error {
	if f.Empty() {
		return nil
	}
	return ValidationWithDetails("validation failed", f)
}
