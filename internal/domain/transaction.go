package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the lifecycle state of a transaction.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionFailed    TransactionStatus = "failed"
)

// IsValid reports whether s is one of the accepted statuses.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionPending, TransactionCompleted, TransactionFailed:
		return true
	default:
		return false
	}
}

// Transaction records a monetary event between a user and a book.
type Transaction struct {
	ID     int64             `json:"id"`
	UserID int64             `json:"user_id"`
	BookID int64             `json:"book_id"`
	Type   string            `json:"transaction_type"`
	Amount Amount            `json:"amount"`
	Status TransactionStatus `json:"status"`
	Timestamps
}

// AmountScale is the number of fractional digits kept for amounts.
const AmountScale = 2

// MaxAmount is the largest magnitude an amount may hold (eight digits, two of them fractional).
var MaxAmount = decimal.RequireFromString("999999.99")

// Amount is a fixed-point money value with two fractional digits.
// The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// ErrAmountOutOfRange is returned by ParseAmount for values far beyond MaxAmount.
var ErrAmountOutOfRange = errors.New("amount out of range")

// maxAmountExponent bounds the exponent of a nonzero amount; anything above
// is at least 10^maxAmountExponent and cannot fit.
const maxAmountExponent = 16

// ParseAmount parses a decimal string, rounding half away from zero to two places.
// Exponent notation ("1.5e2") is accepted.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}

	// Rounding rescales the coefficient, so extreme exponents are settled
	// before it runs.
	exp := int(d.Exponent())
	switch {
	case d.IsZero():
		return Amount{}, nil
	case exp > maxAmountExponent:
		return Amount{}, fmt.Errorf("parse amount %q: %w", s, ErrAmountOutOfRange)
	case exp < -(len(s) + AmountScale + 1):
		// |d| < 10^(len(s)+exp), which rounds to zero.
		return Amount{}, nil
	}
	return Amount{d: d.Round(AmountScale)}, nil
}

// MustParseAmount is like ParseAmount but panics on malformed input.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// String renders the amount with exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(AmountScale)
}

// Equal reports whether two amounts hold the same value.
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

// ExceedsMax reports whether the magnitude is larger than MaxAmount.
func (a Amount) ExceedsMax() bool {
	return a.d.Abs().GreaterThan(MaxAmount)
}

// MarshalJSON renders the amount as a quoted two-decimal string, e.g. "19.99".
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON number or a numeric string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	a.d = d.Round(AmountScale)
	return nil
}
