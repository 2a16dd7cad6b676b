package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransactionStatus_IsValid(t *testing.T) {
	tests := []struct {
		status TransactionStatus
		valid  bool
	}{
		{TransactionPending, true},
		{TransactionCompleted, true},
		{TransactionFailed, true},
		{"refunded", false},
		{"", false},
		{"COMPLETED", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.status.IsValid())
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"19.99", "19.99"},
		{"20", "20.00"},
		{"0.1", "0.10"},
		{"10.005", "10.01"},
		{"-3.455", "-3.46"},
		{"0.1e1", "1.00"},
		{"1.5E2", "150.00"},
		{"1e-9", "0.00"},
		{"1e-400000000", "0.00"},
		{"0e999999999", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			a, err := ParseAmount(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.String())
		})
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	_, err := ParseAmount("twelve")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAmountOutOfRange)

	_, err = ParseAmount("1e400000000")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestAmount_NoFloatDrift(t *testing.T) {
	a := MustParseAmount("0.1")
	b := MustParseAmount("0.2")
	sum := Amount{d: a.Decimal().Add(b.Decimal())}

	assert.Equal(t, "0.30", sum.String())
	assert.True(t, sum.Equal(MustParseAmount("0.3")))
}

func TestAmount_JSON(t *testing.T) {
	tx := Transaction{Amount: MustParseAmount("19.9")}
	data, err := json.Marshal(tx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"amount":"19.90"`)

	var fromNumber struct {
		Amount Amount `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":19.99}`), &fromNumber))
	assert.Equal(t, "19.99", fromNumber.Amount.String())

	var fromString struct {
		Amount Amount `json:"amount"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"5"}`), &fromString))
	assert.Equal(t, "5.00", fromString.Amount.String())
}

func TestAmount_ExceedsMax(t *testing.T) {
	assert.False(t, MustParseAmount("999999.99").ExceedsMax())
	assert.True(t, MustParseAmount("1000000").ExceedsMax())
	assert.True(t, MustParseAmount("-1000000").ExceedsMax())
}
