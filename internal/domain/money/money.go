// Package money holds the exact decimal amount type used for every billing value.
//
// Amounts are never represented as binary floating point. Arithmetic keeps the full
// precision of shopspring/decimal and rounding happens only when a value leaves the
// ledger (line amounts, totals, JSON and storage output): half away from zero to
// two places, which is round-half-up for the non-negative amounts a workshop bills.
package money

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places of a rounded amount.
const Scale = 2

// Money is an immutable decimal amount without currency semantics.
type Money struct {
	amount decimal.Decimal
}

// Zero is the zero amount.
var Zero = Money{}

// New wraps d without rounding it.
func New(d decimal.Decimal) Money {
	return Money{amount: d}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Money {
	return Money{amount: decimal.New(cents, -Scale)}
}

// Parse reads a decimal string such as "10.00" or "0.025".
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Money{amount: d}, nil
}

// MustParse is Parse for literals known to be valid.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Decimal() decimal.Decimal { return m.amount }

func (m Money) Add(o Money) Money { return Money{amount: m.amount.Add(o.amount)} }

func (m Money) Sub(o Money) Money { return Money{amount: m.amount.Sub(o.amount)} }

// Mul multiplies by an exact factor (a quantity or a rate). The result is not rounded.
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// Round applies the output rounding rule.
func (m Money) Round() Money {
	return Money{amount: m.amount.Round(Scale)}
}

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Equal compares numerically, so 10 equals 10.00.
func (m Money) Equal(o Money) bool { return m.amount.Equal(o.amount) }

// String renders the rounded amount with exactly two places.
func (m Money) String() string { return m.amount.StringFixed(Scale) }

// Exact renders every retained digit; used where precision must survive a round trip.
func (m Money) Exact() string { return m.amount.String() }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts "12.34" or a bare 12.34 token. The token text is parsed as a
// decimal, so a JSON number never passes through float64.
func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	b = bytes.Trim(b, `"`)
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
