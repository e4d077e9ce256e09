package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every amount carries
const MoneyScale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is a value object representing a monetary amount with two fractional
// digits. It is immutable - all operations return new Money instances, and
// every result is truncated (never rounded) to MoneyScale.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal, truncating extra fractional digits
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount.Truncate(MoneyScale)}
}

// NewMoneyFromInt creates Money from a whole-unit int64 value
func NewMoneyFromInt(amount int64) Money {
	return Money{amount: decimal.NewFromInt(amount)}
}

// NewMoneyFromMinor creates Money from an amount in minor units (paise/cents)
func NewMoneyFromMinor(minor int64) Money {
	return Money{amount: decimal.New(minor, -MoneyScale)}
}

// ParseMoney parses a decimal string. More than two fractional digits is an
// error rather than a silent truncation, since it indicates malformed input.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, errors.New("amount is empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return FromDecimal(d)
}

// FromDecimal validates that d has at most two fractional digits
func FromDecimal(d decimal.Decimal) (Money, error) {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return Money{}, fmt.Errorf("amount %s has more than %d fractional digits", d.String(), MoneyScale)
	}
	return Money{amount: d}, nil
}

// MustParseMoney is ParseMoney for constants and tests; it panics on error
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero amount
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns the sum of both amounts
func (m Money) Add(other Money) Money {
	return NewMoney(m.amount.Add(other.amount))
}

// Subtract returns the difference
func (m Money) Subtract(other Money) Money {
	return NewMoney(m.amount.Sub(other.amount))
}

// Multiply returns m multiplied by factor, truncated to two digits
func (m Money) Multiply(factor decimal.Decimal) Money {
	return NewMoney(m.amount.Mul(factor))
}

// Percentage returns m as a percentage of base (m / base * 100), truncated to
// two fractional digits. A zero base yields zero rather than an error.
func (m Money) Percentage(base Money) decimal.Decimal {
	if base.amount.IsZero() {
		return decimal.Zero
	}
	// truncated toward zero, never rounded up
	q, _ := m.amount.Mul(hundred).QuoRem(base.amount, MoneyScale)
	return q
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg()}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return Money{amount: m.amount.Abs()}
}

// FloorZero returns m, or zero when m is negative
func (m Money) FloorZero() Money {
	if m.amount.IsNegative() {
		return Zero()
	}
	return m
}

// Cmp compares m and other: -1 if m < other, 0 if equal, 1 if m > other
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// Equals returns true if both amounts are equal
func (m Money) Equals(other Money) bool {
	return m.amount.Equal(other.amount)
}

// LessThan returns true if this Money is less than the other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// GreaterThan returns true if this Money is greater than the other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// GreaterThanOrEqual returns true if this Money is greater than or equal to the other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// SplitUnits returns the whole units and the minor units (0-99) of the
// absolute amount.
func (m Money) SplitUnits() (int64, int64) {
	abs := m.amount.Abs()
	whole := abs.Truncate(0)
	minor := abs.Sub(whole).Mul(hundred).Truncate(0)
	return whole.IntPart(), minor.IntPart()
}

// String returns the amount with exactly two fractional digits
func (m Money) String() string {
	return m.amount.StringFixed(MoneyScale)
}

// MarshalJSON renders the amount as a fixed two-digit string so that clients
// never round-trip it through a float.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON accepts either a JSON string or a JSON number
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	parsed, err := FromDecimal(d)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.StringFixed(MoneyScale), nil
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value any) error {
	if value == nil {
		m.amount = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return fmt.Errorf("cannot scan %T into Money: %w", value, err)
	}
	m.amount = d.Truncate(MoneyScale)
	return nil
}

// Sum adds a list of amounts
func Sum(amounts ...Money) Money {
	total := Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
