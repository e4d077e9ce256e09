package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	t.Run("valid string", func(t *testing.T) {
		m, err := ParseMoney("123.45")
		require.NoError(t, err)
		assert.Equal(t, "123.45", m.String())
	})

	t.Run("whole number gets two digits", func(t *testing.T) {
		m, err := ParseMoney("500")
		require.NoError(t, err)
		assert.Equal(t, "500.00", m.String())
	})

	t.Run("rejects three fractional digits", func(t *testing.T) {
		_, err := ParseMoney("1.005")
		assert.Error(t, err)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseMoney("not-a-number")
		assert.Error(t, err)
	})

	t.Run("rejects empty", func(t *testing.T) {
		_, err := ParseMoney("  ")
		assert.Error(t, err)
	})
}

func TestNewMoney_Truncates(t *testing.T) {
	m := NewMoney(decimal.RequireFromString("10.999"))
	assert.Equal(t, "10.99", m.String())

	neg := NewMoney(decimal.RequireFromString("-10.999"))
	assert.Equal(t, "-10.99", neg.String())
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustParseMoney("100.10")
	b := MustParseMoney("0.20")

	assert.Equal(t, "100.30", a.Add(b).String())
	assert.Equal(t, "99.90", a.Subtract(b).String())
	assert.Equal(t, "33.36", a.Multiply(decimal.RequireFromString("0.3333")).String())
	assert.Equal(t, "-100.10", a.Negate().String())
	assert.Equal(t, "100.10", a.Negate().Abs().String())
	assert.Equal(t, "0.00", a.Negate().FloorZero().String())
	assert.Equal(t, "100.30", Sum(a, b).String())
}

func TestMoney_Percentage(t *testing.T) {
	tests := []struct {
		name     string
		part     string
		base     string
		expected string
	}{
		{"half", "50.00", "100.00", "50"},
		{"truncated not rounded", "2.00", "3.00", "66.66"},
		{"zero base", "10.00", "0", "0"},
		{"overshoot", "150.00", "100.00", "150"},
		{"just under whole", "999999999.99", "1000000000.00", "99.99"},
		{"just under warning", "799999999.99", "1000000000.00", "79.99"},
		{"just under on track", "499999999.99", "1000000000.00", "49.99"},
		{"one cent of a third", "0.01", "0.03", "33.33"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MustParseMoney(tt.part).Percentage(MustParseMoney(tt.base))
			assert.True(t, got.Equal(decimal.RequireFromString(tt.expected)), "got %s", got)
		})
	}
}

func TestMoney_Comparisons(t *testing.T) {
	a := MustParseMoney("10.00")
	b := MustParseMoney("20.00")

	assert.True(t, a.LessThan(b))
	assert.True(t, b.GreaterThan(a))
	assert.True(t, a.GreaterThanOrEqual(MustParseMoney("10")))
	assert.True(t, a.Equals(MustParseMoney("10.0")))
	assert.Equal(t, -1, a.Cmp(b))
}

func TestMoney_SplitUnits(t *testing.T) {
	units, minor := MustParseMoney("1234.05").SplitUnits()
	assert.Equal(t, int64(1234), units)
	assert.Equal(t, int64(5), minor)

	units, minor = MustParseMoney("-7.50").SplitUnits()
	assert.Equal(t, int64(7), units)
	assert.Equal(t, int64(50), minor)
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustParseMoney("42.5"))
	require.NoError(t, err)
	assert.Equal(t, `"42.50"`, string(data))

	var fromString Money
	require.NoError(t, json.Unmarshal([]byte(`"19.99"`), &fromString))
	assert.Equal(t, "19.99", fromString.String())

	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`300`), &fromNumber))
	assert.Equal(t, "300.00", fromNumber.String())

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"1.001"`), &bad))
}

func TestMoney_ValueScan(t *testing.T) {
	v, err := MustParseMoney("12.3").Value()
	require.NoError(t, err)
	assert.Equal(t, "12.30", v)

	var m Money
	require.NoError(t, m.Scan("88.10"))
	assert.Equal(t, "88.10", m.String())

	require.NoError(t, m.Scan([]byte("1.5")))
	assert.Equal(t, "1.50", m.String())

	require.NoError(t, m.Scan(nil))
	assert.True(t, m.IsZero())
}
