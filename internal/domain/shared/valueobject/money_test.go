package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("valid money", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "")
		require.Error(t, err)
	})

	t.Run("negative amount allowed", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(-5), USD)
		require.NoError(t, err)
		assert.True(t, m.IsNegative())
	})
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b := NewMoneyUSD(decimal.NewFromInt(30))

	t.Run("add", func(t *testing.T) {
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(130)))
	})

	t.Run("subtract", func(t *testing.T) {
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(70)))
	})

	t.Run("multiply", func(t *testing.T) {
		product := a.Multiply(decimal.NewFromInt(3))
		assert.True(t, product.Amount().Equal(decimal.NewFromInt(300)))
	})

	t.Run("multiply by int", func(t *testing.T) {
		product := b.MultiplyByInt(2)
		assert.True(t, product.Amount().Equal(decimal.NewFromInt(60)))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		eur := Zero(EUR)
		_, err := a.Add(eur)
		require.Error(t, err)
		_, err = a.Subtract(eur)
		require.Error(t, err)
	})

	t.Run("must add panics on mismatch", func(t *testing.T) {
		assert.Panics(t, func() {
			a.MustAdd(Zero(EUR))
		})
	})
}

func TestMoneyComparison(t *testing.T) {
	a := NewMoneyUSD(decimal.NewFromInt(100))
	b := NewMoneyUSD(decimal.NewFromInt(30))

	lt, err := b.LessThan(a)
	require.NoError(t, err)
	assert.True(t, lt)

	gt, err := a.GreaterThan(b)
	require.NoError(t, err)
	assert.True(t, gt)

	assert.True(t, a.Equals(NewMoneyUSD(decimal.NewFromInt(100))))
	assert.False(t, a.Equals(b))

	_, err = a.LessThan(Zero(GBP))
	require.Error(t, err)
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, ZeroUSD().IsZero())
	assert.True(t, NewMoneyUSD(decimal.NewFromInt(1)).IsPositive())
	assert.True(t, NewMoneyUSD(decimal.NewFromInt(1)).Negate().IsNegative())
}

func TestMoneyJSON(t *testing.T) {
	m := NewMoneyUSD(decimal.NewFromFloat(42.50))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.5","currency":"USD"}`, string(data))

	var decoded Money
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, m.Equals(decoded))
}

func TestMoneyScan(t *testing.T) {
	t.Run("from string", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("12.34"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(12.34)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("from bytes", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("7")))
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(7)))
	})

	t.Run("nil", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		require.Error(t, m.Scan(12))
	})
}
