package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rychen/capgains/trade"
)

func TestSingleBuy(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	res, err := p.Buy(100, 1000)
	require.NoError(t, err)

	assert.Zero(t, res.CostBasis)
	assert.Zero(t, res.Remainder)
	assert.InDelta(t, 100, p.Quantity(), 1e-12)
	assert.InDelta(t, 1000, p.Total(), 1e-12)
	assert.InDelta(t, 10, p.AvgCost(), 1e-12)
	assert.Equal(t, Long, p.State())
}

func TestTwoBuysWeightedAverage(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(100, 1000)
	require.NoError(t, err)
	_, err = p.Buy(100, 2000)
	require.NoError(t, err)

	assert.InDelta(t, 200, p.Quantity(), 1e-12)
	assert.InDelta(t, 3000, p.Total(), 1e-12)
	assert.InDelta(t, 15, p.AvgCost(), 1e-12)
}

func TestBuyThenPartialSell(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(100, 1000)
	require.NoError(t, err)

	// Settled proceeds are irrelevant for a long close.
	costBasis, err := p.Sell(50, 600)
	require.NoError(t, err)

	assert.InDelta(t, 500, costBasis, 1e-12)
	assert.InDelta(t, 50, p.Quantity(), 1e-12)
	// Selling never moves the average of what remains.
	assert.InDelta(t, 10, p.AvgCost(), 1e-12)
}

func TestSellAllRoundTrip(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(100, 1500)
	require.NoError(t, err)

	costBasis, err := p.Sell(100, 2000)
	require.NoError(t, err)

	assert.InDelta(t, 1500, costBasis, 1e-12)
	assert.Zero(t, p.Quantity())
	assert.Zero(t, p.Total())
	assert.Zero(t, p.AvgCost())
	assert.Equal(t, Flat, p.State())
}

func TestMultiYearSellsKeepAverage(t *testing.T) {
	t.Parallel()

	// Buy 60 across two fills, sell 30 twice: both sells realize the same
	// weighted average basis.
	p := New("SPY.US")
	_, err := p.Buy(30, 30000)
	require.NoError(t, err)
	_, err = p.Buy(30, 31500)
	require.NoError(t, err)
	assert.InDelta(t, 1025, p.AvgCost(), 1e-9)

	first, err := p.Sell(30, 32000)
	require.NoError(t, err)
	assert.InDelta(t, 30750, first, 1e-9)
	assert.InDelta(t, 1025, p.AvgCost(), 1e-9)

	second, err := p.Sell(30, 33000)
	require.NoError(t, err)
	assert.InDelta(t, 30750, second, 1e-9)
	assert.Zero(t, p.Quantity())
}

func TestSellToOpenShort(t *testing.T) {
	t.Parallel()

	p := New("OPT.US")
	costBasis, err := p.Sell(2, 5000)
	require.NoError(t, err)

	assert.Zero(t, costBasis)
	assert.InDelta(t, -2, p.Quantity(), 1e-12)
	assert.True(t, p.IsShort())
	assert.Equal(t, Short, p.State())
	assert.InDelta(t, 2500, p.AvgCost(), 1e-12)
}

func TestShortRoundTrip(t *testing.T) {
	t.Parallel()

	// Sell 2 puts to open, buy 2 to close. The realized basis is the
	// proceeds locked in at open, not the closing cost.
	p := New("NVDA251219P100000.US")
	_, err := p.Sell(2, 25477)
	require.NoError(t, err)

	res, err := p.Buy(2, 7665)
	require.NoError(t, err)

	assert.InDelta(t, 25477, res.CostBasis, 1e-9)
	assert.Zero(t, res.Remainder)
	assert.Zero(t, p.Quantity())
	assert.Zero(t, p.Total())
}

func TestShortFlipToLong(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Sell(2, 5000)
	require.NoError(t, err)

	// Buy 5: 2 close the short, 3 open a long at a proportional share of
	// the settled amount.
	res, err := p.Buy(5, 10000)
	require.NoError(t, err)

	assert.InDelta(t, 5000, res.CostBasis, 1e-9)
	assert.InDelta(t, 3, res.Remainder, 1e-9)
	assert.InDelta(t, 3, p.Quantity(), 1e-9)
	assert.InDelta(t, 6000, p.Total(), 1e-9) // 10000 * 3/5
	assert.InDelta(t, 2000, p.AvgCost(), 1e-9)
	assert.Equal(t, Long, p.State())
}

func TestShortStaysOpenWithoutClose(t *testing.T) {
	t.Parallel()

	p := New("SPY250402P535000.US")
	_, err := p.Sell(2, 43.8)
	require.NoError(t, err)

	assert.InDelta(t, -2, p.Quantity(), 1e-12)
	assert.InDelta(t, 43.8, p.Total(), 1e-12)
}

func TestShortOpenRequiresAmount(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Sell(2, 0)
	assert.ErrorIs(t, err, ErrShortOpenAmount)
}

func TestInvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		call func(p *Pool) error
		want error
	}{
		{"buy_zero_qty", func(p *Pool) error { _, err := p.Buy(0, 100); return err }, ErrQuantity},
		{"buy_negative_qty", func(p *Pool) error { _, err := p.Buy(-5, 100); return err }, ErrQuantity},
		{"buy_negative_amount", func(p *Pool) error { _, err := p.Buy(10, -100); return err }, ErrAmount},
		{"sell_zero_qty", func(p *Pool) error { _, err := p.Sell(0, 100); return err }, ErrQuantity},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := New("TEST")
			assert.ErrorIs(t, tt.call(p), tt.want)
			assert.Zero(t, p.Quantity())
			assert.Zero(t, p.Total())
			assert.Empty(t, p.History())
		})
	}
}

func TestOversellLeavesPoolUnchanged(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(10, 100)
	require.NoError(t, err)

	_, err = p.Sell(20, 200)
	assert.ErrorIs(t, err, ErrOversell)

	// No partial side effect.
	assert.InDelta(t, 10, p.Quantity(), 1e-12)
	assert.InDelta(t, 100, p.Total(), 1e-12)
	assert.Len(t, p.History(), 1)
}

func TestHistoryTracking(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(100, 1000)
	require.NoError(t, err)
	_, err = p.Sell(50, 600)
	require.NoError(t, err)

	h := p.History()
	require.Len(t, h, 2)
	assert.Equal(t, trade.Buy, h[0].Side)
	assert.Equal(t, trade.Sell, h[1].Side)
	assert.InDelta(t, 500, h[1].Amount, 1e-12)
	assert.InDelta(t, 50, h[1].QuantityAfter, 1e-12)
	assert.InDelta(t, 10, h[1].AvgCostAfter, 1e-12)
}

func TestFloatDustCleanup(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(3, 10)
	require.NoError(t, err)
	_, err = p.Sell(3, 12)
	require.NoError(t, err)

	// Exactly zero, not 1e-16 residue.
	assert.Equal(t, 0.0, p.Quantity())
	assert.Equal(t, 0.0, p.Total())
}

func TestFractionalDustAcrossPartialSells(t *testing.T) {
	t.Parallel()

	p := New("TEST")
	_, err := p.Buy(1, 10)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, err = p.Sell(0.1, 2)
		require.NoError(t, err)
	}
	assert.Equal(t, 0.0, p.Quantity())
	assert.Equal(t, 0.0, p.Total())
}
