package settle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rychen/capgains/trade"
)

type fixedRate struct {
	rate float64

	lastDate string
	lastFrom string
	lastTo   string
}

func (f *fixedRate) Rate(date, from, to string) float64 {
	f.lastDate, f.lastFrom, f.lastTo = date, from, to
	return f.rate
}

func order(symbol string, qty, price float64, feeTotal string) trade.Order {
	return trade.Order{
		Symbol:     symbol,
		Quantity:   qty,
		Price:      price,
		Currency:   "USD",
		ExecutedAt: time.Date(2024, 12, 1, 10, 0, 0, 0, time.UTC),
		Fees:       trade.Fees{TotalAmount: feeTotal},
	}
}

func TestSettleBuyStock(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 7.3}, "CNY")
	got := c.SettleBuy(order("SPY.US", 30, 580, ""))
	assert.InDelta(t, 30*580*7.3, got, 1e-6)
}

func TestSettleBuyWithFees(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 7.3}, "CNY")
	got := c.SettleBuy(order("SPY.US", 30, 580, "5.0"))
	assert.InDelta(t, 127056.5, got, 1e-6) // (30*580+5)*7.3
}

func TestSettleBuyOptionMultiplier(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 7.3}, "CNY")
	got := c.SettleBuy(order("AMD250718C130000.US", 4, 5.38, ""))
	assert.InDelta(t, 4*5.38*100*7.3, got, 1e-6)

	got = c.SettleBuy(order("AMD250718C130000.US", 4, 5.38, "2.60"))
	assert.InDelta(t, (4*5.38*100+2.60)*7.3, got, 1e-6)
}

func TestSettleSellReturnsRate(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 7.3}, "CNY")
	proceeds, rate := c.SettleSell(order("SPY.US", 30, 600, ""))
	assert.InDelta(t, 30*600*7.3, proceeds, 1e-6)
	assert.InDelta(t, 7.3, rate, 1e-12)
}

func TestSettleSellDeductsFees(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 7.3}, "CNY")
	proceeds, _ := c.SettleSell(order("SPY.US", 30, 600, "4.5"))
	assert.InDelta(t, (30*600-4.5)*7.3, proceeds, 1e-6)
}

func TestMalformedFeesDegradeToZero(t *testing.T) {
	t.Parallel()

	c := New(&fixedRate{rate: 2}, "CNY")
	got := c.SettleBuy(order("SPY.US", 10, 100, "n/a"))
	assert.InDelta(t, 2000, got, 1e-9)
}

func TestRateLookupUsesDateOnly(t *testing.T) {
	t.Parallel()

	src := &fixedRate{rate: 7.3}
	c := New(src, "CNY")
	c.SettleBuy(order("SPY.US", 1, 100, ""))

	assert.Equal(t, "2024-12-01", src.lastDate)
	assert.Equal(t, "USD", src.lastFrom)
	assert.Equal(t, "CNY", src.lastTo)
}
