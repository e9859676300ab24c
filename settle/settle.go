// Package settle converts raw orders into net amounts in the reporting
// currency. It is stateless: contract multiplier, fee deduction and the
// exchange rate for the execution date are applied in one step.
package settle

import (
	"github.com/rychen/capgains/trade"
)

// RateSource supplies the exchange rate for a date (YYYY-MM-DD) and
// currency pair. Implementations must always return a usable positive
// rate; fallback behavior lives behind this interface, not in settlement.
type RateSource interface {
	Rate(date, from, to string) float64
}

// Calculator settles orders into a single reporting currency.
type Calculator struct {
	rates     RateSource
	reporting string
}

func New(rates RateSource, reportingCurrency string) *Calculator {
	return &Calculator{rates: rates, reporting: reportingCurrency}
}

// SettleBuy returns the total buy cost in the reporting currency:
// (quantity x price x multiplier + fees) x rate.
func (c *Calculator) SettleBuy(o trade.Order) float64 {
	gross := o.Quantity * o.Price * Multiplier(o.Symbol)
	return (gross + o.Fees.Total()) * c.RateFor(o)
}

// SettleSell returns the net sell proceeds in the reporting currency,
// (quantity x price x multiplier - fees) x rate, along with the rate used
// so callers reporting it do not need a second lookup.
func (c *Calculator) SettleSell(o trade.Order) (proceeds, rate float64) {
	rate = c.RateFor(o)
	gross := o.Quantity * o.Price * Multiplier(o.Symbol)
	return (gross - o.Fees.Total()) * rate, rate
}

// RateFor returns the exchange rate applied to an order, keyed on the
// execution date only.
func (c *Calculator) RateFor(o trade.Order) float64 {
	return c.rates.Rate(o.Date(), o.Currency, c.reporting)
}
