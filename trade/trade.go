// Package trade holds the shared order types passed between the store,
// the brokerage client and the tax engine.
package trade

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Side is the direction of an executed order. It is a closed enum so a
// switch over it can be checked for exhaustiveness.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// ParseSide converts the wire/database representation back to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "BUY":
		return Buy, nil
	case "SELL":
		return Sell, nil
	}
	return Buy, fmt.Errorf("unknown order side %q", s)
}

// Fees carries the broker's fee breakdown for an order. Only the total is
// used for settlement. The total arrives as either a JSON string or a JSON
// number depending on the broker endpoint, so unmarshalling normalizes it
// and never fails; anything unreadable degrades to an empty total.
type Fees struct {
	TotalAmount string `json:"total_amount,omitempty"`
}

func (f *Fees) UnmarshalJSON(b []byte) error {
	var raw struct {
		TotalAmount any `json:"total_amount"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	switch v := raw.TotalAmount.(type) {
	case string:
		f.TotalAmount = v
	case float64:
		f.TotalAmount = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return nil
}

// Total returns the fee total in the order's original currency, or 0 when
// the fee data is missing, empty or non-numeric.
func (f Fees) Total() float64 {
	if f.TotalAmount == "" {
		return 0
	}
	v, err := strconv.ParseFloat(f.TotalAmount, 64)
	if err != nil {
		return 0
	}
	return v
}

// Order is a single filled order as imported from the brokerage. Orders are
// immutable once stored; the tax engine only reads them.
type Order struct {
	ID         string
	Symbol     string
	Side       Side
	Quantity   float64
	Price      float64 // per unit, original currency
	Currency   string
	ExecutedAt time.Time
	Fees       Fees
}

// Date returns the execution date (YYYY-MM-DD), the key used for exchange
// rate lookups and year attribution.
func (o Order) Date() string {
	return o.ExecutedAt.Format("2006-01-02")
}

// Year returns the calendar year the order executed in.
func (o Order) Year() int {
	return o.ExecutedAt.Year()
}
