package tax

import "sort"

// Transaction is one realized (closing) trade inside the target year.
// Never mutated after creation.
type Transaction struct {
	OrderID   string
	Symbol    string
	Date      string // YYYY-MM-DD
	Quantity  float64
	Price     float64
	Currency  string
	Rate      float64 // exchange rate applied
	Proceeds  float64 // reporting currency
	CostBasis float64 // reporting currency
	GainLoss  float64 // Proceeds - CostBasis
	Tax       float64 // max(0, GainLoss) x rate
}

// SymbolSummary aggregates one instrument's in-year activity plus whatever
// position remains open after the replay.
type SymbolSummary struct {
	Symbol       string
	Gains        float64
	Losses       float64
	OpenQuantity float64
	OpenCost     float64
}

// Result is the outcome of one Calculate(year) run.
type Result struct {
	Year         int
	TotalGains   float64
	TotalLosses  float64
	NetGains     float64 // max(0, TotalGains - TotalLosses)
	TotalTax     float64
	Transactions []Transaction
	Summary      map[string]SymbolSummary
}

func NewResult(year int) *Result {
	return &Result{Year: year, Summary: make(map[string]SymbolSummary)}
}

// Symbols returns the summary keys in stable sorted order.
func (r *Result) Symbols() []string {
	out := make([]string, 0, len(r.Summary))
	for s := range r.Summary {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
