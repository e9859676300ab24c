// Package tax replays order history through per-instrument cost pools to
// produce the realized capital-gains result for one tax year.
package tax

import (
	"fmt"
	"sort"

	"github.com/rychen/capgains/pool"
	"github.com/rychen/capgains/settle"
	"github.com/rychen/capgains/trade"
)

// OrderSource is the persistence collaborator the calculator reads from.
type OrderSource interface {
	// SymbolsWithSells returns the symbols with at least one SELL executed
	// in the given year.
	SymbolsWithSells(year int) ([]string, error)
	// OrdersUntil returns every order for the symbol through Dec 31
	// 23:59:59 of endYear, ascending by execution time. Full lifetime
	// history is required: the cost basis of a year-N sale can depend on
	// buys from any earlier year.
	OrdersUntil(symbol string, endYear int) ([]trade.Order, error)
}

// Calculator computes realized gains with the weighted-average cost method.
type Calculator struct {
	source  OrderSource
	settler *settle.Calculator
	rate    float64 // tax rate, e.g. 0.20
}

func New(source OrderSource, settler *settle.Calculator, taxRate float64) *Calculator {
	return &Calculator{source: source, settler: settler, rate: taxRate}
}

// Calculate produces the result for one tax year. A year with no in-year
// sells yields an empty Result and nil error; a corrupt order sequence
// (e.g. selling more than was ever bought) aborts with a non-nil error so
// callers can tell a failed replay apart from no taxable activity.
func (c *Calculator) Calculate(year int) (*Result, error) {
	symbols, err := c.source.SymbolsWithSells(year)
	if err != nil {
		return nil, fmt.Errorf("symbols with sells in %d: %w", year, err)
	}

	res := NewResult(year)
	for _, symbol := range symbols {
		txs, summary, err := c.calculateSymbol(symbol, year)
		if err != nil {
			return nil, fmt.Errorf("calculate %s: %w", symbol, err)
		}
		res.Transactions = append(res.Transactions, txs...)
		res.Summary[symbol] = summary
		res.TotalGains += summary.Gains
		res.TotalLosses += summary.Losses
	}

	// Losses in one instrument offset gains in another before the floor.
	res.NetGains = res.TotalGains - res.TotalLosses
	if res.NetGains < 0 {
		res.NetGains = 0
	}
	res.TotalTax = res.NetGains * c.rate
	return res, nil
}

// calculateSymbol replays the symbol's entire history through a fresh cost
// pool. Orders outside the target year still mutate the pool; only in-year
// closing trades emit taxable transactions.
func (c *Calculator) calculateSymbol(symbol string, year int) ([]Transaction, SymbolSummary, error) {
	orders, err := c.source.OrdersUntil(symbol, year)
	if err != nil {
		return nil, SymbolSummary{}, fmt.Errorf("load orders: %w", err)
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].ExecutedAt.Before(orders[j].ExecutedAt)
	})

	p := pool.New(symbol)
	summary := SymbolSummary{Symbol: symbol}
	var txs []Transaction

	for _, o := range orders {
		tx, emitted, err := c.replay(p, o, year)
		if err != nil {
			return nil, SymbolSummary{}, err
		}
		if !emitted {
			continue
		}
		txs = append(txs, tx)
		if tx.GainLoss > 0 {
			summary.Gains += tx.GainLoss
		} else {
			summary.Losses += -tx.GainLoss
		}
	}

	summary.OpenQuantity = p.Quantity()
	summary.OpenCost = p.Total()
	return txs, summary, nil
}

// replay pushes one order through the pool and builds the taxable
// transaction when the order closed part of a position inside the target
// year.
func (c *Calculator) replay(p *pool.Pool, o trade.Order, year int) (Transaction, bool, error) {
	inYear := o.Year() == year

	switch o.Side {
	case trade.Buy:
		cost := c.settler.SettleBuy(o)
		res, err := p.Buy(o.Quantity, cost)
		if err != nil {
			return Transaction{}, false, err
		}
		if res.CostBasis == 0 || !inYear {
			return Transaction{}, false, nil
		}
		// Buy-to-close: proceeds were locked in when the short opened;
		// the cost side is the share of the settled buy cost covering the
		// closed units.
		closedQty := o.Quantity - res.Remainder
		closeCost := cost * (closedQty / o.Quantity)
		return c.transaction(o, closedQty, c.settler.RateFor(o), res.CostBasis, closeCost), true, nil

	case trade.Sell:
		proceeds, rate := c.settler.SettleSell(o)
		costBasis, err := p.Sell(o.Quantity, proceeds)
		if err != nil {
			return Transaction{}, false, err
		}
		if costBasis == 0 || !inYear {
			return Transaction{}, false, nil
		}
		return c.transaction(o, o.Quantity, rate, proceeds, costBasis), true, nil
	}
	return Transaction{}, false, fmt.Errorf("%s: unknown side %v", o.ID, o.Side)
}

func (c *Calculator) transaction(o trade.Order, qty, rate, proceeds, costBasis float64) Transaction {
	gainLoss := proceeds - costBasis
	tax := 0.0
	if gainLoss > 0 {
		tax = gainLoss * c.rate
	}
	return Transaction{
		OrderID:   o.ID,
		Symbol:    o.Symbol,
		Date:      o.Date(),
		Quantity:  qty,
		Price:     o.Price,
		Currency:  o.Currency,
		Rate:      rate,
		Proceeds:  proceeds,
		CostBasis: costBasis,
		GainLoss:  gainLoss,
		Tax:       tax,
	}
}
