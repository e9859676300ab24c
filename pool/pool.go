// Package pool implements the weighted-average cost pool for a single
// instrument. The pool is the state machine at the heart of the tax
// calculation: it tracks one signed quantity (positive = long, negative =
// short) and one running total (cost paid for a long, proceeds received for
// a short) and hands back the realized cost basis whenever a trade closes
// part of the position.
package pool

import (
	"errors"
	"fmt"
	"math"

	"github.com/rychen/capgains/trade"
)

// Epsilon is the tolerance below which a signed quantity is treated as
// flat. Whenever |quantity| drops under it, quantity and total are snapped
// to exactly 0 so float dust from partial closes cannot accumulate.
const Epsilon = 1e-9

var (
	ErrQuantity        = errors.New("quantity must be positive")
	ErrAmount          = errors.New("settled amount cannot be negative")
	ErrOversell        = errors.New("sell exceeds held quantity")
	ErrShortOpenAmount = errors.New("sell-to-open requires positive settled amount")
)

// State is the pool's position state.
type State int

const (
	Flat State = iota
	Long
	Short
)

func (s State) String() string {
	switch s {
	case Long:
		return "LONG"
	case Short:
		return "SHORT"
	}
	return "FLAT"
}

// Record is an audit entry appended after every pool mutation. History is
// never read back for computation.
type Record struct {
	Side          trade.Side
	Quantity      float64
	Amount        float64
	AvgCostAfter  float64
	QuantityAfter float64
	TotalAfter    float64
}

// BuyResult describes what a buy did to the pool. CostBasis is nonzero only
// when the buy closed (part of) a short position, in which case it is the
// proceeds that were locked in when the short was opened. Remainder is the
// portion of the buy that opened a new long after the short was exhausted.
type BuyResult struct {
	CostBasis float64
	Remainder float64
}

// Pool tracks the weighted-average position for one symbol. A pool is
// rebuilt from scratch for every calculation run and owned by exactly one
// replay; it is not safe for concurrent use and does not need to be.
type Pool struct {
	symbol   string
	quantity float64 // signed: >0 long, <0 short
	total    float64 // long: cost paid; short: proceeds received
	history  []Record
}

func New(symbol string) *Pool {
	return &Pool{symbol: symbol}
}

func (p *Pool) Symbol() string    { return p.symbol }
func (p *Pool) Quantity() float64 { return p.quantity }
func (p *Pool) Total() float64    { return p.total }

func (p *Pool) IsLong() bool  { return p.quantity > Epsilon }
func (p *Pool) IsShort() bool { return p.quantity < -Epsilon }

func (p *Pool) State() State {
	switch {
	case p.IsLong():
		return Long
	case p.IsShort():
		return Short
	}
	return Flat
}

// AvgCost is the per-unit weighted average cost (or per-unit proceeds for a
// short). Invariant: AvgCost == Total/|Quantity| while the pool is not
// flat, and 0 when it is.
func (p *Pool) AvgCost() float64 {
	if math.Abs(p.quantity) < Epsilon {
		return 0
	}
	return p.total / math.Abs(p.quantity)
}

// History returns a copy of the audit trail.
func (p *Pool) History() []Record {
	out := make([]Record, len(p.history))
	copy(out, p.history)
	return out
}

// Buy processes a buy of qty units settled for amount in the reporting
// currency.
//
// From flat or long the buy opens/extends the long position and realizes
// nothing. From short it closes up to |quantity| units at the average
// proceeds locked in at open; if qty exceeds the short size the remainder
// opens a new long with a proportional share of amount.
func (p *Pool) Buy(qty, amount float64) (BuyResult, error) {
	if qty <= 0 {
		return BuyResult{}, fmt.Errorf("%s: buy %g: %w", p.symbol, qty, ErrQuantity)
	}
	if amount < 0 {
		return BuyResult{}, fmt.Errorf("%s: buy amount %g: %w", p.symbol, amount, ErrAmount)
	}

	if !p.IsShort() {
		p.quantity += qty
		p.total += amount
		p.record(trade.Buy, qty, amount)
		return BuyResult{}, nil
	}

	closeQty := math.Min(qty, math.Abs(p.quantity))
	costBasis := closeQty * p.AvgCost() // proceeds received at short open
	p.quantity += closeQty
	p.total -= costBasis
	p.cleanup()
	p.record(trade.Buy, closeQty, costBasis)

	remainder := qty - closeQty
	if remainder > Epsilon {
		remainderCost := amount * (remainder / qty)
		p.quantity += remainder
		p.total += remainderCost
		p.record(trade.Buy, remainder, remainderCost)
		return BuyResult{CostBasis: costBasis, Remainder: remainder}, nil
	}
	return BuyResult{CostBasis: costBasis}, nil
}

// Sell processes a sell of qty units. amount is the settled proceeds in the
// reporting currency and is required whenever the sell opens or extends a
// short; it is ignored for a long close, where the realized cost basis is
// qty times the pool's average cost.
//
// Selling more than the held long quantity is an error and leaves the pool
// unchanged.
func (p *Pool) Sell(qty, amount float64) (float64, error) {
	if qty <= 0 {
		return 0, fmt.Errorf("%s: sell %g: %w", p.symbol, qty, ErrQuantity)
	}

	if p.IsLong() {
		if qty > p.quantity+Epsilon {
			return 0, fmt.Errorf("%s: cannot sell %g, holding %g: %w",
				p.symbol, qty, p.quantity, ErrOversell)
		}
		costBasis := qty * p.AvgCost()
		p.quantity -= qty
		p.total -= costBasis
		p.cleanup()
		p.record(trade.Sell, qty, costBasis)
		return costBasis, nil
	}

	// Opening or extending a short: record the proceeds received.
	if amount <= 0 {
		return 0, fmt.Errorf("%s: sell-to-open amount %g: %w", p.symbol, amount, ErrShortOpenAmount)
	}
	p.quantity -= qty
	p.total += amount
	p.record(trade.Sell, qty, amount)
	return 0, nil
}

// cleanup snaps quantity and total to exactly 0 once the position is flat
// within Epsilon.
func (p *Pool) cleanup() {
	if math.Abs(p.quantity) < Epsilon {
		p.quantity = 0
		p.total = 0
	}
}

func (p *Pool) record(side trade.Side, qty, amount float64) {
	p.history = append(p.history, Record{
		Side:          side,
		Quantity:      qty,
		Amount:        amount,
		AvgCostAfter:  p.AvgCost(),
		QuantityAfter: p.quantity,
		TotalAfter:    p.total,
	})
}
