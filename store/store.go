// Package store persists imported orders and cached exchange rates in
// SQLite. Execution times are stored as local-naive ISO strings
// (2006-01-02T15:04:05) so SQLite's strftime can group by year and string
// comparison orders chronologically.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rychen/capgains/trade"
)

const timeLayout = "2006-01-02T15:04:05"

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveOrders upserts a batch of orders in one transaction. Re-importing a
// range is idempotent: the order id is the primary key.
func (s *Store) SaveOrders(orders []trade.Order) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO orders
		(order_id, symbol, side, quantity, price, currency, executed_at, fees_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range orders {
		fees, err := json.Marshal(o.Fees)
		if err != nil {
			return fmt.Errorf("marshal fees for %s: %w", o.ID, err)
		}
		_, err = stmt.Exec(o.ID, o.Symbol, o.Side.String(), o.Quantity, o.Price,
			o.Currency, o.ExecutedAt.Format(timeLayout), string(fees))
		if err != nil {
			return fmt.Errorf("insert %s: %w", o.ID, err)
		}
	}
	return tx.Commit()
}

// SymbolsWithSells returns the symbols with at least one SELL in the year.
func (s *Store) SymbolsWithSells(year int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT symbol FROM orders
		WHERE strftime('%Y', executed_at) = ? AND side = 'SELL'
		ORDER BY symbol`, fmt.Sprintf("%d", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var sym string
		if err := rows.Scan(&sym); err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// OrdersUntil returns every order for the symbol from the earliest record
// through Dec 31 23:59:59 of endYear, ascending by execution time. This is
// the input for rebuilding a complete cost pool.
func (s *Store) OrdersUntil(symbol string, endYear int) ([]trade.Order, error) {
	end := fmt.Sprintf("%d-12-31T23:59:59", endYear)
	rows, err := s.db.Query(`
		SELECT order_id, symbol, side, quantity, price, currency, executed_at, fees_json
		FROM orders
		WHERE symbol = ? AND executed_at <= ?
		ORDER BY executed_at`, symbol, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// OrdersByYear returns all orders executed in the year, ascending.
func (s *Store) OrdersByYear(year int) ([]trade.Order, error) {
	rows, err := s.db.Query(`
		SELECT order_id, symbol, side, quantity, price, currency, executed_at, fees_json
		FROM orders
		WHERE strftime('%Y', executed_at) = ?
		ORDER BY executed_at`, fmt.Sprintf("%d", year))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// RecentOrders returns the newest orders first, optionally filtered by
// year; limit <= 0 means no limit. Used by the db inspection command.
func (s *Store) RecentOrders(year, limit int) ([]trade.Order, error) {
	query := `
		SELECT order_id, symbol, side, quantity, price, currency, executed_at, fees_json
		FROM orders`
	var args []any
	if year > 0 {
		query += ` WHERE strftime('%Y', executed_at) = ?`
		args = append(args, fmt.Sprintf("%d", year))
	}
	query += ` ORDER BY executed_at DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// SaveRate caches an exchange rate for a date and currency pair.
func (s *Store) SaveRate(date, from, to string, rate float64) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO exchange_rates
		(date, from_currency, to_currency, rate)
		VALUES (?, ?, ?, ?)`, date, from, to, rate)
	return err
}

// Rate returns the cached rate for an exact date, with ok=false on a miss.
func (s *Store) Rate(date, from, to string) (float64, bool, error) {
	var rate float64
	err := s.db.QueryRow(`
		SELECT rate FROM exchange_rates
		WHERE date = ? AND from_currency = ? AND to_currency = ?`,
		date, from, to).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return rate, true, nil
}

// RecentRates lists recently cached rates, newest date first.
func (s *Store) RecentRates(limit int) ([]CachedRate, error) {
	query := `SELECT date, from_currency, to_currency, rate
		FROM exchange_rates ORDER BY date DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CachedRate
	for rows.Next() {
		var r CachedRate
		if err := rows.Scan(&r.Date, &r.From, &r.To, &r.Rate); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type CachedRate struct {
	Date string
	From string
	To   string
	Rate float64
}

// ClearYear removes orders and cached rates for one year, ahead of a fresh
// re-import.
func (s *Store) ClearYear(year int) error {
	y := fmt.Sprintf("%d", year)
	if _, err := s.db.Exec(
		`DELETE FROM orders WHERE strftime('%Y', executed_at) = ?`, y); err != nil {
		return err
	}
	_, err := s.db.Exec(
		`DELETE FROM exchange_rates WHERE strftime('%Y', date) = ?`, y)
	return err
}

// UpdateOrderFees replaces only the fee payload of an existing order.
func (s *Store) UpdateOrderFees(orderID string, fees trade.Fees) error {
	data, err := json.Marshal(fees)
	if err != nil {
		return fmt.Errorf("marshal fees: %w", err)
	}
	_, err = s.db.Exec(`UPDATE orders SET fees_json = ? WHERE order_id = ?`,
		string(data), orderID)
	return err
}

// OrdersMissingFees lists orders with no fee data yet (null, empty or {}),
// optionally scoped to a year.
func (s *Store) OrdersMissingFees(year int) ([]trade.Order, error) {
	query := `
		SELECT order_id, symbol, side, quantity, price, currency, executed_at, fees_json
		FROM orders
		WHERE (fees_json IS NULL OR fees_json = '' OR fees_json = '{}')`
	var args []any
	if year > 0 {
		query += ` AND strftime('%Y', executed_at) = ?`
		args = append(args, fmt.Sprintf("%d", year))
	}
	query += ` ORDER BY executed_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrders(rows)
}

// YearCount is the per-year order tally shown by the status command.
type YearCount struct {
	Year   string
	Orders int
}

func (s *Store) YearCounts() ([]YearCount, error) {
	rows, err := s.db.Query(`
		SELECT strftime('%Y', executed_at) AS year, COUNT(*)
		FROM orders GROUP BY year ORDER BY year`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []YearCount
	for rows.Next() {
		var yc YearCount
		if err := rows.Scan(&yc.Year, &yc.Orders); err != nil {
			return nil, err
		}
		out = append(out, yc)
	}
	return out, rows.Err()
}

func scanOrders(rows *sql.Rows) ([]trade.Order, error) {
	var out []trade.Order
	for rows.Next() {
		var (
			o        trade.Order
			side     string
			executed string
			fees     sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Symbol, &side, &o.Quantity, &o.Price,
			&o.Currency, &executed, &fees); err != nil {
			return nil, err
		}

		parsedSide, err := trade.ParseSide(side)
		if err != nil {
			return nil, fmt.Errorf("order %s: %w", o.ID, err)
		}
		o.Side = parsedSide

		o.ExecutedAt, err = time.Parse(timeLayout, executed)
		if err != nil {
			return nil, fmt.Errorf("order %s: parse executed_at %q: %w", o.ID, executed, err)
		}

		if fees.Valid && fees.String != "" {
			// Fees.UnmarshalJSON degrades malformed payloads to zero fees.
			_ = json.Unmarshal([]byte(fees.String), &o.Fees)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
