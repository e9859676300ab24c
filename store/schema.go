package store

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	price REAL NOT NULL,
	currency TEXT NOT NULL,
	executed_at TEXT NOT NULL,
	fees_json TEXT,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS exchange_rates (
	date TEXT NOT NULL,
	from_currency TEXT NOT NULL,
	to_currency TEXT NOT NULL,
	rate REAL NOT NULL,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (date, from_currency, to_currency)
);

CREATE INDEX IF NOT EXISTS idx_orders_symbol_time ON orders(symbol, executed_at);
`
