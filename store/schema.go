package store

// Schema creates the tables of a report database.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created_at DATETIME NOT NULL,
	first_day TEXT NOT NULL,
	last_day TEXT NOT NULL,
	mode TEXT NOT NULL,
	valuation_currency TEXT NOT NULL,
	reference_asset TEXT NOT NULL,
	events INTEGER NOT NULL,
	dropped INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_values (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	day TEXT NOT NULL,
	value REAL NOT NULL,
	reference_price REAL NOT NULL,
	price_source TEXT NOT NULL,
	PRIMARY KEY (run_id, day)
);

CREATE TABLE IF NOT EXISTS export_columns (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	table_name TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	PRIMARY KEY (run_id, table_name, position)
);

CREATE TABLE IF NOT EXISTS export_cells (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	table_name TEXT NOT NULL,
	row_index INTEGER NOT NULL,
	day TEXT NOT NULL,
	position INTEGER NOT NULL,
	value REAL,
	PRIMARY KEY (run_id, table_name, row_index, position)
);

CREATE TABLE IF NOT EXISTS statistics (
	run_id TEXT PRIMARY KEY REFERENCES runs(run_id),
	days INTEGER NOT NULL,
	start_value REAL,
	end_value REAL,
	total_return REAL,
	annualized_return REAL,
	volatility REAL,
	max_drawdown REAL,
	sharpe REAL,
	positive_days INTEGER NOT NULL,
	negative_days INTEGER NOT NULL,
	flat_days INTEGER NOT NULL,
	mean_return REAL,
	min_return REAL,
	max_return REAL,
	win_rate REAL
);

CREATE TABLE IF NOT EXISTS warnings (
	run_id TEXT NOT NULL REFERENCES runs(run_id),
	seq INTEGER NOT NULL,
	kind TEXT NOT NULL,
	day TEXT NOT NULL,
	scope TEXT NOT NULL,
	asset TEXT NOT NULL,
	message TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
