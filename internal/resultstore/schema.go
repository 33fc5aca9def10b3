package resultstore

const schema = `
CREATE TABLE IF NOT EXISTS backtest_runs (
	run_id           TEXT PRIMARY KEY,
	created_at       TEXT NOT NULL,
	strategy         TEXT NOT NULL,
	ticker           TEXT NOT NULL,
	started_at       TEXT NOT NULL,
	ended_at         TEXT NOT NULL,
	params_json      TEXT NOT NULL,
	initial_capital  TEXT NOT NULL,
	final_equity     TEXT NOT NULL,
	total_return_pct TEXT NOT NULL,
	sharpe_ratio     TEXT NOT NULL,
	max_drawdown     TEXT NOT NULL,
	trades           INTEGER NOT NULL,
	wins             INTEGER NOT NULL,
	losses           INTEGER NOT NULL,
	win_rate_pct     TEXT NOT NULL,
	profit_factor    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_strategy
	ON backtest_runs(strategy, created_at);

CREATE TABLE IF NOT EXISTS run_equity (
	run_id TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	seq    INTEGER NOT NULL,
	time   TEXT NOT NULL,
	value  TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS run_trades (
	run_id   TEXT NOT NULL REFERENCES backtest_runs(run_id) ON DELETE CASCADE,
	seq      INTEGER NOT NULL,
	trade_id TEXT NOT NULL,
	ticker   TEXT NOT NULL,
	side     TEXT NOT NULL,
	shares   TEXT NOT NULL,
	price    TEXT NOT NULL,
	time     TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
