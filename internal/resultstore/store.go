// Package resultstore keeps finished backtest runs in a SQLite database so
// parameter sweeps can be compared after the process exits.
package resultstore

import (
	"barsim/internal/engine"
	"barsim/types"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

var ErrRunNotFound = errors.New("run not found")

// Store persists engine results.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// RunSummary is one row of backtest_runs.
type RunSummary struct {
	RunID          string
	CreatedAt      time.Time
	Strategy       string
	Ticker         string
	StartedAt      time.Time
	EndedAt        time.Time
	Params         map[string]any
	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	TotalReturnPct decimal.Decimal
	SharpeRatio    decimal.Decimal
	MaxDrawdown    decimal.Decimal
	Trades         int
	Wins           int
	Losses         int
	WinRatePct     decimal.Decimal
	ProfitFactor   decimal.Decimal
}

// Open opens (or creates) the SQLite database at path and makes sure the
// tables exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// :memory: databases exist per connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveResult writes the run summary, its equity curve and trade log in one
// transaction.
func (s *Store) SaveResult(ctx context.Context, res *engine.Result) (err error) {
	if res.RunID == "" {
		return errors.New("result has no run id")
	}
	params, err := json.Marshal(res.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}

	var startedAt, endedAt time.Time
	if n := len(res.EquityCurve); n > 0 {
		startedAt = res.EquityCurve[0].Time
		endedAt = res.EquityCurve[n-1].Time
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (
			run_id, created_at, strategy, ticker, started_at, ended_at, params_json,
			initial_capital, final_equity, total_return_pct, sharpe_ratio, max_drawdown,
			trades, wins, losses, win_rate_pct, profit_factor
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID,
		formatTime(s.now()),
		res.Strategy,
		res.Ticker,
		formatTime(startedAt),
		formatTime(endedAt),
		string(params),
		res.InitialCapital.String(),
		res.FinalEquity.String(),
		res.TotalReturnPct.String(),
		res.SharpeRatio.String(),
		res.MaxDrawdown.String(),
		res.TotalTrades,
		res.WinningTrades,
		res.LosingTrades,
		res.WinRatePct.String(),
		res.Report.ProfitFactor.String(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	equityStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_equity (run_id, seq, time, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer equityStmt.Close()
	for i, p := range res.EquityCurve {
		if _, err = equityStmt.ExecContext(ctx, res.RunID, i, formatTime(p.Time), p.Value.String()); err != nil {
			return fmt.Errorf("insert equity point %d: %w", i, err)
		}
	}

	tradeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_trades (run_id, seq, trade_id, ticker, side, shares, price, time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer tradeStmt.Close()
	for i, t := range res.Trades {
		if _, err = tradeStmt.ExecContext(ctx, res.RunID, i, t.ID, t.Ticker, string(t.Side),
			t.Shares.String(), t.Price.String(), formatTime(t.Time)); err != nil {
			return fmt.Errorf("insert trade %d: %w", i, err)
		}
	}

	return tx.Commit()
}

const selectRun = `
	SELECT run_id, created_at, strategy, ticker, started_at, ended_at, params_json,
	       initial_capital, final_equity, total_return_pct, sharpe_ratio, max_drawdown,
	       trades, wins, losses, win_rate_pct, profit_factor
	FROM backtest_runs`

// GetRun returns the summary of one run.
func (s *Store) GetRun(ctx context.Context, runID string) (*RunSummary, error) {
	row := s.db.QueryRowContext(ctx, selectRun+` WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return run, err
}

// ListRuns returns the most recent runs, newest first. An empty strategy
// lists every strategy; a non-positive limit means no limit.
func (s *Store) ListRuns(ctx context.Context, strategy string, limit int) ([]RunSummary, error) {
	query := selectRun
	var args []any
	if strategy != "" {
		query += ` WHERE strategy = ?`
		args = append(args, strategy)
	}
	query += ` ORDER BY created_at DESC, run_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// EquityCurve loads the stored equity curve of a run in bar order.
func (s *Store) EquityCurve(ctx context.Context, runID string) ([]types.EquityPoint, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT time, value FROM run_equity WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []types.EquityPoint
	for rows.Next() {
		var ts, value string
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, err
		}
		p, err := parseEquityPoint(ts, value)
		if err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return points, nil
}

// Trades loads the stored trade log of a run in execution order.
func (s *Store) Trades(ctx context.Context, runID string) ([]types.Trade, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trade_id, ticker, side, shares, price, time
		FROM run_trades WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trades []types.Trade
	for rows.Next() {
		var t types.Trade
		var side, shares, price, ts string
		if err := rows.Scan(&t.ID, &t.Ticker, &side, &shares, &price, &ts); err != nil {
			return nil, err
		}
		t.Side = types.Side(side)
		if t.Shares, err = decimal.NewFromString(shares); err != nil {
			return nil, fmt.Errorf("trade %s shares: %w", t.ID, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("trade %s price: %w", t.ID, err)
		}
		if t.Time, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("trade %s time: %w", t.ID, err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*RunSummary, error) {
	var (
		run                                       RunSummary
		createdAt, startedAt, endedAt, paramsJSON string
		initial, final, ret, sharpe, dd, wr, pf   string
	)
	if err := sc.Scan(&run.RunID, &createdAt, &run.Strategy, &run.Ticker, &startedAt, &endedAt, &paramsJSON,
		&initial, &final, &ret, &sharpe, &dd, &run.Trades, &run.Wins, &run.Losses, &wr, &pf); err != nil {
		return nil, err
	}

	var err error
	for _, f := range []struct {
		src string
		dst *time.Time
	}{{createdAt, &run.CreatedAt}, {startedAt, &run.StartedAt}, {endedAt, &run.EndedAt}} {
		if *f.dst, err = time.Parse(time.RFC3339Nano, f.src); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.RunID, err)
		}
	}
	for _, f := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{initial, &run.InitialCapital}, {final, &run.FinalEquity}, {ret, &run.TotalReturnPct},
		{sharpe, &run.SharpeRatio}, {dd, &run.MaxDrawdown}, {wr, &run.WinRatePct}, {pf, &run.ProfitFactor},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return nil, fmt.Errorf("run %s: %w", run.RunID, err)
		}
	}
	if err := json.Unmarshal([]byte(paramsJSON), &run.Params); err != nil {
		return nil, fmt.Errorf("run %s params: %w", run.RunID, err)
	}
	return &run, nil
}

func parseEquityPoint(ts, value string) (types.EquityPoint, error) {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return types.EquityPoint{}, err
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return types.EquityPoint{}, err
	}
	return types.EquityPoint{Time: t, Value: v}, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
