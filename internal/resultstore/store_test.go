package resultstore

import (
	"barsim/internal/engine"
	"barsim/types"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type allInOnce struct{}

func (allInOnce) Parameters() []engine.ParamSpec {
	return []engine.ParamSpec{{Name: "size", Kind: engine.KindNumber, Default: 1.0}}
}

func (allInOnce) Initialize(engine.Config) error { return nil }

func (allInOnce) OnBar(ctx *engine.BarContext, _ engine.DataView) error {
	switch ctx.BarIndex() {
	case 0:
		return ctx.OrderTargetPercent(ctx.Ticker(), decimal.NewFromInt(1))
	case 2:
		return ctx.OrderTargetPercent(ctx.Ticker(), decimal.Zero)
	}
	return nil
}

func testResult(t *testing.T, name string) *engine.Result {
	t.Helper()
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var candles []types.Candle
	for i, c := range []string{"100", "105", "110", "108"} {
		p := decimal.RequireFromString(c)
		candles = append(candles, types.Candle{
			Ticker: "SPY", Open: p, High: p, Low: p, Close: p,
			Interval: types.Day, Timestamp: start.AddDate(0, 0, i),
		})
	}
	res, err := engine.NewEngine(allInOnce{}, engine.WithStrategyName(name)).
		Run(candles, decimal.NewFromInt(1000), engine.Params{"size": "1"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return res
}

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndGetRun(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	res := testResult(t, "allin")

	if err := s.SaveResult(ctx, res); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}

	run, err := s.GetRun(ctx, res.RunID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Strategy != "allin" || run.Ticker != "SPY" {
		t.Errorf("GetRun() strategy/ticker = %s/%s", run.Strategy, run.Ticker)
	}
	if !run.FinalEquity.Equal(res.FinalEquity) || !run.TotalReturnPct.Equal(res.TotalReturnPct) {
		t.Errorf("GetRun() final/return = %s/%s, want %s/%s", run.FinalEquity, run.TotalReturnPct, res.FinalEquity, res.TotalReturnPct)
	}
	if run.Trades != 2 || run.Wins != 1 || run.Losses != 0 {
		t.Errorf("GetRun() trades/wins/losses = %d/%d/%d", run.Trades, run.Wins, run.Losses)
	}
	if run.Params["size"] != 1.0 {
		t.Errorf("GetRun() params = %v", run.Params)
	}
	if !run.StartedAt.Equal(res.EquityCurve[0].Time) || !run.EndedAt.Equal(res.EquityCurve[3].Time) {
		t.Errorf("GetRun() window = %s..%s", run.StartedAt, run.EndedAt)
	}

	curve, err := s.EquityCurve(ctx, res.RunID)
	if err != nil {
		t.Fatalf("EquityCurve() error = %v", err)
	}
	if len(curve) != len(res.EquityCurve) {
		t.Fatalf("EquityCurve() len = %d, want %d", len(curve), len(res.EquityCurve))
	}
	for i := range curve {
		if !curve[i].Time.Equal(res.EquityCurve[i].Time) || !curve[i].Value.Equal(res.EquityCurve[i].Value) {
			t.Errorf("EquityCurve()[%d] = %+v, want %+v", i, curve[i], res.EquityCurve[i])
		}
	}

	trades, err := s.Trades(ctx, res.RunID)
	if err != nil {
		t.Fatalf("Trades() error = %v", err)
	}
	if len(trades) != 2 || trades[0].ID != res.Trades[0].ID || trades[1].Side != types.SideTypeSell {
		t.Errorf("Trades() = %+v", trades)
	}
	if !trades[1].Shares.Equal(res.Trades[1].Shares) {
		t.Errorf("Trades()[1] shares = %s, want %s", trades[1].Shares, res.Trades[1].Shares)
	}
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	res := testResult(t, "allin")

	if err := s.SaveResult(ctx, res); err != nil {
		t.Fatalf("SaveResult() error = %v", err)
	}
	if err := s.SaveResult(ctx, res); err == nil {
		t.Fatal("SaveResult() expected an error for a duplicate run id")
	}
	curve, err := s.EquityCurve(ctx, res.RunID)
	if err != nil {
		t.Fatalf("EquityCurve() error = %v", err)
	}
	if len(curve) != len(res.EquityCurve) {
		t.Errorf("EquityCurve() len = %d after failed save, want %d", len(curve), len(res.EquityCurve))
	}
}

func TestStore_ListRuns(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i, name := range []string{"a", "b", "a"} {
		at := base.Add(time.Duration(i) * time.Minute)
		s.now = func() time.Time { return at }
		res := testResult(t, name)
		if err := s.SaveResult(ctx, res); err != nil {
			t.Fatalf("SaveResult() error = %v", err)
		}
		ids = append(ids, res.RunID)
	}

	all, err := s.ListRuns(ctx, "", 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(all) != 3 || all[0].RunID != ids[2] {
		t.Errorf("ListRuns() = %d runs, first %s, want 3 and %s", len(all), all[0].RunID, ids[2])
	}

	onlyA, err := s.ListRuns(ctx, "a", 1)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(onlyA) != 1 || onlyA[0].RunID != ids[2] {
		t.Errorf("ListRuns(a, 1) = %+v", onlyA)
	}
}

func TestStore_NotFound(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	if _, err := s.GetRun(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("GetRun() error = %v, want %v", err, ErrRunNotFound)
	}
	if _, err := s.EquityCurve(ctx, "missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("EquityCurve() error = %v, want %v", err, ErrRunNotFound)
	}
}
