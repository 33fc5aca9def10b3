package config

import (
	"barsim/internal/engine"
	"barsim/types"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
data:
  source: parquet
  path: bars/spy.parquet
  ticker: SPY
  interval: 1d
  start: 2020-01-01
  end: 2024-01-01
portfolio:
  initial_capital: 25000
  allow_short_selling: false
reporting:
  risk_free_rate: 0.02
  print: false
strategy:
  name: supertrend
  params:
    supertrend_period: 12
    asset: SPY
sweep:
  params:
    adx_threshold: [20, 25, 30]
logging:
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.Source != "parquet" || cfg.Data.Ticker != "SPY" || cfg.Interval() != types.Day {
		t.Errorf("data = %+v", cfg.Data)
	}
	if !cfg.Capital().Equal(decimal.NewFromInt(25000)) {
		t.Errorf("capital = %s", cfg.Capital())
	}
	if cfg.Strategy.Params["supertrend_period"] != 12 || cfg.Strategy.Params["asset"] != "SPY" {
		t.Errorf("strategy params = %v", cfg.Strategy.Params)
	}
	if len(cfg.Sweep.Params["adx_threshold"]) != 3 {
		t.Errorf("sweep params = %v", cfg.Sweep.Params)
	}
	if cfg.PrintReport() {
		t.Error("print should be off")
	}

	// defaults
	if cfg.Reporting.AnnualizationFactor != 252 || cfg.Sweep.Parallelism != 4 || cfg.Logging.Level != "info" {
		t.Errorf("defaults = %d/%d/%s", cfg.Reporting.AnnualizationFactor, cfg.Sweep.Parallelism, cfg.Logging.Level)
	}

	start, _ := cfg.StartTime()
	end, _ := cfg.EndTime()
	if start.Year() != 2020 || end.Year() != 2024 {
		t.Errorf("window = %s..%s", start, end)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, `
data:
  source: postgres
  ticker: SPY
  start: 2023-01-01
  end: 2023-06-01
strategy:
  name: donchian
`)
	t.Setenv("BARSIM_DB_URL", "postgres://localhost/bars")
	t.Setenv("BARSIM_LOG_LEVEL", "debug")
	t.Setenv("BARSIM_RESULTS_DB", "/tmp/runs.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Data.DBURL != "postgres://localhost/bars" {
		t.Errorf("db url = %q", cfg.Data.DBURL)
	}
	if cfg.Logging.Level != "debug" || cfg.Results.SQLitePath != "/tmp/runs.db" {
		t.Errorf("overrides = %q/%q", cfg.Logging.Level, cfg.Results.SQLitePath)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown source", "data: {source: ftp, path: x}\nstrategy: {name: donchian}"},
		{"csv without path", "data: {source: csv}\nstrategy: {name: donchian}"},
		{"postgres without url", "data: {source: postgres, ticker: SPY, start: 2020-01-01, end: 2021-01-01}\nstrategy: {name: donchian}"},
		{"missing strategy", "data: {source: csv, path: x.csv}"},
		{"negative capital", "data: {source: csv, path: x.csv}\nportfolio: {initial_capital: -1}\nstrategy: {name: donchian}"},
		{"bad interval", "data: {source: csv, path: x.csv, interval: 7m}\nstrategy: {name: donchian}"},
		{"bad date", "data: {source: csv, path: x.csv, start: 01/02/2020}\nstrategy: {name: donchian}"},
		{"end before start", "data: {source: csv, path: x.csv, start: 2021-01-01, end: 2020-01-01}\nstrategy: {name: donchian}"},
		{"bad log format", "data: {source: csv, path: x.csv}\nstrategy: {name: donchian}\nlogging: {format: xml}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("BARSIM_DB_URL", "")
			t.Setenv("BARSIM_DATA_PATH", "")
			_, err := Load(writeConfig(t, tt.body))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}

// leveraged buys everything twice over on the first bar.
type leveraged struct{}

func (leveraged) Parameters() []engine.ParamSpec { return nil }
func (leveraged) Initialize(engine.Config) error { return nil }
func (leveraged) OnBar(ctx *engine.BarContext, _ engine.DataView) error {
	return ctx.OrderTargetPercent(ctx.Ticker(), decimal.NewFromInt(2))
}

func TestPortfolioConfig(t *testing.T) {
	p := decimal.NewFromInt(10)
	candles := []types.Candle{{Ticker: "SPY", Open: p, High: p, Low: p, Close: p, Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}

	off := false
	tests := []struct {
		name    string
		cfg     Portfolio
		wantErr error
	}{
		{"unset flags stay permissive", Portfolio{}, nil},
		{"negative cash disabled", Portfolio{AllowNegativeCash: &off}, engine.InsufficientBalanceErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Portfolio: tt.cfg}
			_, err := engine.NewEngine(leveraged{}, engine.WithPortfolioConfig(cfg.PortfolioConfig())).
				Run(candles, decimal.NewFromInt(1000), nil)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPrintReportDefault(t *testing.T) {
	cfg := &Config{}
	if !cfg.PrintReport() {
		t.Error("print should default to on")
	}
}
