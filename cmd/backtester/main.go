package main

import (
	"barsim/internal/config"
	"barsim/internal/engine"
	"barsim/internal/logging"
	"barsim/internal/repository"
	"barsim/internal/resultstore"
	"barsim/internal/sweep"
	"barsim/strategies"
	"barsim/types"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	strategyName := flag.String("strategy", "", "strategy to run, overrides strategy.name")
	capital := flag.Float64("capital", 0, "initial capital, overrides portfolio.initial_capital")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configPath, *strategyName, *capital); err != nil {
		log.Fatal().Err(err).Msg("backtest failed")
	}
}

func run(ctx context.Context, configPath, strategyName string, capital float64) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if strategyName != "" {
		cfg.Strategy.Name = strategyName
	}
	if capital > 0 {
		cfg.Portfolio.InitialCapital = capital
	}

	logger, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	registry := strategies.Default()
	factory, err := registry.Factory(cfg.Strategy.Name)
	if err != nil {
		return err
	}

	candles, err := loadCandles(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info().
		Str("source", cfg.Data.Source).
		Str("ticker", candles[0].Ticker).
		Int("bars", len(candles)).
		Msg("candles loaded")

	opts := []engine.Option{
		engine.WithPortfolioConfig(cfg.PortfolioConfig()),
		engine.WithReportingConfig(cfg.ReportingConfig()),
		engine.WithLogger(logger),
		engine.WithStrategyName(cfg.Strategy.Name),
	}
	base := baseParams(factory(), cfg.Strategy.Params, candles[0].Ticker)

	var results []*engine.Result
	if len(cfg.Sweep.Params) > 0 {
		grid := sweep.Grid(cfg.Sweep.Params)
		for _, p := range grid {
			for k, v := range base {
				if _, ok := p[k]; !ok {
					p[k] = v
				}
			}
		}
		logger.Info().Int("runs", len(grid)).Int("parallelism", cfg.Sweep.Parallelism).Msg("sweep started")
		results, err = sweep.Run(ctx, sweep.Factory(factory), candles, cfg.Capital(), grid, cfg.Sweep.Parallelism, opts...)
		if err != nil {
			return err
		}
		printSweep(results)
	} else {
		opts = append(opts, engine.WithProgress(cfg.Reporting.Progress))
		res, err := engine.NewEngine(factory(), opts...).Run(candles, cfg.Capital(), base)
		if err != nil {
			return err
		}
		results = []*engine.Result{res}
	}

	best := sweep.Best(results)
	if cfg.PrintReport() {
		engine.PrintReport(os.Stdout, best)
	}
	if err := writeCSVs(cfg, best); err != nil {
		return err
	}
	return saveResults(ctx, cfg, logger, results)
}

func loadCandles(ctx context.Context, cfg *config.Config) ([]types.Candle, error) {
	start, err := cfg.StartTime()
	if err != nil {
		return nil, err
	}
	end, err := cfg.EndTime()
	if err != nil {
		return nil, err
	}

	var candles []types.Candle
	switch cfg.Data.Source {
	case "postgres":
		db, err := repository.NewDatabase(ctx, cfg.Data.DBURL)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return db.LoadCandles(ctx, cfg.Data.Ticker, cfg.Interval(), start, end)
	case "parquet":
		candles, err = repository.NewParquetStore("").ReadCandles(cfg.Data.Path, cfg.Data.Ticker, cfg.Interval())
	default:
		candles, err = repository.ReadCandlesCSVFile(cfg.Data.Path, cfg.Data.Ticker, cfg.Interval())
	}
	if err != nil {
		return nil, err
	}

	candles = clip(candles, start, end)
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles between %s and %s: %w", start.Format(time.DateOnly), end.Format(time.DateOnly), repository.ErrNoCandles)
	}
	return candles, nil
}

// clip keeps candles in [start, end). Zero bounds are open.
func clip(candles []types.Candle, start, end time.Time) []types.Candle {
	out := candles[:0:0]
	for _, c := range candles {
		if !start.IsZero() && c.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && !c.Timestamp.Before(end) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// baseParams copies the configured parameters and points an unset "asset"
// parameter at the loaded ticker.
func baseParams(strat engine.Strategy, configured map[string]any, ticker string) engine.Params {
	params := make(engine.Params, len(configured)+1)
	for k, v := range configured {
		params[k] = v
	}
	for _, ps := range strat.Parameters() {
		if ps.Name != "asset" || ticker == "" {
			continue
		}
		if _, ok := params["asset"]; !ok {
			params["asset"] = ticker
		}
	}
	return params
}

func printSweep(results []*engine.Result) {
	fmt.Printf("%-36s %12s %10s %8s %8s  %s\n", "run", "final", "return%", "sharpe", "trades", "params")
	for _, r := range results {
		fmt.Printf("%-36s %12s %10s %8s %8d  %v\n",
			r.RunID,
			r.FinalEquity.StringFixed(2),
			r.TotalReturnPct.StringFixed(2),
			r.SharpeRatio.StringFixed(2),
			r.TotalTrades,
			r.Params,
		)
	}
	fmt.Println()
}

func writeCSVs(cfg *config.Config, res *engine.Result) error {
	if cfg.Reporting.TradesCSV != "" {
		if err := engine.WriteTradesCSVFile(cfg.Reporting.TradesCSV, res.Trades); err != nil {
			return err
		}
	}
	if cfg.Reporting.EquityCSV != "" {
		if err := engine.WriteEquityCSVFile(cfg.Reporting.EquityCSV, res.EquityCurve); err != nil {
			return err
		}
	}
	return nil
}

func saveResults(ctx context.Context, cfg *config.Config, logger zerolog.Logger, results []*engine.Result) error {
	if cfg.Results.SQLitePath == "" {
		return nil
	}
	store, err := resultstore.Open(cfg.Results.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, r := range results {
		if err := store.SaveResult(ctx, r); err != nil {
			return err
		}
	}
	logger.Info().
		Str("path", cfg.Results.SQLitePath).
		Int("runs", len(results)).
		Str("capital", cfg.Capital().String()).
		Msg("results saved")
	return nil
}
