package engine

import (
	"barsim/types"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Engine runs a strategy over a bar series. An Engine and the strategy it
// wraps belong to one goroutine; parallel runs need their own instances.
type Engine struct {
	strategy        Strategy
	strategyName    string
	portfolioConfig PortfolioConfig
	reportingConfig ReportingConfig
	logger          zerolog.Logger
	showProgress    bool
}

type Option func(*Engine)

func WithPortfolioConfig(cfg PortfolioConfig) Option {
	return func(e *Engine) { e.portfolioConfig = cfg }
}

func WithReportingConfig(cfg ReportingConfig) Option {
	return func(e *Engine) { e.reportingConfig = cfg }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithProgress(show bool) Option {
	return func(e *Engine) { e.showProgress = show }
}

func WithStrategyName(name string) Option {
	return func(e *Engine) { e.strategyName = name }
}

func NewEngine(strat Strategy, opts ...Option) *Engine {
	e := &Engine{
		strategy:        strat,
		strategyName:    fmt.Sprintf("%T", strat),
		portfolioConfig: DefaultPortfolioConfig(),
		reportingConfig: DefaultReportingConfig(),
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run validates the inputs, initializes the strategy with params, drives it
// over every candle and computes the result. Any error aborts the run and no
// partial result is returned.
func (e *Engine) Run(candles []types.Candle, initialCash decimal.Decimal, params Params) (*Result, error) {
	if e.strategy == nil {
		return nil, ErrNilStrategy
	}
	if !initialCash.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", ErrNonPositiveCapital, initialCash)
	}
	if err := validateCandles(candles); err != nil {
		return nil, err
	}

	cfg, err := ResolveParams(e.strategy.Parameters(), params)
	if err != nil {
		return nil, err
	}
	if err := e.strategy.Initialize(cfg); err != nil {
		return nil, fmt.Errorf("%w: initialize %s: %w", ErrConfiguration, e.strategyName, err)
	}

	runID := uuid.NewString()
	logger := e.logger.With().Str("run", runID).Str("strategy", e.strategyName).Logger()
	logger.Info().
		Str("ticker", candles[0].Ticker).
		Int("bars", len(candles)).
		Str("capital", initialCash.String()).
		Msg("backtest started")

	bt := newBacktester(candles, e.strategy, newPortfolio(initialCash, e.portfolioConfig), logger, e.showProgress)
	if err := bt.run(); err != nil {
		logger.Error().Err(err).Msg("backtest failed")
		return nil, err
	}

	result := generateResult(initialCash, bt.equity, bt.trades, e.reportingConfig)
	result.RunID = runID
	result.Strategy = e.strategyName
	result.Ticker = bt.ticker
	result.Params = cfg.Values()

	logger.Info().
		Str("finalEquity", result.FinalEquity.StringFixed(2)).
		Str("returnPct", result.TotalReturnPct.StringFixed(2)).
		Int("trades", result.TotalTrades).
		Msg("backtest finished")
	return result, nil
}

func validateCandles(candles []types.Candle) error {
	if len(candles) == 0 {
		return ErrEmptySeries
	}
	ticker := candles[0].Ticker
	for i, c := range candles {
		if c.Ticker != ticker {
			return fmt.Errorf("%w: bar %d is %q, expected %q", ErrMixedTickers, i, c.Ticker, ticker)
		}
		if c.Timestamp.IsZero() {
			return fmt.Errorf("%w: bar %d has no timestamp", ErrData, i)
		}
		if i > 0 && !c.Timestamp.After(candles[i-1].Timestamp) {
			return fmt.Errorf("%w: bar %d at %s follows %s", ErrNonChronological, i,
				c.Timestamp.Format(time.RFC3339), candles[i-1].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
