package engine

import (
	"barsim/types"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
)

// backtester owns the state of exactly one run: clock, ledger, trade log and
// equity curve. Nothing here is shared between runs.
type backtester struct {
	ticker       string
	candles      []types.Candle
	strategy     Strategy
	portfolio    *portfolio
	logger       zerolog.Logger
	showProgress bool

	index    int
	curTime  time.Time
	view     *dataView
	trades   []types.Trade
	equity   []types.EquityPoint
	finished bool
}

func newBacktester(candles []types.Candle, strat Strategy, p *portfolio, logger zerolog.Logger, showProgress bool) *backtester {
	return &backtester{
		ticker:       candles[0].Ticker,
		candles:      candles,
		strategy:     strat,
		portfolio:    p,
		logger:       logger,
		showProgress: showProgress,
		index:        -1,
		trades:       make([]types.Trade, 0),
		equity:       make([]types.EquityPoint, 0, len(candles)),
	}
}

func (b *backtester) run() error {
	var bar *progressbar.ProgressBar
	if b.showProgress {
		bar = initProgressBar(len(b.candles))
	}

	for i := range b.candles {
		b.advance(i)

		ctx := &BarContext{exec: b, index: i, time: b.curTime, ticker: b.ticker}
		if err := b.strategy.OnBar(ctx, b.view); err != nil {
			return fmt.Errorf("bar %d (%s): %w", i, b.curTime.Format(time.RFC3339), err)
		}

		// Orders placed during OnBar are already in the ledger, so this mark
		// includes them.
		closePrice := b.candles[i].Close
		total := b.portfolio.markToMarket(func(string) decimal.Decimal { return closePrice })
		b.equity = append(b.equity, types.EquityPoint{Time: b.curTime, Value: total})

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	b.finished = true
	b.view = nil
	return nil
}

// advance moves the clock to bar i. The index only goes one way.
func (b *backtester) advance(i int) {
	if i <= b.index {
		panic(fmt.Sprintf("backtester clock rewind: %d -> %d", b.index, i))
	}
	b.index = i
	b.curTime = b.candles[i].Timestamp
	b.view = newDataView(b.candles, i)
}

func initProgressBar(maxTicks int) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription("Backtesting in progress..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
