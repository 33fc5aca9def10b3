package engine

import (
	"barsim/types"
	"time"

	"github.com/shopspring/decimal"
)

// Strategy is the contract the backtester drives. Parameters declares the
// accepted configuration, Initialize runs once before the first bar with the
// resolved values and OnBar runs once per bar. Orders are placed through the
// BarContext during OnBar and fill immediately at the bar's close.
type Strategy interface {
	Parameters() []ParamSpec
	Initialize(cfg Config) error
	OnBar(ctx *BarContext, data DataView) error
}

// DataView exposes the bar series as of the current simulation instant only.
type DataView interface {
	Time() time.Time
	Ticker() string
	Current(field Field) decimal.Decimal
	History(field Field, lookback int) []decimal.Decimal
	Candles(lookback int) []types.Candle
}

type executor interface {
	rebalanceToTarget(symbol string, target decimal.Decimal) error
	snapshot() types.PortfolioView
}
