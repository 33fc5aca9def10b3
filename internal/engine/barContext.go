package engine

import (
	"barsim/types"
	"time"

	"github.com/shopspring/decimal"
)

// BarContext is handed to Strategy.OnBar. It is only valid for the bar it was
// built for.
type BarContext struct {
	exec   executor
	index  int
	time   time.Time
	ticker string
}

// OrderTargetPercent rebalances symbol so its value equals target times total
// equity, filling at the current bar's close. Negative targets open shorts and
// targets above one lever the account.
func (c *BarContext) OrderTargetPercent(symbol string, target decimal.Decimal) error {
	return c.exec.rebalanceToTarget(symbol, target)
}

func (c *BarContext) Time() time.Time { return c.time }

func (c *BarContext) Ticker() string { return c.ticker }

// BarIndex is the zero-based position of the current bar in the series.
func (c *BarContext) BarIndex() int { return c.index }

func (c *BarContext) Portfolio() types.PortfolioView {
	return c.exec.snapshot()
}
