package engine

import (
	"barsim/types"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rebalanceToTarget trades symbol at the current close so that its value
// becomes target * (cash + position value). The price used for sizing is the
// fill price. A zero share delta records nothing.
func (b *backtester) rebalanceToTarget(symbol string, target decimal.Decimal) error {
	if b.finished || b.view == nil {
		return ErrRunFinished
	}
	if symbol != b.ticker {
		return fmt.Errorf("%w: %q (run trades %q)", ErrUnknownAsset, symbol, b.ticker)
	}

	price := b.view.Current(FieldClose)
	if !price.IsPositive() {
		return fmt.Errorf("%w: %s at %s", ErrZeroClosePrice, symbol, b.curTime.Format(time.RFC3339))
	}

	currentValue := b.portfolio.quantity(symbol).Mul(price)
	portfolioValue := b.portfolio.cash.Add(currentValue)
	targetValue := portfolioValue.Mul(target)
	// Truncated toward zero so a buy never costs more than the cash it was
	// sized from and a repeated target leaves nothing to trade.
	shares, _ := targetValue.Sub(currentValue).QuoRem(price, int32(decimal.DivisionPrecision))
	if shares.IsZero() {
		return nil
	}

	side := types.SideTypeBuy
	if shares.IsNegative() {
		side = types.SideTypeSell
	}
	if err := b.portfolio.applyFill(symbol, shares, price); err != nil {
		return fmt.Errorf("%s %s %s @ %s: %w", side, shares, symbol, price, err)
	}

	trade := types.Trade{
		ID:     uuid.NewString(),
		Ticker: symbol,
		Side:   side,
		Shares: shares,
		Price:  price,
		Time:   b.curTime,
	}
	b.trades = append(b.trades, trade)

	b.logger.Debug().
		Str("ticker", symbol).
		Str("side", string(side)).
		Str("shares", shares.String()).
		Str("price", price.String()).
		Time("time", b.curTime).
		Msg("fill")
	return nil
}

func (b *backtester) snapshot() types.PortfolioView {
	return b.portfolio.GetPortfolioSnapshot(b.curTime)
}
