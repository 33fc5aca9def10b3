package engine

import (
	"barsim/types"
	"time"

	"github.com/shopspring/decimal"
)

// portfolio is the ledger. It is owned by a single backtester and mutated only
// from its loop: once per fill and once per bar when marking to market.
type portfolio struct {
	cash              decimal.Decimal
	positions         map[string]*Position
	totalValue        decimal.Decimal
	allowShortSelling bool
	allowNegativeCash bool
}

type Position struct {
	Symbol    string
	Quantity  decimal.Decimal
	AvgCost   decimal.Decimal
	LastPrice decimal.Decimal
}

func newPortfolio(initialCash decimal.Decimal, cfg PortfolioConfig) *portfolio {
	return &portfolio{
		cash:              initialCash,
		positions:         make(map[string]*Position),
		totalValue:        initialCash,
		allowShortSelling: cfg.allowShortSelling,
		allowNegativeCash: cfg.allowNegativeCash,
	}
}

func (p *portfolio) quantity(symbol string) decimal.Decimal {
	if pos := p.positions[symbol]; pos != nil {
		return pos.Quantity
	}
	return decimal.Zero
}

// applyFill books a signed quantity at price. The ledger is left untouched when
// the fill is rejected by the short-selling or cash policy.
func (p *portfolio) applyFill(symbol string, quantity, price decimal.Decimal) error {
	newCash := p.cash.Sub(price.Mul(quantity))
	if !p.allowNegativeCash && newCash.IsNegative() {
		return InsufficientBalanceErr
	}

	pos := p.positions[symbol]
	oldQty := p.quantity(symbol)
	newQty := oldQty.Add(quantity)
	if !p.allowShortSelling && newQty.IsNegative() {
		return ShortSellNotAllowedErr
	}

	p.cash = newCash
	if newQty.IsZero() {
		delete(p.positions, symbol)
		return nil
	}
	if pos == nil {
		pos = &Position{Symbol: symbol}
		p.positions[symbol] = pos
	}

	switch {
	case oldQty.IsZero():
		pos.AvgCost = price
	case sameSide(oldQty, newQty):
		absOld := oldQty.Abs()
		absAdd := quantity.Abs()
		if newQty.Abs().GreaterThan(absOld) && !absAdd.IsZero() {
			pos.AvgCost = weightedAvg(pos.AvgCost, absOld, price, absAdd)
		}
	default:
		// flipped through zero, the remainder was opened at this price
		pos.AvgCost = price
	}
	pos.Quantity = newQty
	pos.LastPrice = price
	return nil
}

// markToMarket revalues every position with priceOf and recomputes total value.
func (p *portfolio) markToMarket(priceOf func(symbol string) decimal.Decimal) decimal.Decimal {
	total := p.cash
	for sym, pos := range p.positions {
		pos.LastPrice = priceOf(sym)
		total = total.Add(pos.Quantity.Mul(pos.LastPrice))
	}
	p.totalValue = total
	return total
}

func (p *portfolio) GetPortfolioSnapshot(curTime time.Time) types.PortfolioView {
	view := types.PortfolioView{
		Cash:       p.cash,
		TotalValue: p.totalValue,
		Positions:  make(map[string]types.PositionSnapshot, len(p.positions)),
		Time:       curTime,
	}

	for sym, pos := range p.positions {
		view.Positions[sym] = types.PositionSnapshot{
			Symbol:        pos.Symbol,
			Quantity:      pos.Quantity,
			AvgEntryPrice: pos.AvgCost,
			LastPrice:     pos.LastPrice,
		}
	}
	return view
}

func sameSide(a, b decimal.Decimal) bool {
	return (a.GreaterThan(decimal.Zero) && b.GreaterThan(decimal.Zero)) ||
		(a.LessThan(decimal.Zero) && b.LessThan(decimal.Zero))
}

func weightedAvg(existingAvgPrice, existingQty, newPrice, newQty decimal.Decimal) decimal.Decimal {
	if existingQty.IsZero() {
		return newPrice
	}
	return existingAvgPrice.Mul(existingQty).
		Add(newPrice.Mul(newQty)).
		Div(existingQty.Add(newQty))
}
