package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is one recorded fill. Shares is the signed quantity delta: positive for
// buys, negative for sells.
type Trade struct {
	ID     string          `json:"id"`
	Ticker string          `json:"ticker"`
	Side   Side            `json:"side"`
	Shares decimal.Decimal `json:"shares"`
	Price  decimal.Decimal `json:"price"`
	Time   time.Time       `json:"time"`
}

// Value is the signed cash cost of the fill (shares * price).
func (t Trade) Value() decimal.Decimal {
	return t.Shares.Mul(t.Price)
}
