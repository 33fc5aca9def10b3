package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type EquityPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}
