package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle is a single OHLCV bar. Timestamp marks the open of the interval.
type Candle struct {
	AssetId   int             `json:"assetId,omitempty"`
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}
