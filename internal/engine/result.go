package engine

import (
	"barsim/types"
	"time"

	"github.com/shopspring/decimal"
)

// Result is the outcome of one run. MaxDrawdown is a fraction of the peak in
// [-1, 0]; TotalReturnPct and WinRatePct are percentages.
type Result struct {
	RunID    string         `json:"runId"`
	Strategy string         `json:"strategy"`
	Ticker   string         `json:"ticker"`
	Params   map[string]any `json:"params,omitempty"`

	InitialCapital decimal.Decimal `json:"initialCapital"`
	FinalEquity    decimal.Decimal `json:"finalEquity"`
	TotalReturnPct decimal.Decimal `json:"totalReturnPct"`
	SharpeRatio    decimal.Decimal `json:"sharpeRatio"`
	MaxDrawdown    decimal.Decimal `json:"maxDrawdown"`

	EquityCurve []types.EquityPoint `json:"equityCurve"`
	Trades      []types.Trade       `json:"trades"`
	RoundTrips  []RoundTrip         `json:"roundTrips"`

	TotalTrades   int             `json:"totalTrades"`
	WinningTrades int             `json:"winningTrades"`
	LosingTrades  int             `json:"losingTrades"`
	WinRatePct    decimal.Decimal `json:"winRatePct"`

	Report Report `json:"report"`
}

// ToMap flattens the result into primitive values and slices of maps so any
// transport can encode it without knowing about decimal or time types.
func (r *Result) ToMap() map[string]any {
	curve := make([]map[string]any, len(r.EquityCurve))
	for i, p := range r.EquityCurve {
		curve[i] = map[string]any{
			"date":  formatDate(p.Time),
			"value": p.Value.Round(2).InexactFloat64(),
		}
	}

	trades := make([]map[string]any, len(r.Trades))
	for i, t := range r.Trades {
		trades[i] = map[string]any{
			"id":     t.ID,
			"date":   formatDate(t.Time),
			"asset":  t.Ticker,
			"type":   string(t.Side),
			"shares": t.Shares.InexactFloat64(),
			"price":  t.Price.InexactFloat64(),
			"value":  t.Value().Abs().Round(2).InexactFloat64(),
		}
	}

	trips := make([]map[string]any, len(r.RoundTrips))
	for i, rt := range r.RoundTrips {
		m := map[string]any{
			"asset":       rt.Ticker,
			"direction":   string(rt.Direction),
			"entry_date":  formatDate(rt.EntryTime),
			"entry_price": rt.EntryPrice.InexactFloat64(),
			"quantity":    rt.Quantity.InexactFloat64(),
			"pnl":         rt.PnL.Round(2).InexactFloat64(),
			"closed":      rt.Closed,
		}
		if rt.Closed {
			m["exit_date"] = formatDate(rt.ExitTime)
			m["exit_price"] = rt.ExitPrice.InexactFloat64()
		}
		trips[i] = m
	}

	params := make(map[string]any, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}

	return map[string]any{
		"run_id":           r.RunID,
		"strategy":         r.Strategy,
		"ticker":           r.Ticker,
		"params":           params,
		"initial_capital":  r.InitialCapital.InexactFloat64(),
		"final_equity":     r.FinalEquity.Round(2).InexactFloat64(),
		"total_return_pct": r.TotalReturnPct.Round(2).InexactFloat64(),
		"sharpe_ratio":     r.SharpeRatio.Round(2).InexactFloat64(),
		"max_drawdown":     r.MaxDrawdown.Round(4).InexactFloat64(),
		"equity_curve":     curve,
		"total_trades":     r.TotalTrades,
		"winning_trades":   r.WinningTrades,
		"losing_trades":    r.LosingTrades,
		"win_rate_pct":     r.WinRatePct.Round(2).InexactFloat64(),
		"trades":           trades,
		"round_trips":      trips,
	}
}

// formatDate renders daily bars as a calendar date and anything intraday as
// RFC3339.
func formatDate(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
