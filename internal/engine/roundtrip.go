package engine

import (
	"barsim/types"
	"time"

	"github.com/shopspring/decimal"
)

// RoundTrip is one entry/exit cycle in a ticker: it opens when the position
// leaves zero and closes when it returns to zero or flips sign. Scale-ins move
// the average entry price; partial exits accumulate realized PnL.
type RoundTrip struct {
	Ticker     string          `json:"ticker"`
	Direction  types.Direction `json:"direction"`
	EntryTime  time.Time       `json:"entryTime"`
	ExitTime   time.Time       `json:"exitTime,omitempty"`
	EntryPrice decimal.Decimal `json:"entryPrice"`
	ExitPrice  decimal.Decimal `json:"exitPrice"`
	Quantity   decimal.Decimal `json:"quantity"`
	PnL        decimal.Decimal `json:"pnl"`
	Closed     bool            `json:"closed"`
}

type roundTripState struct {
	qty          decimal.Decimal
	avgCost      decimal.Decimal
	exitQty      decimal.Decimal
	exitNotional decimal.Decimal
	current      *RoundTrip
}

// buildRoundTrips replays the trade log per ticker. Round trips come back in
// the order they were opened; the last one per ticker may still be open.
func buildRoundTrips(trades []types.Trade) []RoundTrip {
	var trips []*RoundTrip
	states := make(map[string]*roundTripState)

	open := func(st *roundTripState, t types.Trade, qty decimal.Decimal) {
		direction := types.DirectionLong
		if qty.IsNegative() {
			direction = types.DirectionShort
		}
		st.qty = qty
		st.avgCost = t.Price
		st.exitQty = decimal.Zero
		st.exitNotional = decimal.Zero
		st.current = &RoundTrip{
			Ticker:     t.Ticker,
			Direction:  direction,
			EntryTime:  t.Time,
			EntryPrice: t.Price,
			Quantity:   qty.Abs(),
			PnL:        decimal.Zero,
		}
		trips = append(trips, st.current)
	}

	for _, t := range trades {
		st := states[t.Ticker]
		if st == nil {
			st = &roundTripState{}
			states[t.Ticker] = st
		}
		if t.Shares.IsZero() {
			continue
		}

		if st.qty.IsZero() {
			open(st, t, t.Shares)
			continue
		}

		newQty := st.qty.Add(t.Shares)
		if sameSide(st.qty, t.Shares) {
			st.avgCost = weightedAvg(st.avgCost, st.qty.Abs(), t.Price, t.Shares.Abs())
			st.qty = newQty
			st.current.EntryPrice = st.avgCost
			st.current.Quantity = st.current.Quantity.Add(t.Shares.Abs())
			continue
		}

		closing := decimal.Min(t.Shares.Abs(), st.qty.Abs())
		pnl := t.Price.Sub(st.avgCost).Mul(closing)
		if st.qty.IsNegative() {
			pnl = pnl.Neg()
		}
		rt := st.current
		rt.PnL = rt.PnL.Add(pnl)
		st.exitQty = st.exitQty.Add(closing)
		st.exitNotional = st.exitNotional.Add(t.Price.Mul(closing))
		rt.ExitPrice = st.exitNotional.Div(st.exitQty)

		switch {
		case newQty.IsZero():
			rt.ExitTime = t.Time
			rt.Closed = true
			st.qty = decimal.Zero
			st.current = nil
		case !sameSide(st.qty, newQty):
			rt.ExitTime = t.Time
			rt.Closed = true
			open(st, t, newQty)
		default:
			st.qty = newQty
		}
	}

	out := make([]RoundTrip, len(trips))
	for i, rt := range trips {
		out[i] = *rt
	}
	return out
}

func closedRoundTrips(trips []RoundTrip) []RoundTrip {
	closed := make([]RoundTrip, 0, len(trips))
	for _, rt := range trips {
		if rt.Closed {
			closed = append(closed, rt)
		}
	}
	return closed
}
