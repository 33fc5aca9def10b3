package donchian

import (
	"barsim/internal/engine"
	"barsim/types"

	"github.com/shopspring/decimal"
)

// Strategy is a long-only Donchian channel breakout. It goes long when the
// bar's high breaks the highest high of the preceding lookback bars and goes
// flat when the low breaks the lowest low. With atr_stop set, a long is also
// closed once the close falls below entry close minus atr_stop times ATR.
type Strategy struct {
	lookback        int
	positionPercent decimal.Decimal
	atrStop         decimal.Decimal

	stopLoss decimal.Decimal
}

func New() engine.Strategy {
	return &Strategy{}
}

func (s *Strategy) Parameters() []engine.ParamSpec {
	return []engine.ParamSpec{
		{Name: "lookback", Kind: engine.KindInteger, Default: 20},
		{Name: "position_percent", Kind: engine.KindNumber, Default: 1.0},
		{Name: "atr_stop", Kind: engine.KindNumber, Default: 0},
	}
}

func (s *Strategy) Initialize(cfg engine.Config) error {
	s.lookback = cfg.Int("lookback")
	if s.lookback < 1 {
		return errLookback
	}
	s.positionPercent = cfg.Decimal("position_percent")
	if !s.positionPercent.IsPositive() {
		return errPositionPercent
	}
	s.atrStop = cfg.Decimal("atr_stop")
	s.stopLoss = decimal.Zero
	return nil
}

func (s *Strategy) OnBar(ctx *engine.BarContext, data engine.DataView) error {
	// the channel needs lookback completed bars plus the current one
	hist := data.Candles(s.lookback + 1)
	if len(hist) < s.lookback+1 {
		return nil
	}
	candle := hist[len(hist)-1]
	highestHigh, lowestLow := donchianHighLow(hist[:len(hist)-1])

	breakUp := candle.High.GreaterThan(highestHigh)
	breakDown := candle.Low.LessThan(lowestLow)

	ticker := ctx.Ticker()
	qty := ctx.Portfolio().Positions[ticker].Quantity

	switch {
	case qty.IsZero():
		// a bar breaking both sides gives no direction
		if !breakUp || breakDown {
			return nil
		}
		if s.atrStop.IsPositive() {
			s.stopLoss = candle.Close.Sub(calcATR(hist, s.lookback).Mul(s.atrStop))
		}
		return ctx.OrderTargetPercent(ticker, s.positionPercent)

	case qty.IsPositive():
		stopped := s.atrStop.IsPositive() && candle.Close.LessThan(s.stopLoss)
		if (breakDown && !breakUp) || stopped {
			s.stopLoss = decimal.Zero
			return ctx.OrderTargetPercent(ticker, decimal.Zero)
		}
	}
	return nil
}

// Utility: Donchian Channel High/Low
func donchianHighLow(candles []types.Candle) (decimal.Decimal, decimal.Decimal) {
	if len(candles) == 0 {
		return decimal.Zero, decimal.Zero
	}

	highest := candles[0].High
	lowest := candles[0].Low

	for _, c := range candles {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		if c.Low.LessThan(lowest) {
			lowest = c.Low
		}
	}
	return highest, lowest
}

// calcATR is Wilder's average true range over period, seeded with the simple
// mean of the first period true ranges.
func calcATR(candles []types.Candle, period int) decimal.Decimal {
	if period < 1 || len(candles) < period+1 {
		return decimal.Zero // need enough data (prev candle + period)
	}

	trueRanges := make([]decimal.Decimal, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close

		range1 := high.Sub(low)
		range2 := high.Sub(prevClose).Abs()
		range3 := low.Sub(prevClose).Abs()

		trueRanges = append(trueRanges, decimal.Max(range1, range2, range3))
	}

	p := decimal.NewFromInt(int64(period))
	atr := decimal.Zero
	for _, tr := range trueRanges[:period] {
		atr = atr.Add(tr)
	}
	atr = atr.Div(p)

	for i := period; i < len(trueRanges); i++ {
		atr = atr.Mul(decimal.NewFromInt(int64(period - 1))).Add(trueRanges[i]).Div(p)
	}
	return atr
}
