// Package supertrend trades a SuperTrend crossover filtered by ADX trend
// strength.
package supertrend

import (
	"barsim/internal/engine"
	"errors"
	"math"

	"github.com/shopspring/decimal"
)

var errPeriod = errors.New("supertrend_period and adx_period must be at least 2")

// Strategy goes fully long when the close crosses above the SuperTrend line
// while ADX is above the threshold, and exits when the close crosses back
// below under the same condition. It never shorts.
type Strategy struct {
	asset        string
	period       int
	multiplier   float64
	adxPeriod    int
	adxThreshold float64
}

func New() engine.Strategy {
	return &Strategy{}
}

func (s *Strategy) Parameters() []engine.ParamSpec {
	return []engine.ParamSpec{
		{Name: "asset", Kind: engine.KindText, Default: "SPY"},
		{Name: "supertrend_period", Kind: engine.KindInteger, Default: 10},
		{Name: "supertrend_multiplier", Kind: engine.KindNumber, Default: 3},
		{Name: "adx_period", Kind: engine.KindInteger, Default: 14},
		{Name: "adx_threshold", Kind: engine.KindNumber, Default: 25},
	}
}

func (s *Strategy) Initialize(cfg engine.Config) error {
	s.asset = cfg.String("asset")
	s.period = cfg.Int("supertrend_period")
	s.multiplier = cfg.Float("supertrend_multiplier")
	s.adxPeriod = cfg.Int("adx_period")
	s.adxThreshold = cfg.Float("adx_threshold")
	if s.period < 2 || s.adxPeriod < 2 {
		return errPeriod
	}
	return nil
}

// OnBar recomputes both indicators over up to the trailing 2*adx_period bars.
// It waits for max(supertrend_period, adx_period) bars and skips bars where the
// indicators are still undefined on the last two rows.
func (s *Strategy) OnBar(ctx *engine.BarContext, data engine.DataView) error {
	window := 2 * s.adxPeriod
	high := floats(data.History(engine.FieldHigh, window))
	if len(high) < max(s.period, s.adxPeriod) {
		return nil
	}
	low := floats(data.History(engine.FieldLow, window))
	closes := floats(data.History(engine.FieldClose, window))

	line, _ := superTrend(high, low, closes, s.period, s.multiplier)
	adx := averageDirectionalIndex(high, low, closes, s.adxPeriod)

	last, prev := len(closes)-1, len(closes)-2
	for _, v := range []float64{line[last], line[prev], adx[last], adx[prev]} {
		if math.IsNaN(v) {
			return nil
		}
	}

	strong := adx[last] > s.adxThreshold
	buy := strong && closes[prev] <= line[prev] && closes[last] > line[last]
	sell := strong && closes[prev] >= line[prev] && closes[last] < line[last]

	inPosition := ctx.Portfolio().Positions[s.asset].Quantity.IsPositive()
	switch {
	case buy && !inPosition:
		return ctx.OrderTargetPercent(s.asset, decimal.NewFromInt(1))
	case sell && inPosition:
		return ctx.OrderTargetPercent(s.asset, decimal.Zero)
	}
	return nil
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}
