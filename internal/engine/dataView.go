package engine

import (
	"barsim/types"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Field string

const (
	FieldPrice  Field = "price"
	FieldOpen   Field = "open"
	FieldHigh   Field = "high"
	FieldLow    Field = "low"
	FieldClose  Field = "close"
	FieldVolume Field = "volume"
)

// ParseField maps a field name to a Field. "price" is an alias for the close.
func ParseField(s string) (Field, error) {
	f := Field(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FieldPrice, FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume:
		return f, nil
	}
	return "", fmt.Errorf("unknown bar field %q", s)
}

func (f Field) of(c types.Candle) decimal.Decimal {
	switch f {
	case FieldPrice, FieldClose:
		return c.Close
	case FieldOpen:
		return c.Open
	case FieldHigh:
		return c.High
	case FieldLow:
		return c.Low
	case FieldVolume:
		return c.Volume
	}
	return decimal.Zero
}

// dataView is the point-in-time window over the series. candles always ends at
// the current bar and its capacity is clipped there too, so neither indexing
// nor append can reach a later bar.
type dataView struct {
	candles []types.Candle
}

func newDataView(series []types.Candle, index int) *dataView {
	return &dataView{candles: series[: index+1 : index+1]}
}

func (v *dataView) current() types.Candle {
	return v.candles[len(v.candles)-1]
}

func (v *dataView) Time() time.Time {
	return v.current().Timestamp
}

func (v *dataView) Ticker() string {
	return v.current().Ticker
}

func (v *dataView) Current(field Field) decimal.Decimal {
	return field.of(v.current())
}

// History returns up to lookback values of field ending at the current bar,
// oldest first. Fewer values come back when the run has not seen enough bars.
func (v *dataView) History(field Field, lookback int) []decimal.Decimal {
	window := v.window(lookback)
	out := make([]decimal.Decimal, len(window))
	for i, c := range window {
		out[i] = field.of(c)
	}
	return out
}

func (v *dataView) Candles(lookback int) []types.Candle {
	window := v.window(lookback)
	out := make([]types.Candle, len(window))
	copy(out, window)
	return out
}

func (v *dataView) window(lookback int) []types.Candle {
	if lookback <= 0 {
		return nil
	}
	start := len(v.candles) - lookback
	if start < 0 {
		start = 0
	}
	return v.candles[start:]
}
