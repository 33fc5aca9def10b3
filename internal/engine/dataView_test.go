package engine

import (
	"barsim/types"
	"testing"
)

func TestDataView_History(t *testing.T) {
	series := mockCandles("1", "2", "3", "4", "5")

	tests := []struct {
		name     string
		index    int
		lookback int
		want     []string
	}{
		{name: "full window", index: 4, lookback: 3, want: []string{"3", "4", "5"}},
		{name: "window clipped at start", index: 1, lookback: 5, want: []string{"1", "2"}},
		{name: "first bar", index: 0, lookback: 2, want: []string{"1"}},
		{name: "mid series never sees later bars", index: 2, lookback: 10, want: []string{"1", "2", "3"}},
		{name: "zero lookback", index: 3, lookback: 0, want: []string{}},
		{name: "negative lookback", index: 3, lookback: -1, want: []string{}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := newDataView(series, tc.index)
			got := v.History(FieldClose, tc.lookback)
			if got == nil {
				t.Fatal("History returned nil")
			}
			if len(got) != len(tc.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if !got[i].Equal(d(tc.want[i])) {
					t.Errorf("history[%d] = %s, want %s", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestDataView_CurrentAndFields(t *testing.T) {
	series := []types.Candle{{
		Ticker:    "AAPL",
		Open:      d("10"),
		High:      d("12"),
		Low:       d("9"),
		Close:     d("11"),
		Volume:    d("500"),
		Timestamp: testStart,
	}}
	v := newDataView(series, 0)

	tests := []struct {
		field Field
		want  string
	}{
		{FieldOpen, "10"},
		{FieldHigh, "12"},
		{FieldLow, "9"},
		{FieldClose, "11"},
		{FieldPrice, "11"},
		{FieldVolume, "500"},
	}
	for _, tc := range tests {
		if got := v.Current(tc.field); !got.Equal(d(tc.want)) {
			t.Errorf("Current(%s) = %s, want %s", tc.field, got, tc.want)
		}
	}
	if v.Ticker() != "AAPL" || !v.Time().Equal(testStart) {
		t.Errorf("ticker/time = %s/%s", v.Ticker(), v.Time())
	}
}

func TestDataView_CannotReachFuture(t *testing.T) {
	series := mockCandles("1", "2", "3")
	v := newDataView(series, 0)

	if cap(v.candles) != 1 {
		t.Fatalf("view capacity = %d, want 1", cap(v.candles))
	}
	grown := append(v.candles, types.Candle{Ticker: "X"})
	_ = grown
	if series[1].Ticker != "AAPL" {
		t.Error("appending to the view overwrote the next bar")
	}

	cs := v.Candles(5)
	cs[0].Close = d("999")
	if !series[0].Close.Equal(d("1")) {
		t.Error("Candles returned a slice aliasing the series")
	}
}

func TestParseField(t *testing.T) {
	tests := []struct {
		in      string
		want    Field
		wantErr bool
	}{
		{"close", FieldClose, false},
		{" High ", FieldHigh, false},
		{"PRICE", FieldPrice, false},
		{"volume", FieldVolume, false},
		{"vwap", "", true},
	}
	for _, tc := range tests {
		got, err := ParseField(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseField(%q) err = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseField(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
