package engine

import (
	"errors"
	"math"
	"testing"
)

func TestResolveParams(t *testing.T) {
	specs := []ParamSpec{
		{Name: "asset", Kind: KindText, Default: "SPY"},
		{Name: "period", Kind: KindInteger, Default: 10},
		{Name: "multiplier", Kind: KindNumber, Default: 3.0},
		{Name: "long_only", Kind: KindBool, Default: false},
		{Name: "threshold", Kind: KindNumber},
	}

	tests := []struct {
		name    string
		raw     Params
		check   func(t *testing.T, cfg Config)
		wantErr error
	}{
		{
			name: "defaults fill in",
			raw:  nil,
			check: func(t *testing.T, cfg Config) {
				if cfg.String("asset") != "SPY" || cfg.Int("period") != 10 || cfg.Float("multiplier") != 3 || cfg.Bool("long_only") {
					t.Errorf("defaults = %v", cfg.Values())
				}
				if cfg.Has("threshold") {
					t.Error("optional parameter without default should be unset")
				}
			},
		},
		{
			name: "text numbers are coerced",
			raw:  Params{"period": "14", "multiplier": "2.5", "long_only": "true", "threshold": 25},
			check: func(t *testing.T, cfg Config) {
				if cfg.Int("period") != 14 {
					t.Errorf("period = %d", cfg.Int("period"))
				}
				if !cfg.Decimal("multiplier").Equal(d("2.5")) {
					t.Errorf("multiplier = %s", cfg.Decimal("multiplier"))
				}
				if !cfg.Bool("long_only") {
					t.Error("long_only = false")
				}
				if !cfg.Decimal("threshold").Equal(d("25")) {
					t.Errorf("threshold = %s", cfg.Decimal("threshold"))
				}
			},
		},
		{
			name:    "unknown parameter",
			raw:     Params{"perod": 3},
			wantErr: ErrUnknownParameter,
		},
		{
			name:    "fractional integer",
			raw:     Params{"period": 2.5},
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "text for a number",
			raw:     Params{"multiplier": "abc"},
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "number for text",
			raw:     Params{"asset": 5},
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "NaN",
			raw:     Params{"multiplier": math.NaN()},
			wantErr: ErrInvalidParameter,
		},
		{
			name:    "bad bool",
			raw:     Params{"long_only": "maybe"},
			wantErr: ErrInvalidParameter,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := ResolveParams(specs, tc.raw)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if err != nil {
				if !errors.Is(err, ErrConfiguration) {
					t.Errorf("err %v is not a configuration error", err)
				}
				return
			}
			tc.check(t, cfg)
		})
	}
}

func TestResolveParams_Required(t *testing.T) {
	specs := []ParamSpec{{Name: "lookback", Kind: KindInteger, Required: true}}

	if _, err := ResolveParams(specs, Params{}); !errors.Is(err, ErrMissingParameter) {
		t.Errorf("err = %v, want %v", err, ErrMissingParameter)
	}
	cfg, err := ResolveParams(specs, Params{"lookback": int64(7)})
	if err != nil {
		t.Fatalf("ResolveParams: %v", err)
	}
	if cfg.Int("lookback") != 7 {
		t.Errorf("lookback = %d, want 7", cfg.Int("lookback"))
	}
}

func TestConfigValues(t *testing.T) {
	cfg, err := ResolveParams([]ParamSpec{
		{Name: "n", Kind: KindNumber, Default: "1.25"},
		{Name: "i", Kind: KindInteger, Default: 4},
	}, nil)
	if err != nil {
		t.Fatalf("ResolveParams: %v", err)
	}
	values := cfg.Values()
	if values["n"] != 1.25 || values["i"] != 4 {
		t.Errorf("values = %v", values)
	}
}
