package engine

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type ParamKind int

const (
	KindNumber ParamKind = iota
	KindInteger
	KindText
	KindBool
)

func (k ParamKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindInteger:
		return "integer"
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// ParamSpec declares one named strategy parameter. A nil Default on an
// optional parameter leaves it unset.
type ParamSpec struct {
	Name     string
	Kind     ParamKind
	Default  any
	Required bool
}

// Params is the raw, loosely typed parameter mapping handed in by callers
// (config files, forms). Values may be numbers or text.
type Params map[string]any

// Config holds parameters after they were checked against a strategy's specs.
// Numbers are stored as decimal.Decimal, integers as int.
type Config struct {
	values map[string]any
}

// ResolveParams validates raw against specs: unknown names, malformed values
// and missing required parameters are rejected; defaults are filled in.
func ResolveParams(specs []ParamSpec, raw Params) (Config, error) {
	known := make(map[string]ParamSpec, len(specs))
	for _, s := range specs {
		known[s.Name] = s
	}

	var unknown []string
	for name := range raw {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownParameter, strings.Join(unknown, ", "))
	}

	values := make(map[string]any, len(specs))
	for _, s := range specs {
		v, ok := raw[s.Name]
		if !ok || v == nil {
			if s.Required {
				return Config{}, fmt.Errorf("%w: %s", ErrMissingParameter, s.Name)
			}
			if s.Default == nil {
				continue
			}
			v = s.Default
		}
		cv, err := coerce(s.Kind, v)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidParameter, s.Name, err)
		}
		values[s.Name] = cv
	}
	return Config{values: values}, nil
}

func coerce(kind ParamKind, v any) (any, error) {
	switch kind {
	case KindNumber:
		return toDecimal(v)
	case KindInteger:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		if !d.IsInteger() {
			return nil, fmt.Errorf("expected integer, got %s", d)
		}
		i := d.IntPart()
		if i > math.MaxInt32 || i < math.MinInt32 {
			return nil, fmt.Errorf("integer %d out of range", i)
		}
		return int(i), nil
	case KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected text, got %T", v)
		}
		return s, nil
	case KindBool:
		switch b := v.(type) {
		case bool:
			return b, nil
		case string:
			parsed, err := strconv.ParseBool(strings.TrimSpace(b))
			if err != nil {
				return nil, fmt.Errorf("expected bool, got %q", b)
			}
			return parsed, nil
		}
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
	return nil, fmt.Errorf("unsupported kind %s", kind)
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int32:
		return decimal.NewFromInt32(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case float32:
		return toDecimal(float64(n))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, fmt.Errorf("expected finite number, got %v", n)
		}
		return decimal.NewFromFloat(n), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, fmt.Errorf("expected number, got %q", n)
		}
		return d, nil
	}
	return decimal.Zero, fmt.Errorf("expected number, got %T", v)
}

func (c Config) Has(name string) bool {
	_, ok := c.values[name]
	return ok
}

func (c Config) Decimal(name string) decimal.Decimal {
	switch v := c.values[name].(type) {
	case decimal.Decimal:
		return v
	case int:
		return decimal.NewFromInt(int64(v))
	}
	return decimal.Zero
}

func (c Config) Float(name string) float64 {
	return c.Decimal(name).InexactFloat64()
}

func (c Config) Int(name string) int {
	switch v := c.values[name].(type) {
	case int:
		return v
	case decimal.Decimal:
		return int(v.IntPart())
	}
	return 0
}

func (c Config) String(name string) string {
	s, _ := c.values[name].(string)
	return s
}

func (c Config) Bool(name string) bool {
	b, _ := c.values[name].(bool)
	return b
}

// Values returns a copy of the resolved parameters, numbers as float64, for
// reporting and persistence.
func (c Config) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		if d, ok := v.(decimal.Decimal); ok {
			out[k] = d.InexactFloat64()
			continue
		}
		out[k] = v
	}
	return out
}
