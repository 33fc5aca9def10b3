package strategies

import (
	"barsim/internal/engine"
	"testing"
)

type stubStrategy struct{}

func (stubStrategy) Parameters() []engine.ParamSpec                  { return nil }
func (stubStrategy) Initialize(engine.Config) error                  { return nil }
func (stubStrategy) OnBar(*engine.BarContext, engine.DataView) error { return nil }

func TestRegistryRegisterAndNew(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func() engine.Strategy { return stubStrategy{} })

	s, err := r.New("stub")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := s.(stubStrategy); !ok {
		t.Errorf("New() returned %T, want stubStrategy", s)
	}
}

func TestRegistryNew_NotFound(t *testing.T) {
	r := NewRegistry()
	if _, err := r.New("nonexistent"); err == nil {
		t.Error("New() returned no error for an unregistered strategy")
	}
}

func TestDefault(t *testing.T) {
	r := Default()

	names := r.List()
	if len(names) != 2 || names[0] != "donchian" || names[1] != "supertrend" {
		t.Fatalf("List() = %v, want [donchian supertrend]", names)
	}

	a, err := r.New("donchian")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b, _ := r.New("donchian")
	if a == b {
		t.Error("New() should hand out a fresh instance per call")
	}
	for _, name := range names {
		s, _ := r.New(name)
		if _, err := engine.ResolveParams(s.Parameters(), nil); err != nil {
			t.Errorf("%s defaults do not resolve: %v", name, err)
		}
	}
}
