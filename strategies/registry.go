// Package strategies provides a Registry of the built-in strategies.
package strategies

import (
	"barsim/internal/engine"
	"barsim/strategies/donchian"
	"barsim/strategies/supertrend"
	"fmt"
	"sort"
)

// Factory builds a fresh strategy instance. Strategies hold per-run state, so
// every backtest asks for a new one.
type Factory func() engine.Strategy

// Registry holds a named collection of strategy factories.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Default returns a Registry holding every built-in strategy.
func Default() *Registry {
	r := NewRegistry()
	r.Register("donchian", donchian.New)
	r.Register("supertrend", supertrend.New)
	return r
}

// Register adds f under name, replacing an earlier registration.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// Factory returns the factory registered under name.
func (r *Registry) Factory(name string) (Factory, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy %q (available: %v)", name, r.List())
	}
	return f, nil
}

// New builds a fresh instance of the named strategy.
func (r *Registry) New(name string) (engine.Strategy, error) {
	f, err := r.Factory(name)
	if err != nil {
		return nil, err
	}
	return f(), nil
}

// List returns a sorted slice of all registered strategy names.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
