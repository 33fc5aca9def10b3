// Package sweep runs one strategy over many parameter sets in parallel.
package sweep

import (
	"barsim/internal/engine"
	"barsim/types"
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Factory builds a fresh strategy for every run. Strategies keep per-run state,
// so instances are never shared between jobs.
type Factory func() engine.Strategy

// Run backtests every parameter set in grid against the same candles, at most
// limit at a time (limit <= 0 means one per set). Results come back in grid
// order. The first failing run cancels the jobs that have not started yet.
func Run(ctx context.Context, factory Factory, candles []types.Candle, capital decimal.Decimal,
	grid []engine.Params, limit int, opts ...engine.Option) ([]*engine.Result, error) {
	results := make([]*engine.Result, len(grid))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for i, params := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := engine.NewEngine(factory(), opts...).Run(candles, capital, params)
			if err != nil {
				return fmt.Errorf("params %v: %w", params, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Grid expands per-parameter value lists into their cartesian product. Keys are
// walked in sorted order so the output order is stable.
func Grid(axes map[string][]any) []engine.Params {
	keys := make([]string, 0, len(axes))
	for k, values := range axes {
		if len(values) == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := []engine.Params{{}}
	for _, k := range keys {
		next := make([]engine.Params, 0, len(grid)*len(axes[k]))
		for _, base := range grid {
			for _, v := range axes[k] {
				p := make(engine.Params, len(base)+1)
				for bk, bv := range base {
					p[bk] = bv
				}
				p[k] = v
				next = append(next, p)
			}
		}
		grid = next
	}
	return grid
}

// Best returns the result with the highest Sharpe ratio, ties going to the
// earlier entry.
func Best(results []*engine.Result) *engine.Result {
	var best *engine.Result
	for _, r := range results {
		if r == nil {
			continue
		}
		if best == nil || r.SharpeRatio.GreaterThan(best.SharpeRatio) {
			best = r
		}
	}
	return best
}
