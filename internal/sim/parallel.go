package sim

import (
	"context"
	"fmt"
	"runtime"

	"github.com/san-kum/orbsim/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

// Ensemble runs independent simulations concurrently. Integrators keep
// per-run buffers, so every run gets a fresh Simulator from the factory.
type Ensemble struct {
	factory func() *Simulator
	limit   int
}

// NewEnsemble returns an ensemble running at most limit simulations at
// once. limit <= 0 uses one slot per CPU.
func NewEnsemble(factory func() *Simulator, limit int) *Ensemble {
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	return &Ensemble{factory: factory, limit: limit}
}

// Run integrates every simulation with cfg. Run i is seeded with
// cfg.Seed+i and results come back in input order. The first failure
// cancels the remaining runs.
func (e *Ensemble) Run(ctx context.Context, sims []*dynamo.Simulation, cfg Config) ([]*Result, error) {
	results := make([]*Result, len(sims))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)

	for i, s := range sims {
		g.Go(func() error {
			cfgCopy := cfg
			cfgCopy.Seed = cfg.Seed + uint64(i)

			r, err := e.factory().Run(ctx, s, cfgCopy)
			if err != nil {
				return fmt.Errorf("run %d: %w", i, err)
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
