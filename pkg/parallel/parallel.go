// Package parallel evaluates batches of independent entities across
// worker goroutines. Callers guarantee no data dependency between the
// entities of a batch, so each Evaluate callback can run concurrently;
// everything else about the population (slot allocation, rank index,
// the core PRNG) stays on the controller goroutine between batches.
package parallel

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// Environment variables honored when resolving the worker count.
const (
	EnvNumThreads   = "GA_NUM_THREADS"
	EnvNumProcesses = "GA_NUM_PROCESSES"
)

// Workers resolves the evaluation worker count: an explicit positive
// request wins, then GA_NUM_THREADS, then the host core count. The
// result is additionally capped by GA_NUM_PROCESSES when that is set,
// since this implementation has no multi-process worker model and treats
// the variable as an upper bound on usable parallelism.
func Workers(requested int) int {
	n := requested
	if n <= 0 {
		n = envInt(EnvNumThreads)
	}
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if limit := envInt(EnvNumProcesses); limit > 0 && n > limit {
		n = limit
	}
	return n
}

func envInt(name string) int {
	v, err := strconv.Atoi(os.Getenv(name))
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// Result reports the outcome of one batch: the entities whose Evaluate
// callback returned false, which the caller must dereference (the
// harness never mutates population bookkeeping itself).
type Result struct {
	Rejected []*entity.Entity
}

// Evaluate runs pop's Evaluate callback over every entity in batch that
// still carries the unevaluated sentinel, spreading the calls over
// workers goroutines. It blocks until the whole batch is done, so the
// controller observes a strict happens-before between this batch and the
// next engine step.
//
// An Evaluate callback that accepts an entity but leaves its fitness at
// the reserved sentinel is a caller bug and surfaces as
// entity.ErrReservedFitnessValue.
func Evaluate(ctx context.Context, pop *population.Population, batch []*entity.Entity, workers int) (Result, error) {
	if pop.Callbacks.Evaluate == nil {
		return Result{}, fmt.Errorf("%w: evaluate", population.ErrMissingCallback)
	}

	pending := make([]*entity.Entity, 0, len(batch))
	for _, e := range batch {
		if !e.Evaluated() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return Result{}, nil
	}

	workers = Workers(workers)

	var (
		mu       sync.Mutex
		rejected []*entity.Entity
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, e := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !pop.Callbacks.Evaluate(pop, e) {
				mu.Lock()
				rejected = append(rejected, e)
				mu.Unlock()
				return nil
			}
			if e.Fitness == entity.MinFitness {
				return fmt.Errorf("entity id %d: %w", e.ID, entity.ErrReservedFitnessValue)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	return Result{Rejected: rejected}, nil
}

// EvaluateAndCull is the common engine step: evaluate the batch, then
// dereference every rejected entity on the controller goroutine. It
// returns the number of entities culled.
func EvaluateAndCull(ctx context.Context, pop *population.Population, batch []*entity.Entity, workers int) (int, error) {
	res, err := Evaluate(ctx, pop, batch, workers)
	if err != nil {
		return 0, err
	}
	for _, e := range res.Rejected {
		if derr := pop.EntityDereference(e); derr != nil {
			return 0, derr
		}
	}
	return len(res.Rejected), nil
}

// Unevaluated collects the live entities of pop that still carry the
// unevaluated sentinel, in rank order. The engines pass the result to
// Evaluate as the start-of-generation batch.
func Unevaluated(pop *population.Population) []*entity.Entity {
	var out []*entity.Entity
	for r := 0; r < pop.Size(); r++ {
		e, err := pop.GetEntityFromRank(r)
		if err != nil {
			continue
		}
		if !e.Evaluated() {
			out = append(out, e)
		}
	}
	return out
}
