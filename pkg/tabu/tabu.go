// Package tabu implements single-solution neighborhood search with a
// recency memory: each iteration samples a neighborhood of the current
// solution through the population's Mutate callback, rejects moves the
// accept callback recognizes from the tabu ring, and keeps the best-ever
// solution separately so the reported result never regresses.
package tabu

import (
	"context"
	"fmt"
	"math"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/parallel"
	"github.com/tommoulard/evolve/pkg/population"
)

// AcceptFunc reports whether a putative move is tabu (true = rejected).
// list holds the most recently visited solutions, newest last.
type AcceptFunc func(pop *population.Population, putative *entity.Entity, list []*entity.Entity) bool

// Config carries the Tabu Search parameters.
type Config struct {
	// ListLength bounds the tabu ring; the oldest entry is evicted once
	// the ring is full.
	ListLength int
	// SearchCount is the neighborhood size sampled per iteration.
	SearchCount int
	// Accept classifies a candidate as tabu. Defaults to bitwise
	// chromosome equality against every ring entry.
	Accept AcceptFunc
	// Aspiration keeps the classic escape hatch: when every candidate
	// is tabu, the best of them is taken anyway. Disabling it makes an
	// all-tabu neighborhood end the run instead.
	Aspiration bool

	// Workers is the evaluation worker count for candidate batches.
	Workers int
}

// DefaultConfig returns a Tabu Search configuration with a 50-entry
// ring, 20 candidates per iteration, bitwise-equality rejection, and
// aspiration enabled.
func DefaultConfig() Config {
	return Config{
		ListLength:  50,
		SearchCount: 20,
		Aspiration:  true,
	}
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if c.ListLength <= 0 {
		return fmt.Errorf("tabu: list length must be positive, got %d", c.ListLength)
	}
	if c.SearchCount <= 0 {
		return fmt.Errorf("tabu: search count must be positive, got %d", c.SearchCount)
	}
	return nil
}

// Run searches from initial for up to maxIterations iterations and
// returns the number completed. initial must be a live entity of pop; on
// return it holds the best solution observed during the whole run, not
// merely the final position.
func Run(ctx context.Context, pop *population.Population, initial *entity.Entity, maxIterations int, cfg Config) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if err := population.RequireCallback(pop.Callbacks.Evaluate != nil, "evaluate"); err != nil {
		return 0, err
	}
	if err := population.RequireCallback(pop.Callbacks.Mutate != nil, "mutate"); err != nil {
		return 0, err
	}
	// working set: current + best + full ring + one neighborhood
	if headroom := pop.MaxSize() - pop.Size(); headroom < cfg.ListLength+cfg.SearchCount+2 {
		return 0, fmt.Errorf("tabu: population headroom %d too small for list length %d + search count %d",
			headroom, cfg.ListLength, cfg.SearchCount)
	}
	accept := cfg.Accept
	if accept == nil {
		accept = AcceptBitwiseEqual
	}
	rank := pop.Callbacks.Rank
	if rank == nil {
		rank = population.DefaultRank
	}

	if !initial.Evaluated() {
		if _, err := parallel.Evaluate(ctx, pop, []*entity.Entity{initial}, cfg.Workers); err != nil {
			return 0, err
		}
	}

	current, err := pop.EntityClone(initial)
	if err != nil {
		return 0, err
	}
	best, err := pop.EntityClone(initial)
	if err != nil {
		return 0, err
	}

	// ring holds recently visited solutions, newest last; entries are
	// dedicated clones owned by the search, dereferenced on eviction.
	var ring []*entity.Entity

	cleanup := func() {
		_ = pop.EntityDereference(current)
		_ = pop.EntityDereference(best)
		for _, e := range ring {
			_ = pop.EntityDereference(e)
		}
	}

	iterations := 0
	for iter := 0; iter < maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			cleanup()
			return iterations, err
		}

		chosen, err := step(ctx, pop, current, ring, accept, rank, cfg)
		if err != nil {
			cleanup()
			return iterations, err
		}
		if chosen == nil {
			// aspiration disabled and the whole neighborhood was tabu
			break
		}

		// the abandoned position enters the ring; oldest entry evicted
		previous, err := pop.EntityClone(current)
		if err != nil {
			cleanup()
			return iterations, err
		}
		ring = append(ring, previous)
		if len(ring) > cfg.ListLength {
			if err := pop.EntityDereference(ring[0]); err != nil {
				cleanup()
				return iterations, err
			}
			ring = ring[1:]
		}

		if err := pop.EntityCopy(current, chosen); err != nil {
			cleanup()
			return iterations, err
		}
		if err := pop.EntityDereference(chosen); err != nil {
			cleanup()
			return iterations, err
		}
		if rank(pop, current.Fitness, pop, best.Fitness) > 0 {
			if err := pop.EntityCopy(best, current); err != nil {
				cleanup()
				return iterations, err
			}
		}
		iterations++

		if hook := pop.Callbacks.IterationHook; hook != nil && !hook(iter, current) {
			break
		}
	}

	// report best-ever through the caller's entity
	err = pop.EntityCopy(initial, best)
	cleanup()
	return iterations, err
}

// step samples the neighborhood, evaluates it as one batch, and picks
// the best non-tabu candidate (or, under aspiration, the best candidate
// outright when all are tabu). The chosen entity is dereferenced by the
// caller via EntityCopy semantics: step dereferences every candidate
// except its return value, and the caller copies the winner then
// dereferences it too — so step's return is only valid until the next
// allocation.
func step(ctx context.Context, pop *population.Population, current *entity.Entity, ring []*entity.Entity, accept AcceptFunc, rank population.RankFunc, cfg Config) (*entity.Entity, error) {
	candidates := make([]*entity.Entity, 0, cfg.SearchCount)
	for k := 0; k < cfg.SearchCount; k++ {
		cand, err := pop.GetFreeEntity()
		if err != nil {
			return nil, err
		}
		cand.CopyFrom(current, pop.Callbacks.DataRefIncr)
		cand.Fitness = entity.MinFitness
		pop.Callbacks.Mutate(pop, current, cand)
		candidates = append(candidates, cand)
	}

	res, err := parallel.Evaluate(ctx, pop, candidates, cfg.Workers)
	if err != nil {
		for _, c := range candidates {
			_ = pop.EntityDereference(c)
		}
		return nil, err
	}
	rejected := make(map[entity.ID]bool, len(res.Rejected))
	for _, e := range res.Rejected {
		rejected[e.ID] = true
	}

	var bestFree, bestAny *entity.Entity
	for _, cand := range candidates {
		if rejected[cand.ID] {
			continue
		}
		if bestAny == nil || rank(pop, cand.Fitness, pop, bestAny.Fitness) > 0 {
			bestAny = cand
		}
		if accept(pop, cand, ring) {
			continue
		}
		if bestFree == nil || rank(pop, cand.Fitness, pop, bestFree.Fitness) > 0 {
			bestFree = cand
		}
	}

	chosen := bestFree
	if chosen == nil && cfg.Aspiration {
		chosen = bestAny
	}

	for _, cand := range candidates {
		if cand == chosen {
			continue
		}
		if err := pop.EntityDereference(cand); err != nil {
			return nil, err
		}
	}
	return chosen, nil
}

// AcceptBitwiseEqual is the default accept callback: a candidate is tabu
// when its genome is bitwise identical to any ring entry. Suitable for
// boolean, integer, character, and bit chromosomes.
func AcceptBitwiseEqual(_ *population.Population, putative *entity.Entity, list []*entity.Entity) bool {
	for _, visited := range list {
		if genomesEqual(putative, visited) {
			return true
		}
	}
	return false
}

func genomesEqual(a, b *entity.Entity) bool {
	for i := range a.Chromosomes {
		if !a.Chromosomes[i].Equal(&b.Chromosomes[i]) {
			return false
		}
	}
	return true
}

// AcceptEpsilon returns an accept callback for Double chromosomes: a
// candidate is tabu when every allele is within eps of the corresponding
// allele of some ring entry.
func AcceptEpsilon(eps float64) AcceptFunc {
	return func(_ *population.Population, putative *entity.Entity, list []*entity.Entity) bool {
		for _, visited := range list {
			if genomesNear(putative, visited, eps) {
				return true
			}
		}
		return false
	}
}

func genomesNear(a, b *entity.Entity, eps float64) bool {
	for ci := range a.Chromosomes {
		ac, bc := &a.Chromosomes[ci], &b.Chromosomes[ci]
		if ac.AtomType() != chromosome.Double || ac.Len() != bc.Len() {
			return false
		}
		for i := 0; i < ac.Len(); i++ {
			if math.Abs(ac.Double(i)-bc.Double(i)) > eps {
				return false
			}
		}
	}
	return true
}
