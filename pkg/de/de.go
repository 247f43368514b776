// Package de implements the Differential Evolution engine: for every
// population member, a trial vector is built by exponential crossover of
// weighted difference vectors between other members, and replaces the
// original when it ranks at least as well.
package de

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/parallel"
	"github.com/tommoulard/evolve/pkg/population"
)

// Strategy selects how a trial vector's base and difference terms are
// chosen. All five are exponential-crossover variants.
type Strategy int

const (
	// RandOneExp: v = x_r1 + F*(x_r2 - x_r3).
	RandOneExp Strategy = iota
	// BestOneExp: v = best + F*(x_r1 - x_r2).
	BestOneExp
	// RandToBestOneExp: v = v + F*(best - v) + F*(x_r1 - x_r2).
	RandToBestOneExp
	// BestTwoExp: v = best + F*(x_r1 + x_r2 - x_r3 - x_r4).
	BestTwoExp
	// RandTwoExp: v = x_r5 + F*(x_r1 + x_r2 - x_r3 - x_r4).
	RandTwoExp
)

func (s Strategy) String() string {
	switch s {
	case RandOneExp:
		return "rand/1/exp"
	case BestOneExp:
		return "best/1/exp"
	case RandToBestOneExp:
		return "rand-to-best/1/exp"
	case BestTwoExp:
		return "best/2/exp"
	case RandTwoExp:
		return "rand/2/exp"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// DifferencePairs reports how many difference-vector pairs the strategy
// consumes.
func (s Strategy) DifferencePairs() int {
	if s == BestTwoExp || s == RandTwoExp {
		return 2
	}
	return 1
}

// minStableSize is the smallest population Differential Evolution can
// run against: five distinct partners plus the member itself.
const minStableSize = 6

// ErrPopulationTooSmall is returned when stable_size is below the engine
// minimum.
var ErrPopulationTooSmall = errors.New("de: stable_size below engine minimum")

// Config carries the Differential Evolution parameters.
type Config struct {
	// WeightingFactor is F, the difference-vector scale.
	WeightingFactor float64
	// CrossoverFactor is the exponential-crossover continuation
	// probability, in [0, 1].
	CrossoverFactor float64
	// NumPerturbed is the number of difference-vector pairs; it must
	// match the strategy (1 for the /1 strategies, 2 for the /2 ones).
	NumPerturbed int
	// PerturbRandom, when set, draws a fresh F uniformly from
	// [0, WeightingFactor] for every trial vector instead of using the
	// fixed factor, a dither variant of the classic scheme.
	PerturbRandom bool
	Strategy      Strategy

	// Workers is the evaluation worker count for trial-vector batches.
	Workers int
}

// DefaultConfig returns the classic DE/rand/1/exp parameterization.
func DefaultConfig() Config {
	return Config{
		WeightingFactor: 0.3,
		CrossoverFactor: 0.5,
		NumPerturbed:    1,
		Strategy:        RandOneExp,
	}
}

// Validate reports the first configuration error.
func (c Config) Validate() error {
	if c.CrossoverFactor < 0 || c.CrossoverFactor > 1 {
		return fmt.Errorf("de: crossover_factor must be in [0,1], got %v", c.CrossoverFactor)
	}
	if c.NumPerturbed != c.Strategy.DifferencePairs() {
		return fmt.Errorf("de: num_perturbed %d does not match strategy %s (needs %d)",
			c.NumPerturbed, c.Strategy, c.Strategy.DifferencePairs())
	}
	return nil
}

// Run executes up to maxGenerations Differential Evolution generations
// against pop and returns the number actually completed. pop must hold
// Double chromosomes, at least minStableSize entities at steady state,
// and an Evaluate callback.
func Run(ctx context.Context, pop *population.Population, maxGenerations int, cfg Config) (int, error) {
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if pop.AtomType() != chromosome.Double {
		return 0, fmt.Errorf("de: chromosome atom type must be double, got %s", pop.AtomType())
	}
	if pop.StableSize() < minStableSize {
		return 0, fmt.Errorf("%w: stable_size %d < %d", ErrPopulationTooSmall, pop.StableSize(), minStableSize)
	}
	if err := population.RequireCallback(pop.Callbacks.Evaluate != nil, "evaluate"); err != nil {
		return 0, err
	}

	for gen := 0; gen < maxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return gen, err
		}
		proceed, err := generation(ctx, pop, gen, cfg)
		if err != nil {
			return gen, err
		}
		if !proceed {
			return gen + 1, nil
		}
	}
	return maxGenerations, nil
}

// generation runs one DE generation: build one trial per member, batch-
// evaluate the trials, then adopt each trial that ranks at least as well
// as its target.
func generation(ctx context.Context, pop *population.Population, gen int, cfg Config) (bool, error) {
	if _, err := parallel.EvaluateAndCull(ctx, pop, parallel.Unevaluated(pop), cfg.Workers); err != nil {
		return false, err
	}
	pop.SortPopulation()

	origSize := pop.Size()
	targets := make([]*entity.Entity, origSize)
	for r := 0; r < origSize; r++ {
		targets[r], _ = pop.GetEntityFromRank(r)
	}
	best := targets[0]

	trials := make([]*entity.Entity, origSize)
	for i, xi := range targets {
		trial, err := pop.EntityClone(xi)
		if err != nil {
			return false, err
		}
		trial.Fitness = entity.MinFitness
		mutateTrial(pop, cfg, trial, best, targets, i)
		trials[i] = trial
	}

	// Trial vectors are independent of each other, so they evaluate as
	// one batch. A rejected trial keeps its target in place.
	res, err := parallel.Evaluate(ctx, pop, trials, cfg.Workers)
	if err != nil {
		return false, err
	}
	rejected := make(map[entity.ID]bool, len(res.Rejected))
	for _, e := range res.Rejected {
		rejected[e.ID] = true
	}

	rank := pop.Callbacks.Rank
	if rank == nil {
		rank = population.DefaultRank
	}
	for i, trial := range trials {
		loser := targets[i]
		if rejected[trial.ID] || rank(pop, trial.Fitness, pop, loser.Fitness) < 0 {
			loser = trial
		}
		if err := pop.EntityDereference(loser); err != nil {
			return false, err
		}
	}

	pop.SortPopulation()
	if hook := pop.Callbacks.GenerationHook; hook != nil && !hook(gen, pop) {
		return false, nil
	}
	return true, nil
}

// mutateTrial overwrites trial's chromosomes by exponential crossover
// with the strategy's donor vector: starting at a random locus, donor
// loci replace trial loci while the crossover draw succeeds (the first
// locus always crosses), wrapping modulo the chromosome length.
func mutateTrial(pop *population.Population, cfg Config, trial, best *entity.Entity, targets []*entity.Entity, i int) {
	f := cfg.WeightingFactor
	if cfg.PerturbRandom {
		f = pop.RNG.UniformFloat(0, cfg.WeightingFactor)
	}

	// Five distinct partners, none equal to the target, via a Knuth
	// shuffle over the candidate indices.
	partners := pop.RNG.DistinctInts(len(targets), 5, i)
	v := make([][][]float64, len(trial.Chromosomes))
	for ci := range trial.Chromosomes {
		v[ci] = make([][]float64, 5)
		for k, idx := range partners {
			v[ci][k] = targets[idx].Chromosomes[ci].Doubles()
		}
	}

	for ci := range trial.Chromosomes {
		tc := trial.Chromosomes[ci].Doubles()
		donor := donorVector(cfg.Strategy, f, tc, best.Chromosomes[ci].Doubles(), v[ci])

		length := len(tc)
		n := pop.RNG.Intn(length)
		for count := 0; ; {
			tc[n] = donor[n]
			n = (n + 1) % length
			count++
			if count >= length || pop.RNG.Float64() >= cfg.CrossoverFactor {
				break
			}
		}

		if pop.Params.HasDoubleBounds {
			clampSlice(tc, pop.Params.AlleleMinDouble, pop.Params.AlleleMaxDouble)
		}
	}
}

// donorVector computes the strategy's full recombination vector. tc is
// the target's current alleles (consumed by rand-to-best), bc the best
// entity's, v the five partners'.
func donorVector(strategy Strategy, f float64, tc, bc []float64, v [][]float64) []float64 {
	length := len(tc)
	donor := make([]float64, length)
	diff := make([]float64, length)

	switch strategy {
	case RandOneExp:
		floats.SubTo(diff, v[1], v[2])
		floats.AddScaledTo(donor, v[0], f, diff)
	case BestOneExp:
		floats.SubTo(diff, v[0], v[1])
		floats.AddScaledTo(donor, bc, f, diff)
	case RandToBestOneExp:
		copy(donor, tc)
		floats.SubTo(diff, bc, tc)
		floats.AddScaled(donor, f, diff)
		floats.SubTo(diff, v[0], v[1])
		floats.AddScaled(donor, f, diff)
	case BestTwoExp, RandTwoExp:
		floats.AddTo(diff, v[0], v[1])
		floats.Sub(diff, v[2])
		floats.Sub(diff, v[3])
		base := bc
		if strategy == RandTwoExp {
			base = v[4]
		}
		floats.AddScaledTo(donor, base, f, diff)
	}
	return donor
}

// clampSlice clamps every element of xs into [lo, hi] in place.
func clampSlice(xs []float64, lo, hi float64) {
	for i, x := range xs {
		switch {
		case x < lo:
			xs[i] = lo
		case x > hi:
			xs[i] = hi
		}
	}
}
