package operators

import (
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// Every selection routine below draws from ranks [0, pop.ParentPool())
// rather than [0, pop.Size()): during reproduction the engine pins the
// parent pool to the pre-offspring population size, so entities appended
// mid-generation never parent their own generation.

// SelectTournament returns a SelectOneFunc that runs a k-way tournament:
// draw k entities uniformly at random (with replacement) and return the
// best of them. k=2 ("bestof2") is the common default. Equal-fitness
// candidates resolve to the lower rank, keeping tournaments deterministic
// under a seeded PRNG.
func SelectTournament(k int) population.SelectOneFunc {
	if k < 1 {
		k = 1
	}
	return func(pop *population.Population) (*entity.Entity, bool) {
		n := pop.ParentPool()
		if n == 0 {
			return nil, false
		}
		bestRank := pop.RNG.Intn(n)
		for i := 1; i < k; i++ {
			r := pop.RNG.Intn(n)
			best, err := pop.GetEntityFromRank(bestRank)
			if err != nil {
				return nil, false
			}
			candidate, err := pop.GetEntityFromRank(r)
			if err != nil {
				continue
			}
			cmp := compare(pop, candidate, best)
			// tie-break: lower rank wins
			if cmp > 0 || (cmp == 0 && r < bestRank) {
				bestRank = r
			}
		}
		e, err := pop.GetEntityFromRank(bestRank)
		if err != nil {
			return nil, false
		}
		return e, true
	}
}

// SelectRandom picks a uniformly random entity, ignoring fitness
// entirely. Used as the fallback of the fitness-weighted methods and as a
// baseline against them.
func SelectRandom(pop *population.Population) (*entity.Entity, bool) {
	n := pop.ParentPool()
	if n == 0 {
		return nil, false
	}
	e, err := pop.GetEntityFromRank(pop.RNG.Intn(n))
	if err != nil {
		return nil, false
	}
	return e, true
}

// SelectRandomRank picks a uniformly random rank and returns the entity
// there. On a sorted population this is identical in distribution to
// SelectRandom; the distinction matters only to callers that reorder the
// rank index themselves between draws.
func SelectRandomRank() population.SelectOneFunc {
	return func(pop *population.Population) (*entity.Entity, bool) {
		return SelectRandom(pop)
	}
}

// SelectRoulette returns a SelectOneFunc that picks an entity with
// probability proportional to raw fitness. All fitness values in the
// parent pool must be non-negative; when any are negative the draw falls
// back to the rebased variant, which subtracts the worst fitness first.
func SelectRoulette() population.SelectOneFunc {
	rebased := SelectRouletteRebased()
	return func(pop *population.Population) (*entity.Entity, bool) {
		n := pop.ParentPool()
		if n == 0 {
			return nil, false
		}
		worst, _ := pop.GetEntityFromRank(n - 1)
		if worst.Fitness < 0 {
			return rebased(pop)
		}
		total := 0.0
		for r := 0; r < n; r++ {
			e, _ := pop.GetEntityFromRank(r)
			total += e.Fitness
		}
		if total <= 0 {
			return SelectRandom(pop)
		}
		return spinWheel(pop, n, 0, pop.RNG.Float64()*total)
	}
}

// SelectRouletteRebased returns a SelectOneFunc that subtracts the worst
// fitness from every entity before spinning the wheel, so it tolerates
// negative fitness values the way plain roulette selection cannot.
// Requires a sorted population, since it reads the worst from the last
// rank.
func SelectRouletteRebased() population.SelectOneFunc {
	return func(pop *population.Population) (*entity.Entity, bool) {
		n := pop.ParentPool()
		if n == 0 {
			return nil, false
		}
		offset, total := rouletteWeights(pop)
		if total <= 0 {
			return SelectRandom(pop)
		}
		return spinWheel(pop, n, offset, pop.RNG.Float64()*total)
	}
}

// spinWheel walks rank order accumulating fitness+offset until the
// running total reaches target.
func spinWheel(pop *population.Population, n int, offset, target float64) (*entity.Entity, bool) {
	running := 0.0
	for rank := 0; rank < n; rank++ {
		e, _ := pop.GetEntityFromRank(rank)
		running += e.Fitness + offset
		if running >= target {
			return e, true
		}
	}
	e, err := pop.GetEntityFromRank(n - 1)
	if err != nil {
		return nil, false
	}
	return e, true
}

// rouletteWeights computes the additive offset that makes every parent's
// fitness non-negative, and the resulting total weight.
func rouletteWeights(pop *population.Population) (offset, total float64) {
	n := pop.ParentPool()
	worst, _ := pop.GetEntityFromRank(n - 1)
	if worst.Fitness < 0 {
		offset = -worst.Fitness
	}
	for rank := 0; rank < n; rank++ {
		e, _ := pop.GetEntityFromRank(rank)
		total += e.Fitness + offset
	}
	return offset, total
}

// SelectStochasticUniversalSampling returns a SelectTwoFunc implementing
// SUS: one spin of a wheel with two equally-spaced pointers (spacing F/2
// for a draw count of two) picks mother and father together, rather than
// two independent spins, which reduces the selection-pressure variance
// roulette wheel selection exhibits when called twice in a row. Negative
// fitness values are rebased by subtracting the minimum. Requires a
// sorted population.
func SelectStochasticUniversalSampling() population.SelectTwoFunc {
	return func(pop *population.Population) (*entity.Entity, *entity.Entity, bool) {
		n := pop.ParentPool()
		if n == 0 {
			return nil, nil, false
		}
		offset, total := rouletteWeights(pop)
		if total <= 0 {
			m, ok := SelectRandom(pop)
			if !ok {
				return nil, nil, false
			}
			f, _ := SelectRandom(pop)
			return m, f, true
		}

		spacing := total / 2
		start := pop.RNG.Float64() * spacing
		pointers := [2]float64{start, start + spacing}

		picked := make([]*entity.Entity, 0, 2)
		running := 0.0
		pi := 0
		for rank := 0; rank < n && pi < 2; rank++ {
			e, _ := pop.GetEntityFromRank(rank)
			running += e.Fitness + offset
			for pi < 2 && running >= pointers[pi] {
				picked = append(picked, e)
				pi++
			}
		}
		for pi < 2 {
			last, _ := pop.GetEntityFromRank(n - 1)
			picked = append(picked, last)
			pi++
		}
		return picked[0], picked[1], true
	}
}

// SelectRankBased returns a SelectOneFunc that weights rank r (0 = best)
// by (pool - r), so the best entity is pool times as likely to be chosen
// as the worst, without requiring fitness to be positive. Requires a
// sorted population.
func SelectRankBased() population.SelectOneFunc {
	return func(pop *population.Population) (*entity.Entity, bool) {
		n := pop.ParentPool()
		if n == 0 {
			return nil, false
		}
		totalWeight := float64(n) * float64(n+1) / 2
		target := pop.RNG.Float64() * totalWeight
		running := 0.0
		for rank := 0; rank < n; rank++ {
			running += float64(n - rank)
			if running >= target {
				e, err := pop.GetEntityFromRank(rank)
				if err != nil {
					return nil, false
				}
				return e, true
			}
		}
		e, err := pop.GetEntityFromRank(n - 1)
		if err != nil {
			return nil, false
		}
		return e, true
	}
}

// SelectEveryEntity returns a SelectOneFunc that walks the parent pool in
// rank order exactly once, returning false once every entity has been
// returned. Used by the "every" selection scheme, which applies an
// operator to the whole population deterministically rather than
// stochastically.
func SelectEveryEntity() population.SelectOneFunc {
	next := 0
	return func(pop *population.Population) (*entity.Entity, bool) {
		if next >= pop.ParentPool() {
			return nil, false
		}
		e, err := pop.GetEntityFromRank(next)
		next++
		if err != nil {
			return nil, false
		}
		return e, true
	}
}

// TwoFromOne adapts any SelectOneFunc into a SelectTwoFunc by drawing
// twice, redrawing the father a bounded number of times when both draws
// land on the same entity. On a one-entity pool the single entity serves
// as both parents.
func TwoFromOne(selectOne population.SelectOneFunc) population.SelectTwoFunc {
	return func(pop *population.Population) (*entity.Entity, *entity.Entity, bool) {
		mother, ok := selectOne(pop)
		if !ok {
			return nil, nil, false
		}
		father, ok := selectOne(pop)
		if !ok {
			return nil, nil, false
		}
		for attempt := 0; attempt < 8 && father == mother && pop.ParentPool() > 1; attempt++ {
			father, ok = selectOne(pop)
			if !ok {
				return nil, nil, false
			}
		}
		return mother, father, true
	}
}

func compare(pop *population.Population, a, b *entity.Entity) int {
	rank := pop.Callbacks.Rank
	if rank == nil {
		rank = population.DefaultRank
	}
	return rank(pop, a.Fitness, pop, b.Fitness)
}
