// Package engine runs the per-generation evolutionary loop: parent
// evaluation, reproduction through the population's selection, crossover
// and mutation callbacks, optional Baldwinian/Lamarckian adaptation,
// elitism, and the rank sort that closes every generation.
package engine

import (
	"context"
	"fmt"
	"math"

	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/parallel"
	"github.com/tommoulard/evolve/pkg/population"
)

// Config carries the engine-level knobs that are not part of the
// population's own Params: worker count for evaluation batches and the
// exact-elitism survivor count.
type Config struct {
	// Workers is the evaluation worker count; zero defers to
	// GA_NUM_THREADS and then the host core count.
	Workers int

	// EliteCount is how many top-ranked parents the Exact and ExactComp
	// elitism modes keep verbatim. Ignored by every other mode.
	EliteCount int
}

// DefaultConfig returns an engine configuration with auto-detected
// workers and a single guaranteed survivor under exact elitism.
func DefaultConfig() Config {
	return Config{EliteCount: 1}
}

// Run executes up to maxGenerations generations against pop and returns
// the number actually completed. The run ends early when the generation
// hook returns false or when ctx is cancelled at a generation boundary.
// Exhausted selection only ends the current generation's reproduction
// phase; the generation still completes.
func Run(ctx context.Context, pop *population.Population, maxGenerations int, cfg Config) (int, error) {
	if err := requireCallbacks(pop); err != nil {
		return 0, err
	}
	if err := pop.Params.Validate(); err != nil {
		return 0, err
	}

	for gen := 0; gen < maxGenerations; gen++ {
		if err := ctx.Err(); err != nil {
			return gen, err
		}
		proceed, err := Generation(ctx, pop, gen, cfg)
		if err != nil {
			return gen, err
		}
		if !proceed {
			return gen + 1, nil
		}
	}
	return maxGenerations, nil
}

// Generation runs one generation and reports whether the run should
// continue (false when the generation hook asked to stop).
func Generation(ctx context.Context, pop *population.Population, gen int, cfg Config) (bool, error) {
	// 1. Evaluate anything not yet evaluated (seeded entities on the
	// first generation, imported migrants on any other).
	if _, err := parallel.EvaluateAndCull(ctx, pop, parallel.Unevaluated(pop), cfg.Workers); err != nil {
		return false, err
	}

	// 2. Sort and snapshot the parent pool.
	pop.SortPopulation()
	origSize := pop.Size()
	if origSize == 0 {
		return false, fmt.Errorf("engine: population is empty at generation %d", gen)
	}
	parents := make([]*entity.Entity, origSize)
	for r := 0; r < origSize; r++ {
		parents[r], _ = pop.GetEntityFromRank(r)
	}

	// 3–5. Reproduce against a pinned parent pool.
	pop.SetParentPool(origSize)
	offspring, err := reproduce(pop, origSize)
	pop.ClearParentPool()
	if err != nil {
		return false, err
	}

	// 6. Adapt children (and, for the _ALL schemes, parents too) before
	// the offspring evaluation batch so adapted fitness is what competes.
	if err := adapt(pop, parents, offspring); err != nil {
		return false, err
	}

	// 7. Evaluate the offspring batch. A Replace callback may have
	// already removed some offspring; only live ones are evaluated.
	batch := offspring
	if pop.Callbacks.Replace != nil {
		batch = batch[:0:0]
		for _, e := range offspring {
			if _, live := pop.EntityRank(e.ID); live {
				batch = append(batch, e)
			}
		}
	}
	if _, err := parallel.EvaluateAndCull(ctx, pop, batch, cfg.Workers); err != nil {
		return false, err
	}

	// 8. Elitism: decide which parents stay and which are guaranteed a
	// slot through truncation.
	protected, err := applyElitism(pop, parents, cfg)
	if err != nil {
		return false, err
	}

	// 9–10. Sort, then cull the worst down to the steady-state size,
	// never culling a protected elite. When a Replace callback is
	// registered, truncation is its job.
	pop.SortPopulation()
	if pop.Callbacks.Replace == nil {
		if err := truncate(pop, protected); err != nil {
			return false, err
		}
	}

	// 11. Generation hook decides whether to continue.
	if hook := pop.Callbacks.GenerationHook; hook != nil && !hook(gen, pop) {
		return false, nil
	}
	return true, nil
}

// reproduce produces crossover offspring then mutants until the ratio
// targets are met or selection is exhausted, returning every offspring
// allocated. When a Replace callback is registered each offspring is
// handed to it right after creation instead of competing in the default
// merge-sort-truncate step.
func reproduce(pop *population.Population, origSize int) ([]*entity.Entity, error) {
	var offspring []*entity.Entity

	crossTarget := int(math.Floor(float64(pop.StableSize()) * pop.Params.CrossoverRatio))
	totalTarget := int(math.Floor(float64(pop.StableSize()) * (pop.Params.CrossoverRatio + pop.Params.MutationRatio)))

	if crossTarget > 0 {
		if pop.Callbacks.SelectTwo == nil {
			return nil, fmt.Errorf("%w: select_two", population.ErrMissingCallback)
		}
		if pop.Callbacks.Crossover == nil {
			return nil, fmt.Errorf("%w: crossover", population.ErrMissingCallback)
		}
	}
	for pop.Size()-origSize < crossTarget {
		mother, father, ok := pop.Callbacks.SelectTwo(pop)
		if !ok {
			break
		}
		daughter, err := pop.GetFreeEntity()
		if err != nil {
			return offspring, err
		}
		son, err := pop.GetFreeEntity()
		if err != nil {
			return offspring, err
		}
		pop.Callbacks.Crossover(pop, mother, father, daughter, son)
		offspring = append(offspring, daughter, son)
		if pop.Callbacks.Replace != nil {
			pop.Callbacks.Replace(pop, daughter)
			pop.Callbacks.Replace(pop, son)
		}
	}

	if totalTarget > crossTarget {
		if pop.Callbacks.SelectOne == nil {
			return nil, fmt.Errorf("%w: select_one", population.ErrMissingCallback)
		}
		if pop.Callbacks.Mutate == nil {
			return nil, fmt.Errorf("%w: mutate", population.ErrMissingCallback)
		}
	}
	for pop.Size()-origSize < totalTarget {
		parent, ok := pop.Callbacks.SelectOne(pop)
		if !ok {
			break
		}
		child, err := pop.GetFreeEntity()
		if err != nil {
			return offspring, err
		}
		child.CopyFrom(parent, pop.Callbacks.DataRefIncr)
		child.Fitness = entity.MinFitness
		pop.Callbacks.Mutate(pop, parent, child)
		offspring = append(offspring, child)
		if pop.Callbacks.Replace != nil {
			pop.Callbacks.Replace(pop, child)
		}
	}

	return offspring, nil
}

// adapt applies the scheme's local-search hook: children only for the
// _CHILDREN schemes, parents and children for the _ALL schemes. Lamarck
// writes the adapted genome back; Baldwin keeps only the adapted
// fitness.
func adapt(pop *population.Population, parents, offspring []*entity.Entity) error {
	scheme := pop.Params.Scheme
	if scheme == population.Darwin {
		return nil
	}
	if pop.Callbacks.Adapt == nil {
		return fmt.Errorf("%w: adapt (required by scheme %s)", population.ErrMissingCallback, scheme)
	}

	keepGenome := scheme == population.LamarckAll || scheme == population.LamarckChildren

	targets := offspring
	if scheme == population.BaldwinAll || scheme == population.LamarckAll {
		targets = append(append([]*entity.Entity{}, parents...), offspring...)
	}

	for _, e := range targets {
		adapted := pop.Callbacks.Adapt(pop, e)
		if adapted == nil || adapted == e {
			continue
		}
		if keepGenome {
			for i := range e.Chromosomes {
				e.Chromosomes[i].CopyFrom(&adapted.Chromosomes[i])
			}
		}
		e.Fitness = adapted.Fitness
		if err := pop.EntityDereference(adapted); err != nil {
			return err
		}
	}
	return nil
}

// applyElitism enforces the population's elitism mode on the parent
// generation. parents is the rank-ordered snapshot taken before
// reproduction, so parents[0] is the old best. Two families of modes:
// the plain modes dereference every parent outside their survivor count,
// while the _COMP modes leave all parents competing in the ranking but
// return their elites as a protected set truncation must not cull.
func applyElitism(pop *population.Population, parents []*entity.Entity, cfg Config) (map[entity.ID]bool, error) {
	roughKeep := int(math.Ceil(population.RoughAlpha*float64(pop.StableSize()) + population.RoughBeta))

	switch pop.Params.Elitism {
	case population.ParentsSurvive:
		return nil, nil
	case population.RoughComp:
		return protect(parents, roughKeep), nil
	case population.ExactComp:
		return protect(parents, cfg.EliteCount), nil
	case population.ParentsDie:
		return nil, cullParents(pop, parents, 0)
	case population.OneParentSurvives:
		return nil, cullParents(pop, parents, 1)
	case population.Rough:
		return nil, cullParents(pop, parents, roughKeep)
	case population.Exact:
		return nil, cullParents(pop, parents, cfg.EliteCount)
	default:
		return nil, fmt.Errorf("engine: unknown elitism mode %v", pop.Params.Elitism)
	}
}

// protect returns the IDs of the top keep parents.
func protect(parents []*entity.Entity, keep int) map[entity.ID]bool {
	if keep > len(parents) {
		keep = len(parents)
	}
	ids := make(map[entity.ID]bool, keep)
	for _, p := range parents[:keep] {
		ids[p.ID] = true
	}
	return ids
}

// cullParents dereferences every parent below rank keep.
func cullParents(pop *population.Population, parents []*entity.Entity, keep int) error {
	if keep > len(parents) {
		keep = len(parents)
	}
	if keep < 0 {
		keep = 0
	}
	for _, p := range parents[keep:] {
		// a Replace callback may have already removed this parent
		if _, live := pop.EntityRank(p.ID); !live {
			continue
		}
		if err := pop.EntityDereference(p); err != nil {
			return err
		}
	}
	return nil
}

// truncate dereferences worst-ranked entities until the population is
// back at its steady-state size, skipping protected elites. The rank
// index is re-sorted afterwards if any skip occurred, since skip-and-
// remove perturbs ordering below the removal point.
func truncate(pop *population.Population, protected map[entity.ID]bool) error {
	perturbed := false
	for pop.Size() > pop.StableSize() {
		culled := false
		for r := pop.Size() - 1; r >= 0; r-- {
			e, err := pop.GetEntityFromRank(r)
			if err != nil {
				return err
			}
			if protected[e.ID] {
				continue
			}
			if err := pop.EntityDereferenceRank(r); err != nil {
				return err
			}
			if r != pop.Size() { // swap-remove moved an entity into rank r
				perturbed = true
			}
			culled = true
			break
		}
		if !culled {
			break // everything left is protected
		}
	}
	if perturbed {
		pop.SortPopulation()
	}
	return nil
}

// requireCallbacks checks, at engine entry, every callback the
// configured scheme will definitely need, so a misconfigured population
// fails before its first generation rather than mid-loop.
func requireCallbacks(pop *population.Population) error {
	if err := population.RequireCallback(pop.Callbacks.Evaluate != nil, "evaluate"); err != nil {
		return err
	}
	if pop.Params.Scheme != population.Darwin {
		if err := population.RequireCallback(pop.Callbacks.Adapt != nil, "adapt"); err != nil {
			return err
		}
	}
	if pop.Params.CrossoverRatio > 0 {
		if err := population.RequireCallback(pop.Callbacks.SelectTwo != nil, "select_two"); err != nil {
			return err
		}
		if err := population.RequireCallback(pop.Callbacks.Crossover != nil, "crossover"); err != nil {
			return err
		}
	}
	if pop.Params.MutationRatio > 0 {
		if err := population.RequireCallback(pop.Callbacks.SelectOne != nil, "select_one"); err != nil {
			return err
		}
		if err := population.RequireCallback(pop.Callbacks.Mutate != nil, "mutate"); err != nil {
			return err
		}
	}
	return nil
}
