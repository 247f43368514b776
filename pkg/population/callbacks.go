package population

import "github.com/tommoulard/evolve/pkg/entity"

// EvaluateFunc scores an entity, setting its Fitness. It returns false to
// signal "discard this entity" — the engine must then reject it rather
// than rank it.
type EvaluateFunc func(pop *Population, e *entity.Entity) bool

// SeedFunc fills an entity's chromosomes with an initial random-but-valid
// genome.
type SeedFunc func(pop *Population, e *entity.Entity) bool

// SelectOneFunc selects a single parent. It returns false to signal "end
// of selection for this generation".
type SelectOneFunc func(pop *Population) (*entity.Entity, bool)

// SelectTwoFunc selects two parents. Same termination convention as
// SelectOneFunc.
type SelectTwoFunc func(pop *Population) (mother, father *entity.Entity, ok bool)

// MutateFunc writes child's chromosomes given parent's. child is already
// allocated.
type MutateFunc func(pop *Population, parent, child *entity.Entity)

// CrossoverFunc fills daughter and son (both already allocated) from
// mother and father.
type CrossoverFunc func(pop *Population, mother, father, daughter, son *entity.Entity)

// ReplaceFunc is an optional hook: when set, the engine delegates
// replacement-into-population of a single offspring to this callback
// instead of using the default merge-sort-truncate policy.
type ReplaceFunc func(pop *Population, child *entity.Entity)

// AdaptFunc is the Lamarckian/Baldwinian local-search hook. It returns a
// (possibly new) entity representing the adapted solution; the engine
// decides whether to keep the adapted genome (Lamarck) or only the
// adapted fitness (Baldwin).
type AdaptFunc func(pop *Population, child *entity.Entity) *entity.Entity

// RankFunc compares two fitness values from (potentially) different
// populations, returning <0, 0, or >0 as a is worse than, equal to, or
// better than b. The default is plain float64 comparison.
type RankFunc func(popA *Population, fitnessA float64, popB *Population, fitnessB float64) int

// GenerationHookFunc is called at the end of each generation. Returning
// false terminates the run early, with the generations completed so far
// reported to the caller.
type GenerationHookFunc func(generation int, pop *Population) bool

// IterationHookFunc is the Tabu Search analogue of GenerationHookFunc,
// called once per search iteration.
type IterationHookFunc func(iteration int, current *entity.Entity) bool

// Callbacks bundles every plug-in point a Population may have registered.
// All fields may be nil unless the active scheme requires them; that
// requirement is checked at genesis time where possible, otherwise at
// first use (§4.1 failure semantics).
type Callbacks struct {
	Evaluate       EvaluateFunc
	Seed           SeedFunc
	Adapt          AdaptFunc
	SelectOne      SelectOneFunc
	SelectTwo      SelectTwoFunc
	Mutate         MutateFunc
	Crossover      CrossoverFunc
	Replace        ReplaceFunc
	Rank           RankFunc
	GenerationHook GenerationHookFunc
	IterationHook  IterationHookFunc
	DataDestructor entity.Destructor
	DataRefIncr    entity.RefIncrementor
}

// DefaultRank compares fitness values with plain float64 comparison,
// ignoring which population each came from.
func DefaultRank(_ *Population, a float64, _ *Population, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
