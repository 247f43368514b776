// Package evolve is the top-level entry point of the evolutionary
// optimization library: genesis constructors that assemble a population
// with the standard operator suite for each chromosome atom type, and
// thin wrappers over the three search engines sharing that population
// model (generational evolution, Differential Evolution, Tabu Search).
//
// Applications supply the domain callbacks (at minimum Evaluate, usually
// also a problem-specific Seed/Mutate/Crossover) and receive back the
// fittest solutions discovered.
package evolve

import (
	"context"
	"strings"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/de"
	"github.com/tommoulard/evolve/pkg/engine"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/operators"
	"github.com/tommoulard/evolve/pkg/population"
	"github.com/tommoulard/evolve/pkg/tabu"
)

// capacityFactor is how much slot headroom a genesis population carries
// beyond its steady-state size, so one generation's offspring (bounded
// by stable_size·(crossover+mutation) ≤ 2·stable_size) always fit
// without reallocation.
const capacityFactor = 3

// Genesis allocates a population of the given atom type and genome
// shape, registers the standard operator suite for that type, and seeds
// it to stableSize entities. The returned population is ready for
// Evolution once an Evaluate callback is set.
func Genesis(atomType chromosome.AtomType, stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	pop, err := population.New(capacityFactor*stableSize, stableSize, atomType, numChromosomes, lenChromosome, seed)
	if err != nil {
		return nil, err
	}

	pop.Callbacks.Seed = operators.SeedCatalogue(atomType)
	pop.Callbacks.Mutate = operators.MutateCatalogue(atomType)
	pop.Callbacks.Crossover = operators.CrossoverCatalogue(atomType)
	pop.Callbacks.SelectOne = operators.SelectTournament(2)
	pop.Callbacks.SelectTwo = operators.TwoFromOne(operators.SelectTournament(2))
	pop.Callbacks.Rank = population.DefaultRank

	if err := pop.Seed(); err != nil {
		return nil, err
	}
	return pop, nil
}

// GenesisBoolean builds a seeded boolean-atom population with the
// standard operator suite.
func GenesisBoolean(stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	return Genesis(chromosome.Boolean, stableSize, numChromosomes, lenChromosome, seed)
}

// GenesisInteger builds a seeded integer-atom population.
func GenesisInteger(stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	return Genesis(chromosome.Integer, stableSize, numChromosomes, lenChromosome, seed)
}

// GenesisDouble builds a seeded double-atom population.
func GenesisDouble(stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	return Genesis(chromosome.Double, stableSize, numChromosomes, lenChromosome, seed)
}

// GenesisCharacter builds a seeded character-atom population.
func GenesisCharacter(stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	return Genesis(chromosome.Character, stableSize, numChromosomes, lenChromosome, seed)
}

// GenesisBit builds a seeded packed-bit population.
func GenesisBit(stableSize, numChromosomes, lenChromosome int, seed int64) (*population.Population, error) {
	return Genesis(chromosome.Bit, stableSize, numChromosomes, lenChromosome, seed)
}

// SetParameters installs the scheme, elitism mode and operator ratios in
// one call, validating them together.
func SetParameters(pop *population.Population, scheme population.Scheme, elitism population.Elitism, crossover, mutation, migration float64) error {
	params := pop.Params
	params.Scheme = scheme
	params.Elitism = elitism
	params.CrossoverRatio = crossover
	params.MutationRatio = mutation
	params.MigrationRatio = migration
	if err := params.Validate(); err != nil {
		return err
	}
	pop.Params = params
	return nil
}

// Evolution runs the generational engine for at most maxGenerations and
// returns the count actually executed.
func Evolution(ctx context.Context, pop *population.Population, maxGenerations int) (int, error) {
	return engine.Run(ctx, pop, maxGenerations, engine.DefaultConfig())
}

// DifferentialEvolution runs the DE engine with the parameter block
// attached to pop (population.SetDEParams), or de.DefaultConfig when
// none is attached.
func DifferentialEvolution(ctx context.Context, pop *population.Population, maxGenerations int) (int, error) {
	cfg, ok := pop.DEParams().(de.Config)
	if !ok {
		cfg = de.DefaultConfig()
	}
	return de.Run(ctx, pop, maxGenerations, cfg)
}

// SetDifferentialEvolutionParameters attaches a DE parameter block after
// validating it.
func SetDifferentialEvolutionParameters(pop *population.Population, cfg de.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	pop.SetDEParams(cfg)
	return nil
}

// Tabu runs Tabu Search from initial with the parameter block attached
// to pop (population.SetTabuParams), or tabu.DefaultConfig when none is
// attached. On return initial holds the best solution observed.
func Tabu(ctx context.Context, pop *population.Population, initial *entity.Entity, maxIterations int) (int, error) {
	cfg, ok := pop.TabuParams().(tabu.Config)
	if !ok {
		cfg = tabu.DefaultConfig()
	}
	return tabu.Run(ctx, pop, initial, maxIterations, cfg)
}

// SetTabuParameters attaches a Tabu Search parameter block after
// validating it.
func SetTabuParameters(pop *population.Population, accept tabu.AcceptFunc, listLength, searchCount int) error {
	cfg := tabu.DefaultConfig()
	cfg.Accept = accept
	cfg.ListLength = listLength
	cfg.SearchCount = searchCount
	if err := cfg.Validate(); err != nil {
		return err
	}
	pop.SetTabuParams(cfg)
	return nil
}

// EntityString renders an entity's genome as one line per chromosome,
// using each atom type's natural textual form.
func EntityString(e *entity.Entity) string {
	lines := make([]string, len(e.Chromosomes))
	for i := range e.Chromosomes {
		lines[i] = e.Chromosomes[i].String()
	}
	return strings.Join(lines, "\n")
}
