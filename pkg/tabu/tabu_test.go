package tabu_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/operators"
	"github.com/tommoulard/evolve/pkg/population"
	"github.com/tommoulard/evolve/pkg/tabu"
)

// onemax counts set alleles.
func onemax(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	count := 0
	for i := 0; i < c.Len(); i++ {
		if c.Bool(i) {
			count++
		}
	}
	e.Fitness = float64(count)
	return true
}

func newSearchPopulation(t *testing.T, seed int64) (*population.Population, *entity.Entity) {
	t.Helper()
	pop, err := population.New(64, 2, chromosome.Boolean, 1, 12, seed)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = onemax
	pop.Callbacks.Mutate = operators.MutateBooleanFlip

	initial, err := pop.GetFreeEntity()
	require.NoError(t, err)
	require.True(t, operators.SeedBoolean(pop, initial))
	return pop, initial
}

func smallConfig() tabu.Config {
	cfg := tabu.DefaultConfig()
	cfg.ListLength = 8
	cfg.SearchCount = 6
	return cfg
}

func TestRunReportsBestEverNotBestCurrent(t *testing.T) {
	pop, initial := newSearchPopulation(t, 1)
	require.True(t, onemax(pop, initial))
	start := initial.Fitness

	observed := entity.MinFitness
	pop.Callbacks.IterationHook = func(_ int, current *entity.Entity) bool {
		if current.Fitness > observed {
			observed = current.Fitness
		}
		return true
	}

	ran, err := tabu.Run(context.Background(), pop, initial, 40, smallConfig())
	require.NoError(t, err)
	assert.Equal(t, 40, ran)
	assert.GreaterOrEqual(t, initial.Fitness, start)
	assert.GreaterOrEqual(t, initial.Fitness, observed,
		"reported solution must be at least as fit as any visited position")
}

func TestRunLeavesNoWorkingEntitiesBehind(t *testing.T) {
	pop, initial := newSearchPopulation(t, 2)
	before := pop.Size()
	_, err := tabu.Run(context.Background(), pop, initial, 15, smallConfig())
	require.NoError(t, err)
	assert.Equal(t, before, pop.Size())
	require.NoError(t, pop.Audit())
}

func TestRunRequiresMutateCallback(t *testing.T) {
	pop, err := population.New(64, 2, chromosome.Boolean, 1, 8, 3)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = onemax
	initial, err := pop.GetFreeEntity()
	require.NoError(t, err)

	_, err = tabu.Run(context.Background(), pop, initial, 5, smallConfig())
	assert.ErrorIs(t, err, population.ErrMissingCallback)
}

func TestRunRejectsInsufficientHeadroom(t *testing.T) {
	pop, err := population.New(8, 2, chromosome.Boolean, 1, 8, 4)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = onemax
	pop.Callbacks.Mutate = operators.MutateBooleanFlip
	initial, err := pop.GetFreeEntity()
	require.NoError(t, err)

	_, err = tabu.Run(context.Background(), pop, initial, 5, smallConfig())
	assert.Error(t, err)
}

func TestIterationHookStopsTheSearch(t *testing.T) {
	pop, initial := newSearchPopulation(t, 5)
	pop.Callbacks.IterationHook = func(iter int, _ *entity.Entity) bool {
		return iter < 3
	}
	ran, err := tabu.Run(context.Background(), pop, initial, 100, smallConfig())
	require.NoError(t, err)
	assert.Equal(t, 4, ran)
}

func TestAcceptBitwiseEqualRecognizesVisitedGenomes(t *testing.T) {
	pop, err := population.New(16, 4, chromosome.Boolean, 1, 4, 6)
	require.NoError(t, err)
	a, err := pop.GetFreeEntity()
	require.NoError(t, err)
	b, err := pop.GetFreeEntity()
	require.NoError(t, err)
	a.Chromosomes[0].SetBool(0, true)
	b.Chromosomes[0].SetBool(0, true)

	assert.True(t, tabu.AcceptBitwiseEqual(pop, a, []*entity.Entity{b}))

	b.Chromosomes[0].SetBool(1, true)
	assert.False(t, tabu.AcceptBitwiseEqual(pop, a, []*entity.Entity{b}))
	assert.False(t, tabu.AcceptBitwiseEqual(pop, a, nil))
}

func TestAcceptEpsilonToleratesNearbyDoubles(t *testing.T) {
	pop, err := population.New(16, 4, chromosome.Double, 1, 3, 7)
	require.NoError(t, err)
	a, err := pop.GetFreeEntity()
	require.NoError(t, err)
	b, err := pop.GetFreeEntity()
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		a.Chromosomes[0].SetDouble(i, 1.0)
		b.Chromosomes[0].SetDouble(i, 1.0+1e-9)
	}

	near := tabu.AcceptEpsilon(1e-6)
	far := tabu.AcceptEpsilon(1e-12)
	assert.True(t, near(pop, a, []*entity.Entity{b}))
	assert.False(t, far(pop, a, []*entity.Entity{b}))
}

func TestAspirationDisabledStopsWhenAllMovesAreTabu(t *testing.T) {
	pop, err := population.New(64, 2, chromosome.Boolean, 1, 1, 8)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = onemax
	pop.Callbacks.Mutate = operators.MutateBooleanFlip

	initial, err := pop.GetFreeEntity()
	require.NoError(t, err)

	// a 1-bit genome has exactly two states: the ring saturates almost
	// immediately, so without aspiration the search must cut out early
	cfg := smallConfig()
	cfg.Aspiration = false
	ran, err := tabu.Run(context.Background(), pop, initial, 50, cfg)
	require.NoError(t, err)
	assert.Less(t, ran, 50)
	require.NoError(t, pop.Audit())
}
