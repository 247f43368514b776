package population_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

func newTestPopulation(t *testing.T, maxSize, stableSize int) *population.Population {
	t.Helper()
	pop, err := population.New(maxSize, stableSize, chromosome.Integer, 1, 4, 1)
	require.NoError(t, err)
	return pop
}

func TestGetFreeEntityExhaustion(t *testing.T) {
	pop := newTestPopulation(t, 2, 2)
	_, err := pop.GetFreeEntity()
	require.NoError(t, err)
	_, err = pop.GetFreeEntity()
	require.NoError(t, err)

	_, err = pop.GetFreeEntity()
	assert.ErrorIs(t, err, population.ErrSlotsExhausted)
	require.NoError(t, pop.Audit())
}

func TestIDsAreNeverReusedAcrossSlotReuse(t *testing.T) {
	pop := newTestPopulation(t, 1, 1)
	e1, err := pop.GetFreeEntity()
	require.NoError(t, err)
	firstID := e1.ID

	require.NoError(t, pop.EntityDereference(e1))
	e2, err := pop.GetFreeEntity()
	require.NoError(t, err)

	assert.NotEqual(t, firstID, e2.ID)
	require.NoError(t, pop.Audit())
}

func TestEntityCloneDuplicatesGenomeIntoNewSlot(t *testing.T) {
	pop := newTestPopulation(t, 3, 1)
	src, err := pop.GetFreeEntity()
	require.NoError(t, err)
	src.Chromosomes[0].SetInt(0, 9)
	src.Fitness = 5

	clone, err := pop.EntityClone(src)
	require.NoError(t, err)

	assert.NotEqual(t, src.ID, clone.ID)
	assert.Equal(t, 9, clone.Chromosomes[0].Int(0))
	assert.Equal(t, float64(5), clone.Fitness)
	require.NoError(t, pop.Audit())
}

func TestSortPopulationRanksBestFirstTieBreakByID(t *testing.T) {
	pop := newTestPopulation(t, 3, 3)
	var ids []entity.ID
	for i, fit := range []float64{3, 1, 3} {
		e, err := pop.GetFreeEntity()
		require.NoError(t, err)
		e.Fitness = fit
		ids = append(ids, e.ID)
		_ = i
	}

	pop.SortPopulation()

	best, err := pop.GetEntityFromRank(0)
	require.NoError(t, err)
	assert.Equal(t, float64(3), best.Fitness)
	assert.Equal(t, ids[0], best.ID, "equal-fitness ties break by ascending id")

	worst, err := pop.GetEntityFromRank(2)
	require.NoError(t, err)
	assert.Equal(t, float64(1), worst.Fitness)
}

func TestSeedRequiresCallback(t *testing.T) {
	pop := newTestPopulation(t, 2, 2)
	err := pop.Seed()
	assert.ErrorIs(t, err, population.ErrMissingCallback)
}

func TestSeedFillsToStableSize(t *testing.T) {
	pop := newTestPopulation(t, 4, 2)
	pop.Callbacks.Seed = func(p *population.Population, e *entity.Entity) bool {
		e.Chromosomes[0].SetInt(0, 1)
		return true
	}
	require.NoError(t, pop.Seed())
	assert.Equal(t, 2, pop.Size())
	require.NoError(t, pop.Audit())
}

func TestExtinctionReleasesAllSlots(t *testing.T) {
	pop := newTestPopulation(t, 3, 3)
	pop.Callbacks.Seed = func(p *population.Population, e *entity.Entity) bool { return true }
	require.NoError(t, pop.Seed())

	pop.Extinction()
	assert.Equal(t, 0, pop.Size())
	require.NoError(t, pop.Audit())
}
