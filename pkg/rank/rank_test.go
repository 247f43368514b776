package rank_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/population"
	"github.com/tommoulard/evolve/pkg/rank"
)

func TestComputeRequiresAnEvaluatedEntity(t *testing.T) {
	pop, err := population.New(4, 4, chromosome.Integer, 1, 3, 1)
	require.NoError(t, err)
	_, err = pop.GetFreeEntity()
	require.NoError(t, err)

	_, err = rank.Compute(0, pop)
	assert.Error(t, err)
}

func TestComputeReportsFullConvergenceForIdenticalPopulation(t *testing.T) {
	pop, err := population.New(3, 3, chromosome.Integer, 1, 3, 1)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		e, err := pop.GetFreeEntity()
		require.NoError(t, err)
		for locus := 0; locus < 3; locus++ {
			e.Chromosomes[0].SetInt(locus, 7)
		}
		e.Fitness = 1.0
	}
	pop.SortPopulation()

	stats, err := rank.Compute(0, pop)
	require.NoError(t, err)
	assert.Equal(t, 1.0, stats.GenotypeConvergence)
	assert.Equal(t, 1.0, stats.ChromosomeConvergence)
	assert.Equal(t, 1.0, stats.AlleleConvergence)
	assert.Equal(t, 1.0, stats.Mean)
}

func TestComputeDetectsPartialDivergence(t *testing.T) {
	pop, err := population.New(2, 2, chromosome.Integer, 1, 2, 1)
	require.NoError(t, err)

	e1, err := pop.GetFreeEntity()
	require.NoError(t, err)
	e1.Chromosomes[0].SetInt(0, 1)
	e1.Chromosomes[0].SetInt(1, 1)
	e1.Fitness = 10

	e2, err := pop.GetFreeEntity()
	require.NoError(t, err)
	e2.Chromosomes[0].SetInt(0, 1)
	e2.Chromosomes[0].SetInt(1, 2)
	e2.Fitness = 5

	pop.SortPopulation()

	stats, err := rank.Compute(1, pop)
	require.NoError(t, err)
	assert.Less(t, stats.GenotypeConvergence, 1.0)
	assert.Greater(t, stats.AlleleConvergence, 0.0)
	assert.NotEmpty(t, stats.String())
}
