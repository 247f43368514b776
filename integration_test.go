package evolve_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/de"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/operators"
	"github.com/tommoulard/evolve/pkg/population"
	"github.com/tommoulard/evolve/pkg/tabu"
)

// all5sFitness scores an integer genome by its distance from the
// all-fives vector: 1/(1+sqrt(Σ(5-a_i)²)), so a perfect genome scores 1.
func all5sFitness(_ *population.Population, e *entity.Entity) bool {
	sum := 0.0
	c := &e.Chromosomes[0]
	for i := 0; i < c.Len(); i++ {
		d := float64(5 - c.Int(i))
		sum += d * d
	}
	e.Fitness = 1.0 / (1.0 + math.Sqrt(sum))
	return true
}

func TestAll5sBoundedIntegerConvergence(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running end-to-end scenario")
	}

	pop, err := evolve.GenesisInteger(200, 1, 100, 20092004)
	require.NoError(t, err)
	pop.Params.HasIntegerBounds = true
	pop.Params.AlleleMinInteger = 0
	pop.Params.AlleleMaxInteger = 10

	// bounds were declared after genesis, so reseed within them
	for r := 0; r < pop.Size(); r++ {
		e, err := pop.GetEntityFromRank(r)
		require.NoError(t, err)
		require.True(t, operators.SeedInteger(pop, e))
	}

	pop.Callbacks.Evaluate = all5sFitness
	pop.Callbacks.SelectTwo = operators.SelectStochasticUniversalSampling()
	pop.Callbacks.SelectOne = operators.SelectRouletteRebased()
	pop.Callbacks.Mutate = operators.MutateIntegerStep
	pop.Callbacks.Crossover = operators.CrossoverSinglePoint
	require.NoError(t, evolve.SetParameters(pop, population.Darwin, population.ParentsSurvive, 0.8, 0.05, 0))

	ran, err := evolve.Evolution(context.Background(), pop, 250)
	require.NoError(t, err)
	assert.Equal(t, 250, ran)
	assert.Equal(t, pop.StableSize(), pop.Size())

	best, err := pop.GetEntityFromRank(0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, best.Fitness, 0.95)
	assert.LessOrEqual(t, best.Fitness, 1.0)

	// bounded operators must never have escaped the declared range
	for r := 0; r < pop.Size(); r++ {
		e, err := pop.GetEntityFromRank(r)
		require.NoError(t, err)
		for i := 0; i < e.Chromosomes[0].Len(); i++ {
			v := e.Chromosomes[0].Int(i)
			assert.GreaterOrEqual(t, v, 0)
			assert.LessOrEqual(t, v, 10)
		}
	}
}

// goldbergFitness is f(x) = x^10 over a 10-bit genome read as a binary
// fraction, the classic deceptively-flat maximization landscape.
func goldbergFitness(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	x := 0.0
	for i := 0; i < c.Len(); i++ {
		x *= 2
		if c.Bool(i) {
			x++
		}
	}
	x /= math.Pow(2, float64(c.Len())) - 1
	e.Fitness = math.Pow(x, 10)
	return true
}

func TestGoldbergBooleanAcrossSeeds(t *testing.T) {
	if testing.Short() {
		t.Skip("long-running end-to-end scenario")
	}

	allOnes := 0
	const seeds = 50
	for seed := int64(0); seed < seeds; seed++ {
		pop, err := evolve.GenesisBoolean(20, 1, 10, seed)
		require.NoError(t, err)
		pop.Callbacks.Evaluate = goldbergFitness
		pop.Callbacks.SelectOne = operators.SelectTournament(2)
		pop.Callbacks.SelectTwo = operators.TwoFromOne(operators.SelectTournament(2))
		pop.Callbacks.Mutate = operators.MutateBooleanFlip
		pop.Callbacks.Crossover = operators.CrossoverSinglePoint
		require.NoError(t, evolve.SetParameters(pop, population.Darwin, population.ParentsSurvive, 0.5, 0.05, 0))

		_, err = evolve.Evolution(context.Background(), pop, 50)
		require.NoError(t, err)

		best, err := pop.GetEntityFromRank(0)
		require.NoError(t, err)
		if best.Fitness == 1.0 {
			allOnes++
		}
	}
	assert.GreaterOrEqual(t, allOnes, seeds*9/10, "at least 90%% of seeds should reach the all-ones optimum")
}

// permutationFitness rewards loci holding their own index, one flavor of
// the pingpong placement score; its exact shape matters less here than
// the permutation property the operators must preserve.
func permutationFitness(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	sum := 0.0
	for i := 0; i < c.Len(); i++ {
		sum += math.Abs(float64(c.Int(i) - i))
	}
	e.Fitness = 1.0 / (1.0 + sum)
	return true
}

func isPermutation(c *chromosome.Chromosome) bool {
	seen := make(map[int]bool, c.Len())
	for i := 0; i < c.Len(); i++ {
		v := c.Int(i)
		if v < 0 || v >= c.Len() || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func TestPingpongPermutationPreservedEveryGeneration(t *testing.T) {
	pop, err := evolve.GenesisInteger(50, 1, 9, 7)
	require.NoError(t, err)
	pop.Callbacks.Seed = operators.SeedPermutation
	for r := 0; r < pop.Size(); r++ {
		e, err := pop.GetEntityFromRank(r)
		require.NoError(t, err)
		require.True(t, operators.SeedPermutation(pop, e))
	}
	pop.Callbacks.Evaluate = permutationFitness
	pop.Callbacks.SelectOne = operators.SelectRandomRank()
	pop.Callbacks.SelectTwo = operators.TwoFromOne(operators.SelectRandomRank())
	pop.Callbacks.Mutate = operators.MutateSwap
	pop.Callbacks.Crossover = operators.CrossoverOrdered
	require.NoError(t, evolve.SetParameters(pop, population.Darwin, population.ParentsSurvive, 0.5, 0.5, 0))

	violations := 0
	pop.Callbacks.GenerationHook = func(gen int, p *population.Population) bool {
		for r := 0; r < p.Size(); r++ {
			e, err := p.GetEntityFromRank(r)
			if err != nil || !isPermutation(&e.Chromosomes[0]) {
				violations++
			}
		}
		return true
	}

	_, err = evolve.Evolution(context.Background(), pop, 200)
	require.NoError(t, err)
	assert.Zero(t, violations, "every entity must stay a permutation at every generation")
}

func TestTabuPermutationSearch(t *testing.T) {
	for i := int64(1); i <= 4; i++ {
		pop, err := population.New(128, 2, chromosome.Integer, 1, 25, 230975*i)
		require.NoError(t, err)
		pop.Callbacks.Evaluate = permutationFitness
		pop.Callbacks.Mutate = operators.MutateSwap

		initial, err := pop.GetFreeEntity()
		require.NoError(t, err)
		require.True(t, operators.SeedPermutation(pop, initial))
		require.True(t, pop.Callbacks.Evaluate(pop, initial))
		initialFitness := initial.Fitness

		require.NoError(t, evolve.SetTabuParameters(pop, tabu.AcceptBitwiseEqual, 50, 20))
		ran, err := evolve.Tabu(context.Background(), pop, initial, 60)
		require.NoError(t, err)
		assert.Equal(t, 60, ran)

		assert.GreaterOrEqual(t, initial.Fitness, initialFitness,
			"reported fitness must never regress below the starting point")
		assert.True(t, isPermutation(&initial.Chromosomes[0]))
	}
}

func TestDifferentialEvolutionOnSphere(t *testing.T) {
	pop, err := evolve.GenesisDouble(20, 1, 4, 11)
	require.NoError(t, err)
	pop.Params.HasDoubleBounds = true
	pop.Params.AlleleMinDouble = -5
	pop.Params.AlleleMaxDouble = 5
	for r := 0; r < pop.Size(); r++ {
		e, err := pop.GetEntityFromRank(r)
		require.NoError(t, err)
		require.True(t, operators.SeedDouble(pop, e))
	}
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		sum := 0.0
		for _, x := range e.Chromosomes[0].Doubles() {
			sum += x * x
		}
		e.Fitness = -sum
		return true
	}

	cfg := de.DefaultConfig()
	require.NoError(t, evolve.SetDifferentialEvolutionParameters(pop, cfg))

	ran, err := evolve.DifferentialEvolution(context.Background(), pop, 100)
	require.NoError(t, err)
	assert.Equal(t, 100, ran)

	best, err := pop.GetEntityFromRank(0)
	require.NoError(t, err)
	assert.Greater(t, best.Fitness, -1e-3, "best should sit within 1e-3 of the optimum at 0")
}

// --- boundary behaviors ---

func TestStableSizeOneWithZeroRatiosIsAFixedPoint(t *testing.T) {
	pop, err := evolve.GenesisInteger(1, 1, 4, 3)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = all5sFitness
	require.NoError(t, evolve.SetParameters(pop, population.Darwin, population.ParentsSurvive, 0, 0, 0))

	only, err := pop.GetEntityFromRank(0)
	require.NoError(t, err)
	genome := make([]int, 4)
	copy(genome, only.Chromosomes[0].Ints())
	id := only.ID

	_, err = evolve.Evolution(context.Background(), pop, 25)
	require.NoError(t, err)

	after, err := pop.GetEntityFromRank(0)
	require.NoError(t, err)
	assert.Equal(t, id, after.ID)
	assert.Equal(t, genome, after.Chromosomes[0].Ints())
}

func TestZeroRatiosActAsPureSelectionPressure(t *testing.T) {
	pop, err := evolve.GenesisInteger(10, 1, 4, 5)
	require.NoError(t, err)
	pop.Callbacks.Evaluate = all5sFitness
	require.NoError(t, evolve.SetParameters(pop, population.Darwin, population.ParentsSurvive, 0, 0, 0))

	_, err = evolve.Evolution(context.Background(), pop, 5)
	require.NoError(t, err)

	// nothing reproduced, so the original seeds are still the whole
	// population, ranked
	assert.Equal(t, 10, pop.Size())
	for r := 1; r < pop.Size(); r++ {
		prev, _ := pop.GetEntityFromRank(r - 1)
		cur, _ := pop.GetEntityFromRank(r)
		assert.GreaterOrEqual(t, prev.Fitness, cur.Fitness)
	}
}

func TestEqualFitnessSelectionIsUniformAndDeterministic(t *testing.T) {
	pop, err := evolve.GenesisInteger(8, 1, 2, 9)
	require.NoError(t, err)
	for r := 0; r < pop.Size(); r++ {
		e, _ := pop.GetEntityFromRank(r)
		e.Fitness = 1.0
	}
	pop.SortPopulation()

	sus := operators.SelectStochasticUniversalSampling()
	counts := make(map[entity.ID]int)
	for i := 0; i < 400; i++ {
		m, f, ok := sus(pop)
		require.True(t, ok)
		counts[m.ID]++
		counts[f.ID]++
	}
	// uniform draws over 8 equal entities: every entity should appear
	for id, c := range counts {
		assert.Greater(t, c, 0, "entity %d never drawn", id)
	}
}
