package parallel_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/parallel"
	"github.com/tommoulard/evolve/pkg/population"
)

func newBatch(t *testing.T, n int) (*population.Population, []*entity.Entity) {
	t.Helper()
	pop, err := population.New(n, n, chromosome.Integer, 1, 2, 1)
	require.NoError(t, err)
	batch := make([]*entity.Entity, n)
	for i := range batch {
		e, err := pop.GetFreeEntity()
		require.NoError(t, err)
		batch[i] = e
	}
	return pop, batch
}

func TestEvaluateScoresEveryPendingEntity(t *testing.T) {
	pop, batch := newBatch(t, 16)
	var calls atomic.Int64
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		calls.Add(1)
		e.Fitness = float64(e.ID)
		return true
	}

	res, err := parallel.Evaluate(context.Background(), pop, batch, 4)
	require.NoError(t, err)
	assert.Empty(t, res.Rejected)
	assert.Equal(t, int64(16), calls.Load())
	for _, e := range batch {
		assert.True(t, e.Evaluated())
	}
}

func TestEvaluateSkipsAlreadyEvaluatedEntities(t *testing.T) {
	pop, batch := newBatch(t, 4)
	batch[0].Fitness = 7 // pre-scored
	var calls atomic.Int64
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		calls.Add(1)
		e.Fitness = 1
		return true
	}

	_, err := parallel.Evaluate(context.Background(), pop, batch, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
	assert.Equal(t, float64(7), batch[0].Fitness)
}

func TestEvaluateCollectsRejectionsForTheCaller(t *testing.T) {
	pop, batch := newBatch(t, 8)
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		if e.ID%2 == 0 {
			e.Fitness = 1
			return true
		}
		return false
	}

	res, err := parallel.Evaluate(context.Background(), pop, batch, 3)
	require.NoError(t, err)
	assert.Len(t, res.Rejected, 4)
	// the harness itself must not touch population bookkeeping
	assert.Equal(t, 8, pop.Size())
	require.NoError(t, pop.Audit())
}

func TestEvaluateAndCullDereferencesRejectedEntities(t *testing.T) {
	pop, batch := newBatch(t, 8)
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		if e.ID%2 == 0 {
			e.Fitness = 1
			return true
		}
		return false
	}

	culled, err := parallel.EvaluateAndCull(context.Background(), pop, batch, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, culled)
	assert.Equal(t, 4, pop.Size())
	require.NoError(t, pop.Audit())
}

func TestEvaluateFlagsReservedSentinelResults(t *testing.T) {
	pop, batch := newBatch(t, 2)
	pop.Callbacks.Evaluate = func(_ *population.Population, e *entity.Entity) bool {
		// claims success but leaves the sentinel in place
		return true
	}

	_, err := parallel.Evaluate(context.Background(), pop, batch, 1)
	assert.ErrorIs(t, err, entity.ErrReservedFitnessValue)
}

func TestEvaluateRequiresEvaluateCallback(t *testing.T) {
	pop, batch := newBatch(t, 1)
	_, err := parallel.Evaluate(context.Background(), pop, batch, 1)
	assert.ErrorIs(t, err, population.ErrMissingCallback)
}

func TestWorkersResolutionOrder(t *testing.T) {
	t.Setenv(parallel.EnvNumThreads, "")
	t.Setenv(parallel.EnvNumProcesses, "")
	assert.Equal(t, 5, parallel.Workers(5))
	assert.Positive(t, parallel.Workers(0))

	t.Setenv(parallel.EnvNumThreads, "3")
	assert.Equal(t, 3, parallel.Workers(0))
	assert.Equal(t, 7, parallel.Workers(7), "explicit request wins over the environment")

	t.Setenv(parallel.EnvNumProcesses, "2")
	assert.Equal(t, 2, parallel.Workers(7), "process cap bounds every resolution")
}

func TestUnevaluatedWalksRankOrder(t *testing.T) {
	pop, batch := newBatch(t, 4)
	batch[1].Fitness = 1
	batch[3].Fitness = 2

	pending := parallel.Unevaluated(pop)
	assert.Len(t, pending, 2)
}
