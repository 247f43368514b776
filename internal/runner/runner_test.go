package runner_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tommoulard/evolve/internal/runner"
	"github.com/tommoulard/evolve/pkg/config"
)

func quickConfig(t *testing.T, problem, engine string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Problem = problem
	cfg.Engine = engine
	cfg.PopulationSize = 20
	cfg.ChromosomeLength = 8
	cfg.MaxGeneration = 10
	cfg.ShowProgress = false
	cfg.OutputFile = filepath.Join(t.TempDir(), "result.json")
	if engine == config.EngineDE {
		cfg.AlleleMin = -5
		cfg.AlleleMax = 5
	}
	if engine == config.EngineTabu {
		// keep the working set within the population's slot headroom
		cfg.TabuListLength = 10
		cfg.TabuSearchCount = 5
	}
	return cfg
}

func TestNewRejectsInvalidConfiguration(t *testing.T) {
	cfg := config.Default()
	cfg.Engine = "annealing"
	_, err := runner.New(cfg)
	assert.Error(t, err)
}

func TestRunEveryProblemEngineCombination(t *testing.T) {
	cases := []struct{ problem, engine string }{
		{config.ProblemAll5s, config.EngineGenerational},
		{config.ProblemOnemax, config.EngineGenerational},
		{config.ProblemPermutation, config.EngineGenerational},
		{config.ProblemSphere, config.EngineDE},
		{config.ProblemPermutation, config.EngineTabu},
	}
	for _, tc := range cases {
		t.Run(tc.problem+"/"+tc.engine, func(t *testing.T) {
			cfg := quickConfig(t, tc.problem, tc.engine)
			r, err := runner.New(cfg)
			require.NoError(t, err)

			calls := 0
			result, history, err := r.Run(context.Background(), func(int, float64) { calls++ })
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tc.problem, result.Problem)
			assert.Equal(t, tc.engine, result.Engine)
			assert.NotEmpty(t, result.Genome)
			assert.NotEmpty(t, history)
			assert.Positive(t, calls)

			data, err := os.ReadFile(cfg.OutputFile)
			require.NoError(t, err)
			var saved runner.Result
			require.NoError(t, json.Unmarshal(data, &saved))
			assert.Equal(t, result.Fitness, saved.Fitness)
		})
	}
}

func TestRunRecordsMonotoneBestForElitistEngines(t *testing.T) {
	cfg := quickConfig(t, config.ProblemAll5s, config.EngineGenerational)
	r, err := runner.New(cfg)
	require.NoError(t, err)

	_, history, err := r.Run(context.Background(), nil)
	require.NoError(t, err)
	for i := 1; i < len(history); i++ {
		assert.GreaterOrEqual(t, history[i], history[i-1])
	}
}
