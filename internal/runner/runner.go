// Package runner wires a config.Config to a population, the benchmark
// problem's callbacks, and one of the three search engines, and reports
// the best solution found.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/tommoulard/evolve"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/config"
	"github.com/tommoulard/evolve/pkg/de"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/operators"
	"github.com/tommoulard/evolve/pkg/population"
	"github.com/tommoulard/evolve/pkg/rank"
	"github.com/tommoulard/evolve/pkg/tabu"
)

// ProgressCallback is called once per generation with the current best
// fitness, or, for the Tabu engine, once per iteration with the fitness of
// the current solution.
type ProgressCallback func(generation int, bestFitness float64)

// Result is what a run reports and what gets serialized to the output
// file.
type Result struct {
	Problem     string  `json:"problem"`
	Engine      string  `json:"engine"`
	Generations int     `json:"generations"`
	Fitness     float64 `json:"fitness"`
	Genome      string  `json:"genome"`
	RunID       string  `json:"run_id"`
	Timestamp   string  `json:"timestamp"`
}

// Runner handles the execution of one configured optimization run.
type Runner struct {
	config config.Config
}

// New creates a Runner with the given configuration.
func New(cfg config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &Runner{config: cfg}, nil
}

// Run builds the population for the configured problem, executes the
// configured engine, and returns the result plus the fitness history: the
// best fitness per generation, or the current solution's fitness per Tabu
// iteration.
func (r *Runner) Run(ctx context.Context, progress ProgressCallback) (*Result, []float64, error) {
	pop, err := r.buildPopulation()
	if err != nil {
		return nil, nil, err
	}
	defer pop.Extinction()

	var history []float64
	var bar *progressbar.ProgressBar
	if r.config.ShowProgress {
		bar = progressbar.Default(int64(r.config.MaxGeneration), "evolving")
	}
	pop.Callbacks.GenerationHook = func(gen int, p *population.Population) bool {
		best, err := p.GetEntityFromRank(0)
		if err != nil {
			return false
		}
		history = append(history, best.Fitness)
		if bar != nil {
			_ = bar.Add(1)
		}
		if progress != nil {
			progress(gen, best.Fitness)
		}
		if r.config.Verbose {
			if stats, err := rank.Compute(gen, p); err == nil {
				fmt.Println(stats.String())
			}
		}
		return true
	}
	// Tabu reports per iteration rather than per generation
	pop.Callbacks.IterationHook = func(iter int, current *entity.Entity) bool {
		history = append(history, current.Fitness)
		if bar != nil {
			_ = bar.Add(1)
		}
		if progress != nil {
			progress(iter, current.Fitness)
		}
		return true
	}

	generations, best, err := r.execute(ctx, pop)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return nil, history, err
	}

	result := &Result{
		Problem:     r.config.Problem,
		Engine:      r.config.Engine,
		Generations: generations,
		Fitness:     best.Fitness,
		Genome:      evolve.EntityString(best),
		RunID:       pop.RunID.String(),
		Timestamp:   time.Now().Format(time.RFC3339),
	}

	if r.config.OutputFile != "" {
		if err := saveResult(result, r.config.OutputFile); err != nil {
			return result, history, err
		}
	}
	return result, history, nil
}

// execute dispatches to the configured engine and returns the final
// best entity. The entity is only valid until Extinction runs, so Run
// copies what it needs into Result before returning.
func (r *Runner) execute(ctx context.Context, pop *population.Population) (int, *entity.Entity, error) {
	switch r.config.Engine {
	case config.EngineDE:
		generations, err := evolve.DifferentialEvolution(ctx, pop, r.config.MaxGeneration)
		if err != nil {
			return generations, nil, err
		}
		best, err := pop.GetEntityFromRank(0)
		return generations, best, err

	case config.EngineTabu:
		initial, err := pop.GetEntityFromRank(0)
		if err != nil {
			return 0, nil, err
		}
		iterations, err := evolve.Tabu(ctx, pop, initial, r.config.MaxGeneration)
		if err != nil {
			return iterations, nil, err
		}
		return iterations, initial, nil

	default:
		generations, err := evolve.Evolution(ctx, pop, r.config.MaxGeneration)
		if err != nil {
			return generations, nil, err
		}
		best, err := pop.GetEntityFromRank(0)
		return generations, best, err
	}
}

// buildPopulation assembles the population, operator suite, and engine
// parameter blocks for the configured problem.
func (r *Runner) buildPopulation() (*population.Population, error) {
	atomType := problemAtomType(r.config.Problem)

	pop, err := evolve.Genesis(atomType, r.config.PopulationSize, 1, r.config.ChromosomeLength, r.config.Seed)
	if err != nil {
		return nil, err
	}

	scheme, err := r.config.ParseScheme()
	if err != nil {
		return nil, err
	}
	elitism, err := r.config.ParseElitism()
	if err != nil {
		return nil, err
	}
	if err := evolve.SetParameters(pop, scheme, elitism, r.config.CrossoverRatio, r.config.MutationRatio, 0); err != nil {
		return nil, err
	}

	switch r.config.Problem {
	case config.ProblemAll5s:
		pop.Params.HasIntegerBounds = true
		pop.Params.AlleleMinInteger = r.config.AlleleMin
		pop.Params.AlleleMaxInteger = r.config.AlleleMax
		pop.Callbacks.Evaluate = evaluateAll5s
		pop.Callbacks.SelectTwo = operators.SelectStochasticUniversalSampling()
		pop.Callbacks.SelectOne = operators.SelectRouletteRebased()
		pop.Callbacks.Mutate = operators.MutateIntegerStep

	case config.ProblemOnemax:
		pop.Callbacks.Evaluate = evaluateOnemax

	case config.ProblemSphere:
		pop.Params.HasDoubleBounds = true
		pop.Params.AlleleMinDouble = float64(r.config.AlleleMin)
		pop.Params.AlleleMaxDouble = float64(r.config.AlleleMax)
		pop.Callbacks.Evaluate = evaluateSphere

	case config.ProblemPermutation:
		pop.Callbacks.Seed = operators.SeedPermutation
		pop.Callbacks.Evaluate = evaluatePermutation
		pop.Callbacks.Mutate = operators.MutateSwap
		pop.Callbacks.Crossover = operators.CrossoverOrdered
		pop.Callbacks.SelectOne = operators.SelectRandomRank()
		pop.Callbacks.SelectTwo = operators.TwoFromOne(operators.SelectRandomRank())
	}

	// genesis seeded before the problem's bounds and seed routine were
	// installed, so reseed every entity under the final rules
	for i := 0; i < pop.Size(); i++ {
		e, err := pop.GetEntityFromRank(i)
		if err != nil {
			return nil, err
		}
		if !pop.Callbacks.Seed(pop, e) {
			return nil, fmt.Errorf("seed rejected entity id %d", e.ID)
		}
	}

	switch r.config.Engine {
	case config.EngineDE:
		strategy, err := parseDEStrategy(r.config.DEStrategy)
		if err != nil {
			return nil, err
		}
		cfg := de.DefaultConfig()
		cfg.WeightingFactor = r.config.DEWeightingFactor
		cfg.CrossoverFactor = r.config.DECrossoverFactor
		cfg.Strategy = strategy
		cfg.NumPerturbed = strategy.DifferencePairs()
		cfg.Workers = r.config.WorkerCount
		if err := evolve.SetDifferentialEvolutionParameters(pop, cfg); err != nil {
			return nil, err
		}

	case config.EngineTabu:
		accept := tabu.AcceptFunc(nil)
		if atomType == chromosome.Double {
			accept = tabu.AcceptEpsilon(1e-9)
		}
		if err := evolve.SetTabuParameters(pop, accept, r.config.TabuListLength, r.config.TabuSearchCount); err != nil {
			return nil, err
		}
	}

	return pop, nil
}

func problemAtomType(problem string) chromosome.AtomType {
	switch problem {
	case config.ProblemOnemax:
		return chromosome.Boolean
	case config.ProblemSphere:
		return chromosome.Double
	default:
		return chromosome.Integer
	}
}

func parseDEStrategy(name string) (de.Strategy, error) {
	switch name {
	case "rand/1/exp", "":
		return de.RandOneExp, nil
	case "best/1/exp":
		return de.BestOneExp, nil
	case "rand-to-best/1/exp":
		return de.RandToBestOneExp, nil
	case "best/2/exp":
		return de.BestTwoExp, nil
	case "rand/2/exp":
		return de.RandTwoExp, nil
	default:
		return 0, fmt.Errorf("unknown de strategy %q", name)
	}
}

// evaluateAll5s scores an integer genome by its distance from the
// all-fives vector, normalized to (0, 1].
func evaluateAll5s(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	sum := 0.0
	for i := 0; i < c.Len(); i++ {
		d := float64(5 - c.Int(i))
		sum += d * d
	}
	e.Fitness = 1.0 / (1.0 + math.Sqrt(sum))
	return true
}

// evaluateOnemax counts set alleles, normalized to [0, 1].
func evaluateOnemax(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	count := 0
	for i := 0; i < c.Len(); i++ {
		if c.Bool(i) {
			count++
		}
	}
	e.Fitness = float64(count) / float64(c.Len())
	return true
}

// evaluateSphere is -Σx², maximized at the origin.
func evaluateSphere(_ *population.Population, e *entity.Entity) bool {
	sum := 0.0
	for _, x := range e.Chromosomes[0].Doubles() {
		sum += x * x
	}
	e.Fitness = -sum
	return true
}

// evaluatePermutation rewards loci holding their own index.
func evaluatePermutation(_ *population.Population, e *entity.Entity) bool {
	c := &e.Chromosomes[0]
	sum := 0.0
	for i := 0; i < c.Len(); i++ {
		sum += math.Abs(float64(c.Int(i) - i))
	}
	e.Fitness = 1.0 / (1.0 + sum)
	return true
}

func saveResult(result *Result, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	err = os.WriteFile(filename, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write result file: %w", err)
	}

	return nil
}
