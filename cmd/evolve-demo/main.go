// Command evolve-demo runs one of the built-in benchmark problems
// through the evolution, Differential Evolution, or Tabu Search engine
// and writes the best solution found to a JSON file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tommoulard/evolve/internal/runner"
	"github.com/tommoulard/evolve/pkg/config"
)

func main() {
	cfg := parseFlags()

	// Load configuration file if specified; flags already parsed into
	// cfg win over file values for anything re-set on the command line,
	// matching the usual precedence by re-parsing afterwards.
	if cfg.ConfigFile != "" {
		fileCfg, err := config.LoadFromFile(cfg.ConfigFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = mergeFlags(fileCfg)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cfg); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Operation canceled by user")
			os.Exit(130)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseFlags parses command line arguments over the defaults.
func parseFlags() config.Config {
	cfg := config.Default()
	registerFlags(&cfg)
	flag.Parse()
	return cfg
}

// mergeFlags re-applies command-line flags on top of a file-loaded
// configuration, so explicit flags always win.
func mergeFlags(cfg config.Config) config.Config {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	registerInto(fs, &cfg)
	_ = fs.Parse(os.Args[1:])
	return cfg
}

func registerFlags(cfg *config.Config) {
	registerInto(flag.CommandLine, cfg)
}

func registerInto(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.Problem, "problem", cfg.Problem, "Benchmark problem (all5s, onemax, sphere, permutation)")
	fs.StringVar(&cfg.Engine, "engine", cfg.Engine, "Search engine (generational, de, tabu)")
	fs.StringVar(&cfg.OutputFile, "output", cfg.OutputFile, "Output file for best solution")
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "Configuration file (JSON)")
	fs.IntVar(&cfg.PopulationSize, "population", cfg.PopulationSize, "Population size")
	fs.IntVar(&cfg.ChromosomeLength, "length", cfg.ChromosomeLength, "Chromosome length")
	fs.IntVar(&cfg.MaxGeneration, "generations", cfg.MaxGeneration, "Maximum generations (or tabu iterations)")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "PRNG seed")
	fs.StringVar(&cfg.Scheme, "scheme", cfg.Scheme, "Evolutionary scheme")
	fs.StringVar(&cfg.Elitism, "elitism", cfg.Elitism, "Elitism mode")
	fs.Float64Var(&cfg.MutationRatio, "mutation", cfg.MutationRatio, "Mutation ratio")
	fs.Float64Var(&cfg.CrossoverRatio, "crossover", cfg.CrossoverRatio, "Crossover ratio")
	fs.IntVar(&cfg.WorkerCount, "workers", cfg.WorkerCount, "Parallel evaluation workers (0 = auto-detect)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose per-generation statistics")
	fs.BoolVar(&cfg.ShowProgress, "progress", cfg.ShowProgress, "Show progress bar")
}

func run(ctx context.Context, cfg config.Config) error {
	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	if cfg.Verbose {
		fmt.Printf("Running %s on %s (population %d, %d generations, seed %d)\n",
			cfg.Engine, cfg.Problem, cfg.PopulationSize, cfg.MaxGeneration, cfg.Seed)
	}

	result, history, err := r.Run(ctx, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Best fitness: %.6f after %d generations\n", result.Fitness, result.Generations)
	fmt.Printf("Genome:\n%s\n", result.Genome)
	if len(history) > 1 {
		fmt.Printf("Fitness improved %.6f -> %.6f\n", history[0], history[len(history)-1])
	}
	if cfg.OutputFile != "" {
		fmt.Printf("Result written to %s\n", cfg.OutputFile)
	}
	return nil
}
