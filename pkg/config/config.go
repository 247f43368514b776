// Package config holds the run configuration the demo driver feeds the
// evolution engines: which benchmark problem and search engine to run,
// the population shape, the operator ratios, and the per-engine
// parameter blocks.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tommoulard/evolve/pkg/population"
)

// Engine names accepted in Config.Engine.
const (
	EngineGenerational = "generational"
	EngineDE           = "de"
	EngineTabu         = "tabu"
)

// Problem names accepted in Config.Problem.
const (
	ProblemAll5s       = "all5s"
	ProblemOnemax      = "onemax"
	ProblemSphere      = "sphere"
	ProblemPermutation = "permutation"
)

// Config holds application configuration.
type Config struct {
	Problem    string `json:"problem"`
	Engine     string `json:"engine"`
	OutputFile string `json:"output_file"`
	ConfigFile string `json:"config_file"`

	PopulationSize   int   `json:"population_size"`
	ChromosomeLength int   `json:"chromosome_length"`
	MaxGeneration    int   `json:"max_generation"`
	Seed             int64 `json:"seed"`

	Scheme         string  `json:"scheme"`
	Elitism        string  `json:"elitism"`
	MutationRatio  float64 `json:"mutation_ratio"`
	CrossoverRatio float64 `json:"crossover_ratio"`

	AlleleMin int `json:"allele_min"`
	AlleleMax int `json:"allele_max"`

	// Differential Evolution block, used when Engine is "de".
	DEWeightingFactor float64 `json:"de_weighting_factor"`
	DECrossoverFactor float64 `json:"de_crossover_factor"`
	DEStrategy        string  `json:"de_strategy"`

	// Tabu Search block, used when Engine is "tabu".
	TabuListLength  int `json:"tabu_list_length"`
	TabuSearchCount int `json:"tabu_search_count"`

	WorkerCount  int  `json:"worker_count"`
	Verbose      bool `json:"verbose"`
	ShowProgress bool `json:"show_progress"`
}

// Default returns default application configuration.
func Default() Config {
	return Config{
		Problem:          ProblemAll5s,
		Engine:           EngineGenerational,
		OutputFile:       "best_solution.json",
		PopulationSize:   100,
		ChromosomeLength: 50,
		MaxGeneration:    250,
		Seed:             20092004,
		Scheme:           "darwin",
		Elitism:          "parents_survive",
		MutationRatio:    0.05,
		CrossoverRatio:   0.8,
		AlleleMin:        0,
		AlleleMax:        10,

		DEWeightingFactor: 0.3,
		DECrossoverFactor: 0.5,
		DEStrategy:        "rand/1/exp",

		TabuListLength:  50,
		TabuSearchCount: 20,

		WorkerCount:  0, // Auto-detect
		ShowProgress: true,
	}
}

// LoadFromFile loads configuration from a JSON file.
func LoadFromFile(filename string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// LoadFromJSON loads configuration from a JSON string.
func LoadFromJSON(jsonStr string) (Config, error) {
	config := Default()

	err := json.Unmarshal([]byte(jsonStr), &config)
	if err != nil {
		return config, fmt.Errorf("failed to parse JSON config: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file.
func (c Config) SaveToFile(filename string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(filename, data, 0o644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ToJSON returns the configuration as a JSON string.
func (c Config) ToJSON() (string, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to JSON: %w", err)
	}

	return string(data), nil
}

// ParseScheme maps the config's scheme name to its enum value.
func (c Config) ParseScheme() (population.Scheme, error) {
	switch c.Scheme {
	case "darwin", "":
		return population.Darwin, nil
	case "baldwin_all":
		return population.BaldwinAll, nil
	case "baldwin_children":
		return population.BaldwinChildren, nil
	case "lamarck_all":
		return population.LamarckAll, nil
	case "lamarck_children":
		return population.LamarckChildren, nil
	default:
		return 0, fmt.Errorf("unknown scheme %q", c.Scheme)
	}
}

// ParseElitism maps the config's elitism name to its enum value.
func (c Config) ParseElitism() (population.Elitism, error) {
	switch c.Elitism {
	case "parents_survive", "":
		return population.ParentsSurvive, nil
	case "parents_die":
		return population.ParentsDie, nil
	case "rough":
		return population.Rough, nil
	case "rough_comp":
		return population.RoughComp, nil
	case "exact":
		return population.Exact, nil
	case "exact_comp":
		return population.ExactComp, nil
	case "one_parent_survives":
		return population.OneParentSurvives, nil
	default:
		return 0, fmt.Errorf("unknown elitism mode %q", c.Elitism)
	}
}

// Validate validates the configuration for CLI usage.
func (c Config) Validate() error {
	switch c.Problem {
	case ProblemAll5s, ProblemOnemax, ProblemSphere, ProblemPermutation:
	default:
		return fmt.Errorf("unknown problem %q", c.Problem)
	}

	switch c.Engine {
	case EngineGenerational, EngineDE, EngineTabu:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}

	if c.PopulationSize < 2 {
		return errors.New("population size must be at least 2")
	}

	if c.Engine == EngineDE && c.PopulationSize < 6 {
		return errors.New("differential evolution needs a population of at least 6")
	}

	if c.ChromosomeLength < 1 {
		return errors.New("chromosome length must be positive")
	}

	if c.MaxGeneration < 1 {
		return errors.New("max generations must be positive")
	}

	if c.MutationRatio < 0 || c.MutationRatio > 1 {
		return errors.New("mutation ratio must be between 0 and 1")
	}

	if c.CrossoverRatio < 0 || c.CrossoverRatio > 1 {
		return errors.New("crossover ratio must be between 0 and 1")
	}

	if c.AlleleMin > c.AlleleMax {
		return errors.New("allele_min must not exceed allele_max")
	}

	if c.DECrossoverFactor < 0 || c.DECrossoverFactor > 1 {
		return errors.New("de crossover factor must be between 0 and 1")
	}

	if c.TabuListLength < 1 || c.TabuSearchCount < 1 {
		return errors.New("tabu list length and search count must be positive")
	}

	if c.WorkerCount < 0 {
		return errors.New("worker count must be non-negative (0 = auto-detect)")
	}

	if _, err := c.ParseScheme(); err != nil {
		return err
	}

	if _, err := c.ParseElitism(); err != nil {
		return err
	}

	return nil
}
