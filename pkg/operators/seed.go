// Package operators collects the built-in seed, mutation, crossover, and
// selection routines, organized as catalogues keyed by chromosome.AtomType.
// A population wires one entry from each catalogue into its Callbacks; an
// application is always free to supply its own callback instead.
package operators

import (
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// SeedCatalogue returns the default random-genome seed routine for atomType,
// respecting Params bounds when the population declares them. Every seed
// routine returns true unconditionally: random genomes are always valid
// genomes.
func SeedCatalogue(atomType chromosome.AtomType) population.SeedFunc {
	switch atomType {
	case chromosome.Boolean:
		return SeedBoolean
	case chromosome.Integer:
		return SeedInteger
	case chromosome.Double:
		return SeedDouble
	case chromosome.Character:
		return SeedCharacter
	case chromosome.Bit:
		return SeedBit
	default:
		panic("operators: no seed routine registered for atom type")
	}
}

// SeedBoolean fills every allele with a fair coin flip.
func SeedBoolean(pop *population.Population, e *entity.Entity) bool {
	for _, c := range e.Chromosomes {
		for i := 0; i < c.Len(); i++ {
			c.SetBool(i, pop.RNG.Bool())
		}
	}
	return true
}

// SeedInteger fills every allele with a uniform draw from
// [AlleleMinInteger, AlleleMaxInteger] if the population declares integer
// bounds, otherwise from [0, 100].
func SeedInteger(pop *population.Population, e *entity.Entity) bool {
	lo, hi := integerBounds(pop)
	for _, c := range e.Chromosomes {
		for i := 0; i < c.Len(); i++ {
			c.SetInt(i, pop.RNG.UniformInt(lo, hi))
		}
	}
	return true
}

// SeedDouble fills every allele with a uniform draw from
// [AlleleMinDouble, AlleleMaxDouble) if declared, otherwise [0.0, 1.0).
func SeedDouble(pop *population.Population, e *entity.Entity) bool {
	lo, hi := doubleBounds(pop)
	for _, c := range e.Chromosomes {
		for i := 0; i < c.Len(); i++ {
			c.SetDouble(i, pop.RNG.UniformFloat(lo, hi))
		}
	}
	return true
}

// printableASCII is the character atom's default allele alphabet absent any
// application-specific charset, covering the visible ASCII range.
const printableASCII = "!\"#$%&'()*+,-./0123456789:;<=>?@ABCDEFGHIJKLMNOPQRSTUVWXYZ[\\]^_`abcdefghijklmnopqrstuvwxyz{|}~"

// SeedCharacter fills every allele with a uniform draw from printableASCII.
func SeedCharacter(pop *population.Population, e *entity.Entity) bool {
	runes := []rune(printableASCII)
	for _, c := range e.Chromosomes {
		for i := 0; i < c.Len(); i++ {
			c.SetChar(i, runes[pop.RNG.Intn(len(runes))])
		}
	}
	return true
}

// SeedBit fills every allele with a fair coin flip, same as SeedBoolean but
// against the packed bit representation.
func SeedBit(pop *population.Population, e *entity.Entity) bool {
	for _, c := range e.Chromosomes {
		for i := 0; i < c.Len(); i++ {
			c.SetBit(i, pop.RNG.Bool())
		}
	}
	return true
}

// SeedZero leaves every allele at its zero value, for problems whose
// natural starting point is the origin (e.g. incremental construction
// under a drift mutation).
func SeedZero(_ *population.Population, e *entity.Entity) bool {
	for i := range e.Chromosomes {
		e.Chromosomes[i].Zero()
	}
	return true
}

// SeedPermutation fills every allele of every chromosome with a fresh
// random permutation of [0, len), ignoring the population's declared
// integer bounds. Used by combinatorial problems (the pingpong and Tabu
// Search scenarios) where each chromosome must hold a permutation rather
// than independently-drawn integers.
func SeedPermutation(pop *population.Population, e *entity.Entity) bool {
	for _, c := range e.Chromosomes {
		perm := pop.RNG.Perm(c.Len())
		for i, v := range perm {
			c.SetInt(i, v)
		}
	}
	return true
}

func integerBounds(pop *population.Population) (int, int) {
	if pop.Params.HasIntegerBounds {
		return pop.Params.AlleleMinInteger, pop.Params.AlleleMaxInteger
	}
	return 0, 100
}

func doubleBounds(pop *population.Population) (float64, float64) {
	if pop.Params.HasDoubleBounds {
		return pop.Params.AlleleMinDouble, pop.Params.AlleleMaxDouble
	}
	return 0.0, 1.0
}
