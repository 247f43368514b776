// Package rank computes population-wide statistics once per generation:
// fitness mean/stddev and three convergence ratios (genotype, chromosome,
// allele) that quantify how much diversity the population has lost.
package rank

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// Statistics summarizes one generation's population. Convergence ratios are
// in [0, 1]; 1.0 means every entity is identical at that granularity.
type Statistics struct {
	Generation int

	Best, Worst float64
	Mean        float64
	StdDev      float64

	// GenotypeConvergence is the fraction of entity pairs whose full
	// genome (every chromosome) is bitwise identical.
	GenotypeConvergence float64
	// ChromosomeConvergence is the fraction of entity pairs whose
	// chromosomes are identical, averaged over chromosome indices.
	ChromosomeConvergence float64
	// AlleleConvergence is the per-locus mode frequency (share of the
	// population holding the locus's most common allele) averaged over
	// every locus of every chromosome.
	AlleleConvergence float64
}

// Compute gathers Statistics over every live, evaluated entity in pop.
// pop must already be sorted (population.SortPopulation) so rank 0 holds
// the best fitness and the last evaluated rank the worst; convergence is
// measured pairwise and does not depend on order. Returns an error if no
// entity in pop has been evaluated yet.
func Compute(generation int, pop *population.Population) (Statistics, error) {
	n := pop.Size()
	fitnesses := make([]float64, 0, n)
	for r := 0; r < n; r++ {
		e, err := pop.GetEntityFromRank(r)
		if err != nil {
			return Statistics{}, err
		}
		if e.Evaluated() {
			fitnesses = append(fitnesses, e.Fitness)
		}
	}
	if len(fitnesses) == 0 {
		return Statistics{}, fmt.Errorf("rank: no evaluated entities to summarize")
	}

	genConv, chromConv, alleleConv := convergence(pop)

	mean, stddev := stat.MeanStdDev(fitnesses, nil)
	return Statistics{
		Generation:            generation,
		Best:                  fitnesses[0],
		Worst:                 fitnesses[len(fitnesses)-1],
		Mean:                  mean,
		StdDev:                stddev,
		GenotypeConvergence:   genConv,
		ChromosomeConvergence: chromConv,
		AlleleConvergence:     alleleConv,
	}, nil
}

// convergence walks every entity pair (O(n²), advisory per-generation
// use only) for the genotype and chromosome ratios, and every locus for
// the allele mode frequency.
func convergence(pop *population.Population) (genotype, chromosomeRatio, allele float64) {
	n := pop.Size()
	if n == 0 {
		return 0, 0, 0
	}
	entities := make([]*entity.Entity, 0, n)
	for r := 0; r < n; r++ {
		e, err := pop.GetEntityFromRank(r)
		if err != nil {
			continue
		}
		entities = append(entities, e)
	}
	n = len(entities)
	if n == 0 {
		return 0, 0, 0
	}
	if n == 1 {
		return 1, 1, 1
	}

	numChroms := len(entities[0].Chromosomes)
	pairs := n * (n - 1) / 2
	identicalGenomes := 0
	identicalChromPairs := 0

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			allEqual := true
			for ci := 0; ci < numChroms; ci++ {
				if entities[i].Chromosomes[ci].Equal(&entities[j].Chromosomes[ci]) {
					identicalChromPairs++
				} else {
					allEqual = false
				}
			}
			if allEqual {
				identicalGenomes++
			}
		}
	}

	genotype = float64(identicalGenomes) / float64(pairs)
	chromosomeRatio = float64(identicalChromPairs) / float64(pairs*numChroms)
	allele = alleleModeFrequency(entities)
	return genotype, chromosomeRatio, allele
}

// alleleModeFrequency averages, over every locus, the share of entities
// holding that locus's most common allele.
func alleleModeFrequency(entities []*entity.Entity) float64 {
	n := len(entities)
	numChroms := len(entities[0].Chromosomes)

	sum := 0.0
	loci := 0
	for ci := 0; ci < numChroms; ci++ {
		length := entities[0].Chromosomes[ci].Len()
		for locus := 0; locus < length; locus++ {
			counts := make(map[any]int, n)
			for _, e := range entities {
				counts[alleleValue(&e.Chromosomes[ci], locus)]++
			}
			mode := 0
			for _, c := range counts {
				if c > mode {
					mode = c
				}
			}
			sum += float64(mode) / float64(n)
			loci++
		}
	}
	if loci == 0 {
		return 0
	}
	return sum / float64(loci)
}

func alleleValue(c *chromosome.Chromosome, locus int) any {
	switch c.AtomType() {
	case chromosome.Boolean:
		return c.Bool(locus)
	case chromosome.Integer:
		return c.Int(locus)
	case chromosome.Double:
		return c.Double(locus)
	case chromosome.Character:
		return c.Char(locus)
	default: // Bit
		return c.Bit(locus)
	}
}

// String renders a one-line summary suitable for a generation hook's log
// line.
func (s Statistics) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "gen=%d best=%.6g worst=%.6g mean=%.6g stddev=%.6g", s.Generation, s.Best, s.Worst, s.Mean, s.StdDev)
	fmt.Fprintf(&b, " conv(genotype=%.2f chromosome=%.2f allele=%.2f)", s.GenotypeConvergence, s.ChromosomeConvergence, s.AlleleConvergence)
	return b.String()
}
