package operators

import (
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// CrossoverCatalogue returns the default single-point crossover routine for
// atomType. daughter and son must already be allocated entities of the
// same genome shape as mother and father.
func CrossoverCatalogue(atomType chromosome.AtomType) population.CrossoverFunc {
	switch atomType {
	case chromosome.Integer, chromosome.Double, chromosome.Boolean, chromosome.Character:
		return CrossoverSinglePoint
	case chromosome.Bit:
		return CrossoverSinglePointBit
	default:
		panic("operators: no crossover routine registered for atom type")
	}
}

// CrossoverSinglePoint picks one cut point per chromosome and swaps the
// tails between mother and father to produce daughter and son, working
// allele-by-allele so it is agnostic to the concrete atom type (every atom
// type except Bit exposes Len()-indexed Bool/Int/Double/Char accessors).
func CrossoverSinglePoint(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		n := mc.Len()
		if n == 0 {
			continue
		}
		cut := pop.RNG.Intn(n)
		for i := 0; i < n; i++ {
			fromMother := i < cut
			copyAllele(mc, fc, dc, i, fromMother)
			copyAllele(mc, fc, sc, i, !fromMother)
		}
	}
}

// copyAllele writes locus i of dst from mc if fromMother, else from fc.
// dst, mc and fc must share an atom type.
func copyAllele(mc, fc, dst *chromosome.Chromosome, i int, fromMother bool) {
	src := fc
	if fromMother {
		src = mc
	}
	switch src.AtomType() {
	case chromosome.Boolean:
		dst.SetBool(i, src.Bool(i))
	case chromosome.Integer:
		dst.SetInt(i, src.Int(i))
	case chromosome.Double:
		dst.SetDouble(i, src.Double(i))
	case chromosome.Character:
		dst.SetChar(i, src.Char(i))
	}
}

// CrossoverSinglePointBit is CrossoverSinglePoint specialized for packed
// Bit chromosomes.
func CrossoverSinglePointBit(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		n := mc.Len()
		if n == 0 {
			continue
		}
		cut := pop.RNG.Intn(n)
		for i := 0; i < n; i++ {
			if i < cut {
				dc.SetBit(i, mc.Bit(i))
				sc.SetBit(i, fc.Bit(i))
			} else {
				dc.SetBit(i, fc.Bit(i))
				sc.SetBit(i, mc.Bit(i))
			}
		}
	}
}

// CrossoverDoublePoint picks two cut points per chromosome and swaps the
// middle segment, the multi-point generalization of CrossoverSinglePoint.
func CrossoverDoublePoint(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		n := mc.Len()
		if n < 2 {
			CrossoverSinglePoint(pop, mother, father, daughter, son)
			continue
		}
		a := pop.RNG.Intn(n)
		b := pop.RNG.Intn(n)
		if a > b {
			a, b = b, a
		}
		for i := 0; i < n; i++ {
			inMiddle := i >= a && i < b
			copyAllele(mc, fc, dc, i, !inMiddle)
			copyAllele(mc, fc, sc, i, inMiddle)
		}
	}
}

// CrossoverAlleleMix independently chooses, for every locus, which parent
// contributes to daughter (with son getting the complementary parent) —
// uniform crossover rather than a contiguous cut.
func CrossoverAlleleMix(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		n := mc.Len()
		for i := 0; i < n; i++ {
			fromMother := pop.RNG.Bool()
			copyAllele(mc, fc, dc, i, fromMother)
			copyAllele(mc, fc, sc, i, !fromMother)
		}
	}
}

// CrossoverMixing chooses, per chromosome, which whole chromosome each
// offspring inherits: daughter takes mother's or father's copy of
// chromosome ci by coin flip, with son taking the complement. With a
// single chromosome this degenerates to cloning one parent into each
// offspring.
func CrossoverMixing(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		if pop.RNG.Bool() {
			dc.CopyFrom(mc)
			sc.CopyFrom(fc)
		} else {
			dc.CopyFrom(fc)
			sc.CopyFrom(mc)
		}
	}
}

// CrossoverChromosomeSinglePoint picks one cut at chromosome granularity:
// chromosomes before the cut come from one parent, the rest from the
// other, with no cut inside any chromosome. Meaningful only for
// multi-chromosome genomes; with one chromosome it clones a parent into
// each offspring.
func CrossoverChromosomeSinglePoint(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	num := len(mother.Chromosomes)
	cut := pop.RNG.Intn(num + 1)
	for ci := range mother.Chromosomes {
		mc, fc := &mother.Chromosomes[ci], &father.Chromosomes[ci]
		dc, sc := &daughter.Chromosomes[ci], &son.Chromosomes[ci]
		if ci < cut {
			dc.CopyFrom(mc)
			sc.CopyFrom(fc)
		} else {
			dc.CopyFrom(fc)
			sc.CopyFrom(mc)
		}
	}
}

// CrossoverOrdered implements order crossover (OX1) for permutation-encoded
// Integer chromosomes: a contiguous segment is copied verbatim from mother
// into daughter, and the remaining positions are filled with father's
// values in the order they appear, skipping values already placed. son is
// produced symmetrically with the parents swapped. Use this instead of
// CrossoverSinglePoint whenever the chromosome must remain a permutation
// (the pingpong and Tabu Search scenarios).
func CrossoverOrdered(pop *population.Population, mother, father, daughter, son *entity.Entity) {
	for ci := range mother.Chromosomes {
		orderCrossoverOne(pop, &mother.Chromosomes[ci], &father.Chromosomes[ci], &daughter.Chromosomes[ci])
		orderCrossoverOne(pop, &father.Chromosomes[ci], &mother.Chromosomes[ci], &son.Chromosomes[ci])
	}
}

func orderCrossoverOne(pop *population.Population, primary, secondary, dst *chromosome.Chromosome) {
	n := primary.Len()
	if n == 0 {
		return
	}
	a := pop.RNG.Intn(n)
	b := pop.RNG.Intn(n)
	if a > b {
		a, b = b, a
	}

	used := make(map[int]bool, n)
	for i := a; i <= b; i++ {
		v := primary.Int(i)
		dst.SetInt(i, v)
		used[v] = true
	}

	pos := (b + 1) % n
	for i := 0; i < n; i++ {
		v := secondary.Int((b + 1 + i) % n)
		if used[v] {
			continue
		}
		dst.SetInt(pos, v)
		used[v] = true
		pos = (pos + 1) % n
	}
}
