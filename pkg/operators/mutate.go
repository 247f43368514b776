package operators

import (
	"math"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/population"
)

// MutateCatalogue returns the default single-point mutation routine for
// atomType. All routines assume child already holds a CopyFrom(parent)
// replica; they perturb child in place.
func MutateCatalogue(atomType chromosome.AtomType) population.MutateFunc {
	switch atomType {
	case chromosome.Boolean:
		return MutateBooleanFlip
	case chromosome.Integer:
		return MutateIntegerStep
	case chromosome.Double:
		return MutateDoubleGaussian
	case chromosome.Character:
		return MutateCharacterReplace
	case chromosome.Bit:
		return MutateBitFlip
	default:
		panic("operators: no mutate routine registered for atom type")
	}
}

// mutationLociPerChromosome is the number of loci perturbed per chromosome
// by each "single-point" style mutation below. The multipoint variants
// further down do not use a fixed count; they perturb each allele
// independently with probability multipointRate.
const mutationLociPerChromosome = 1

// MutateBooleanFlip flips one random allele per chromosome.
func MutateBooleanFlip(pop *population.Population, _, child *entity.Entity) {
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		c.SetBool(locus, !c.Bool(locus))
	}
}

// MutateBitFlip flips one random allele per chromosome of a packed Bit
// genome.
func MutateBitFlip(pop *population.Population, _, child *entity.Entity) {
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		c.SetBit(locus, !c.Bit(locus))
	}
}

// MutateIntegerStep perturbs one random allele by a signed unit step,
// clamping or wrapping at the declared bounds per Params.BoundsPolicy.
func MutateIntegerStep(pop *population.Population, _, child *entity.Entity) {
	lo, hi, bounded := integerBoundsOK(pop)
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		step := 1
		if pop.RNG.Bool() {
			step = -1
		}
		v := c.Int(locus) + step
		if bounded {
			v = applyIntBounds(v, lo, hi, pop.Params.BoundsPolicy)
		}
		c.SetInt(locus, v)
	}
}

// MutateIntegerRandomize replaces one random allele with a fresh uniform
// draw across the declared bounds (or [0,100] if undeclared), rather than
// perturbing the existing value. Useful when the allele space has no
// meaningful notion of adjacency (e.g. categorical codes).
func MutateIntegerRandomize(pop *population.Population, _, child *entity.Entity) {
	lo, hi := integerBounds(pop)
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		c.SetInt(locus, pop.RNG.UniformInt(lo, hi))
	}
}

// MutateDoubleGaussian perturbs one random allele by additive Gaussian
// noise with standard deviation 10% of the declared range (or 0.1 if no
// bounds are declared), clamping or wrapping per Params.BoundsPolicy.
func MutateDoubleGaussian(pop *population.Population, _, child *entity.Entity) {
	lo, hi, bounded := doubleBoundsOK(pop)
	stddev := 0.1
	if bounded {
		stddev = (hi - lo) * 0.1
	}
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		v := c.Double(locus) + pop.RNG.Gaussian(0, stddev)
		if bounded {
			v = applyDoubleBounds(v, lo, hi, pop.Params.BoundsPolicy)
		}
		c.SetDouble(locus, v)
	}
}

// MutateCharacterReplace replaces one random allele with a fresh draw from
// printableASCII.
func MutateCharacterReplace(pop *population.Population, _, child *entity.Entity) {
	runes := []rune(printableASCII)
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		c.SetChar(locus, runes[pop.RNG.Intn(len(runes))])
	}
}

// MutateSwap swaps two random loci within the same chromosome without
// changing the allele multiset, preserving permutation validity. Use this
// in place of the atom-typed routines above for permutation-encoded
// chromosomes (Integer atoms, Params with no declared bounds).
func MutateSwap(pop *population.Population, _, child *entity.Entity) {
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		n := c.Len()
		if n < 2 {
			continue
		}
		a := pop.RNG.Intn(n)
		b := pop.RNG.Intn(n)
		for b == a {
			b = pop.RNG.Intn(n)
		}
		va, vb := c.Int(a), c.Int(b)
		c.SetInt(a, vb)
		c.SetInt(b, va)
	}
}

// multipointRate is the independent per-allele perturbation probability
// the multipoint mutation family uses.
const multipointRate = 0.05

// MutateBooleanMultipoint flips each allele independently with a small
// probability.
func MutateBooleanMultipoint(pop *population.Population, _, child *entity.Entity) {
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		for locus := 0; locus < c.Len(); locus++ {
			if pop.RNG.BoolP(multipointRate) {
				c.SetBool(locus, !c.Bool(locus))
			}
		}
	}
}

// MutateBitMultipoint flips each allele of a packed Bit genome
// independently with a small probability.
func MutateBitMultipoint(pop *population.Population, _, child *entity.Entity) {
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		for locus := 0; locus < c.Len(); locus++ {
			if pop.RNG.BoolP(multipointRate) {
				c.SetBit(locus, !c.Bit(locus))
			}
		}
	}
}

// MutateIntegerMultipoint perturbs each allele independently with a small
// probability by a signed unit step, honoring declared bounds.
func MutateIntegerMultipoint(pop *population.Population, _, child *entity.Entity) {
	lo, hi, bounded := integerBoundsOK(pop)
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		for locus := 0; locus < c.Len(); locus++ {
			if !pop.RNG.BoolP(multipointRate) {
				continue
			}
			step := 1
			if pop.RNG.Bool() {
				step = -1
			}
			v := c.Int(locus) + step
			if bounded {
				v = applyIntBounds(v, lo, hi, pop.Params.BoundsPolicy)
			}
			c.SetInt(locus, v)
		}
	}
}

// gaussianStddevInteger is the default standard deviation for
// MutateIntegerGaussian when the population declares no integer bounds.
const gaussianStddevInteger = 2.0

// MutateIntegerGaussian perturbs one random allele by a rounded Gaussian
// step whose standard deviation is 10% of the declared allele range (or
// gaussianStddevInteger without bounds), clamping or wrapping per
// Params.BoundsPolicy.
func MutateIntegerGaussian(pop *population.Population, _, child *entity.Entity) {
	lo, hi, bounded := integerBoundsOK(pop)
	stddev := gaussianStddevInteger
	if bounded && hi > lo {
		stddev = float64(hi-lo) * 0.1
	}
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		if c.Len() == 0 {
			continue
		}
		locus := pop.RNG.Intn(c.Len())
		step := int(math.Round(pop.RNG.Gaussian(0, stddev)))
		v := c.Int(locus) + step
		if bounded {
			v = applyIntBounds(v, lo, hi, pop.Params.BoundsPolicy)
		}
		c.SetInt(locus, v)
	}
}

// MutateDoubleMultipoint perturbs each allele independently with a small
// probability by Gaussian noise, honoring declared bounds.
func MutateDoubleMultipoint(pop *population.Population, _, child *entity.Entity) {
	lo, hi, bounded := doubleBoundsOK(pop)
	stddev := 0.1
	if bounded {
		stddev = (hi - lo) * 0.1
	}
	for i := range child.Chromosomes {
		c := &child.Chromosomes[i]
		for locus := 0; locus < c.Len(); locus++ {
			if !pop.RNG.BoolP(multipointRate) {
				continue
			}
			v := c.Double(locus) + pop.RNG.Gaussian(0, stddev)
			if bounded {
				v = applyDoubleBounds(v, lo, hi, pop.Params.BoundsPolicy)
			}
			c.SetDouble(locus, v)
		}
	}
}

func integerBoundsOK(pop *population.Population) (int, int, bool) {
	return pop.Params.AlleleMinInteger, pop.Params.AlleleMaxInteger, pop.Params.HasIntegerBounds
}

func doubleBoundsOK(pop *population.Population) (float64, float64, bool) {
	return pop.Params.AlleleMinDouble, pop.Params.AlleleMaxDouble, pop.Params.HasDoubleBounds
}

func applyIntBounds(v, lo, hi int, policy population.BoundsPolicy) int {
	if v >= lo && v <= hi {
		return v
	}
	if policy == population.Wrap {
		span := hi - lo + 1
		if span <= 0 {
			return lo
		}
		return lo + ((v-lo)%span+span)%span
	}
	if v < lo {
		return lo
	}
	return hi
}

func applyDoubleBounds(v, lo, hi float64, policy population.BoundsPolicy) float64 {
	if v >= lo && v <= hi {
		return v
	}
	if policy == population.Wrap {
		span := hi - lo
		if span <= 0 {
			return lo
		}
		return lo + math.Mod(math.Mod(v-lo, span)+span, span)
	}
	if v < lo {
		return lo
	}
	return hi
}
