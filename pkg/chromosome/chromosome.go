// Package chromosome defines the atom-typed genome storage shared by every
// entity in a population. The store treats a chromosome as an opaque
// sequence of alleles whose semantics live in the operators package; this
// package only owns the representation and the typed accessors each atom
// type needs.
package chromosome

import (
	"fmt"
	"strconv"
	"strings"
)

// AtomType identifies the kind of allele a chromosome holds. It is fixed
// per population: every chromosome in every entity of a population shares
// the same AtomType.
type AtomType int

const (
	Boolean AtomType = iota
	Integer
	Double
	Character
	Bit
)

func (t AtomType) String() string {
	switch t {
	case Boolean:
		return "boolean"
	case Integer:
		return "integer"
	case Double:
		return "double"
	case Character:
		return "character"
	case Bit:
		return "bit"
	default:
		return fmt.Sprintf("AtomType(%d)", int(t))
	}
}

// Chromosome is one ordered allele sequence. Exactly one of the typed
// slices below is populated, selected by AtomType; Bit chromosomes pack
// their alleles into a BitSet instead of a slice.
type Chromosome struct {
	atomType AtomType
	length   int

	bools   []bool
	ints    []int
	doubles []float64
	chars   []rune
	bits    *BitSet
}

// New allocates a zeroed chromosome of the given atom type and length.
func New(atomType AtomType, length int) Chromosome {
	c := Chromosome{atomType: atomType, length: length}
	switch atomType {
	case Boolean:
		c.bools = make([]bool, length)
	case Integer:
		c.ints = make([]int, length)
	case Double:
		c.doubles = make([]float64, length)
	case Character:
		c.chars = make([]rune, length)
	case Bit:
		c.bits = NewBitSet(length)
	default:
		panic(fmt.Sprintf("chromosome: unknown atom type %d", int(atomType)))
	}
	return c
}

// AtomType reports this chromosome's allele kind.
func (c *Chromosome) AtomType() AtomType { return c.atomType }

// Len reports the number of alleles (loci) in this chromosome.
func (c *Chromosome) Len() int { return c.length }

// Zero resets every allele to its zero value, in place.
func (c *Chromosome) Zero() {
	switch c.atomType {
	case Boolean:
		for i := range c.bools {
			c.bools[i] = false
		}
	case Integer:
		for i := range c.ints {
			c.ints[i] = 0
		}
	case Double:
		for i := range c.doubles {
			c.doubles[i] = 0
		}
	case Character:
		for i := range c.chars {
			c.chars[i] = 0
		}
	case Bit:
		c.bits.Clear()
	}
}

// CopyFrom overwrites c's alleles with src's, byte for byte. Both
// chromosomes must share AtomType and Len.
func (c *Chromosome) CopyFrom(src *Chromosome) {
	if c.atomType != src.atomType || c.length != src.length {
		panic("chromosome: CopyFrom between incompatible chromosomes")
	}
	switch c.atomType {
	case Boolean:
		copy(c.bools, src.bools)
	case Integer:
		copy(c.ints, src.ints)
	case Double:
		copy(c.doubles, src.doubles)
	case Character:
		copy(c.chars, src.chars)
	case Bit:
		c.bits.CopyFrom(src.bits)
	}
}

// Equal reports whether two chromosomes hold bitwise-identical alleles.
// Used by the genotype-convergence statistic and by built-in Tabu
// bitwise-equality accept callbacks.
func (c *Chromosome) Equal(other *Chromosome) bool {
	if c.atomType != other.atomType || c.length != other.length {
		return false
	}
	switch c.atomType {
	case Boolean:
		for i := range c.bools {
			if c.bools[i] != other.bools[i] {
				return false
			}
		}
	case Integer:
		for i := range c.ints {
			if c.ints[i] != other.ints[i] {
				return false
			}
		}
	case Double:
		for i := range c.doubles {
			if c.doubles[i] != other.doubles[i] {
				return false
			}
		}
	case Character:
		for i := range c.chars {
			if c.chars[i] != other.chars[i] {
				return false
			}
		}
	case Bit:
		return c.bits.Equal(other.bits)
	}
	return true
}

// String renders the chromosome for logs and result files: boolean and
// bit chromosomes as a digit string ("10110"), integers and doubles
// space-separated, characters as the literal string they spell.
func (c *Chromosome) String() string {
	var b strings.Builder
	switch c.atomType {
	case Boolean:
		for _, v := range c.bools {
			b.WriteByte(digit(v))
		}
	case Integer:
		for i, v := range c.ints {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.Itoa(v))
		}
	case Double:
		for i, v := range c.doubles {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
	case Character:
		b.WriteString(string(c.chars))
	case Bit:
		for i := 0; i < c.length; i++ {
			b.WriteByte(digit(c.bits.Get(i)))
		}
	}
	return b.String()
}

func digit(v bool) byte {
	if v {
		return '1'
	}
	return '0'
}

// --- typed accessors ---

func (c *Chromosome) Bool(i int) bool       { return c.bools[i] }
func (c *Chromosome) SetBool(i int, v bool) { c.bools[i] = v }

func (c *Chromosome) Int(i int) int       { return c.ints[i] }
func (c *Chromosome) SetInt(i int, v int) { c.ints[i] = v }

func (c *Chromosome) Double(i int) float64       { return c.doubles[i] }
func (c *Chromosome) SetDouble(i int, v float64) { c.doubles[i] = v }

func (c *Chromosome) Char(i int) rune       { return c.chars[i] }
func (c *Chromosome) SetChar(i int, v rune) { c.chars[i] = v }

func (c *Chromosome) Bit(i int) bool       { return c.bits.Get(i) }
func (c *Chromosome) SetBit(i int, v bool) { c.bits.Set(i, v) }

// Ints returns the backing slice for Integer chromosomes, for bulk vector
// operations (e.g. the Differential Evolution engine). Mutating the
// returned slice mutates the chromosome.
func (c *Chromosome) Ints() []int { return c.ints }

// Doubles returns the backing slice for Double chromosomes, for bulk
// vector operations (e.g. the Differential Evolution engine, which is
// gonum/floats-friendly over exactly this slice). Mutating the returned
// slice mutates the chromosome.
func (c *Chromosome) Doubles() []float64 { return c.doubles }

// Chars returns the backing slice for Character chromosomes.
func (c *Chromosome) Chars() []rune { return c.chars }

// Bools returns the backing slice for Boolean chromosomes.
func (c *Chromosome) Bools() []bool { return c.bools }
