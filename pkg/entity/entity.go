// Package entity defines a single candidate solution: its chromosomes, its
// cached fitness, and an optional reference-counted phenotype handle.
package entity

import (
	"errors"

	"github.com/tommoulard/evolve/pkg/chromosome"
)

// MinFitness marks "not yet evaluated". It is finite but very negative so
// it sorts last under any real fitness function. An evaluate callback must
// never return exactly this value for a valid result (nudge by epsilon if
// a legitimate score collides with it); doing so is a caller bug, not an
// engine condition, per the open question in SPEC_FULL.md.
const MinFitness = -1e18

// ID is a stable, non-negative integer identifying an entity's storage
// slot for the lifetime of the entity occupying it. Reused slots receive a
// fresh ID.
type ID int64

// ErrReservedFitnessValue is returned by engines when an evaluate callback
// returns exactly MinFitness for what it claims is a valid result.
var ErrReservedFitnessValue = errors.New("entity: evaluate returned the reserved MinFitness sentinel")

// Data is a reference-counted, user-owned phenotype handle. Entities only
// ever hold a Data through the Ref/Deref pair; the population never
// inspects its contents.
type Data struct {
	Value any
}

// RefIncrementor increments a Data's reference count. Supplied by the
// application when its phenotype needs explicit lifetime management
// (e.g. a cached neural network weight matrix shared by a clone lineage).
type RefIncrementor func(d *Data)

// Destructor decrements a Data's reference count and frees the phenotype
// when it reaches zero.
type Destructor func(d *Data)

// Entity is a single candidate solution: its genome (one or more
// chromosomes sharing a population's atom type), its cached fitness, its
// optional phenotype, and bookkeeping the population store needs.
type Entity struct {
	ID          ID
	Allocated   bool
	Fitness     float64
	Chromosomes []chromosome.Chromosome
	Data        *Data
}

// New allocates an entity with numChromosomes chromosomes of the given
// atom type and length, each zeroed, with fitness set to MinFitness
// ("unevaluated").
func New(id ID, atomType chromosome.AtomType, numChromosomes, lenChromosome int) *Entity {
	chroms := make([]chromosome.Chromosome, numChromosomes)
	for i := range chroms {
		chroms[i] = chromosome.New(atomType, lenChromosome)
	}
	return &Entity{
		ID:          id,
		Allocated:   true,
		Fitness:     MinFitness,
		Chromosomes: chroms,
	}
}

// Evaluated reports whether this entity has a cached fitness value, i.e.
// its fitness is not the MinFitness sentinel.
func (e *Entity) Evaluated() bool {
	return e.Fitness != MinFitness
}

// Blank zeroes every chromosome and releases the phenotype handle via
// destructor (if both are non-nil), leaving the slot allocated but
// genome-less. Used when a slot is about to be reseeded.
func (e *Entity) Blank(destructor Destructor) {
	for i := range e.Chromosomes {
		e.Chromosomes[i].Zero()
	}
	e.Fitness = MinFitness
	if e.Data != nil && destructor != nil {
		destructor(e.Data)
	}
	e.Data = nil
}

// CopyFrom overwrites e's chromosomes and fitness from src, byte for byte,
// and takes a fresh reference to src's phenotype (via incrementor) rather
// than aliasing it directly when an incrementor is supplied; otherwise e's
// Data is left nil, matching the "else leave data null" contract of
// §4.1's entity_clone for the no-refcounting case.
func (e *Entity) CopyFrom(src *Entity, incrementor RefIncrementor) {
	if len(e.Chromosomes) != len(src.Chromosomes) {
		panic("entity: CopyFrom between entities of different chromosome counts")
	}
	for i := range e.Chromosomes {
		e.Chromosomes[i].CopyFrom(&src.Chromosomes[i])
	}
	e.Fitness = src.Fitness
	if src.Data != nil && incrementor != nil {
		incrementor(src.Data)
		e.Data = src.Data
	} else {
		e.Data = nil
	}
}
