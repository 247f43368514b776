package population

import (
	"encoding/json"
	"fmt"

	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
)

// entityWire is the serialized form of one entity: its genome and cached
// fitness, but not its ID (the importing population assigns a fresh one)
// and not its phenotype (Data is process-local by definition).
type entityWire struct {
	AtomType       chromosome.AtomType `json:"atom_type"`
	NumChromosomes int                 `json:"num_chromosomes"`
	LenChromosome  int                 `json:"len_chromosome"`
	Fitness        float64             `json:"fitness"`

	Bools   [][]bool    `json:"bools,omitempty"`
	Ints    [][]int     `json:"ints,omitempty"`
	Doubles [][]float64 `json:"doubles,omitempty"`
	Chars   [][]rune    `json:"chars,omitempty"`
	Bits    [][]bool    `json:"bits,omitempty"`
}

// ExportEntity serializes e's genome and fitness to a blob an island
// migration hook can hand to another population's ImportEntity. The
// phenotype handle is not exported.
func (p *Population) ExportEntity(e *entity.Entity) ([]byte, error) {
	w := entityWire{
		AtomType:       p.atomType,
		NumChromosomes: p.numChromosomes,
		LenChromosome:  p.lenChromosome,
		Fitness:        e.Fitness,
	}
	for i := range e.Chromosomes {
		c := &e.Chromosomes[i]
		switch p.atomType {
		case chromosome.Boolean:
			row := make([]bool, c.Len())
			copy(row, c.Bools())
			w.Bools = append(w.Bools, row)
		case chromosome.Integer:
			row := make([]int, c.Len())
			copy(row, c.Ints())
			w.Ints = append(w.Ints, row)
		case chromosome.Double:
			row := make([]float64, c.Len())
			copy(row, c.Doubles())
			w.Doubles = append(w.Doubles, row)
		case chromosome.Character:
			row := make([]rune, c.Len())
			copy(row, c.Chars())
			w.Chars = append(w.Chars, row)
		case chromosome.Bit:
			row := make([]bool, c.Len())
			for j := range row {
				row[j] = c.Bit(j)
			}
			w.Bits = append(w.Bits, row)
		}
	}
	return json.Marshal(w)
}

// ImportEntity takes a blob produced by ExportEntity, allocates a free
// slot in p, and fills it with the blob's genome and fitness. The blob's
// genome shape and atom type must match p's.
func (p *Population) ImportEntity(blob []byte) (*entity.Entity, error) {
	var w entityWire
	if err := json.Unmarshal(blob, &w); err != nil {
		return nil, fmt.Errorf("population: cannot decode entity blob: %w", err)
	}
	if w.AtomType != p.atomType || w.NumChromosomes != p.numChromosomes || w.LenChromosome != p.lenChromosome {
		return nil, fmt.Errorf("population: entity blob shape %s/%dx%d does not match population %s/%dx%d",
			w.AtomType, w.NumChromosomes, w.LenChromosome, p.atomType, p.numChromosomes, p.lenChromosome)
	}

	e, err := p.GetFreeEntity()
	if err != nil {
		return nil, err
	}
	for i := range e.Chromosomes {
		c := &e.Chromosomes[i]
		switch p.atomType {
		case chromosome.Boolean:
			for j, v := range w.Bools[i] {
				c.SetBool(j, v)
			}
		case chromosome.Integer:
			for j, v := range w.Ints[i] {
				c.SetInt(j, v)
			}
		case chromosome.Double:
			for j, v := range w.Doubles[i] {
				c.SetDouble(j, v)
			}
		case chromosome.Character:
			for j, v := range w.Chars[i] {
				c.SetChar(j, v)
			}
		case chromosome.Bit:
			for j, v := range w.Bits[i] {
				c.SetBit(j, v)
			}
		}
	}
	e.Fitness = w.Fitness
	return e, nil
}
