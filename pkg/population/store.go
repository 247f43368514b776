package population

import (
	"fmt"

	"github.com/tommoulard/evolve/pkg/entity"
)

// GetFreeEntity returns a slot with Allocated=false, marks it allocated,
// assigns it a fresh ID, zeroes its chromosomes, and appends it to the
// rank index (at the lowest-priority position; a subsequent sort will
// place it correctly). Fails with ErrSlotsExhausted if size == max_size.
func (p *Population) GetFreeEntity() (*entity.Entity, error) {
	if len(p.freeSlots) == 0 {
		return nil, ErrSlotsExhausted
	}

	slot := p.freeSlots[len(p.freeSlots)-1]
	p.freeSlots = p.freeSlots[:len(p.freeSlots)-1]

	id := p.nextID
	p.nextID++

	e := p.entityArray[slot]
	if e == nil {
		e = entity.New(id, p.atomType, p.numChromosomes, p.lenChromosome)
		p.entityArray[slot] = e
	} else {
		e.ID = id
		e.Allocated = true
		for i := range e.Chromosomes {
			e.Chromosomes[i].Zero()
		}
		e.Fitness = entity.MinFitness
		e.Data = nil
	}

	p.idToSlot[id] = slot
	p.rankIndex = append(p.rankIndex, slot)
	p.size++

	return e, nil
}

// entityDereferenceSlot releases a slot: invokes the registered data
// destructor if the entity holds a phenotype, marks the slot free, and
// removes the slot from idToSlot. It does not touch rankIndex; callers
// must also remove the slot's rank entry.
func (p *Population) entityDereferenceSlot(slot int) {
	e := p.entityArray[slot]
	if e.Data != nil && p.Callbacks.DataDestructor != nil {
		p.Callbacks.DataDestructor(e.Data)
	}
	e.Allocated = false
	e.Data = nil
	delete(p.idToSlot, e.ID)
	p.freeSlots = append(p.freeSlots, slot)
}

// EntityDereference removes e from the population: invokes the data
// destructor if applicable, marks the slot free, and swap-removes it from
// the rank index.
func (p *Population) EntityDereference(e *entity.Entity) error {
	rank, ok := p.rankOfID(e.ID)
	if !ok {
		return fmt.Errorf("population: entity id %d is not live in this population", e.ID)
	}
	return p.EntityDereferenceRank(rank)
}

// EntityDereferenceRank removes the entity currently at rank k.
func (p *Population) EntityDereferenceRank(k int) error {
	if k < 0 || k >= p.size {
		return fmt.Errorf("population: rank %d out of range [0,%d)", k, p.size)
	}
	slot := p.rankIndex[k]
	p.entityDereferenceSlot(slot)

	// swap-remove from rankIndex
	last := p.size - 1
	p.rankIndex[k] = p.rankIndex[last]
	p.rankIndex = p.rankIndex[:last]
	p.size--
	return nil
}

func (p *Population) rankOfID(id entity.ID) (int, bool) {
	slot, ok := p.idToSlot[id]
	if !ok {
		return 0, false
	}
	for rank, s := range p.rankIndex {
		if s == slot {
			return rank, true
		}
	}
	return 0, false
}

// EntityRank is the inverse of GetEntityFromRank: it reports the current
// rank of the live entity with the given ID, or false if no such entity
// is live.
func (p *Population) EntityRank(id entity.ID) (int, bool) {
	return p.rankOfID(id)
}

// GetEntityRank returns e's current position in the rank index.
func (p *Population) GetEntityRank(e *entity.Entity) (int, error) {
	rank, ok := p.rankOfID(e.ID)
	if !ok {
		return 0, fmt.Errorf("population: entity id %d is not live in this population", e.ID)
	}
	return rank, nil
}

// GetEntityFromRank returns the entity at rank k (0 = best, after a sort).
func (p *Population) GetEntityFromRank(k int) (*entity.Entity, error) {
	if k < 0 || k >= p.size {
		return nil, fmt.Errorf("population: rank %d out of range [0,%d)", k, p.size)
	}
	return p.entityArray[p.rankIndex[k]], nil
}

// GetEntityFromID returns the live entity with the given ID.
func (p *Population) GetEntityFromID(id entity.ID) (*entity.Entity, error) {
	slot, ok := p.idToSlot[id]
	if !ok {
		return nil, fmt.Errorf("population: no live entity with id %d", id)
	}
	return p.entityArray[slot], nil
}

// EntityClone allocates a new slot and replicates src's chromosomes byte
// for byte. If a DataRefIncr callback is registered, the clone shares
// src's phenotype handle under an incremented reference count; otherwise
// the clone's Data is left nil.
func (p *Population) EntityClone(src *entity.Entity) (*entity.Entity, error) {
	dst, err := p.GetFreeEntity()
	if err != nil {
		return nil, err
	}
	dst.CopyFrom(src, p.Callbacks.DataRefIncr)
	return dst, nil
}

// EntityCopy overwrites dest's chromosomes and fitness from src
// identically to EntityClone, without allocating a new slot. dest must
// already be allocated.
func (p *Population) EntityCopy(dest, src *entity.Entity) error {
	if !dest.Allocated {
		return fmt.Errorf("population: EntityCopy destination slot is not allocated")
	}
	if dest.Data != nil && p.Callbacks.DataDestructor != nil {
		p.Callbacks.DataDestructor(dest.Data)
	}
	dest.CopyFrom(src, p.Callbacks.DataRefIncr)
	return nil
}

// EntityBlank zeroes e's chromosomes and releases its phenotype, leaving
// the slot allocated but genome-less.
func (p *Population) EntityBlank(e *entity.Entity) {
	e.Blank(p.Callbacks.DataDestructor)
}

// Seed populates the population up to StableSize by taking a free slot
// and invoking the registered Seed callback on each, per §4.1.
func (p *Population) Seed() error {
	if p.Callbacks.Seed == nil {
		return fmt.Errorf("%w: seed", ErrMissingCallback)
	}
	for p.size < p.stableSize {
		e, err := p.GetFreeEntity()
		if err != nil {
			return err
		}
		if !p.Callbacks.Seed(p, e) {
			return fmt.Errorf("population: seed callback rejected entity id %d", e.ID)
		}
	}
	return nil
}

// Extinction destroys the population: invokes the data destructor on
// every live entity's phenotype (in reverse rank order, last rank first),
// then releases all slots.
func (p *Population) Extinction() {
	for p.size > 0 {
		_ = p.EntityDereferenceRank(p.size - 1)
	}
}
