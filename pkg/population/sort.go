package population

import (
	"fmt"
	"sort"
)

// SortPopulation reorders the rank index so rank 0 is the best entity
// according to Callbacks.Rank, with ties broken by ascending entity ID for
// a deterministic, stable ordering run to run. Unevaluated entities (those
// still at entity.MinFitness) sort last regardless of Rank's tie-break
// semantics, since MinFitness is already the floor any real Rank
// implementation will respect.
func (p *Population) SortPopulation() {
	rank := p.Callbacks.Rank
	if rank == nil {
		rank = DefaultRank
	}
	sort.SliceStable(p.rankIndex, func(i, j int) bool {
		a := p.entityArray[p.rankIndex[i]]
		b := p.entityArray[p.rankIndex[j]]
		cmp := rank(p, b.Fitness, p, a.Fitness) // descending: best first
		if cmp != 0 {
			return cmp < 0
		}
		return a.ID < b.ID
	})
}

// Audit verifies the population's internal bookkeeping invariants: every
// live slot appears exactly once in rankIndex, idToSlot agrees with
// entityArray, size matches len(rankIndex), and size never exceeds
// maxSize. It is meant for tests and debug builds, not the hot path.
func (p *Population) Audit() error {
	if p.size != len(p.rankIndex) {
		return auditErrorf("size %d does not match rankIndex length %d", p.size, len(p.rankIndex))
	}
	if p.size > p.maxSize {
		return auditErrorf("size %d exceeds max_size %d", p.size, p.maxSize)
	}
	if p.size+len(p.freeSlots) != p.maxSize {
		return auditErrorf("size %d + free slots %d != max_size %d", p.size, len(p.freeSlots), p.maxSize)
	}

	seen := make(map[int]bool, len(p.rankIndex))
	for _, slot := range p.rankIndex {
		if seen[slot] {
			return auditErrorf("slot %d appears more than once in rankIndex", slot)
		}
		seen[slot] = true

		e := p.entityArray[slot]
		if e == nil || !e.Allocated {
			return auditErrorf("slot %d is in rankIndex but not allocated", slot)
		}
		if gotSlot, ok := p.idToSlot[e.ID]; !ok || gotSlot != slot {
			return auditErrorf("idToSlot[%d] = %d, want %d", e.ID, gotSlot, slot)
		}
	}
	if len(p.idToSlot) != p.size {
		return auditErrorf("idToSlot has %d entries, want %d", len(p.idToSlot), p.size)
	}
	return nil
}

func auditErrorf(format string, args ...any) error {
	return fmt.Errorf("population: audit failed: "+format, args...)
}
