package population

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tommoulard/evolve/pkg/chromosome"
	"github.com/tommoulard/evolve/pkg/entity"
	"github.com/tommoulard/evolve/pkg/rng"
)

// ErrSlotsExhausted is returned by GetFreeEntity when size has reached
// MaxSize.
var ErrSlotsExhausted = errors.New("population: no free entity slots (size == max_size)")

// ErrMissingCallback is returned at genesis or first-use when a scheme
// requires a callback that was not registered.
var ErrMissingCallback = errors.New("population: required callback is not registered")

// Population is a coherent colony of entities sharing one genome layout
// and one operator suite. See SPEC_FULL.md §3 for the full invariant set.
type Population struct {
	// RunID distinguishes this population's log lines and generation-hook
	// invocations from any other population or run active in the same
	// process (e.g. concurrent Tabu restarts, island populations).
	RunID uuid.UUID

	maxSize    int
	stableSize int
	size       int

	numChromosomes int
	lenChromosome  int
	atomType       chromosome.AtomType

	entityArray []*entity.Entity // indexed by slot
	rankIndex   []int            // slot indices, rank 0 = best, len == size
	freeSlots   []int
	idToSlot    map[entity.ID]int
	nextID      entity.ID

	// parentPool, when positive, restricts selection operators to ranks
	// [0, parentPool) so offspring appended mid-generation never become
	// parents of the same generation.
	parentPool int

	Params    Params
	Callbacks Callbacks
	RNG       *rng.Source

	deParams   any
	tabuParams any
}

// New allocates a Population with capacity maxSize, steady-state target
// stableSize, and the given genome shape. size starts at 0; call Seed or
// GetFreeEntity to populate it.
func New(maxSize, stableSize int, atomType chromosome.AtomType, numChromosomes, lenChromosome int, seed int64) (*Population, error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("population: max_size must be positive, got %d", maxSize)
	}
	if stableSize <= 0 || stableSize > maxSize {
		return nil, fmt.Errorf("population: stable_size must be in (0, max_size], got %d (max_size=%d)", stableSize, maxSize)
	}
	if numChromosomes <= 0 || lenChromosome <= 0 {
		return nil, fmt.Errorf("population: num_chromosomes and len_chromosome must be positive")
	}

	freeSlots := make([]int, maxSize)
	for i := range freeSlots {
		freeSlots[i] = maxSize - 1 - i // pop from the back => ascending slot order
	}

	return &Population{
		RunID:          uuid.New(),
		maxSize:        maxSize,
		stableSize:     stableSize,
		numChromosomes: numChromosomes,
		lenChromosome:  lenChromosome,
		atomType:       atomType,
		entityArray:    make([]*entity.Entity, maxSize),
		rankIndex:      make([]int, 0, maxSize),
		freeSlots:      freeSlots,
		idToSlot:       make(map[entity.ID]int, maxSize),
		Params:         DefaultParams(),
		Callbacks:      Callbacks{Rank: DefaultRank},
		RNG:            rng.New(seed),
	}, nil
}

// Size reports the current number of live entities.
func (p *Population) Size() int { return p.size }

// StableSize reports the steady-state target the engine refills to.
func (p *Population) StableSize() int { return p.stableSize }

// MaxSize reports the capacity ceiling.
func (p *Population) MaxSize() int { return p.maxSize }

// NumChromosomes reports the genome shape's chromosome count.
func (p *Population) NumChromosomes() int { return p.numChromosomes }

// LenChromosome reports the genome shape's per-chromosome allele count.
func (p *Population) LenChromosome() int { return p.lenChromosome }

// AtomType reports the fixed allele kind for this population's genome.
func (p *Population) AtomType() chromosome.AtomType { return p.atomType }

// SetParentPool restricts selection to ranks [0, n). The generation
// engine sets this to the pre-reproduction population size so the parent
// pool stays fixed while offspring are appended, and clears it with
// ClearParentPool once reproduction ends.
func (p *Population) SetParentPool(n int) { p.parentPool = n }

// ClearParentPool lifts the selection restriction installed by
// SetParentPool.
func (p *Population) ClearParentPool() { p.parentPool = 0 }

// ParentPool reports the number of ranks selection operators may draw
// from: the window installed by SetParentPool, or the full population
// size when no window is active.
func (p *Population) ParentPool() int {
	if p.parentPool > 0 && p.parentPool <= p.size {
		return p.parentPool
	}
	return p.size
}

// SetDEParams attaches a Differential Evolution parameter block (a
// de.Config value, opaque to this package to avoid an import cycle).
func (p *Population) SetDEParams(params any) { p.deParams = params }

// DEParams returns the attached Differential Evolution parameter block,
// or nil if none was set.
func (p *Population) DEParams() any { return p.deParams }

// SetTabuParams attaches a Tabu Search parameter block (a tabu.Config value).
func (p *Population) SetTabuParams(params any) { p.tabuParams = params }

// TabuParams returns the attached Tabu Search parameter block, or nil.
func (p *Population) TabuParams() any { return p.tabuParams }

// RequireCallback returns ErrMissingCallback wrapped with the callback's
// name when present is false. Engines call this at entry so a
// misconfiguration is a single clear error rather than a nil-pointer
// panic deep in the generation loop.
func RequireCallback(present bool, name string) error {
	if present {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrMissingCallback, name)
}
