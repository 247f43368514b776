package population

import "fmt"

// Scheme selects the top-level evolutionary policy applied by the
// generation engine.
type Scheme int

const (
	Darwin Scheme = iota
	BaldwinAll
	BaldwinChildren
	LamarckAll
	LamarckChildren
)

func (s Scheme) String() string {
	switch s {
	case Darwin:
		return "darwin"
	case BaldwinAll:
		return "baldwin_all"
	case BaldwinChildren:
		return "baldwin_children"
	case LamarckAll:
		return "lamarck_all"
	case LamarckChildren:
		return "lamarck_children"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// Elitism selects which parents persist into the next generation.
type Elitism int

const (
	ParentsSurvive Elitism = iota
	ParentsDie
	Rough
	RoughComp
	Exact
	ExactComp
	OneParentSurvives
)

func (e Elitism) String() string {
	switch e {
	case ParentsSurvive:
		return "parents_survive"
	case ParentsDie:
		return "parents_die"
	case Rough:
		return "rough"
	case RoughComp:
		return "rough_comp"
	case Exact:
		return "exact"
	case ExactComp:
		return "exact_comp"
	case OneParentSurvives:
		return "one_parent_survives"
	default:
		return fmt.Sprintf("Elitism(%d)", int(e))
	}
}

// BoundsPolicy resolves the clamp-vs-wrap Open Question a bounded operator
// faces when a mutation or crossover would push an allele outside
// [AlleleMin, AlleleMax].
type BoundsPolicy int

const (
	Clamp BoundsPolicy = iota
	Wrap
)

// RoughAlpha and RoughBeta are the constants the Rough/RoughComp elitism
// modes use to compute how many old-generation entities survive verbatim:
// keep(size) = ceil(RoughAlpha*stableSize + RoughBeta). The defaults keep
// a thin elite, 10% of the steady-state size and never zero.
const (
	RoughAlpha = 0.1
	RoughBeta  = 1.0
)

// Params holds the tunable knobs of a Population: the scheme/elitism
// policy, the operator ratios, and optional allele bounds. Per-engine
// parameter blocks (Differential Evolution, Tabu Search) are attached
// separately via SetDEParams and SetTabuParams since their concrete types live in the
// de and tabu packages, which import population rather than the reverse.
type Params struct {
	Scheme         Scheme
	Elitism        Elitism
	CrossoverRatio float64
	MutationRatio  float64
	MigrationRatio float64

	BoundsPolicy BoundsPolicy

	AlleleMinInteger, AlleleMaxInteger int
	HasIntegerBounds                  bool

	AlleleMinDouble, AlleleMaxDouble float64
	HasDoubleBounds                 bool
}

// SetAlleleBoundsInteger declares the inclusive integer allele range
// the bounded seed/mutation/crossover variants honor.
func (p *Population) SetAlleleBoundsInteger(min, max int) error {
	if min > max {
		return fmt.Errorf("population: integer allele bounds inverted: min %d > max %d", min, max)
	}
	p.Params.HasIntegerBounds = true
	p.Params.AlleleMinInteger = min
	p.Params.AlleleMaxInteger = max
	return nil
}

// SetAlleleBoundsDouble declares the double allele range the bounded
// operator variants honor.
func (p *Population) SetAlleleBoundsDouble(min, max float64) error {
	if min > max {
		return fmt.Errorf("population: double allele bounds inverted: min %v > max %v", min, max)
	}
	p.Params.HasDoubleBounds = true
	p.Params.AlleleMinDouble = min
	p.Params.AlleleMaxDouble = max
	return nil
}

// DefaultParams returns a Darwin/PARENTS_SURVIVE configuration with no
// allele bounds and zero crossover/mutation/migration ratios; callers
// almost always override the ratios.
func DefaultParams() Params {
	return Params{
		Scheme:  Darwin,
		Elitism: ParentsSurvive,
	}
}

// Validate reports a configuration error if any ratio is out of [0,1] or
// the allele bounds are inverted.
func (p Params) Validate() error {
	for name, v := range map[string]float64{
		"crossover ratio": p.CrossoverRatio,
		"mutation ratio":  p.MutationRatio,
		"migration ratio": p.MigrationRatio,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("population: %s must be in [0,1], got %v", name, v)
		}
	}
	if p.HasIntegerBounds && p.AlleleMinInteger > p.AlleleMaxInteger {
		return fmt.Errorf("population: integer allele bounds inverted: min %d > max %d", p.AlleleMinInteger, p.AlleleMaxInteger)
	}
	if p.HasDoubleBounds && p.AlleleMinDouble > p.AlleleMaxDouble {
		return fmt.Errorf("population: double allele bounds inverted: min %v > max %v", p.AlleleMinDouble, p.AlleleMaxDouble)
	}
	return nil
}
