package rolling

import (
	"fmt"
	"math"
)

// Observation is the discrete visual state a player reports after a round trip.
type Observation int

const (
	Fresh Observation = iota
	Shrink
	Crit
	Collapsed
)

func (o Observation) String() string {
	switch o {
	case Fresh:
		return "fresh"
	case Shrink:
		return "shrink"
	case Crit:
		return "crit"
	case Collapsed:
		return "collapsed"
	default:
		return fmt.Sprintf("Observation(%d)", int(o))
	}
}

// Observe computes the observation a player would report given the true total
// mass and the cumulative mass used so far.
func Observe(trueMass, massUsed float64, cfg Config) Observation {
	remaining := trueMass - massUsed
	if remaining <= 0 {
		return Collapsed
	}
	fraction := remaining / trueMass
	if fraction <= cfg.CritThreshold {
		return Crit
	}
	if fraction <= cfg.ShrinkThreshold {
		return Shrink
	}
	return Fresh
}

// UpdateTotalBelief narrows a total-mass belief under the constraint that obs
// would be reported at massUsed. The "+1" offsets are an intentional
// strict-inequality discretization: they keep the narrowed bound from
// landing exactly on the threshold that would have produced a different
// observation.
//
// Returns ErrInconsistentObservation if the narrowed interval would be empty;
// the internal search never hits this path (see ErrInconsistentObservation's
// doc comment), but an externally driven belief update (a caller replaying a
// recorded jump log) can.
func UpdateTotalBelief(b Belief, massUsed float64, obs Observation, cfg Config) (Belief, error) {
	const strictOffset = 1.0

	shrinkDenom := 1 - cfg.ShrinkThreshold
	critDenom := 1 - cfg.CritThreshold

	next := b
	switch obs {
	case Fresh:
		next.Min = math.Max(b.Min, massUsed/shrinkDenom+strictOffset)
	case Shrink:
		next.Min = math.Max(b.Min, massUsed/critDenom+strictOffset)
		next.Max = math.Min(b.Max, massUsed/shrinkDenom)
	case Crit:
		next.Max = math.Min(b.Max, massUsed/critDenom)
	case Collapsed:
		// No additional constraint: any total <= massUsed is consistent.
	}

	if !next.Valid() {
		return b, ErrInconsistentObservation
	}
	return next, nil
}
