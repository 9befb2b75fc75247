package rolling

import "math"

// Belief is a closed interval [Min, Max], in millions of mass, bounding the
// hole's total mass (or, when derived, the mass remaining before collapse).
type Belief struct {
	Min float64
	Max float64
}

// Width returns Max - Min. A width <= 0 is the degenerate single-point case.
func (b Belief) Width() float64 {
	return b.Max - b.Min
}

// Valid reports whether Min <= Max, the one invariant every Belief must hold.
func (b Belief) Valid() bool {
	return b.Min <= b.Max
}

// Remaining derives the remaining-mass belief given cumulative mass_used:
// [max(0, Min-used), max(0, Max-used)].
func (b Belief) Remaining(massUsed float64) Belief {
	return Belief{
		Min: math.Max(0, b.Min-massUsed),
		Max: math.Max(0, b.Max-massUsed),
	}
}
