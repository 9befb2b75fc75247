package rolling

import "github.com/pkg/errors"

// Error kinds reported to callers of Plan/PlanParallel and UpdateTotalBelief.
// None of these abort silently: Plan refuses to start and returns the error;
// UpdateTotalBelief returns the original belief alongside the error.
var (
	// ErrInvalidBelief is returned when total_min > total_max, or either bound is negative.
	ErrInvalidBelief = errors.New("invalid belief: require 0 <= total_min <= total_max")

	// ErrInvalidMassUsed is returned when mass_used is negative.
	ErrInvalidMassUsed = errors.New("invalid mass_used: must be non-negative")

	// ErrInconsistentObservation is returned when narrowing a belief by an observation
	// would produce an empty interval (min > max). This is a caller error: it is never
	// reachable from the internal search, since sampled-world observations are always
	// self-consistent with the belief they narrow.
	ErrInconsistentObservation = errors.New("observation is inconsistent with the supplied belief")

	// ErrEmptyCatalog is returned when a catalog has no action with out+back > 0.
	ErrEmptyCatalog = errors.New("catalog has no usable action (every out+back <= 0)")
)
