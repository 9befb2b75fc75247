package rolling

import (
	"math"

	"github.com/kriops/rollcalc/internal/parameters"
)

// Config holds the engine's tunable constants. All of them have sensible
// defaults; callers override a subset through NewConfigFromParams, which
// pops individual constants out of a parameters.Params.
type Config struct {
	// ShrinkThreshold is the remaining-fraction boundary between "fresh" and
	// "shrink" observations (default 0.50).
	ShrinkThreshold float64
	// CritThreshold is the remaining-fraction boundary between "shrink" and
	// "crit" observations (default 0.10).
	CritThreshold float64
	// UCBConstant is the exploration constant C in the UCB1 formula (default sqrt(2)).
	UCBConstant float64
	// MaxDepth bounds the number of round trips a rollout will simulate (default 20).
	MaxDepth int
	// TripDecay is the per-trip decay applied to a successful score, decay^trips (default 0.95).
	TripDecay float64
	// StrictActionFilter switches valid_actions from the permissive policy
	// (remaining.max > out) to a stricter trip-efficiency heuristic.
	// Defaults to false (permissive).
	StrictActionFilter bool
	// MaxReasonableTrips bounds the strict filter's efficiency threshold
	// (remaining.max / MaxReasonableTrips); only consulted when StrictActionFilter is set.
	MaxReasonableTrips int
}

// DefaultConfig returns the engine's recommended constants.
func DefaultConfig() Config {
	return Config{
		ShrinkThreshold:    0.50,
		CritThreshold:      0.10,
		UCBConstant:        math.Sqrt2,
		MaxDepth:           20,
		TripDecay:          0.95,
		StrictActionFilter: false,
		MaxReasonableTrips: 10,
	}
}

// NewConfigFromParams builds a Config from the defaults, overriding any of
// shrink_threshold, crit_threshold, ucb_constant, max_depth, trip_decay,
// strict_action_filter, and max_reasonable_trips present in params. Unlike
// the action catalog (structured data, so it travels as a first-class
// Catalog value), these are the scalar knobs parameters.Params is meant for.
func NewConfigFromParams(params parameters.Params) (Config, error) {
	cfg := DefaultConfig()
	var err error

	cfg.ShrinkThreshold, err = parameters.PopParamOr(params, "shrink_threshold", cfg.ShrinkThreshold)
	if err != nil {
		return cfg, err
	}
	cfg.CritThreshold, err = parameters.PopParamOr(params, "crit_threshold", cfg.CritThreshold)
	if err != nil {
		return cfg, err
	}
	cfg.UCBConstant, err = parameters.PopParamOr(params, "ucb_constant", cfg.UCBConstant)
	if err != nil {
		return cfg, err
	}
	cfg.MaxDepth, err = parameters.PopParamOr(params, "max_depth", cfg.MaxDepth)
	if err != nil {
		return cfg, err
	}
	cfg.TripDecay, err = parameters.PopParamOr(params, "trip_decay", cfg.TripDecay)
	if err != nil {
		return cfg, err
	}
	cfg.StrictActionFilter, err = parameters.PopParamOr(params, "strict_action_filter", cfg.StrictActionFilter)
	if err != nil {
		return cfg, err
	}
	cfg.MaxReasonableTrips, err = parameters.PopParamOr(params, "max_reasonable_trips", cfg.MaxReasonableTrips)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}
