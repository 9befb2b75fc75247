package rolling

import (
	"testing"

	"github.com/kriops/rollcalc/internal/parameters"
	"github.com/stretchr/testify/require"
)

func TestNewConfigFromParams_Overrides(t *testing.T) {
	params := parameters.NewFromConfigString("shrink_threshold=0.4,crit_threshold=0.05,max_depth=30")

	cfg, err := NewConfigFromParams(params)
	require.NoError(t, err)
	require.Equal(t, 0.4, cfg.ShrinkThreshold)
	require.Equal(t, 0.05, cfg.CritThreshold)
	require.Equal(t, 30, cfg.MaxDepth)

	// Unspecified constants keep their defaults.
	def := DefaultConfig()
	require.Equal(t, def.UCBConstant, cfg.UCBConstant)
	require.Equal(t, def.TripDecay, cfg.TripDecay)

	// Consumed keys are popped out of params.
	require.NotContains(t, params, "shrink_threshold")
}

func TestNewConfigFromParams_Defaults(t *testing.T) {
	cfg, err := NewConfigFromParams(parameters.Params{})
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}
