package rolling

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func seededRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestPlan_FreshHoleFavorsBattleship(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 1800, 2200, 0, 100_000, seededRNG(1))
	require.NoError(t, err)

	results := ActionResults(pr)
	require.NotEmpty(t, results)
	require.Greater(t, len(results[0].Key), 3)
	require.Equal(t, "BS_", results[0].Key[:3])
	require.Greater(t, results[0].SuccessRate, 0.85)

	dist := TripDistribution(pr)
	require.NotEmpty(t, dist)
	mode := dist[0]
	for _, d := range dist {
		if d.Pct > mode.Pct {
			mode = d
		}
	}
	require.GreaterOrEqual(t, mode.Trips, 3)
	require.LessOrEqual(t, mode.Trips, 7)
}

func TestPlan_BSColdHotAvgStepsInRange(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 1800, 2200, 0, 100_000, seededRNG(2))
	require.NoError(t, err)

	results := ActionResults(pr)
	var coldHot *ActionResult
	for i := range results {
		if results[i].Key == "BS_COLD_HOT" {
			coldHot = &results[i]
		}
	}
	require.NotNil(t, coldHot, "expected BS_COLD_HOT to be explored at the root")
	require.GreaterOrEqual(t, coldHot.AvgSteps, 3.0)
	require.LessOrEqual(t, coldHot.AvgSteps, 7.0)
}

func TestPlan_PartiallyUsedStillFavorsBattleship(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 1800, 2200, 1000, 100_000, seededRNG(3))
	require.NoError(t, err)

	results := ActionResults(pr)
	require.NotEmpty(t, results)
	require.Equal(t, "BS_", results[0].Key[:3])

	var bestBS *ActionResult
	for i := range results {
		if len(results[i].Key) >= 3 && results[i].Key[:3] == "BS_" {
			if bestBS == nil || results[i].StrategyScore > bestBS.StrategyScore {
				bestBS = &results[i]
			}
		}
	}
	require.NotNil(t, bestBS)
	require.GreaterOrEqual(t, bestBS.AvgSteps, 1.0)
	require.LessOrEqual(t, bestBS.AvgSteps, 5.0)
}

func TestPlan_NarrowHoleHICHotHasVisibleRisk(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 100, 200, 0, 100_000, seededRNG(5))
	require.NoError(t, err)

	results := ActionResults(pr)
	var hicHot *ActionResult
	for i := range results {
		if results[i].Key == "HIC_HOT" {
			hicHot = &results[i]
		}
	}
	require.NotNil(t, hicHot)
	require.Equal(t, 134.0, hicHot.Action.Out)
	require.Greater(t, hicHot.SuccessRate, 0.5)
	require.Less(t, hicHot.SuccessRate, 0.95)
}

func TestPlan_NarrowRangeAvgStepsBiasCorrected(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 200, 600, 0, 100_000, seededRNG(6))
	require.NoError(t, err)

	results := ActionResults(pr)
	var hicHot *ActionResult
	for i := range results {
		if results[i].Key == "HIC_HOT" {
			hicHot = &results[i]
		}
	}
	require.NotNil(t, hicHot)
	require.Greater(t, hicHot.AvgSteps, 1.3)
	require.Less(t, hicHot.AvgSteps, 3.0)
}

// TestPlan_Invariants checks structural invariants that must hold of any
// tree Plan produces: successes never exceed visits, wins never exceed
// successes, terminal-trip counts never exceed successes, child visit
// counts never exceed their parent's, a guaranteed-safe action's reported
// success rate equals its observed success rate, and the ranking is a
// total, stably tie-broken order.
func TestPlan_Invariants(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 1800, 2200, 0, 5_000, seededRNG(42))
	require.NoError(t, err)

	root := pr.Root
	var walk func(n *Node)
	walk = func(n *Node) {
		n.mu.Lock()
		require.LessOrEqual(t, n.Successes, n.Visits)
		require.GreaterOrEqual(t, n.Wins, 0.0)
		require.LessOrEqual(t, n.Wins, float64(n.Successes))
		tripSum := 0
		for _, count := range n.TerminalTrips {
			tripSum += count
		}
		require.LessOrEqual(t, tripSum, n.Successes)
		children := n.children
		visits := n.Visits
		n.mu.Unlock()

		for key := range children {
			require.LessOrEqual(t, n.ActionStats(key).Visits, visits)
		}

		for _, arr := range children {
			for _, c := range arr {
				if c != nil {
					walk(c)
				}
			}
		}
	}
	walk(root)

	for _, key := range root.childKeys() {
		stats := root.ActionStats(key)
		require.LessOrEqual(t, stats.Visits, root.Visits)
	}

	// A guaranteed-safe action has p_safe_outbound == 1, so its reported
	// success rate must equal the raw observed success rate.
	results := ActionResults(pr)
	for _, res := range results {
		if res.GuaranteedSafe {
			observedSuccessRate := float64(res.Successes) / float64(res.Visits)
			require.InDelta(t, observedSuccessRate, res.SuccessRate, 1e-9)
		}
	}

	// The ranking is total and stable under the tie-break.
	for i := 1; i < len(results); i++ {
		prev, cur := results[i-1], results[i]
		require.True(t,
			prev.StrategyScore > cur.StrategyScore ||
				(prev.StrategyScore == cur.StrategyScore && prev.AvgSteps <= cur.AvgSteps),
		)
	}
}

func TestPlan_InvalidInputs(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	_, err := Plan(catalog, cfg, 2200, 1800, 0, 10, seededRNG(1))
	require.ErrorIs(t, err, ErrInvalidBelief)

	_, err = Plan(catalog, cfg, 1800, 2200, -1, 10, seededRNG(1))
	require.ErrorIs(t, err, ErrInvalidMassUsed)

	emptyCatalog := Catalog{}
	_, err = Plan(emptyCatalog, cfg, 1800, 2200, 0, 10, seededRNG(1))
	require.ErrorIs(t, err, ErrEmptyCatalog)
}

func TestPlan_ZeroIterationsReturnsEmptyRoot(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := Plan(catalog, cfg, 1800, 2200, 0, 0, seededRNG(1))
	require.NoError(t, err)
	require.Empty(t, ActionResults(pr))
	require.Nil(t, BestAction(pr))
	require.Empty(t, Sequence(pr))
	require.Nil(t, TripDistribution(pr))
}

func TestPlanParallel_MatchesSingleThreadedShape(t *testing.T) {
	catalog := DefaultCatalog()
	cfg := DefaultConfig()

	pr, err := PlanParallel(catalog, cfg, 1800, 2200, 0, 20_000, 4, func(worker int) *rand.Rand {
		return seededRNG(int64(100 + worker))
	})
	require.NoError(t, err)
	require.Equal(t, 20_000, pr.Root.Visits)

	results := ActionResults(pr)
	require.NotEmpty(t, results)
	best := BestAction(pr)
	require.NotNil(t, best)
	require.NotEmpty(t, Sequence(pr))
}
