package rolling

import (
	"math"
	"sort"
)

// ActionResult is one ranked recommendation returned by ActionResults.
type ActionResult struct {
	Key    string
	Action Action

	Visits    int
	Wins      float64
	Successes int

	// SuccessRate and StrategyScore are both bias-corrected by
	// p_safe_outbound.
	SuccessRate   float64
	StrategyScore float64
	AvgSteps      float64

	Mass           float64
	GuaranteedSafe bool
}

// ActionResults aggregates the root's children into a ranked list, descending
// by StrategyScore and tie-broken ascending by AvgSteps.
func ActionResults(pr *PlanResult) []ActionResult {
	root := pr.Root
	r := root.RemainingBelief()

	keys := orderedKeys(root.childKeys(), pr.Catalog)
	results := make([]ActionResult, 0, len(keys))
	for _, key := range keys {
		act, ok := pr.Catalog.Get(key)
		if !ok {
			continue
		}
		stats := root.ActionStats(key)
		if stats.Visits == 0 {
			continue
		}

		observedSuccessRate := float64(stats.Successes) / float64(stats.Visits)
		observedScore := stats.Wins / float64(stats.Visits)

		var observedAvgSteps float64
		if stats.Successes > 0 {
			tripSum, _ := root.actionTripSum(key)
			observedAvgSteps = float64(tripSum) / float64(stats.Successes)
		}

		pSafe := pSafeOutbound(r, act.Out)

		results = append(results, ActionResult{
			Key:            key,
			Action:         act,
			Visits:         stats.Visits,
			Wins:           stats.Wins,
			Successes:      stats.Successes,
			SuccessRate:    pSafe * observedSuccessRate,
			StrategyScore:  pSafe * observedScore,
			AvgSteps:       correctAvgSteps(observedAvgSteps, r, act),
			Mass:           act.Mass(),
			GuaranteedSafe: r.Min > act.Out,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].StrategyScore != results[j].StrategyScore {
			return results[i].StrategyScore > results[j].StrategyScore
		}
		return results[i].AvgSteps < results[j].AvgSteps
	})
	return results
}

// pSafeOutbound is the fraction of the remaining-belief interval in which
// act's outbound is survivable. For a degenerate interval (width <= eps) it
// resolves to 1 if out <= min, else 0.
func pSafeOutbound(r Belief, out float64) float64 {
	const eps = 1e-9
	w := r.Width()
	if w <= eps {
		if out <= r.Min {
			return 1
		}
		return 0
	}
	if out <= r.Min {
		return 1
	}
	return math.Max(0, r.Max-out) / w
}

// correctAvgSteps corrects a single-trip bias in observedAvgSteps: the
// search only expands subtrees where remaining > act.out, which biases
// observedAvgSteps downward. When the full belief's single-trip probability
// disagrees enough with what the search saw, replace the estimate with one
// derived from the full belief instead.
func correctAvgSteps(observedAvgSteps float64, r Belief, act Action) float64 {
	validRange := r.Max - act.Out
	if validRange <= 0 {
		return observedAvgSteps
	}
	oneTripRange := math.Min(validRange, act.Back)
	if oneTripRange < 0 {
		oneTripRange = 0
	}
	pOneTrip := oneTripRange / validRange

	if pOneTrip < 0.95 && observedAvgSteps < 1.5 {
		return 1*pOneTrip + 2*(1-pOneTrip)
	}
	return observedAvgSteps
}

// TripProbability is one bucket of the trip-count distribution.
type TripProbability struct {
	Trips int
	Pct   float64
}

// TripDistribution derives a trip-count probability distribution from the
// root's terminal_trips histogram, normalized by root.Wins. Wins is itself
// a weighted total, since Wins = Σ_trips terminal_trips[trips] * decay^trips,
// so each bucket is reweighted by decay^trips before dividing. Buckets below
// 1% probability are dropped; the rest are sorted ascending by trips.
func TripDistribution(pr *PlanResult) []TripProbability {
	root := pr.Root
	cfg := pr.Config

	root.mu.Lock()
	wins := root.Wins
	hist := make(map[int]int, len(root.TerminalTrips))
	for trips, count := range root.TerminalTrips {
		hist[trips] = count
	}
	root.mu.Unlock()

	if wins <= 0 {
		return nil
	}
	out := make([]TripProbability, 0, len(hist))
	for trips, count := range hist {
		pct := float64(count) * math.Pow(cfg.TripDecay, float64(trips)) / wins
		if pct < 0.01 {
			continue
		}
		out = append(out, TripProbability{Trips: trips, Pct: pct})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Trips < out[j].Trips })
	return out
}

// BestActionResult is the single top recommendation returned by BestAction.
type BestActionResult struct {
	Key            string
	Action         Action
	Visits         int
	Wins           float64
	SuccessRate    float64
	GuaranteedSafe bool
}

// BestAction picks the action key with the highest aggregated visits,
// breaking ties by catalog order. Returns nil if the root has no children.
func BestAction(pr *PlanResult) *BestActionResult {
	root := pr.Root
	keys := orderedKeys(root.childKeys(), pr.Catalog)
	if len(keys) == 0 {
		return nil
	}
	r := root.RemainingBelief()

	var best *BestActionResult
	bestVisits := -1
	for _, key := range keys {
		stats := root.ActionStats(key)
		if stats.Visits <= bestVisits {
			continue
		}
		act, ok := pr.Catalog.Get(key)
		if !ok {
			continue
		}
		bestVisits = stats.Visits
		ratio := 0.0
		if stats.Visits > 0 {
			ratio = float64(stats.Successes) / float64(stats.Visits)
		}
		best = &BestActionResult{
			Key:            key,
			Action:         act,
			Visits:         stats.Visits,
			Wins:           stats.Wins,
			SuccessRate:    ratio,
			GuaranteedSafe: r.Min > act.Out,
		}
	}
	return best
}

// Sequence greedily descends to the most-visited child, picking the action
// by aggregated visits and then the observation by visits, concatenating
// action keys until no children remain. It is a diagnostic, not a
// commitment: real play re-plans with a fresh Plan call after every
// observation.
func Sequence(pr *PlanResult) []string {
	var seq []string
	node := pr.Root
	for {
		keys := orderedKeys(node.childKeys(), pr.Catalog)
		if len(keys) == 0 {
			break
		}

		bestKey := ""
		bestVisits := -1
		for _, key := range keys {
			stats := node.ActionStats(key)
			if stats.Visits > bestVisits {
				bestVisits = stats.Visits
				bestKey = key
			}
		}
		if bestKey == "" {
			break
		}

		node.mu.Lock()
		arr := node.children[bestKey]
		node.mu.Unlock()

		var next *Node
		bestChildVisits := -1
		for _, c := range arr {
			if c == nil {
				continue
			}
			c.mu.Lock()
			v := c.Visits
			c.mu.Unlock()
			if v > bestChildVisits {
				bestChildVisits = v
				next = c
			}
		}
		if next == nil {
			break
		}
		seq = append(seq, bestKey)
		node = next
	}
	return seq
}

// orderedKeys sorts keys (typically a node's expanded action keys) by their
// position in catalog order, so ranking/sequence output is deterministic.
func orderedKeys(keys []string, catalog Catalog) []string {
	order := catalog.orderIndex()
	sorted := append([]string(nil), keys...)
	sort.Slice(sorted, func(i, j int) bool { return order[sorted[i]] < order[sorted[j]] })
	return sorted
}
