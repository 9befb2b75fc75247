package rolling

import (
	"math"
	"sync"
)

// ActionStats aggregates a node's statistics for one action key, summed
// across its four (action, observation) children.
type ActionStats struct {
	Visits    int
	Wins      float64
	Successes int
}

// Node is one vertex of the search tree. Ownership flows strictly from
// root to children; Parent is a weak back-reference kept only for
// diagnostics and path reconstruction. It is never used to free or
// walk-and-mutate ancestors.
//
// A Node's mutable fields (Visits, Wins, Successes, TerminalTrips, and the
// child index) are guarded by mu so that PlanParallel can run iterations
// from multiple goroutines concurrently.
type Node struct {
	mu sync.Mutex

	TotalBelief Belief
	MassUsed    float64
	Depth       int

	// HasIncoming is false only at the root.
	HasIncoming         bool
	IncomingActionKey   string
	IncomingObservation Observation

	Parent *Node

	// children indexes action_key -> [4]*Node, one slot per Observation.
	children map[string][4]*Node

	Visits        int
	Wins          float64
	Successes     int
	TerminalTrips map[int]int
}

func newNode(belief Belief, massUsed float64, depth int, parent *Node, incomingKey string, incomingObs Observation, hasIncoming bool) *Node {
	return &Node{
		TotalBelief:         belief,
		MassUsed:            massUsed,
		Depth:               depth,
		Parent:              parent,
		HasIncoming:         hasIncoming,
		IncomingActionKey:   incomingKey,
		IncomingObservation: incomingObs,
		children:            make(map[string][4]*Node),
		TerminalTrips:       make(map[int]int),
	}
}

// RemainingBelief returns [max(0, total.min-used), max(0, total.max-used)].
func (n *Node) RemainingBelief() Belief {
	return n.TotalBelief.Remaining(n.MassUsed)
}

// IsTerminal reports whether the belief itself guarantees the hole is gone:
// remaining_belief().max <= 0.
func (n *Node) IsTerminal() bool {
	return n.RemainingBelief().Max <= 0
}

// ValidActions returns the catalog entries applicable from this node's
// remaining belief, in catalog order. The permissive policy (the default,
// and the one the test suite expects) keeps any action whose outbound is
// survivable in at least one possible world: remaining.max > out.
// StrictActionFilter additionally requires trip-efficiency unless doing so
// would leave no action that is also guaranteed safe.
func (n *Node) ValidActions(catalog Catalog, cfg Config) []CatalogEntry {
	r := n.RemainingBelief()
	entries := make([]CatalogEntry, 0, catalog.Len())
	for _, e := range catalog.Entries() {
		if r.Max > e.Action.Out {
			entries = append(entries, e)
		}
	}
	if cfg.StrictActionFilter {
		entries = filterStrict(entries, r, cfg)
	}
	return entries
}

// filterStrict implements a stricter valid_actions policy: keep only
// actions efficient enough to plausibly close the hole within
// MaxReasonableTrips, unless none of the efficient actions is also
// guaranteed safe, in which case fall back to the permissive set so a
// guaranteed-safe-but-slow action is never pruned away entirely.
func filterStrict(entries []CatalogEntry, r Belief, cfg Config) []CatalogEntry {
	if cfg.MaxReasonableTrips <= 0 {
		return entries
	}
	threshold := r.Max / float64(cfg.MaxReasonableTrips)
	efficient := make([]CatalogEntry, 0, len(entries))
	haveSafeEfficient := false
	for _, e := range entries {
		if e.Action.Mass() >= threshold {
			efficient = append(efficient, e)
			if r.Min > e.Action.Out {
				haveSafeEfficient = true
			}
		}
	}
	if !haveSafeEfficient {
		return entries
	}
	return efficient
}

// HasChild reports whether a child exists for (actionKey, obs).
func (n *Node) HasChild(actionKey string, obs Observation) bool {
	return n.GetChild(actionKey, obs) != nil
}

// GetChild returns the existing child for (actionKey, obs), or nil.
func (n *Node) GetChild(actionKey string, obs Observation) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	arr, ok := n.children[actionKey]
	if !ok {
		return nil
	}
	return arr[obs]
}

// SetChild installs a child for (actionKey, obs). Insertion is only
// permitted during expansion; children are never reassigned afterward.
func (n *Node) SetChild(actionKey string, obs Observation, child *Node) {
	n.mu.Lock()
	defer n.mu.Unlock()
	arr := n.children[actionKey]
	arr[obs] = child
	n.children[actionKey] = arr
}

// childKeys returns the action keys with at least one expanded child.
func (n *Node) childKeys() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	return keys
}

// ActionStats sums visits/wins/successes across all observation children
// expanded under actionKey; zero value if none exist.
func (n *Node) ActionStats(actionKey string) ActionStats {
	n.mu.Lock()
	arr, ok := n.children[actionKey]
	n.mu.Unlock()
	var stats ActionStats
	if !ok {
		return stats
	}
	for _, c := range arr {
		if c == nil {
			continue
		}
		c.mu.Lock()
		stats.Visits += c.Visits
		stats.Wins += c.Wins
		stats.Successes += c.Successes
		c.mu.Unlock()
	}
	return stats
}

// actionTripSum aggregates the terminal_trips histograms of actionKey's
// observation children into a trip-weighted total and a raw count,
// used to compute observed_avg_steps during result extraction.
func (n *Node) actionTripSum(actionKey string) (tripSum, count int) {
	n.mu.Lock()
	arr, ok := n.children[actionKey]
	n.mu.Unlock()
	if !ok {
		return 0, 0
	}
	for _, c := range arr {
		if c == nil {
			continue
		}
		c.mu.Lock()
		for trips, cnt := range c.TerminalTrips {
			tripSum += trips * cnt
			count += cnt
		}
		c.mu.Unlock()
	}
	return tripSum, count
}

// UCB1 returns the UCB1 score for actionKey, aggregated across its
// observation children. Unexplored actions (zero aggregated visits) return
// +Inf so they are always selected first.
func (n *Node) UCB1(actionKey string, cfg Config) float64 {
	n.mu.Lock()
	parentVisits := n.Visits
	n.mu.Unlock()

	stats := n.ActionStats(actionKey)
	if stats.Visits == 0 {
		return math.Inf(1)
	}
	q := stats.Wins / float64(stats.Visits)
	return q + cfg.UCBConstant*math.Sqrt(math.Log(float64(parentVisits))/float64(stats.Visits))
}

// RecordVisit applies one iteration's outcome to this node: visits always
// increments; wins/successes/terminalTrips only on success.
func (n *Node) RecordVisit(success bool, score float64, trips int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Visits++
	if success {
		n.Wins += score
		n.Successes++
		n.TerminalTrips[trips]++
	}
}

// PathFromRoot reconstructs the root-to-n path by walking Parent back-
// references. Diagnostic only; it plays no role in planning itself.
func (n *Node) PathFromRoot() []*Node {
	var path []*Node
	for cur := n; cur != nil; cur = cur.Parent {
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
