package rolling

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// PlanResult is the tree and its context returned by Plan/PlanParallel.
// The tree is owned entirely by the call that produced it; nothing outlives
// the PlanResult value itself.
type PlanResult struct {
	Root    *Node
	Catalog Catalog
	Config  Config

	// ID correlates this call's klog lines only; it has no bearing on
	// planning semantics and is not part of any returned recommendation.
	ID uuid.UUID
}

// Plan is the engine's single entry point: it runs iterations independent
// POMCTS samples from a root belief of [totalMin, totalMax] with massUsed
// already spent, and returns the resulting tree for ActionResults,
// TripDistribution, BestAction, and Sequence to summarize.
//
// rng is the caller-supplied random source, private to this call; if nil,
// a time-seeded one is created.
func Plan(catalog Catalog, cfg Config, totalMin, totalMax, massUsed float64, iterations int, rng *rand.Rand) (*PlanResult, error) {
	if err := validateInputs(catalog, totalMin, totalMax, massUsed); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	id := uuid.New()
	root := newNode(Belief{Min: totalMin, Max: totalMax}, massUsed, 0, nil, "", Fresh, false)

	start := time.Now()
	for i := 0; i < iterations; i++ {
		runIteration(root, catalog, cfg, rng)
	}
	logSearchRate(id, iterations, time.Since(start))

	return &PlanResult{Root: root, Catalog: catalog, Config: cfg, ID: id}, nil
}

// PlanParallel fans iterations out across workers goroutines sharing one
// tree. newRNG, if non-nil, mints one *rand.Rand per worker (so a caller can
// seed them deterministically for reproducible tests); otherwise each
// worker gets an independently seeded source.
func PlanParallel(catalog Catalog, cfg Config, totalMin, totalMax, massUsed float64, iterations, workers int, newRNG func(worker int) *rand.Rand) (*PlanResult, error) {
	if err := validateInputs(catalog, totalMin, totalMax, massUsed); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	id := uuid.New()
	root := newNode(Belief{Min: totalMin, Max: totalMax}, massUsed, 0, nil, "", Fresh, false)

	start := time.Now()
	g := new(errgroup.Group)
	base, rem := iterations/workers, iterations%workers
	for w := 0; w < workers; w++ {
		w := w
		n := base
		if w < rem {
			n++
		}
		g.Go(func() error {
			var rng *rand.Rand
			if newRNG != nil {
				rng = newRNG(w)
			} else {
				rng = rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)))
			}
			for i := 0; i < n; i++ {
				runIteration(root, catalog, cfg, rng)
			}
			return nil
		})
	}
	_ = g.Wait() // worker goroutines never return an error
	logSearchRate(id, iterations, time.Since(start))

	return &PlanResult{Root: root, Catalog: catalog, Config: cfg, ID: id}, nil
}

func logSearchRate(id uuid.UUID, iterations int, elapsed time.Duration) {
	if !klog.V(1).Enabled() {
		return
	}
	rate := float64(iterations) / math.Max(elapsed.Seconds(), 1e-9)
	klog.Infof("plan %s: %d iterations in %s (%.1f iters/s)", id, iterations, elapsed, rate)
}

func validateInputs(catalog Catalog, totalMin, totalMax, massUsed float64) error {
	if totalMin < 0 || totalMax < 0 || totalMin > totalMax {
		return errors.Wrapf(ErrInvalidBelief, "total_min=%v total_max=%v", totalMin, totalMax)
	}
	if massUsed < 0 {
		return errors.Wrapf(ErrInvalidMassUsed, "mass_used=%v", massUsed)
	}
	if catalog.Len() == 0 {
		return ErrEmptyCatalog
	}
	return nil
}

// runIteration performs one sample/select-expand/simulate/backprop pass:
// it samples a true mass from the root belief, walks down selecting or
// expanding an (action, observation) child at each step, rolls the
// remainder out greedily once it falls off the tree, and backpropagates
// the outcome along the path it took.
func runIteration(root *Node, catalog Catalog, cfg Config, rng *rand.Rand) {
	lo, hi := root.TotalBelief.Min, root.TotalBelief.Max
	trueMass := lo
	if hi > lo {
		trueMass = lo + rng.Float64()*(hi-lo)
	}

	massUsed := root.MassUsed
	node := root
	path := make([]*Node, 0, cfg.MaxDepth+1)
	path = append(path, root)

	rolledOut := false
	sampledTerminal := false

	for {
		if node.RemainingBelief().Max <= 0 {
			break
		}
		remaining := trueMass - massUsed
		if remaining <= 0 {
			sampledTerminal = true
			break
		}

		entries := node.ValidActions(catalog, cfg)
		if len(entries) == 0 {
			rolledOut = true
			break
		}

		chosen, chosenObs, newUsed, expansion := selectAction(node, entries, catalog, cfg, trueMass, massUsed, remaining)
		if chosen == nil {
			rolledOut = true
			break
		}
		// Belt-and-braces recheck: the outbound of the selected action must
		// have been survivable given the sampled world.
		if remaining <= chosen.Action.Out {
			rolledOut = true
			break
		}

		massUsed = newUsed
		child := node.GetChild(chosen.Key, chosenObs)
		if child == nil {
			newBelief, err := UpdateTotalBelief(node.TotalBelief, massUsed, chosenObs, cfg)
			if err != nil {
				// Unreachable for internally sampled observations (see
				// ErrInconsistentObservation); keep the parent's belief
				// rather than propagating a panic into a hot loop.
				newBelief = node.TotalBelief
			}
			child = newNode(newBelief, massUsed, node.Depth+1, node, chosen.Key, chosenObs, true)
			node.SetChild(chosen.Key, chosenObs, child)
		}
		path = append(path, child)
		node = child

		if trueMass-massUsed <= 0 {
			sampledTerminal = true
			break
		}
		if expansion {
			break
		}
	}

	var trips int
	var success bool
	switch {
	case sampledTerminal:
		trips, success = node.Depth, true
	case rolledOut:
		trips, success = node.Depth, false
	default:
		trips, success = simulate(node, catalog, cfg, trueMass, massUsed)
	}

	score := 0.0
	if success {
		score = math.Pow(cfg.TripDecay, float64(trips))
	}
	for _, n := range path {
		n.RecordVisit(success, score, trips)
	}
}

// selectAction scans for the first unexplored (action, observation) pair
// under the sampled world; if every applicable action has already been
// explored for its sampled observation, it falls back to UCB1 over the
// applicable actions.
func selectAction(node *Node, entries []CatalogEntry, catalog Catalog, cfg Config, trueMass, massUsed, remaining float64) (chosen *CatalogEntry, chosenObs Observation, newUsed float64, expansion bool) {
	for i := range entries {
		e := entries[i]
		if remaining <= e.Action.Out {
			continue
		}
		candidate := massUsed + e.Action.Out + e.Action.Back
		obs := Observe(trueMass, candidate, cfg)
		if !node.HasChild(e.Key, obs) {
			return &entries[i], obs, candidate, true
		}
	}

	bestUCB := math.Inf(-1)
	for i := range entries {
		e := entries[i]
		if remaining <= e.Action.Out {
			continue
		}
		u := node.UCB1(e.Key, cfg)
		if u > bestUCB {
			bestUCB = u
			chosen = &entries[i]
		}
	}
	if chosen == nil {
		return nil, 0, 0, false
	}
	newUsed = massUsed + chosen.Action.Out + chosen.Action.Back
	chosenObs = Observe(trueMass, newUsed, cfg)
	return chosen, chosenObs, newUsed, false
}

// simulate plays out a greedy high-mass rollout to terminal. It does not
// create tree nodes. The scratch belief it maintains mirrors the inference
// a real player would do but has no effect on the outcome; it is a
// placeholder for a smarter rollout policy later on.
func simulate(node *Node, catalog Catalog, cfg Config, trueMass, massUsed float64) (trips int, success bool) {
	trips = node.Depth
	remaining := trueMass - massUsed
	belief := node.TotalBelief

	entries := catalog.Entries()
	for remaining > 0 && trips < cfg.MaxDepth {
		var best *CatalogEntry
		bestMass := -1.0
		for i := range entries {
			e := entries[i]
			if remaining <= e.Action.Out {
				continue
			}
			if m := e.Action.Mass(); m > bestMass {
				bestMass = m
				best = &entries[i]
			}
		}
		if best == nil {
			return trips, false
		}

		massUsed += best.Action.Mass()
		remaining = trueMass - massUsed
		trips++

		obs := Observe(trueMass, massUsed, cfg)
		if nb, err := UpdateTotalBelief(belief, massUsed, obs, cfg); err == nil {
			belief = nb
		}
	}
	_ = belief
	return trips, remaining <= 0
}
