package rolling

// Action is a round-trip jump descriptor: Out is the outbound jump mass cost,
// Back is the return jump mass cost, both in millions of mass.
type Action struct {
	Out   float64
	Back  float64
	Label string
	IsHIC bool
}

// Mass is the total round-trip cost, Out+Back.
func (a Action) Mass() float64 {
	return a.Out + a.Back
}

// CatalogEntry pairs an action key with its Action, preserving catalog order
// (scan order matters during selection/expansion and rollout).
type CatalogEntry struct {
	Key    string
	Action Action
}

// Catalog is a finite, ordered mapping from action key to Action.
type Catalog struct {
	entries []CatalogEntry
	byKey   map[string]int
}

// NewCatalog builds a Catalog from entries, preserving their order. Returns
// ErrEmptyCatalog if no entry has out+back > 0.
func NewCatalog(entries ...CatalogEntry) (Catalog, error) {
	c := Catalog{
		entries: append([]CatalogEntry(nil), entries...),
		byKey:   make(map[string]int, len(entries)),
	}
	usable := false
	for i, e := range c.entries {
		c.byKey[e.Key] = i
		if e.Action.Mass() > 0 {
			usable = true
		}
	}
	if !usable {
		return Catalog{}, ErrEmptyCatalog
	}
	return c, nil
}

// Entries returns the catalog in its original, stable order.
func (c Catalog) Entries() []CatalogEntry {
	return c.entries
}

// Get looks up an action by key.
func (c Catalog) Get(key string) (Action, bool) {
	idx, ok := c.byKey[key]
	if !ok {
		return Action{}, false
	}
	return c.entries[idx].Action, true
}

// Len is the number of catalog entries.
func (c Catalog) Len() int {
	return len(c.entries)
}

// orderIndex returns each key's position in catalog order, used to make
// result/sequence extraction deterministic when breaking ties.
func (c Catalog) orderIndex() map[string]int {
	return c.byKey
}

// DefaultCatalog is a concrete EVE Online round-trip catalog: battleship
// round trips at various ballast configurations ("cold"/"hot"), a heavy
// interdiction cruiser, and a T3 cruiser, covering the BS_/HIC_/T3C_ key
// families a typical wormhole rolling session uses.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		CatalogEntry{Key: "BS_COLD_HOT", Action: Action{Out: 200, Back: 250, Label: "Battleship, cold in / hot back"}},
		CatalogEntry{Key: "BS_HOT_COLD", Action: Action{Out: 250, Back: 200, Label: "Battleship, hot in / cold back"}},
		CatalogEntry{Key: "BS_COLD_COLD", Action: Action{Out: 200, Back: 200, Label: "Battleship, cold both ways"}},
		CatalogEntry{Key: "BS_HOT_HOT", Action: Action{Out: 300, Back: 300, Label: "Battleship, hot both ways"}},
		CatalogEntry{Key: "HIC_HOT", Action: Action{Out: 134, Back: 134, Label: "Heavy interdiction cruiser, hot", IsHIC: true}},
		CatalogEntry{Key: "HIC_COLD", Action: Action{Out: 100, Back: 100, Label: "Heavy interdiction cruiser, cold", IsHIC: true}},
		CatalogEntry{Key: "T3C_HOT", Action: Action{Out: 120, Back: 120, Label: "Tech 3 cruiser, hot"}},
		CatalogEntry{Key: "T3C_COLD", Action: Action{Out: 80, Back: 80, Label: "Tech 3 cruiser, cold"}},
	)
	if err != nil {
		// DefaultCatalog is a repo-internal constant; a construction failure
		// here would be a programming error, not a runtime condition.
		panic("rolling: DefaultCatalog is misconfigured: " + err.Error())
	}
	return c
}
