package match

type locPair struct {
	from, to int64
}

// CostIndex answers directed (from, to) cost lookups in O(1). It is
// immutable once built and safe for concurrent reads.
type CostIndex struct {
	costs   map[locPair]int64
	skipped int
}

// NewCostIndex indexes edges in input order. A later edge for the same pair
// replaces an earlier one. Negative costs and costs at or above Unreachable
// are not usable and are skipped.
func NewCostIndex(edges []CostEdge) *CostIndex {
	idx := &CostIndex{costs: make(map[locPair]int64, len(edges))}
	for _, e := range edges {
		if e.Cost < 0 || e.Cost >= Unreachable {
			idx.skipped++
			continue
		}
		idx.costs[locPair{e.From, e.To}] = e.Cost
	}
	return idx
}

// Lookup returns the cost from -> to, or Unreachable when no edge exists.
func (c *CostIndex) Lookup(from, to int64) int64 {
	if v, ok := c.costs[locPair{from, to}]; ok {
		return v
	}
	return Unreachable
}

// Len is the number of distinct indexed pairs.
func (c *CostIndex) Len() int { return len(c.costs) }

// Skipped is the number of edges dropped for an unusable cost.
func (c *CostIndex) Skipped() int { return c.skipped }
