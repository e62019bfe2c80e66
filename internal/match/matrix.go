package match

import "fmt"

// Cell is one driver/rider combination. Total is Unreachable when either leg is.
type Cell struct {
	Pickup int64
	Trip   int64
	Total  int64
}

// Reachable reports whether the combination can be served.
func (c Cell) Reachable() bool { return c.Total < Unreachable }

// CostMatrix is a dense drivers x riders matrix. Row i is drivers[i], column j
// is riders[j] in the order given to BuildCostMatrix.
type CostMatrix struct {
	rows, cols int
	cells      []Cell
	feasible   int
}

func (m *CostMatrix) Rows() int { return m.rows }
func (m *CostMatrix) Cols() int { return m.cols }

// At returns the cell for driver row i and rider column j.
func (m *CostMatrix) At(i, j int) Cell { return m.cells[i*m.cols+j] }

// Cost returns the combined cost for (i, j), or Unreachable.
func (m *CostMatrix) Cost(i, j int) int64 { return m.cells[i*m.cols+j].Total }

// Feasible is the number of reachable cells.
func (m *CostMatrix) Feasible() int { return m.feasible }

// BuildCostMatrix computes, for each driver/rider pair, the pickup leg from
// the driver's location to the rider's pickup plus the rider's trip leg.
func BuildCostMatrix(drivers []Driver, riders []Rider, idx *CostIndex) (*CostMatrix, error) {
	if len(drivers) == 0 {
		return nil, fmt.Errorf("%w: no drivers provided", ErrInvalidInput)
	}
	if len(riders) == 0 {
		return nil, fmt.Errorf("%w: no riders provided", ErrInvalidInput)
	}
	if idx == nil {
		return nil, fmt.Errorf("%w: no cost data provided", ErrInvalidInput)
	}

	m := &CostMatrix{
		rows:  len(drivers),
		cols:  len(riders),
		cells: make([]Cell, len(drivers)*len(riders)),
	}

	// the trip leg does not depend on the driver
	trips := make([]int64, len(riders))
	for j, r := range riders {
		trips[j] = idx.Lookup(r.PickupLocationID, r.DropLocationID)
	}

	for i, d := range drivers {
		for j, r := range riders {
			c := Cell{
				Pickup: idx.Lookup(d.LocationID, r.PickupLocationID),
				Trip:   trips[j],
				Total:  Unreachable,
			}
			if c.Pickup < Unreachable && c.Trip < Unreachable {
				c.Total = c.Pickup + c.Trip
				if c.Total >= Unreachable {
					return nil, fmt.Errorf("%w: cost overflow for driver %d and rider %d", ErrInternal, d.ID, r.ID)
				}
				m.feasible++
			}
			m.cells[i*m.cols+j] = c
		}
	}

	if m.feasible == 0 {
		return m, fmt.Errorf("build cost matrix: %d drivers, %d riders: %w", m.rows, m.cols, ErrNoFeasibleMatch)
	}
	return m, nil
}
