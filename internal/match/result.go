package match

import "fmt"

// Assemble maps a solution back to driver and rider identities. Rows without
// a reachable rider are reported as unmatched.
func Assemble(drivers []Driver, riders []Rider, m *CostMatrix, sol Solution) Result {
	res := Result{
		Matches:           make([]Assignment, 0, min(len(drivers), len(riders))),
		DriversConsidered: len(drivers),
		RidersConsidered:  len(riders),
	}

	taken := make([]bool, len(riders))
	for i, d := range drivers {
		j := -1
		if i < len(sol.RowToCol) {
			j = sol.RowToCol[i]
		}
		if j < 0 || j >= len(riders) || !m.At(i, j).Reachable() {
			res.UnmatchedDriverIDs = append(res.UnmatchedDriverIDs, d.ID)
			continue
		}
		cell := m.At(i, j)
		r := riders[j]
		taken[j] = true
		res.Matches = append(res.Matches, Assignment{
			Driver:      d,
			Rider:       r,
			PickupCost:  cell.Pickup,
			TripCost:    cell.Trip,
			Cost:        cell.Total,
			Description: describe(d, r, cell.Total),
		})
		res.TotalCost += cell.Total
	}
	for j, r := range riders {
		if !taken[j] {
			res.UnmatchedRiderIDs = append(res.UnmatchedRiderIDs, r.ID)
		}
	}

	if len(res.Matches) == 0 {
		return noFeasible(res)
	}
	res.Status = StatusSuccess
	res.Message = fmt.Sprintf("Matched %d driver(s) to rider(s) with total cost: %d", len(res.Matches), res.TotalCost)
	return res
}

func noFeasible(res Result) Result {
	res.Matches = []Assignment{}
	res.TotalCost = 0
	res.Status = StatusNoFeasibleMatch
	res.Message = "No feasible match: no driver can reach any rider pickup"
	return res
}

func describe(d Driver, r Rider, cost int64) string {
	return fmt.Sprintf("Driver %d at location %d assigned to Rider %d (pickup: %d, drop: %d) with cost: %d",
		d.ID, d.LocationID, r.ID, r.PickupLocationID, r.DropLocationID, cost)
}
