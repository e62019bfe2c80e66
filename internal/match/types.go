// Package match assigns available drivers to waiting riders at minimum total
// cost. It is a pure engine: no storage, transport or logging happens here.
package match

import "math"

// Unreachable is the cost of a location pair with no direct edge. It is half
// of MaxInt64 so that adding two unreachable legs cannot overflow.
const Unreachable int64 = math.MaxInt64 / 2

// Driver is an available driver at a location.
type Driver struct {
	ID         int64
	LocationID int64
}

// Rider is a waiting rider travelling from pickup to drop.
type Rider struct {
	ID               int64
	PickupLocationID int64
	DropLocationID   int64
}

// CostEdge is a directed travel cost between two locations.
type CostEdge struct {
	From int64
	To   int64
	Cost int64
}

// Input is everything one matching run needs.
type Input struct {
	Drivers []Driver
	Riders  []Rider
	Costs   []CostEdge
}

type Status string

const (
	StatusSuccess         Status = "SUCCESS"
	StatusNoFeasibleMatch Status = "NO_FEASIBLE_MATCH"
)

// Assignment pairs one driver with one rider.
type Assignment struct {
	Driver      Driver
	Rider       Rider
	PickupCost  int64 // driver location -> rider pickup
	TripCost    int64 // rider pickup -> rider drop
	Cost        int64
	Description string
}

// Result is the outcome of a run. Matches is never nil.
type Result struct {
	Matches            []Assignment
	TotalCost          int64
	Status             Status
	Message            string
	DriversConsidered  int
	RidersConsidered   int
	UnmatchedDriverIDs []int64
	UnmatchedRiderIDs  []int64
}
