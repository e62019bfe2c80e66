package match

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSingleMatch(t *testing.T) {
	res, err := Run(Input{
		Drivers: []Driver{{ID: 1, LocationID: 10}},
		Riders:  []Rider{{ID: 1, PickupLocationID: 20, DropLocationID: 30}},
		Costs:   []CostEdge{{From: 10, To: 20, Cost: 5}, {From: 20, To: 30, Cost: 7}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Matches, 1)

	a := res.Matches[0]
	require.Equal(t, int64(1), a.Driver.ID)
	require.Equal(t, int64(1), a.Rider.ID)
	require.Equal(t, int64(5), a.PickupCost)
	require.Equal(t, int64(7), a.TripCost)
	require.Equal(t, int64(12), a.Cost)
	require.Equal(t, int64(12), res.TotalCost)
	require.Equal(t, "Driver 1 at location 10 assigned to Rider 1 (pickup: 20, drop: 30) with cost: 12", a.Description)
	require.Equal(t, "Matched 1 driver(s) to rider(s) with total cost: 12", res.Message)
	require.Empty(t, res.UnmatchedDriverIDs)
	require.Empty(t, res.UnmatchedRiderIDs)
}

func TestRunPicksCheaperDriver(t *testing.T) {
	res, err := Run(Input{
		Drivers: []Driver{{ID: 1, LocationID: 10}, {ID: 2, LocationID: 11}},
		Riders:  []Rider{{ID: 5, PickupLocationID: 20, DropLocationID: 30}},
		Costs: []CostEdge{
			{From: 10, To: 20, Cost: 9},
			{From: 11, To: 20, Cost: 3},
			{From: 20, To: 30, Cost: 4},
		},
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Len(t, res.Matches, 1)
	require.Equal(t, int64(2), res.Matches[0].Driver.ID)
	require.Equal(t, int64(7), res.TotalCost)
	require.Equal(t, []int64{1}, res.UnmatchedDriverIDs)
	require.Equal(t, 2, res.DriversConsidered)
	require.Equal(t, 1, res.RidersConsidered)
}

func TestRunNoFeasibleMatch(t *testing.T) {
	res, err := Run(Input{
		Drivers: []Driver{{ID: 1, LocationID: 10}, {ID: 2, LocationID: 11}},
		Riders:  []Rider{{ID: 1, PickupLocationID: 20, DropLocationID: 30}},
		Costs:   []CostEdge{{From: 20, To: 30, Cost: 7}, {From: 10, To: 11, Cost: 1}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusNoFeasibleMatch, res.Status)
	require.NotNil(t, res.Matches)
	require.Empty(t, res.Matches)
	require.Zero(t, res.TotalCost)
	require.Equal(t, []int64{1, 2}, res.UnmatchedDriverIDs)
	require.Equal(t, []int64{1}, res.UnmatchedRiderIDs)
}

func TestRunInvalidInput(t *testing.T) {
	drivers := []Driver{{ID: 1, LocationID: 10}}
	riders := []Rider{{ID: 1, PickupLocationID: 20, DropLocationID: 30}}
	costs := []CostEdge{{From: 10, To: 20, Cost: 1}}

	testCases := []struct {
		name string
		in   Input
	}{
		{name: "NoDrivers", in: Input{Riders: riders, Costs: costs}},
		{name: "NoRiders", in: Input{Drivers: drivers, Costs: costs}},
		{name: "NoCosts", in: Input{Drivers: drivers, Riders: riders}},
		{name: "OnlyNegativeCosts", in: Input{Drivers: drivers, Riders: riders, Costs: []CostEdge{{From: 10, To: 20, Cost: -3}}}},
		{name: "DuplicateDriver", in: Input{Drivers: append(drivers, Driver{ID: 1, LocationID: 11}), Riders: riders, Costs: costs}},
		{name: "DuplicateRider", in: Input{Drivers: drivers, Riders: append(riders, Rider{ID: 1}), Costs: costs}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Run(tc.in)
			require.ErrorIs(t, err, ErrInvalidInput)
			require.Empty(t, res.Matches)
		})
	}
}

func TestRunExcludesUnreachableRider(t *testing.T) {
	// rider 9's pickup (99) has no inbound edge from any driver
	res, err := Run(Input{
		Drivers: []Driver{{ID: 1, LocationID: 10}, {ID: 2, LocationID: 11}, {ID: 3, LocationID: 12}},
		Riders: []Rider{
			{ID: 7, PickupLocationID: 20, DropLocationID: 30},
			{ID: 9, PickupLocationID: 99, DropLocationID: 30},
		},
		Costs: []CostEdge{
			{From: 10, To: 20, Cost: 4},
			{From: 11, To: 20, Cost: 2},
			{From: 12, To: 20, Cost: 8},
			{From: 20, To: 30, Cost: 1},
			{From: 99, To: 30, Cost: 1},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Matches, 1)
	require.Equal(t, int64(7), res.Matches[0].Rider.ID)
	require.Equal(t, int64(2), res.Matches[0].Driver.ID)
	require.Equal(t, []int64{9}, res.UnmatchedRiderIDs)
	require.ElementsMatch(t, []int64{1, 3}, res.UnmatchedDriverIDs)
}

func TestRunDirectedCosts(t *testing.T) {
	// only the reverse of the pickup leg exists
	res, err := Run(Input{
		Drivers: []Driver{{ID: 1, LocationID: 10}},
		Riders:  []Rider{{ID: 1, PickupLocationID: 20, DropLocationID: 30}},
		Costs:   []CostEdge{{From: 20, To: 10, Cost: 5}, {From: 20, To: 30, Cost: 7}},
	})
	require.NoError(t, err)
	require.Equal(t, StatusNoFeasibleMatch, res.Status)
}

func TestRunDeterministicAndConcurrent(t *testing.T) {
	in := Input{
		Drivers: []Driver{{ID: 1, LocationID: 1}, {ID: 2, LocationID: 2}, {ID: 3, LocationID: 3}},
		Riders: []Rider{
			{ID: 10, PickupLocationID: 4, DropLocationID: 6},
			{ID: 11, PickupLocationID: 5, DropLocationID: 6},
		},
		Costs: []CostEdge{
			{From: 1, To: 4, Cost: 2}, {From: 1, To: 5, Cost: 2},
			{From: 2, To: 4, Cost: 2}, {From: 2, To: 5, Cost: 2},
			{From: 3, To: 4, Cost: 2}, {From: 3, To: 5, Cost: 2},
			{From: 4, To: 6, Cost: 1}, {From: 5, To: 6, Cost: 1},
		},
	}
	want, err := Run(in)
	require.NoError(t, err)
	require.Equal(t, int64(6), want.TotalCost)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Run(in)
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		require.Equal(t, want, got)
	}
}
