package match

import (
	"errors"
	"fmt"
)

// Run validates in, builds the cost matrix, solves the assignment and
// assembles the result. An input where no driver can serve any rider is not
// an error: it yields a NO_FEASIBLE_MATCH result.
//
// Run allocates all of its state per call and may be used concurrently.
func Run(in Input) (res Result, err error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}

	defer func() {
		if r := recover(); r != nil {
			res = Result{}
			err = fmt.Errorf("%w: solver panic: %v", ErrInternal, r)
		}
	}()

	idx := NewCostIndex(in.Costs)
	m, err := BuildCostMatrix(in.Drivers, in.Riders, idx)
	if errors.Is(err, ErrNoFeasibleMatch) {
		return noFeasible(Result{
			DriversConsidered:  len(in.Drivers),
			RidersConsidered:   len(in.Riders),
			UnmatchedDriverIDs: driverIDs(in.Drivers),
			UnmatchedRiderIDs:  riderIDs(in.Riders),
		}), nil
	}
	if err != nil {
		return Result{}, err
	}

	sol, err := Solve(m)
	if err != nil {
		return Result{}, err
	}
	return Assemble(in.Drivers, in.Riders, m, sol), nil
}

// Validate checks the preconditions Run relies on.
func Validate(in Input) error {
	switch {
	case len(in.Drivers) == 0:
		return fmt.Errorf("%w: no drivers provided", ErrInvalidInput)
	case len(in.Riders) == 0:
		return fmt.Errorf("%w: no riders provided", ErrInvalidInput)
	case len(in.Costs) == 0:
		return fmt.Errorf("%w: no cost data provided", ErrInvalidInput)
	}

	valid := false
	for _, c := range in.Costs {
		if c.Cost >= 0 && c.Cost < Unreachable {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: no valid cost data found", ErrInvalidInput)
	}

	seen := make(map[int64]struct{}, len(in.Drivers))
	for _, d := range in.Drivers {
		if _, dup := seen[d.ID]; dup {
			return fmt.Errorf("%w: duplicate driver id %d", ErrInvalidInput, d.ID)
		}
		seen[d.ID] = struct{}{}
	}
	clear(seen)
	for _, r := range in.Riders {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: duplicate rider id %d", ErrInvalidInput, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}

func driverIDs(ds []Driver) []int64 {
	out := make([]int64, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}

func riderIDs(rs []Rider) []int64 {
	out := make([]int64, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}
