package match

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// matrixOf builds a CostMatrix directly from combined costs; Unreachable
// entries stay unreachable.
func matrixOf(cost [][]int64) *CostMatrix {
	m := &CostMatrix{rows: len(cost), cols: len(cost[0])}
	m.cells = make([]Cell, m.rows*m.cols)
	for i, row := range cost {
		for j, c := range row {
			cell := Cell{Pickup: c, Total: c}
			if c >= Unreachable {
				cell = Cell{Pickup: Unreachable, Total: Unreachable}
			} else {
				m.feasible++
			}
			m.cells[i*m.cols+j] = cell
		}
	}
	return m
}

func randomMatrix(rng *rand.Rand, rows, cols int, unreachable float64) [][]int64 {
	out := make([][]int64, rows)
	for i := range out {
		out[i] = make([]int64, cols)
		for j := range out[i] {
			if rng.Float64() < unreachable {
				out[i][j] = Unreachable
				continue
			}
			out[i][j] = rng.Int63n(100)
		}
	}
	return out
}

// bruteForce returns the best (matched pairs, total cost) over every way of
// assigning rows to distinct columns, preferring more reachable pairs first.
func bruteForce(cost [][]int64) (int, int64) {
	rows, cols := len(cost), len(cost[0])
	n := max(rows, cols)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	bestPairs, bestCost := -1, int64(0)
	var rec func(k int)
	rec = func(k int) {
		if k == n {
			pairs, total := 0, int64(0)
			for i := 0; i < rows; i++ {
				j := perm[i]
				if j < cols && cost[i][j] < Unreachable {
					pairs++
					total += cost[i][j]
				}
			}
			if pairs > bestPairs || (pairs == bestPairs && total < bestCost) {
				bestPairs, bestCost = pairs, total
			}
			return
		}
		for i := k; i < n; i++ {
			perm[k], perm[i] = perm[i], perm[k]
			rec(k + 1)
			perm[k], perm[i] = perm[i], perm[k]
		}
	}
	rec(0)
	return bestPairs, bestCost
}

func TestSolveKnownMatrix(t *testing.T) {
	m := matrixOf([][]int64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	})
	sol, err := Solve(m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0, 2}, sol.RowToCol)
	require.Equal(t, int64(5), sol.TotalCost)
}

func TestSolveMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for n := 1; n <= 7; n++ {
		for trial := 0; trial < 20; trial++ {
			cost := randomMatrix(rng, n, n, 0)
			sol, err := Solve(matrixOf(cost))
			require.NoError(t, err)

			pairs, want := bruteForce(cost)
			require.Equal(t, n, pairs)
			require.Equal(t, want, sol.TotalCost, "n=%d trial=%d cost=%v", n, trial, cost)
		}
	}
}

func TestSolveRectangularWithUnreachable(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 200; trial++ {
		rows := 1 + rng.Intn(6)
		cols := 1 + rng.Intn(6)
		cost := randomMatrix(rng, rows, cols, 0.3)
		m := matrixOf(cost)
		if m.Feasible() == 0 {
			continue
		}
		sol, err := Solve(m)
		require.NoError(t, err)
		require.Len(t, sol.RowToCol, rows)
		require.LessOrEqual(t, sol.Matched(), min(rows, cols))

		pairs, want := bruteForce(cost)
		require.Equal(t, pairs, sol.Matched(), "cost=%v", cost)
		require.Equal(t, want, sol.TotalCost, "cost=%v", cost)

		used := map[int]bool{}
		for i, j := range sol.RowToCol {
			if j < 0 {
				continue
			}
			require.False(t, used[j], "column %d used twice", j)
			used[j] = true
			require.Less(t, cost[i][j], Unreachable)
		}
	}
}

func TestSolvePrefersMorePairsOverCheaperCost(t *testing.T) {
	// driver 0 can serve either rider, driver 1 only rider 0
	m := matrixOf([][]int64{
		{1, 50},
		{40, Unreachable},
	})
	sol, err := Solve(m)
	require.NoError(t, err)
	require.Equal(t, []int{1, 0}, sol.RowToCol)
	require.Equal(t, int64(90), sol.TotalCost)
}

func TestSolveDeterministic(t *testing.T) {
	// every assignment ties; the result must not vary between calls
	cost := [][]int64{
		{3, 3, 3},
		{3, 3, 3},
		{3, 3, 3},
		{3, 3, 3},
	}
	first, err := Solve(matrixOf(cost))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Solve(matrixOf(cost))
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	require.Equal(t, 3, first.Matched())
	require.Equal(t, int64(9), first.TotalCost)
}

func TestSolveMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	for trial := 0; trial < 100; trial++ {
		rows, cols := 1+rng.Intn(5), 1+rng.Intn(5)
		cost := randomMatrix(rng, rows, cols, 0)
		base, err := Solve(matrixOf(cost))
		require.NoError(t, err)

		i, j := rng.Intn(rows), rng.Intn(cols)
		cost[i][j] += 1 + rng.Int63n(50)
		raised, err := Solve(matrixOf(cost))
		require.NoError(t, err)
		require.GreaterOrEqual(t, raised.TotalCost, base.TotalCost)
	}
}

func TestSolveRejectsHugeCosts(t *testing.T) {
	c := Unreachable - 1
	_, err := Solve(matrixOf([][]int64{{c, c}, {c, c}}))
	require.ErrorIs(t, err, ErrInternal)
}

func TestSolveEmpty(t *testing.T) {
	_, err := Solve(nil)
	require.ErrorIs(t, err, ErrInvalidInput)
}
