package match

import (
	"fmt"
	"math"
)

// Solution maps each driver row to its rider column, or -1 when the row is
// left unmatched (padding or no reachable rider).
type Solution struct {
	RowToCol  []int
	TotalCost int64
}

// Matched is the number of rows with a real assignment.
func (s Solution) Matched() int {
	n := 0
	for _, c := range s.RowToCol {
		if c >= 0 {
			n++
		}
	}
	return n
}

// Solve finds a minimum-cost one-to-one assignment over m. The matrix is
// padded to a square of side max(rows, cols) with zero-cost dummy cells.
// Unreachable cells are priced above the sum of every reachable cell, so the
// solver first maximises the number of reachable pairs and then minimises
// their cost. Padding and unreachable pairings are dropped from the result.
func Solve(m *CostMatrix) (Solution, error) {
	if m == nil || m.rows == 0 || m.cols == 0 {
		return Solution{}, fmt.Errorf("%w: empty cost matrix", ErrInvalidInput)
	}

	n := max(m.rows, m.cols)
	bigM, err := penalty(m, n)
	if err != nil {
		return Solution{}, err
	}

	work := make([][]int64, n)
	for i := range work {
		work[i] = make([]int64, n)
		if i >= m.rows {
			continue
		}
		for j := 0; j < m.cols; j++ {
			c := m.Cost(i, j)
			if c >= Unreachable {
				c = bigM
			}
			work[i][j] = c
		}
	}

	assign := hungarian(work)

	sol := Solution{RowToCol: make([]int, m.rows)}
	seen := make([]bool, m.cols)
	for i := 0; i < m.rows; i++ {
		sol.RowToCol[i] = -1
		j := assign[i]
		if j < 0 || j >= m.cols {
			continue
		}
		c := m.Cost(i, j)
		if c >= Unreachable {
			continue
		}
		if seen[j] {
			return Solution{}, fmt.Errorf("%w: column %d assigned twice", ErrInternal, j)
		}
		seen[j] = true
		sol.RowToCol[i] = j
		sol.TotalCost += c
	}
	return sol, nil
}

// penalty returns the cost used for unreachable cells. It must exceed the sum
// of all reachable cells while keeping potentials well inside int64.
func penalty(m *CostMatrix, n int) (int64, error) {
	limit := math.MaxInt64 / (4 * int64(n+1))
	var sum int64
	for _, c := range m.cells {
		if !c.Reachable() {
			continue
		}
		sum += c.Total
		if sum >= limit {
			return 0, fmt.Errorf("%w: reachable costs too large for a %dx%d solve", ErrInternal, n, n)
		}
	}
	return sum + 1, nil
}

// hungarian solves a square assignment with the Kuhn-Munkres method using row
// and column potentials. Arrays are 1-indexed; column 0 is the virtual start
// column of each augmenting path. It returns row -> column.
func hungarian(c [][]int64) []int {
	n := len(c)
	const inf = math.MaxInt64

	u := make([]int64, n+1)
	v := make([]int64, n+1)
	p := make([]int, n+1)   // p[j] = row matched to column j
	way := make([]int, n+1) // previous column on the augmenting path
	minv := make([]int64, n+1)
	used := make([]bool, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= n; j++ {
			minv[j] = inf
			used[j] = false
		}
		used[0] = false

		for {
			used[j0] = true
			i0 := p[j0]
			delta := int64(inf)
			j1 := 0
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				// strict comparison: the lowest column index wins ties
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	rowToCol := make([]int, n)
	for i := range rowToCol {
		rowToCol[i] = -1
	}
	for j := 1; j <= n; j++ {
		if p[j] > 0 {
			rowToCol[p[j]-1] = j - 1
		}
	}
	return rowToCol
}
