package mot

import (
	"math"
	"sort"

	"github.com/arthurkushman/go-hungarian"
	"github.com/pkg/errors"
)

// MatchingAlgorithm is for algorithm type for matching detections to tracks.
// Both algorithms give optimal assignment, they differ in implementation only.
type MatchingAlgorithm string

const (
	// MatchingAlgorithmJV uses Kuhn-Munkres with dual potentials (Jonker-Volgenant flavour), O(n³)
	MatchingAlgorithmJV MatchingAlgorithm = "jv"
	// MatchingAlgorithmMunkres uses github.com/arthurkushman/go-hungarian on the similarity matrix
	MatchingAlgorithmMunkres MatchingAlgorithm = "munkres"
)

// Costs are compared with this tolerance when resolving ties
const tieTolerance = 1e-9

// solveAssignment finds minimum-cost assignment for n×m cost matrix.
// Returns assignment[i] = column assigned to row i, or -1 when row i has no column (n > m).
// Among equally cheap assignments lower rows get lower columns.
func solveAssignment(costs [][]float64, cols int, algorithm MatchingAlgorithm) ([]int, error) {
	if err := validateCostMatrix(costs, cols); err != nil {
		return nil, err
	}
	rows := len(costs)
	if rows == 0 || cols == 0 {
		assignment := make([]int, rows)
		for i := range assignment {
			assignment[i] = -1
		}
		return assignment, nil
	}

	padded := padCostMatrix(costs, cols)
	var square []int
	switch algorithm {
	case MatchingAlgorithmJV, "":
		square = solveJV(padded)
	case MatchingAlgorithmMunkres:
		square = solveMunkres(padded)
	default:
		return nil, errors.Wrapf(ErrInvalidConfig, "unknown matching algorithm %q", algorithm)
	}
	if len(square) != len(padded) {
		return nil, errors.Wrapf(ErrDegenerateAssignment, "solver returned %d assignments for %d rows", len(square), len(padded))
	}
	normalizeTies(padded, square)

	assignment := make([]int, rows)
	for i := 0; i < rows; i++ {
		if square[i] >= 0 && square[i] < cols {
			assignment[i] = square[i]
		} else {
			assignment[i] = -1
		}
	}
	return assignment, nil
}

// validateCostMatrix checks that every row has exactly cols finite entries
func validateCostMatrix(costs [][]float64, cols int) error {
	if cols < 0 {
		return errors.Wrapf(ErrDegenerateAssignment, "negative number of columns: %d", cols)
	}
	for i, row := range costs {
		if len(row) != cols {
			return errors.Wrapf(ErrDegenerateAssignment, "row %d has %d columns, expected %d", i, len(row), cols)
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.Wrapf(ErrDegenerateAssignment, "cost[%d][%d] is not finite", i, j)
			}
		}
	}
	return nil
}

// padCostMatrix makes matrix square. Padding entries share one constant value (the maximum cost),
// so they never change which real pairs are optimal.
func padCostMatrix(costs [][]float64, cols int) [][]float64 {
	rows := len(costs)
	dim := maxInt(rows, cols)
	padValue := 0.0
	for _, row := range costs {
		for _, v := range row {
			padValue = maxFloat64(padValue, v)
		}
	}
	padded := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		padded[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < rows && j < cols {
				padded[i][j] = costs[i][j]
			} else {
				padded[i][j] = padValue
			}
		}
	}
	return padded
}

// solveJV solves square assignment problem. Uses 1-indexed arrays internally
// for cleaner index arithmetic. Rows are inserted in ascending order and on equal
// reduced cost the lowest column wins.
func solveJV(c [][]float64) []int {
	dim := len(c)
	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1) // Row potentials
	v := make([]float64, dim+1) // Column potentials
	p := make([]int, dim+1)     // p[j] = row assigned to column j
	way := make([]int, dim+1)   // way[j] = previous column in augmenting path
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0
		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}
		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1
			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}
			if j1 < 0 {
				break
			}
			for j := 0; j <= dim; j++ {
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
		// Augment along the path
		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	assignment := make([]int, dim)
	for i := range assignment {
		assignment[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if p[j] > 0 {
			assignment[p[j]-1] = j - 1
		}
	}
	return assignment
}

// solveMunkres maximizes similarity (maxCost - cost) with go-hungarian.
// Library returns map[row]map[col]value, we flatten it into row -> col.
func solveMunkres(c [][]float64) []int {
	dim := len(c)
	maxCost := 0.0
	for _, row := range c {
		for _, v := range row {
			maxCost = maxFloat64(maxCost, v)
		}
	}
	similarity := make([][]float64, dim)
	for i := range c {
		similarity[i] = make([]float64, dim)
		for j := range c[i] {
			similarity[i][j] = maxCost - c[i][j]
		}
	}

	assignment := make([]int, dim)
	for i := range assignment {
		assignment[i] = -1
	}
	assignmentsMap := hungarian.SolveMax(similarity)
	rowsAssigned := make([]int, 0, len(assignmentsMap))
	for row := range assignmentsMap {
		rowsAssigned = append(rowsAssigned, row)
	}
	sort.Ints(rowsAssigned)
	usedCols := make([]bool, dim)
	for _, row := range rowsAssigned {
		if row < 0 || row >= dim {
			continue
		}
		cols := make([]int, 0, len(assignmentsMap[row]))
		for col := range assignmentsMap[row] {
			cols = append(cols, col)
		}
		sort.Ints(cols)
		for _, col := range cols {
			if col >= 0 && col < dim && !usedCols[col] {
				assignment[row] = col
				usedCols[col] = true
				break
			}
		}
	}
	// Complete partial answers so result is always a permutation
	free := 0
	for row := range assignment {
		if assignment[row] >= 0 {
			continue
		}
		for free < dim && usedCols[free] {
			free++
		}
		if free < dim {
			assignment[row] = free
			usedCols[free] = true
		}
	}
	return assignment
}

// normalizeTies rewrites optimal assignment into the lexicographically smallest one with the same
// total cost: row 0 gets the lowest column possible, then row 1, and so on.
// Makes output independent of how solver explored equally good assignments.
//
// Any two optimal assignments differ by cycles of tight edges (zero reduced cost under optimal
// dual potentials), so for every row we search such a cycle which moves the row to a lower column
// while leaving rows above it untouched.
func normalizeTies(c [][]float64, assignment []int) {
	dim := len(assignment)
	for _, col := range assignment {
		if col < 0 {
			return
		}
	}
	v := columnPotentials(c, assignment)
	tight := func(row, col int) bool {
		current := assignment[row]
		return c[row][col]-c[row][current]+v[current]-v[col] <= tieTolerance
	}

	owner := make([]int, dim)
	next := make([]int, dim)
	reachable := make([]bool, dim)
	queue := make([]int, 0, dim)
	for i := 0; i < dim; i++ {
		if assignment[i] == 0 {
			continue
		}
		for j, row := range assignment {
			owner[row] = j
		}
		// Rows below i which can hand over their column along tight edges, so that
		// the chain ends with somebody taking column of row i. next[k] = -1 marks the chain end.
		queue = queue[:0]
		for k := i + 1; k < dim; k++ {
			reachable[k] = false
			if tight(k, assignment[i]) {
				reachable[k] = true
				next[k] = -1
				queue = append(queue, k)
			}
		}
		for head := 0; head < len(queue); head++ {
			m := queue[head]
			for k := i + 1; k < dim; k++ {
				if !reachable[k] && tight(k, assignment[m]) {
					reachable[k] = true
					next[k] = m
					queue = append(queue, k)
				}
			}
		}
		for col := 0; col < assignment[i]; col++ {
			k := owner[col]
			if k <= i || !reachable[k] || !tight(i, col) {
				continue
			}
			// Rotate: i takes col, every row in chain takes column of its successor
			freed := assignment[i]
			assignment[i] = col
			for ; next[k] != -1; k = next[k] {
				assignment[k] = assignment[next[k]]
			}
			assignment[k] = freed
			break
		}
	}
}

// columnPotentials returns column duals v of optimal assignment: with u[k] = c[k][a[k]] - v[a[k]]
// every reduced cost c[k][j] - u[k] - v[j] is non-negative and zero on assigned pairs.
// Bellman-Ford over "row k moves from its column to column j" edges.
func columnPotentials(c [][]float64, assignment []int) []float64 {
	dim := len(assignment)
	v := make([]float64, dim)
	for iter := 0; iter < dim; iter++ {
		changed := false
		for k := 0; k < dim; k++ {
			base := v[assignment[k]] - c[k][assignment[k]]
			for j := 0; j < dim; j++ {
				if candidate := base + c[k][j]; candidate < v[j]-tieTolerance*1e-3 {
					v[j] = candidate
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return v
}
