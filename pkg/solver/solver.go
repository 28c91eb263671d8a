// Package solver abstracts the linear program solver behind a small
// minimize-only model: variables with bounds, sparse linear constraints with
// row bounds, and a status plus primal/dual values on success.
package solver

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Status is the outcome of a solve.
type Status int

// Solve outcomes.
const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusOther
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "other"
	}
}

// Nonzero is one entry of the sparse constraint matrix.
type Nonzero struct {
	Row int
	Col int
	Val float64
}

// Model is a linear program in minimize form. Row r is constrained to
// RowLower[r] <= a_r x <= RowUpper[r]; infinite bounds drop a side.
type Model struct {
	ColCosts    []float64
	ColLower    []float64
	ColUpper    []float64
	RowLower    []float64
	RowUpper    []float64
	ConstMatrix []Nonzero
	Offset      float64
}

// NumCols returns the variable count.
func (m *Model) NumCols() int {
	return len(m.ColCosts)
}

// NumRows returns the constraint count.
func (m *Model) NumRows() int {
	return len(m.RowLower)
}

// AddColumn appends a variable with the given objective cost and bounds and
// returns its index.
func (m *Model) AddColumn(cost, lower, upper float64) int {
	m.ColCosts = append(m.ColCosts, cost)
	m.ColLower = append(m.ColLower, lower)
	m.ColUpper = append(m.ColUpper, upper)
	return len(m.ColCosts) - 1
}

// AddDenseRow appends the constraint lb <= coeffs . x <= ub and returns its
// row index. Zero coefficients are not stored.
func (m *Model) AddDenseRow(lb float64, coeffs []float64, ub float64) int {
	row := len(m.RowLower)
	for col, val := range coeffs {
		if val != 0 {
			m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: col, Val: val})
		}
	}
	m.RowLower = append(m.RowLower, lb)
	m.RowUpper = append(m.RowUpper, ub)
	return row
}

// AddRow appends the sparse constraint lb <= sum(vals[i]*x[cols[i]]) <= ub
// and returns its row index.
func (m *Model) AddRow(lb float64, cols []int, vals []float64, ub float64) int {
	row := len(m.RowLower)
	for i, col := range cols {
		if vals[i] != 0 {
			m.ConstMatrix = append(m.ConstMatrix, Nonzero{Row: row, Col: col, Val: vals[i]})
		}
	}
	m.RowLower = append(m.RowLower, lb)
	m.RowUpper = append(m.RowUpper, ub)
	return row
}

// Inf returns positive infinity, for unbounded-above columns and one-sided
// rows.
func Inf() float64 {
	return math.Inf(1)
}

// Solution carries the result of a solve. ColumnPrimal and RowDual are only
// meaningful when Status is StatusOptimal; RowDual is nil for backends that
// cannot supply dual prices.
type Solution struct {
	Status       Status
	Objective    float64
	ColumnPrimal []float64
	RowDual      []float64
}

// Solver is the external LP solver collaborator.
type Solver interface {
	// Name identifies the backend.
	Name() string
	// SuppliesDuals reports whether solutions carry row dual prices.
	SuppliesDuals() bool
	// Solve minimizes the model. A non-optimal outcome is reported through
	// Solution.Status; an error means the solve itself failed.
	Solve(ctx context.Context, m *Model) (*Solution, error)
}

// timeoutSolver bounds each solve with a deadline.
type timeoutSolver struct {
	inner   Solver
	timeout time.Duration
}

// WithTimeout wraps a solver so every call runs under a deadline. A zero or
// negative timeout returns the solver unchanged. Successful results are
// passed through untouched.
func WithTimeout(s Solver, timeout time.Duration) Solver {
	if timeout <= 0 {
		return s
	}
	return &timeoutSolver{inner: s, timeout: timeout}
}

func (t *timeoutSolver) Name() string {
	return t.inner.Name()
}

func (t *timeoutSolver) SuppliesDuals() bool {
	return t.inner.SuppliesDuals()
}

func (t *timeoutSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		sol *Solution
		err error
	}
	ch := make(chan result, 1)
	go func() {
		sol, err := t.inner.Solve(ctx, m)
		ch <- result{sol: sol, err: err}
	}()

	select {
	case res := <-ch:
		return res.sol, res.err
	case <-ctx.Done():
		return nil, fmt.Errorf("solver %s exceeded %s: %w", t.inner.Name(), t.timeout, ctx.Err())
	}
}
