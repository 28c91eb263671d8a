package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// Simplex solves models with the pure-Go gonum simplex. It reports no dual
// prices, so it can serve the master problem but not the subproblems.
type Simplex struct {
	// Tol is the simplex pivot tolerance.
	Tol float64
}

// NewSimplex returns the gonum-backed solver.
func NewSimplex() *Simplex {
	return &Simplex{Tol: 1e-9}
}

// Name identifies the backend.
func (s *Simplex) Name() string {
	return "simplex"
}

// SuppliesDuals reports that the simplex backend returns primal values only.
func (s *Simplex) SuppliesDuals() bool {
	return false
}

// Solve converts the model to gonum standard form and runs the simplex
// method. Ranged rows become two inequalities; finite column bounds become
// rows.
func (s *Simplex) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := m.NumCols()
	dense := denseRows(m)

	var gRows [][]float64
	var h []float64
	var aRows [][]float64
	var b []float64

	for r := 0; r < m.NumRows(); r++ {
		lb, ub := m.RowLower[r], m.RowUpper[r]
		switch {
		case lb == ub:
			aRows = append(aRows, dense[r])
			b = append(b, ub)
		default:
			if !math.IsInf(ub, 1) {
				gRows = append(gRows, dense[r])
				h = append(h, ub)
			}
			if !math.IsInf(lb, -1) {
				gRows = append(gRows, negate(dense[r]))
				h = append(h, -lb)
			}
		}
	}

	for col := 0; col < n; col++ {
		if !math.IsInf(m.ColUpper[col], 1) {
			gRows = append(gRows, unitRow(n, col, 1))
			h = append(h, m.ColUpper[col])
		}
		if !math.IsInf(m.ColLower[col], -1) {
			gRows = append(gRows, unitRow(n, col, -1))
			h = append(h, -m.ColLower[col])
		}
	}

	var g mat.Matrix
	if len(gRows) > 0 {
		g = rowsToDense(gRows)
	}
	var a mat.Matrix
	if len(aRows) > 0 {
		a = rowsToDense(aRows)
	}

	cStd, aStd, bStd := lp.Convert(m.ColCosts, g, h, a, b)
	opt, xStd, err := lp.Simplex(cStd, aStd, bStd, s.Tol, nil)
	switch {
	case err == nil:
		return &Solution{
			Status:       StatusOptimal,
			Objective:    opt + m.Offset,
			ColumnPrimal: xStd[:n],
		}, nil
	case errors.Is(err, lp.ErrInfeasible):
		return &Solution{Status: StatusInfeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return &Solution{Status: StatusUnbounded}, nil
	default:
		return nil, fmt.Errorf("simplex solve: %w", err)
	}
}

func denseRows(m *Model) [][]float64 {
	rows := make([][]float64, m.NumRows())
	for r := range rows {
		rows[r] = make([]float64, m.NumCols())
	}
	for _, nz := range m.ConstMatrix {
		rows[nz.Row][nz.Col] = nz.Val
	}
	return rows
}

func negate(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		out[i] = -v
	}
	return out
}

func unitRow(n, col int, val float64) []float64 {
	row := make([]float64, n)
	row[col] = val
	return row
}

func rowsToDense(rows [][]float64) *mat.Dense {
	d := mat.NewDense(len(rows), len(rows[0]), nil)
	for r, row := range rows {
		d.SetRow(r, row)
	}
	return d
}
