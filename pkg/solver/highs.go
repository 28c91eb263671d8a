package solver

import (
	"context"
	"fmt"

	"github.com/lanl/highs"
)

// Highs solves models through the HiGHS bindings. It supplies row dual
// prices, so it is eligible for both the master and the subproblems.
type Highs struct{}

// NewHighs returns the HiGHS-backed solver.
func NewHighs() *Highs {
	return &Highs{}
}

// Name identifies the backend.
func (h *Highs) Name() string {
	return "highs"
}

// SuppliesDuals reports that HiGHS returns dual prices for LPs.
func (h *Highs) SuppliesDuals() bool {
	return true
}

// Solve translates the model into a HiGHS model and runs it synchronously.
func (h *Highs) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lp := &highs.Model{
		ColCosts: m.ColCosts,
		ColLower: m.ColLower,
		ColUpper: m.ColUpper,
		RowLower: m.RowLower,
		RowUpper: m.RowUpper,
		Offset:   m.Offset,
	}
	lp.ConstMatrix = make([]highs.Nonzero, len(m.ConstMatrix))
	for i, nz := range m.ConstMatrix {
		lp.ConstMatrix[i] = highs.Nonzero{Row: nz.Row, Col: nz.Col, Val: nz.Val}
	}

	solution, err := lp.Solve()
	if err != nil {
		return nil, fmt.Errorf("highs solve: %w", err)
	}

	out := &Solution{Status: mapHighsStatus(solution.Status)}
	if out.Status == StatusOptimal {
		out.Objective = solution.Objective
		out.ColumnPrimal = solution.ColumnPrimal
		out.RowDual = solution.RowDual
	}
	return out, nil
}

func mapHighsStatus(status highs.ModelStatus) Status {
	switch status {
	case highs.Optimal:
		return StatusOptimal
	case highs.Infeasible:
		return StatusInfeasible
	case highs.Unbounded, highs.UnboundedOrInfeasible:
		return StatusUnbounded
	default:
		return StatusOther
	}
}
