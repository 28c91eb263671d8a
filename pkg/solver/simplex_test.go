package solver

import (
	"context"
	"math"
	"testing"
)

func TestSimplexSolvesInequality(t *testing.T) {
	m := &Model{}
	m.AddColumn(1, 0, Inf())
	m.AddDenseRow(1, []float64{1}, Inf()) // x >= 1

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("Solve() status = %s, expected optimal", sol.Status)
	}
	if math.Abs(sol.Objective-1) > 1e-6 {
		t.Errorf("objective = %f, expected 1", sol.Objective)
	}
	if math.Abs(sol.ColumnPrimal[0]-1) > 1e-6 {
		t.Errorf("x = %f, expected 1", sol.ColumnPrimal[0])
	}
	if sol.RowDual != nil {
		t.Errorf("simplex backend should report no duals")
	}
}

func TestSimplexHonorsUpperBound(t *testing.T) {
	m := &Model{}
	m.AddColumn(-1, 0, 5) // maximize x up to 5

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("Solve() status = %s, expected optimal", sol.Status)
	}
	if math.Abs(sol.Objective-(-5)) > 1e-6 {
		t.Errorf("objective = %f, expected -5", sol.Objective)
	}
}

func TestSimplexSolvesEquality(t *testing.T) {
	m := &Model{}
	m.AddColumn(1, 0, Inf())
	m.AddColumn(2, 0, Inf())
	m.AddDenseRow(2, []float64{1, 1}, 2) // x1 + x2 = 2

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusOptimal {
		t.Fatalf("Solve() status = %s, expected optimal", sol.Status)
	}
	if math.Abs(sol.Objective-2) > 1e-6 {
		t.Errorf("objective = %f, expected all weight on the cheap variable", sol.Objective)
	}
}

func TestSimplexAppliesOffset(t *testing.T) {
	m := &Model{Offset: 10}
	m.AddColumn(1, 0, Inf())
	m.AddDenseRow(1, []float64{1}, Inf())

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if math.Abs(sol.Objective-11) > 1e-6 {
		t.Errorf("objective = %f, expected offset included", sol.Objective)
	}
}

func TestSimplexReportsInfeasible(t *testing.T) {
	m := &Model{}
	m.AddColumn(1, 0, Inf())
	m.AddDenseRow(-Inf(), []float64{1}, -1) // x <= -1 with x >= 0

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusInfeasible {
		t.Errorf("Solve() status = %s, expected infeasible", sol.Status)
	}
}

func TestSimplexReportsUnbounded(t *testing.T) {
	m := &Model{}
	m.AddColumn(-1, 0, Inf()) // maximize x with no cap

	sol, err := NewSimplex().Solve(context.Background(), m)
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if sol.Status != StatusUnbounded {
		t.Errorf("Solve() status = %s, expected unbounded", sol.Status)
	}
}
