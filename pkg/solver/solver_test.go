package solver

import (
	"context"
	"math"
	"testing"
	"time"
)

// stubSolver returns a canned solution after an optional delay.
type stubSolver struct {
	sol   *Solution
	err   error
	delay time.Duration
}

func (s *stubSolver) Name() string        { return "stub" }
func (s *stubSolver) SuppliesDuals() bool { return true }

func (s *stubSolver) Solve(ctx context.Context, m *Model) (*Solution, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.sol, s.err
}

func TestModelAddColumn(t *testing.T) {
	m := &Model{}
	col := m.AddColumn(2.5, 0, Inf())
	if col != 0 || m.NumCols() != 1 {
		t.Fatalf("AddColumn() index = %d, cols = %d", col, m.NumCols())
	}
	if m.ColCosts[0] != 2.5 || m.ColLower[0] != 0 || !math.IsInf(m.ColUpper[0], 1) {
		t.Errorf("column stored as cost=%f bounds=[%f,%f]", m.ColCosts[0], m.ColLower[0], m.ColUpper[0])
	}
}

func TestModelAddDenseRowSkipsZeros(t *testing.T) {
	m := &Model{}
	m.AddColumn(1, 0, Inf())
	m.AddColumn(1, 0, Inf())
	m.AddColumn(1, 0, Inf())

	row := m.AddDenseRow(1, []float64{1, 0, -2}, 5)
	if row != 0 || m.NumRows() != 1 {
		t.Fatalf("AddDenseRow() index = %d, rows = %d", row, m.NumRows())
	}
	if len(m.ConstMatrix) != 2 {
		t.Fatalf("ConstMatrix has %d entries, expected zeros dropped", len(m.ConstMatrix))
	}
	if m.ConstMatrix[1] != (Nonzero{Row: 0, Col: 2, Val: -2}) {
		t.Errorf("second entry = %+v", m.ConstMatrix[1])
	}
	if m.RowLower[0] != 1 || m.RowUpper[0] != 5 {
		t.Errorf("row bounds = [%f,%f]", m.RowLower[0], m.RowUpper[0])
	}
}

func TestModelAddRowSparse(t *testing.T) {
	m := &Model{}
	for i := 0; i < 4; i++ {
		m.AddColumn(0, 0, Inf())
	}

	row := m.AddRow(2, []int{0, 3}, []float64{1, 1}, 2)
	if row != 0 {
		t.Fatalf("AddRow() index = %d", row)
	}
	if len(m.ConstMatrix) != 2 {
		t.Fatalf("ConstMatrix has %d entries, expected 2", len(m.ConstMatrix))
	}
	if m.RowLower[0] != m.RowUpper[0] {
		t.Errorf("equality row bounds differ: [%f,%f]", m.RowLower[0], m.RowUpper[0])
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status   Status
		expected string
	}{
		{StatusOptimal, "optimal"},
		{StatusInfeasible, "infeasible"},
		{StatusUnbounded, "unbounded"},
		{StatusOther, "other"},
	}
	for _, tt := range tests {
		if tt.status.String() != tt.expected {
			t.Errorf("Status(%d).String() = %s, expected %s", tt.status, tt.status.String(), tt.expected)
		}
	}
}

func TestWithTimeoutZeroIsPassthrough(t *testing.T) {
	inner := &stubSolver{sol: &Solution{Status: StatusOptimal}}
	if WithTimeout(inner, 0) != Solver(inner) {
		t.Errorf("WithTimeout(s, 0) should return the solver unchanged")
	}
}

func TestWithTimeoutSuccessUnchanged(t *testing.T) {
	want := &Solution{Status: StatusOptimal, Objective: 42}
	s := WithTimeout(&stubSolver{sol: want}, time.Second)

	got, err := s.Solve(context.Background(), &Model{})
	if err != nil {
		t.Fatalf("Solve() error = %v", err)
	}
	if got != want {
		t.Errorf("Solve() result was altered by the timeout wrapper")
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	s := WithTimeout(&stubSolver{sol: &Solution{}, delay: 200 * time.Millisecond}, 5*time.Millisecond)

	_, err := s.Solve(context.Background(), &Model{})
	if err == nil {
		t.Fatalf("Solve() expected a timeout error")
	}
}
