package benders

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/powersim/capex-planner/internal/plan"
	"github.com/powersim/capex-planner/pkg/constants"
	"github.com/powersim/capex-planner/pkg/solver"
)

// ErrMasterInfeasible marks a non-optimal master solve. The master is
// trivially feasible at x=0, theta=0, so this signals an external or data
// defect and aborts the run.
var ErrMasterInfeasible = errors.New("master infeasible")

// MasterSolution is the result of one master solve.
type MasterSolution struct {
	// Investment is the candidate investment vector, one entry per
	// technology in problem order.
	Investment []float64
	// Theta holds the recourse proxy: one entry in aggregate mode, one per
	// scenario in multi-cut mode.
	Theta []float64
	// Objective is the master objective, the current lower bound.
	Objective float64
}

// Master owns the investment problem: variables, objective, and the
// append-only accumulated cut set. Cuts are never removed or strengthened.
type Master struct {
	logger          *zap.Logger
	problem         *plan.Problem
	lp              solver.Solver
	multiCut        bool
	cuts            []Cut
	feasibilityCuts int
}

// NewMaster constructs a Master for the given cut mode.
func NewMaster(logger *zap.Logger, problem *plan.Problem, lp solver.Solver, cutMode string) (*Master, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if problem == nil {
		return nil, fmt.Errorf("problem cannot be nil")
	}
	switch cutMode {
	case constants.CutModeAggregate, constants.CutModeMulti:
	default:
		return nil, fmt.Errorf("unknown cut mode %q", cutMode)
	}
	return &Master{
		logger:   logger,
		problem:  problem,
		lp:       lp,
		multiCut: cutMode == constants.CutModeMulti,
	}, nil
}

// NumThetas returns the number of recourse proxy variables.
func (m *Master) NumThetas() int {
	if m.multiCut {
		return m.problem.NumScenarios()
	}
	return 1
}

// NumCuts returns the number of accumulated optimality cuts.
func (m *Master) NumCuts() int {
	return len(m.cuts)
}

// NumFeasibilityCuts returns the number of accumulated feasibility cuts.
func (m *Master) NumFeasibilityCuts() int {
	return m.feasibilityCuts
}

// AddOptimalityCut permanently appends an optimality cut.
func (m *Master) AddOptimalityCut(cut Cut) {
	m.cuts = append(m.cuts, cut)
}

// AddFeasibilityCut appends the defensive inequality
// sum_i x_i >= max demand width. It compares aggregate capacity across
// heterogeneous technologies to a single slice's width and is kept only as
// the fallback for the unreachable subproblem-infeasible path.
func (m *Master) AddFeasibilityCut() {
	m.feasibilityCuts++
}

// Solve rebuilds the investment LP from the current cut set and solves it.
// The rebuild is stateless, so re-solving with unchanged cuts yields the
// same objective.
func (m *Master) Solve(ctx context.Context) (*MasterSolution, error) {
	model := m.buildModel()

	sol, err := m.lp.Solve(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("master solve: %w", err)
	}
	if sol.Status != solver.StatusOptimal {
		return nil, fmt.Errorf("%w: solver %s returned status %s with %d cuts",
			ErrMasterInfeasible, m.lp.Name(), sol.Status, len(m.cuts))
	}

	numTech := m.problem.NumTechnologies()
	out := &MasterSolution{
		Investment: append([]float64(nil), sol.ColumnPrimal[:numTech]...),
		Theta:      append([]float64(nil), sol.ColumnPrimal[numTech:numTech+m.NumThetas()]...),
		Objective:  sol.Objective,
	}

	m.logger.Debug("master solved",
		zap.String("op", "benders.Master.Solve"),
		zap.Int("cuts", len(m.cuts)),
		zap.Float64("objective", out.Objective),
	)

	return out, nil
}

// buildModel lays out columns as [x_0..x_{n-1}, theta...] with the
// investment costs and theta weights in the objective, one row per
// accumulated cut.
func (m *Master) buildModel() *solver.Model {
	numTech := m.problem.NumTechnologies()
	model := &solver.Model{}

	for i := 0; i < numTech; i++ {
		model.AddColumn(m.problem.Technology(i).InvestmentCost, 0, solver.Inf())
	}
	if m.multiCut {
		for w := 0; w < m.problem.NumScenarios(); w++ {
			model.AddColumn(m.problem.Scenario(w).Probability, 0, solver.Inf())
		}
	} else {
		model.AddColumn(1, 0, solver.Inf())
	}

	// theta - gradient . x >= intercept
	for _, cut := range m.cuts {
		thetaCol := numTech
		if m.multiCut {
			thetaCol += cut.Scenario
		}
		cols := make([]int, 0, numTech+1)
		vals := make([]float64, 0, numTech+1)
		cols = append(cols, thetaCol)
		vals = append(vals, 1)
		for i := 0; i < numTech; i++ {
			cols = append(cols, i)
			vals = append(vals, -cut.Gradient.AtVec(i))
		}
		model.AddRow(cut.Intercept, cols, vals, solver.Inf())
	}

	for k := 0; k < m.feasibilityCuts; k++ {
		cols := make([]int, numTech)
		vals := make([]float64, numTech)
		for i := 0; i < numTech; i++ {
			cols[i] = i
			vals[i] = 1
		}
		model.AddRow(m.problem.MaxWidth(), cols, vals, solver.Inf())
	}

	return model
}
