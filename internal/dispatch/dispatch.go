// Package dispatch evaluates the second-stage dispatch problem: for a fixed
// investment vector and one demand scenario it allocates generation and
// unserved energy at minimum operating cost and extracts the dual prices the
// cut generator needs.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/powersim/capex-planner/internal/plan"
	"github.com/powersim/capex-planner/pkg/solver"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// ErrSubproblemInfeasible marks a dispatch solve the solver reported
// infeasible. The unserved-energy slack makes the dispatch problem feasible
// for every non-negative investment, so this is defensive: the loop recovers
// with a feasibility cut instead of aborting.
var ErrSubproblemInfeasible = errors.New("subproblem infeasible")

// Solution is the dispatch result for one (investment, scenario) pair.
type Solution struct {
	// Objective is the dispatch cost Q(x, scenario).
	Objective float64
	// Lambda holds the demand-balance dual price per slice.
	Lambda []float64
	// Rho holds the capacity dual price per technology.
	Rho []float64
	// Dispatch holds the generation level per (technology, slice).
	Dispatch *mat.Dense
	// Unserved holds the unserved energy per slice.
	Unserved []float64
}

// TotalUnserved returns the duration-weighted unserved energy.
func (sol *Solution) TotalUnserved(problem *plan.Problem) float64 {
	total := 0.0
	for s, lol := range sol.Unserved {
		total += problem.Slice(s).Duration * lol
	}
	return total
}

// Evaluator builds and solves dispatch problems. The model is rebuilt from
// scratch per evaluation, so evaluations are stateless and safe to run
// concurrently for different scenarios.
type Evaluator struct {
	logger  *zap.Logger
	problem *plan.Problem
	voll    float64
	lp      solver.Solver
}

// NewEvaluator constructs an Evaluator. The solver must supply dual prices;
// without them no valid cut can be generated.
func NewEvaluator(logger *zap.Logger, problem *plan.Problem, voll float64, lp solver.Solver) (*Evaluator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if problem == nil {
		return nil, fmt.Errorf("problem cannot be nil")
	}
	if voll <= 0 {
		return nil, fmt.Errorf("unserved energy price %f must be positive", voll)
	}
	if !lp.SuppliesDuals() {
		return nil, fmt.Errorf("solver %s supplies no dual prices and cannot serve the dispatch stage", lp.Name())
	}
	return &Evaluator{logger: logger, problem: problem, voll: voll, lp: lp}, nil
}

// Evaluate solves the dispatch problem for the fixed investment vector x and
// the given scenario and returns the objective together with the balance and
// capacity duals.
func (e *Evaluator) Evaluate(ctx context.Context, x []float64, scenario int) (*Solution, error) {
	numTech := e.problem.NumTechnologies()
	numSlices := e.problem.NumSlices()
	if len(x) != numTech {
		return nil, fmt.Errorf("investment vector has %d entries for %d technologies", len(x), numTech)
	}

	model, balanceRows, capacityRows := e.buildModel(x, scenario)

	sol, err := e.lp.Solve(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("dispatch solve for scenario %s: %w", e.problem.Scenario(scenario).Name, err)
	}

	switch sol.Status {
	case solver.StatusOptimal:
	case solver.StatusInfeasible:
		return nil, fmt.Errorf("%w: scenario %s", ErrSubproblemInfeasible, e.problem.Scenario(scenario).Name)
	default:
		return nil, fmt.Errorf("dispatch solve for scenario %s returned status %s", e.problem.Scenario(scenario).Name, sol.Status)
	}

	out := &Solution{
		Objective: sol.Objective,
		Lambda:    make([]float64, numSlices),
		Rho:       make([]float64, numTech),
		Dispatch:  mat.NewDense(numTech, numSlices, nil),
		Unserved:  make([]float64, numSlices),
	}
	for s := 0; s < numSlices; s++ {
		out.Lambda[s] = sol.RowDual[balanceRows[s]]
		out.Unserved[s] = sol.ColumnPrimal[e.unservedCol(s)]
		for i := 0; i < numTech; i++ {
			out.Dispatch.Set(i, s, sol.ColumnPrimal[e.dispatchCol(i, s)])
		}
	}
	for i := 0; i < numTech; i++ {
		out.Rho[i] = sol.RowDual[capacityRows[i]]
	}

	e.logger.Debug("dispatch solved",
		zap.String("op", "dispatch.Evaluate"),
		zap.String("scenario", e.problem.Scenario(scenario).Name),
		zap.Float64("objective", out.Objective),
	)

	return out, nil
}

// dispatchCol returns the column index of the generation variable for
// technology i in slice s.
func (e *Evaluator) dispatchCol(i, s int) int {
	return i*e.problem.NumSlices() + s
}

// unservedCol returns the column index of the unserved-energy variable for
// slice s.
func (e *Evaluator) unservedCol(s int) int {
	return e.problem.NumTechnologies()*e.problem.NumSlices() + s
}

// buildModel assembles the dispatch LP:
//
//	min  sum_{i,s} marginalCost_i * duration_s * p[i,s] + sum_s voll * duration_s * lol[s]
//	s.t. sum_i p[i,s] + lol[s] = width[s]   per slice  (balance, dual lambda)
//	     sum_s p[i,s] <= x_i                per tech   (capacity, dual rho)
//	     p, lol >= 0
func (e *Evaluator) buildModel(x []float64, scenario int) (model *solver.Model, balanceRows, capacityRows []int) {
	numTech := e.problem.NumTechnologies()
	numSlices := e.problem.NumSlices()

	model = &solver.Model{}
	for i := 0; i < numTech; i++ {
		mc := e.problem.Technology(i).MarginalCost
		for s := 0; s < numSlices; s++ {
			model.AddColumn(mc*e.problem.Slice(s).Duration, 0, solver.Inf())
		}
	}
	for s := 0; s < numSlices; s++ {
		model.AddColumn(e.voll*e.problem.Slice(s).Duration, 0, solver.Inf())
	}

	balanceRows = make([]int, numSlices)
	for s := 0; s < numSlices; s++ {
		cols := make([]int, 0, numTech+1)
		vals := make([]float64, 0, numTech+1)
		for i := 0; i < numTech; i++ {
			cols = append(cols, e.dispatchCol(i, s))
			vals = append(vals, 1)
		}
		cols = append(cols, e.unservedCol(s))
		vals = append(vals, 1)
		width := e.problem.Width(s, scenario)
		balanceRows[s] = model.AddRow(width, cols, vals, width)
	}

	capacityRows = make([]int, numTech)
	for i := 0; i < numTech; i++ {
		cols := make([]int, numSlices)
		vals := make([]float64, numSlices)
		for s := 0; s < numSlices; s++ {
			cols[s] = e.dispatchCol(i, s)
			vals[s] = 1
		}
		capacityRows[i] = model.AddRow(-solver.Inf(), cols, vals, x[i])
	}

	return model, balanceRows, capacityRows
}
