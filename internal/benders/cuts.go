// Package benders implements the cutting-plane decomposition core: the
// investment master problem, the cut generator, the iteration loop, and the
// iteration log.
package benders

import (
	"gonum.org/v1/gonum/mat"

	"github.com/powersim/capex-planner/internal/dispatch"
	"github.com/powersim/capex-planner/internal/plan"
)

// AggregateScenario marks a cut that bounds the expected recourse rather
// than a single scenario's.
const AggregateScenario = -1

// Cut is the affine inequality theta >= Intercept + Gradient . x. Scenario
// names the theta variable it binds: AggregateScenario for the scalar theta,
// otherwise the scenario index for theta_w.
type Cut struct {
	Intercept float64
	Gradient  *mat.VecDense
	Scenario  int
}

// Eval returns the cut's right-hand side at the investment vector x. At the
// generating point this equals the recourse value exactly (LP strong
// duality), which is what makes the cut a supporting hyperplane.
func (c Cut) Eval(x []float64) float64 {
	return c.Intercept + mat.Dot(c.Gradient, mat.NewVecDense(len(x), x))
}

// AggregateCut builds the expectation cut from one full set of scenario
// dispatch solutions: intercept and gradient are the probability-weighted
// sums of the scenario duals. The deterministic variant is the one-scenario,
// probability-1 special case.
func AggregateCut(problem *plan.Problem, sols []*dispatch.Solution) Cut {
	intercept := 0.0
	gradient := mat.NewVecDense(problem.NumTechnologies(), nil)

	for w, sol := range sols {
		p := problem.Scenario(w).Probability
		for s, lambda := range sol.Lambda {
			intercept += p * lambda * problem.Width(s, w)
		}
		for i, rho := range sol.Rho {
			gradient.SetVec(i, gradient.AtVec(i)+p*rho)
		}
	}

	return Cut{Intercept: intercept, Gradient: gradient, Scenario: AggregateScenario}
}

// ScenarioCuts builds one cut per scenario from one full set of scenario
// dispatch solutions. Tighter per iteration than the aggregate cut, at the
// price of a larger master.
func ScenarioCuts(problem *plan.Problem, sols []*dispatch.Solution) []Cut {
	cuts := make([]Cut, len(sols))
	for w, sol := range sols {
		intercept := 0.0
		for s, lambda := range sol.Lambda {
			intercept += lambda * problem.Width(s, w)
		}
		gradient := mat.NewVecDense(problem.NumTechnologies(), nil)
		for i, rho := range sol.Rho {
			gradient.SetVec(i, rho)
		}
		cuts[w] = Cut{Intercept: intercept, Gradient: gradient, Scenario: w}
	}
	return cuts
}
