package benders

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/powersim/capex-planner/internal/dispatch"
	"github.com/powersim/capex-planner/internal/plan"
)

func stochasticProblem(t *testing.T) *plan.Problem {
	t.Helper()
	problem, err := plan.NewProblem(
		[]plan.Technology{
			{Name: "baseload", MarginalCost: 10, InvestmentCost: 1000},
			{Name: "peaker", MarginalCost: 50, InvestmentCost: 200},
		},
		[]plan.DemandSlice{{Name: "peak", Duration: 1}},
		[]plan.Scenario{
			{Name: "low", Probability: 0.25},
			{Name: "high", Probability: 0.75},
		},
		mat.NewDense(1, 2, []float64{80, 120}),
	)
	if err != nil {
		t.Fatalf("NewProblem() error = %v", err)
	}
	return problem
}

func TestCutEval(t *testing.T) {
	cut := Cut{
		Intercept: 100,
		Gradient:  mat.NewVecDense(2, []float64{-3, -5}),
		Scenario:  AggregateScenario,
	}

	value := cut.Eval([]float64{10, 4})
	if math.Abs(value-50) > 1e-9 {
		t.Errorf("Eval() = %f, expected 100 - 30 - 20 = 50", value)
	}
}

func TestScenarioCutCoefficients(t *testing.T) {
	problem := stochasticProblem(t)
	sols := []*dispatch.Solution{
		{Lambda: []float64{1000}, Rho: []float64{-990, -950}},
		{Lambda: []float64{50}, Rho: []float64{0, 0}},
	}

	cuts := ScenarioCuts(problem, sols)
	if len(cuts) != 2 {
		t.Fatalf("ScenarioCuts() returned %d cuts, expected one per scenario", len(cuts))
	}

	if cuts[0].Scenario != 0 || cuts[1].Scenario != 1 {
		t.Errorf("cut scenario bindings = %d/%d, expected 0/1", cuts[0].Scenario, cuts[1].Scenario)
	}
	// intercept_w = sum_s lambda[s] * width[s,w]
	if math.Abs(cuts[0].Intercept-1000*80) > 1e-9 {
		t.Errorf("low-scenario intercept = %f, expected 80000", cuts[0].Intercept)
	}
	if math.Abs(cuts[1].Intercept-50*120) > 1e-9 {
		t.Errorf("high-scenario intercept = %f, expected 6000", cuts[1].Intercept)
	}
	if cuts[0].Gradient.AtVec(1) != -950 {
		t.Errorf("low-scenario gradient = %v, expected the raw capacity dual", cuts[0].Gradient.RawVector().Data)
	}
}

// The aggregate cut must equal the probability-weighted sum of the scenario
// cuts built from the same dispatch solutions.
func TestAggregateCutIsWeightedScenarioCuts(t *testing.T) {
	problem := stochasticProblem(t)
	sols := []*dispatch.Solution{
		{Lambda: []float64{1000}, Rho: []float64{-990, -950}},
		{Lambda: []float64{50}, Rho: []float64{0, -10}},
	}

	aggregate := AggregateCut(problem, sols)
	scenarioCuts := ScenarioCuts(problem, sols)

	expectedIntercept := 0.0
	expectedGradient := mat.NewVecDense(problem.NumTechnologies(), nil)
	for w, cut := range scenarioCuts {
		p := problem.Scenario(w).Probability
		expectedIntercept += p * cut.Intercept
		for i := 0; i < problem.NumTechnologies(); i++ {
			expectedGradient.SetVec(i, expectedGradient.AtVec(i)+p*cut.Gradient.AtVec(i))
		}
	}

	if math.Abs(aggregate.Intercept-expectedIntercept) > 1e-9 {
		t.Errorf("aggregate intercept = %f, expected %f", aggregate.Intercept, expectedIntercept)
	}
	for i := 0; i < problem.NumTechnologies(); i++ {
		if math.Abs(aggregate.Gradient.AtVec(i)-expectedGradient.AtVec(i)) > 1e-9 {
			t.Errorf("aggregate gradient[%d] = %f, expected %f", i, aggregate.Gradient.AtVec(i), expectedGradient.AtVec(i))
		}
	}
	if aggregate.Scenario != AggregateScenario {
		t.Errorf("aggregate cut scenario = %d, expected AggregateScenario", aggregate.Scenario)
	}
}
