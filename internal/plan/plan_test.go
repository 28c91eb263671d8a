package plan

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func testProblem(t *testing.T) *Problem {
	t.Helper()
	problem, err := NewProblem(
		[]Technology{
			{Name: "baseload", MarginalCost: 10, InvestmentCost: 1000},
			{Name: "peaker", MarginalCost: 50, InvestmentCost: 200},
		},
		[]DemandSlice{
			{Name: "peak", Duration: 1},
			{Name: "base", Duration: 8},
		},
		[]Scenario{
			{Name: "low", Probability: 0.5},
			{Name: "high", Probability: 0.5},
		},
		mat.NewDense(2, 2, []float64{
			80, 120,
			40, 60,
		}),
	)
	if err != nil {
		t.Fatalf("NewProblem() error = %v", err)
	}
	return problem
}

func TestNewProblemValidation(t *testing.T) {
	technologies := []Technology{{Name: "a", InvestmentCost: 1}}
	slices := []DemandSlice{{Duration: 1}}
	scenarios := []Scenario{{Name: "s", Probability: 1}}

	tests := []struct {
		name         string
		technologies []Technology
		slices       []DemandSlice
		scenarios    []Scenario
		widths       *mat.Dense
	}{
		{
			name:      "no technologies",
			slices:    slices,
			scenarios: scenarios,
			widths:    mat.NewDense(1, 1, []float64{1}),
		},
		{
			name:         "no slices",
			technologies: technologies,
			scenarios:    scenarios,
			widths:       mat.NewDense(1, 1, []float64{1}),
		},
		{
			name:         "no scenarios",
			technologies: technologies,
			slices:       slices,
			widths:       mat.NewDense(1, 1, []float64{1}),
		},
		{
			name:         "widths shape mismatch",
			technologies: technologies,
			slices:       slices,
			scenarios:    scenarios,
			widths:       mat.NewDense(2, 1, []float64{1, 2}),
		},
		{
			name:         "negative width",
			technologies: technologies,
			slices:       slices,
			scenarios:    scenarios,
			widths:       mat.NewDense(1, 1, []float64{-1}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewProblem(tt.technologies, tt.slices, tt.scenarios, tt.widths); err == nil {
				t.Errorf("NewProblem() expected an error")
			}
		})
	}
}

func TestProblemAccessors(t *testing.T) {
	problem := testProblem(t)

	if problem.NumTechnologies() != 2 || problem.NumSlices() != 2 || problem.NumScenarios() != 2 {
		t.Fatalf("unexpected dimensions %d/%d/%d", problem.NumTechnologies(), problem.NumSlices(), problem.NumScenarios())
	}
	if problem.Technology(1).Name != "peaker" {
		t.Errorf("Technology(1).Name = %s, expected peaker", problem.Technology(1).Name)
	}
	if problem.Width(0, 1) != 120 {
		t.Errorf("Width(0,1) = %f, expected 120", problem.Width(0, 1))
	}
	if problem.MaxWidth() != 120 {
		t.Errorf("MaxWidth() = %f, expected 120", problem.MaxWidth())
	}

	names := problem.TechnologyNames()
	if names[0] != "baseload" || names[1] != "peaker" {
		t.Errorf("TechnologyNames() = %v, expected fixed problem order", names)
	}
	scenarioNames := problem.ScenarioNames()
	if scenarioNames[0] != "low" || scenarioNames[1] != "high" {
		t.Errorf("ScenarioNames() = %v, expected fixed problem order", scenarioNames)
	}
}

func TestProblemIsImmutableAfterBuild(t *testing.T) {
	technologies := []Technology{{Name: "a", InvestmentCost: 1}}
	widths := mat.NewDense(1, 1, []float64{100})
	problem, err := NewProblem(technologies, []DemandSlice{{Duration: 1}}, []Scenario{{Name: "s", Probability: 1}}, widths)
	if err != nil {
		t.Fatalf("NewProblem() error = %v", err)
	}

	technologies[0].Name = "mutated"
	widths.Set(0, 0, 1e9)

	if problem.Technology(0).Name != "a" {
		t.Errorf("technology mutated through the input slice")
	}
	if problem.Width(0, 0) != 100 {
		t.Errorf("width mutated through the input matrix")
	}
}

func TestInvestmentCost(t *testing.T) {
	problem := testProblem(t)

	cost := problem.InvestmentCost([]float64{10, 100})
	expected := 1000.0*10 + 200.0*100
	if math.Abs(cost-expected) > 1e-9 {
		t.Errorf("InvestmentCost() = %f, expected %f", cost, expected)
	}
}

func TestExpectedValue(t *testing.T) {
	problem := testProblem(t)

	value := problem.ExpectedValue([]float64{100, 300})
	if math.Abs(value-200) > 1e-9 {
		t.Errorf("ExpectedValue() = %f, expected 200", value)
	}
}
