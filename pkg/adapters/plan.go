// Package adapters provides adapter implementations between different package interfaces.
package adapters

import (
	"github.com/powersim/capex-planner/internal/config"
	"github.com/powersim/capex-planner/internal/plan"
	"gonum.org/v1/gonum/mat"
)

// DeterministicScenarioName labels the implicit scenario synthesized for
// configurations without a scenarios block.
const DeterministicScenarioName = "deterministic"

// BuildProblem converts a validated configuration into the immutable problem
// data. Configurations without scenarios get the single implicit scenario
// with probability 1 and widths taken from the demand slices.
func BuildProblem(conf *config.Configuration) (*plan.Problem, error) {
	technologies := make([]plan.Technology, len(conf.Technologies))
	for i, tech := range conf.Technologies {
		technologies[i] = plan.Technology{
			Name:           tech.Name,
			MarginalCost:   tech.MarginalCost,
			InvestmentCost: tech.InvestmentCost,
		}
	}

	slices := make([]plan.DemandSlice, len(conf.DemandSlices))
	for s, slice := range conf.DemandSlices {
		slices[s] = plan.DemandSlice{
			Name:     slice.Name,
			Duration: slice.Duration,
		}
	}

	var scenarios []plan.Scenario
	var widths *mat.Dense
	if len(conf.Scenarios) == 0 {
		scenarios = []plan.Scenario{{Name: DeterministicScenarioName, Probability: 1}}
		widths = mat.NewDense(len(slices), 1, nil)
		for s, slice := range conf.DemandSlices {
			widths.Set(s, 0, slice.Width())
		}
	} else {
		scenarios = make([]plan.Scenario, len(conf.Scenarios))
		widths = mat.NewDense(len(slices), len(conf.Scenarios), nil)
		for w, scenario := range conf.Scenarios {
			scenarios[w] = plan.Scenario{
				Name:        scenario.Name,
				Probability: scenario.Probability,
			}
			for s, width := range scenario.Widths {
				widths.Set(s, w, width)
			}
		}
	}

	return plan.NewProblem(technologies, slices, scenarios, widths)
}
