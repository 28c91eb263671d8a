// Package plan defines the immutable problem data shared by the master and
// subproblem stages: technologies, demand slices, and demand scenarios.
package plan

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Technology is one candidate generation technology.
type Technology struct {
	Name           string
	MarginalCost   float64
	InvestmentCost float64
}

// DemandSlice is one block of the load-duration curve with a duration weight.
type DemandSlice struct {
	Name     string
	Duration float64
}

// Scenario is one demand realization with its probability. A deterministic
// problem is represented as the single implicit scenario with probability 1.
type Scenario struct {
	Name        string
	Probability float64
}

// Problem is the read-only problem data. Field order is fixed at build time
// and drives the iteration-log column order.
type Problem struct {
	technologies []Technology
	slices       []DemandSlice
	scenarios    []Scenario
	widths       *mat.Dense // slices x scenarios demand widths
	maxWidth     float64
}

// NewProblem assembles a Problem from already-validated inputs. The widths
// matrix holds one demand width per (slice, scenario).
func NewProblem(technologies []Technology, slices []DemandSlice, scenarios []Scenario, widths *mat.Dense) (*Problem, error) {
	if len(technologies) == 0 {
		return nil, fmt.Errorf("problem requires at least one technology")
	}
	if len(slices) == 0 {
		return nil, fmt.Errorf("problem requires at least one demand slice")
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("problem requires at least one scenario")
	}
	rows, cols := widths.Dims()
	if rows != len(slices) || cols != len(scenarios) {
		return nil, fmt.Errorf("widths matrix is %dx%d, expected %dx%d", rows, cols, len(slices), len(scenarios))
	}

	maxWidth := 0.0
	for s := 0; s < rows; s++ {
		for w := 0; w < cols; w++ {
			width := widths.At(s, w)
			if width < 0 {
				return nil, fmt.Errorf("negative demand width %f at slice %d scenario %d", width, s, w)
			}
			if width > maxWidth {
				maxWidth = width
			}
		}
	}

	p := &Problem{
		technologies: append([]Technology(nil), technologies...),
		slices:       append([]DemandSlice(nil), slices...),
		scenarios:    append([]Scenario(nil), scenarios...),
		widths:       mat.DenseCopyOf(widths),
		maxWidth:     maxWidth,
	}
	return p, nil
}

// NumTechnologies returns the technology count.
func (p *Problem) NumTechnologies() int {
	return len(p.technologies)
}

// NumSlices returns the demand slice count.
func (p *Problem) NumSlices() int {
	return len(p.slices)
}

// NumScenarios returns the scenario count.
func (p *Problem) NumScenarios() int {
	return len(p.scenarios)
}

// Technology returns the technology at index i.
func (p *Problem) Technology(i int) Technology {
	return p.technologies[i]
}

// Slice returns the demand slice at index s.
func (p *Problem) Slice(s int) DemandSlice {
	return p.slices[s]
}

// Scenario returns the scenario at index w.
func (p *Problem) Scenario(w int) Scenario {
	return p.scenarios[w]
}

// Width returns the demand width of slice s under scenario w.
func (p *Problem) Width(s, w int) float64 {
	return p.widths.At(s, w)
}

// MaxWidth returns the largest demand width across all slices and scenarios.
func (p *Problem) MaxWidth() float64 {
	return p.maxWidth
}

// TechnologyNames returns the ordered technology names.
func (p *Problem) TechnologyNames() []string {
	names := make([]string, len(p.technologies))
	for i, tech := range p.technologies {
		names[i] = tech.Name
	}
	return names
}

// ScenarioNames returns the ordered scenario names.
func (p *Problem) ScenarioNames() []string {
	names := make([]string, len(p.scenarios))
	for w, scenario := range p.scenarios {
		names[w] = scenario.Name
	}
	return names
}

// InvestmentCost returns the total investment cost of the investment vector x.
func (p *Problem) InvestmentCost(x []float64) float64 {
	costs := make([]float64, len(p.technologies))
	for i, tech := range p.technologies {
		costs[i] = tech.InvestmentCost
	}
	return mat.Dot(mat.NewVecDense(len(costs), costs), mat.NewVecDense(len(x), x))
}

// ExpectedValue returns the probability-weighted sum of per-scenario values.
func (p *Problem) ExpectedValue(values []float64) float64 {
	total := 0.0
	for w, scenario := range p.scenarios {
		total += scenario.Probability * values[w]
	}
	return total
}
