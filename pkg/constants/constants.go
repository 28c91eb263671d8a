// Package constants provides shared constants for the capex-planner application.
package constants

// Decomposition defaults
const (
	// DefaultVOLL is the default penalty price for unserved energy. It must
	// dominate every technology's marginal cost; its exact magnitude is a
	// policy knob rather than an algorithmic requirement.
	DefaultVOLL = 1000.0

	// DefaultTolerance is the default absolute convergence tolerance on the
	// bound gap.
	DefaultTolerance = 1e-3

	// DefaultMaxIterations caps the decomposition loop when the gap never
	// closes.
	DefaultMaxIterations = 50

	// ProbabilityTolerance is the allowed deviation of the scenario
	// probability mass from 1.
	ProbabilityTolerance = 1e-6

	// ComparisonTolerance is the slack allowed in floating-point comparisons
	// of bounds, cut values, and dispatch levels.
	ComparisonTolerance = 1e-6
)

// Cut mode constants
const (
	// CutModeAggregate builds a single expectation cut per iteration.
	CutModeAggregate = "aggregate"

	// CutModeMulti builds one cut per scenario per iteration.
	CutModeMulti = "multi"
)

// Solver backend constants
const (
	// SolverHighs selects the HiGHS bindings backend.
	SolverHighs = "highs"

	// SolverSimplex selects the pure-Go gonum simplex backend. It reports no
	// dual prices and is therefore only eligible for the master problem.
	SolverSimplex = "simplex"
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// ExampleConfigFile is the example configuration file name
	ExampleConfigFile = "config.yaml.example"
)
