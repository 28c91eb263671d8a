// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/powersim/capex-planner/pkg/constants"
	"github.com/spf13/viper"
)

// ErrData marks malformed or inconsistent input data. No optimization runs
// after a data error.
var ErrData = errors.New("data error")

// Configuration holds all configuration for capex-planner.
type Configuration struct {
	Technologies []Technology
	DemandSlices []DemandSlice
	Scenarios    []Scenario
	Benders      BendersConfig `yaml:"benders,omitempty"`
	Logging      LoggingConfig `yaml:"logging,omitempty"`
	Output       OutputConfig  `yaml:"output,omitempty"`
}

// Technology describes one candidate generation technology.
type Technology struct {
	Name           string
	MarginalCost   float64
	InvestmentCost float64
}

// DemandSlice describes one block of the load-duration curve. Width is
// MaxLevel - MinLevel; stochastic runs may override it per scenario.
type DemandSlice struct {
	Name     string
	Duration float64
	MinLevel float64
	MaxLevel float64
}

// Width returns the demand width of the slice.
func (s DemandSlice) Width() float64 {
	return s.MaxLevel - s.MinLevel
}

// Scenario describes one realization of uncertain demand. Widths carries one
// demand width per slice, in slice order.
type Scenario struct {
	Name        string
	Probability float64
	Widths      []float64
}

// BendersConfig holds the decomposition options.
type BendersConfig struct {
	CutMode       string        `yaml:"cutMode,omitempty"`
	Tolerance     *float64      `yaml:"tolerance,omitempty"`
	MaxIterations int           `yaml:"maxIterations,omitempty"`
	VOLL          float64       `yaml:"voll,omitempty"`
	Workers       int           `yaml:"workers,omitempty"`
	Solver        string        `yaml:"solver,omitempty"`
	MasterSolver  string        `yaml:"masterSolver,omitempty"`
	SolverTimeout time.Duration `yaml:"solverTimeout,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.ApplyDefaults()

	return &configuration, nil
}

// ApplyDefaults fills in unset decomposition options.
func (conf *Configuration) ApplyDefaults() {
	if conf.Benders.CutMode == "" {
		conf.Benders.CutMode = constants.CutModeAggregate
	}
	if conf.Benders.Tolerance == nil {
		tol := constants.DefaultTolerance
		conf.Benders.Tolerance = &tol
	}
	if conf.Benders.MaxIterations == 0 {
		conf.Benders.MaxIterations = constants.DefaultMaxIterations
	}
	if conf.Benders.VOLL == 0 {
		conf.Benders.VOLL = constants.DefaultVOLL
	}
	if conf.Benders.Solver == "" {
		conf.Benders.Solver = constants.SolverHighs
	}
	if conf.Benders.MasterSolver == "" {
		conf.Benders.MasterSolver = conf.Benders.Solver
	}
}

// Validate checks the configuration for hard data errors. Any failure wraps
// ErrData and stops the run before any optimization.
func (conf *Configuration) Validate() error {
	if len(conf.Technologies) == 0 {
		return fmt.Errorf("%w: at least one technology is required", ErrData)
	}
	if len(conf.DemandSlices) == 0 {
		return fmt.Errorf("%w: at least one demand slice is required", ErrData)
	}

	seen := make(map[string]bool, len(conf.Technologies))
	for _, tech := range conf.Technologies {
		if tech.Name == "" {
			return fmt.Errorf("%w: technology with empty name", ErrData)
		}
		if seen[tech.Name] {
			return fmt.Errorf("%w: duplicate technology name %q", ErrData, tech.Name)
		}
		seen[tech.Name] = true
		if tech.MarginalCost < 0 {
			return fmt.Errorf("%w: technology %q has negative marginal cost %f", ErrData, tech.Name, tech.MarginalCost)
		}
		if tech.InvestmentCost < 0 {
			return fmt.Errorf("%w: technology %q has negative investment cost %f", ErrData, tech.Name, tech.InvestmentCost)
		}
	}

	for i, slice := range conf.DemandSlices {
		if slice.Duration <= 0 {
			return fmt.Errorf("%w: demand slice %d has non-positive duration %f", ErrData, i, slice.Duration)
		}
		if slice.MaxLevel < slice.MinLevel {
			return fmt.Errorf("%w: demand slice %d has max level %f below min level %f", ErrData, i, slice.MaxLevel, slice.MinLevel)
		}
	}

	if len(conf.Scenarios) > 0 {
		mass := 0.0
		for i, scenario := range conf.Scenarios {
			if scenario.Probability <= 0 || scenario.Probability > 1 {
				return fmt.Errorf("%w: scenario %d probability %f is outside (0,1]", ErrData, i, scenario.Probability)
			}
			mass += scenario.Probability
			if len(scenario.Widths) != len(conf.DemandSlices) {
				return fmt.Errorf("%w: scenario %d has %d widths for %d demand slices", ErrData, i, len(scenario.Widths), len(conf.DemandSlices))
			}
			for j, width := range scenario.Widths {
				if width < 0 {
					return fmt.Errorf("%w: scenario %d slice %d has negative width %f", ErrData, i, j, width)
				}
			}
		}
		if math.Abs(mass-1) > constants.ProbabilityTolerance {
			return fmt.Errorf("%w: scenario probabilities sum to %f, expected 1", ErrData, mass)
		}
	}

	if err := conf.validateBenders(); err != nil {
		return err
	}

	return nil
}

func (conf *Configuration) validateBenders() error {
	b := conf.Benders
	if b.CutMode != constants.CutModeAggregate && b.CutMode != constants.CutModeMulti {
		return fmt.Errorf("%w: expected cut mode of %s or %s, got %s",
			ErrData, constants.CutModeAggregate, constants.CutModeMulti, b.CutMode)
	}
	if b.Tolerance != nil && *b.Tolerance < 0 {
		return fmt.Errorf("%w: negative convergence tolerance %f", ErrData, *b.Tolerance)
	}
	if b.MaxIterations < 1 {
		return fmt.Errorf("%w: iteration cap %d must be at least 1", ErrData, b.MaxIterations)
	}
	if b.VOLL <= 0 {
		return fmt.Errorf("%w: unserved energy price %f must be positive", ErrData, b.VOLL)
	}
	if b.Workers < 0 {
		return fmt.Errorf("%w: negative worker count %d", ErrData, b.Workers)
	}
	if b.SolverTimeout < 0 {
		return fmt.Errorf("%w: negative solver timeout %s", ErrData, b.SolverTimeout)
	}
	return nil
}

// ValidateConfiguration performs non-fatal sanity checks and returns any
// warnings. The run proceeds regardless.
func (conf *Configuration) ValidateConfiguration() []string {
	var warnings []string

	for _, tech := range conf.Technologies {
		if tech.MarginalCost >= conf.Benders.VOLL {
			warnings = append(warnings, fmt.Sprintf("Technology '%s' marginal cost %.2f is not dominated by the unserved energy price %.2f - load may be shed at the optimum even when capacity is affordable",
				tech.Name, tech.MarginalCost, conf.Benders.VOLL))
		}
	}

	for i, slice := range conf.DemandSlices {
		if slice.Width() == 0 {
			warnings = append(warnings, fmt.Sprintf("Demand slice %d has zero width and will not constrain investment", i))
		}
	}

	if len(conf.Scenarios) == 1 {
		warnings = append(warnings, fmt.Sprintf("Single scenario '%s' with probability 1 is equivalent to a deterministic run", conf.Scenarios[0].Name))
	}

	return warnings
}
