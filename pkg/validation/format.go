// Package validation provides common validation utilities.
package validation

import (
	"fmt"

	"github.com/powersim/capex-planner/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// ValidateSolverChoice checks if the solver backend name is supported.
func ValidateSolverChoice(name string) error {
	if name != constants.SolverHighs && name != constants.SolverSimplex {
		return fmt.Errorf("expected solver of %s or %s, got %s",
			constants.SolverHighs, constants.SolverSimplex, name)
	}
	return nil
}
