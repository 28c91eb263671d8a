// Package output provides utilities for formatting and displaying the
// iteration log and final summary of a decomposition run.
package output

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/powersim/capex-planner/internal/benders"
	"github.com/powersim/capex-planner/internal/plan"
)

// headers returns the ordered column names: one investment column per
// technology and one theta column per recourse proxy variable. The order is
// fixed by the problem, not by map iteration.
func headers(problem *plan.Problem, multiCut bool) []string {
	cols := []string{"iter"}
	for _, name := range problem.TechnologyNames() {
		cols = append(cols, "x("+name+")")
	}
	if multiCut {
		for _, name := range problem.ScenarioNames() {
			cols = append(cols, "theta("+name+")")
		}
	} else {
		cols = append(cols, "theta")
	}
	return append(cols, "recourse", "LB", "UB", "gap", "cut")
}

func recordFields(record benders.IterationRecord) []string {
	fields := []string{fmt.Sprintf("%d", record.Index)}
	for _, x := range record.Investment {
		fields = append(fields, fmt.Sprintf("%.4f", x))
	}
	for _, theta := range record.Theta {
		fields = append(fields, fmt.Sprintf("%.4f", theta))
	}
	recourse := "-"
	if record.RecourseDefined {
		recourse = fmt.Sprintf("%.4f", record.Recourse)
	}
	return append(fields,
		recourse,
		fmt.Sprintf("%.4f", record.LowerBound),
		fmt.Sprintf("%.4f", record.UpperBound),
		fmt.Sprintf("%.6f", record.Gap),
		record.CutType,
	)
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(problem *plan.Problem, records []benders.IterationRecord, result *benders.Result, multiCut bool) {
	p := message.NewPrinter(language.English)

	cols := headers(problem, multiCut)
	fmt.Println(strings.Join(cols, " | "))
	underline := make([]string, len(cols))
	for i, col := range cols {
		underline[i] = strings.Repeat("_", len(col))
	}
	fmt.Println(strings.Join(underline, " | "))
	for _, record := range records {
		fmt.Println(strings.Join(recordFields(record), " | "))
	}

	fmt.Printf("--- Summary ---\n")
	_, _ = p.Printf("Outcome: %s after %d iteration(s)\n", result.Outcome, result.Iterations)
	for i, name := range problem.TechnologyNames() {
		if i < len(result.Investment) {
			_, _ = p.Printf("Investment in %s: %.4f MW\n", name, result.Investment[i])
		}
	}
	for i, theta := range result.Theta {
		label := "theta"
		if multiCut {
			label = "theta(" + problem.ScenarioNames()[i] + ")"
		}
		_, _ = p.Printf("%s: %.4f\n", label, theta)
	}
	_, _ = p.Printf("Lower bound: %.4f\n", result.LowerBound)
	_, _ = p.Printf("Upper bound: %.4f\n", result.UpperBound)
	_, _ = p.Printf("Gap: %.6f\n", result.Gap)
	_, _ = p.Printf("Expected unserved energy: %.4f\n", result.ExpectedUnserved)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(problem *plan.Problem, records []benders.IterationRecord, result *benders.Result, multiCut bool) {
	cols := headers(problem, multiCut)
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = `"` + col + `"`
	}
	fmt.Println(strings.Join(quoted, ","))
	for _, record := range records {
		fmt.Println(strings.Join(recordFields(record), ","))
	}
	fmt.Printf("\"outcome\",\"iterations\",\"LB\",\"UB\",\"gap\"\n")
	fmt.Printf("\"%s\",%d,%.4f,%.4f,%.6f\n",
		result.Outcome, result.Iterations, result.LowerBound, result.UpperBound, result.Gap)
}
