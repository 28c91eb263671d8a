package benders

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sync"

	"go.uber.org/zap"
	priorityqueue "gopkg.in/dnaeon/go-priorityqueue.v1"

	"github.com/powersim/capex-planner/internal/dispatch"
	"github.com/powersim/capex-planner/internal/plan"
	"github.com/powersim/capex-planner/pkg/constants"
	"github.com/powersim/capex-planner/pkg/mathutil"
)

// State is the decomposition loop's phase, used for logging and abort paths.
type State int

// Loop states.
const (
	StateInit State = iota
	StateSolvingMaster
	StateSolvingSubproblems
	StateConverged
	StateAborted
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateSolvingMaster:
		return "solving-master"
	case StateSolvingSubproblems:
		return "solving-subproblems"
	case StateConverged:
		return "converged"
	default:
		return "aborted"
	}
}

// Outcome is the terminal result of a run.
type Outcome int

// Run outcomes. Hitting the iteration cap is an outcome, not an error.
const (
	OutcomeConverged Outcome = iota
	OutcomeIterationLimit
	OutcomeAborted
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeConverged:
		return "converged"
	case OutcomeIterationLimit:
		return "non-convergence"
	default:
		return "aborted"
	}
}

// Options configures a decomposition run.
type Options struct {
	// CutMode selects aggregate or per-scenario cuts.
	CutMode string
	// Tolerance is the absolute gap below which the run converges.
	Tolerance float64
	// MaxIterations caps the loop.
	MaxIterations int
	// Workers bounds the parallel scenario evaluations per iteration.
	// Zero means GOMAXPROCS.
	Workers int
}

// Result is the final summary of a run. The full iteration log lives in the
// Recorder the loop was built with.
type Result struct {
	Outcome    Outcome
	Investment []float64
	Theta      []float64
	LowerBound float64
	UpperBound float64
	Gap        float64
	Iterations int
	// ExpectedUnserved is the probability-weighted duration-weighted
	// unserved energy at the final investment, NaN when the last iteration
	// had no defined recourse.
	ExpectedUnserved float64
}

// Loop orchestrates the iterations between the master and the scenario
// subproblems. It is the single writer of bounds, cuts, and records.
type Loop struct {
	logger    *zap.Logger
	problem   *plan.Problem
	master    *Master
	evaluator *dispatch.Evaluator
	recorder  Recorder
	opts      Options
}

// NewLoop wires a decomposition loop. A nil recorder records to a discarded
// log.
func NewLoop(logger *zap.Logger, problem *plan.Problem, master *Master, evaluator *dispatch.Evaluator, recorder Recorder, opts Options) (*Loop, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if problem == nil || master == nil || evaluator == nil {
		return nil, fmt.Errorf("problem, master, and evaluator are all required")
	}
	if opts.CutMode != constants.CutModeAggregate && opts.CutMode != constants.CutModeMulti {
		return nil, fmt.Errorf("unknown cut mode %q", opts.CutMode)
	}
	if opts.Tolerance < 0 {
		return nil, fmt.Errorf("negative tolerance %f", opts.Tolerance)
	}
	if opts.MaxIterations < 1 {
		return nil, fmt.Errorf("iteration cap %d must be at least 1", opts.MaxIterations)
	}
	if recorder == nil {
		recorder = &Log{}
	}
	return &Loop{
		logger:    logger,
		problem:   problem,
		master:    master,
		evaluator: evaluator,
		recorder:  recorder,
		opts:      opts,
	}, nil
}

// Run iterates until convergence, the iteration cap, or an abort. The
// iteration log collected so far is preserved on abort.
func (l *Loop) Run(ctx context.Context) (*Result, error) {
	state := StateInit
	upperBound := math.Inf(1)
	prevRecourse := make([]float64, l.problem.NumScenarios())

	var best *MasterSolution
	lastUnserved := math.NaN()

	for iter := 1; iter <= l.opts.MaxIterations; iter++ {
		state = StateSolvingMaster
		ms, err := l.master.Solve(ctx)
		if err != nil {
			state = StateAborted
			l.logger.Error("aborting decomposition",
				zap.String("op", "benders.Loop.Run"),
				zap.String("state", state.String()),
				zap.Int("iteration", iter),
				zap.Error(err),
			)
			return &Result{Outcome: OutcomeAborted, Iterations: iter - 1, UpperBound: upperBound}, err
		}
		best = ms
		lowerBound := ms.Objective

		state = StateSolvingSubproblems
		sols, err := l.solveScenarios(ctx, ms.Investment, prevRecourse)
		if errors.Is(err, dispatch.ErrSubproblemInfeasible) {
			// Unreachable with the unserved-energy slack in place; recover
			// with the defensive feasibility cut and keep the bounds as
			// they were.
			l.logger.Warn("subproblem reported infeasible, adding feasibility cut",
				zap.String("op", "benders.Loop.Run"),
				zap.Int("iteration", iter),
				zap.Error(err),
			)
			l.master.AddFeasibilityCut()
			l.recorder.Record(IterationRecord{
				Index:           iter,
				Investment:      ms.Investment,
				Theta:           ms.Theta,
				RecourseDefined: false,
				LowerBound:      lowerBound,
				UpperBound:      upperBound,
				Gap:             upperBound - lowerBound,
				CutType:         CutTypeFeasibility,
			})
			continue
		}
		if err != nil {
			state = StateAborted
			l.logger.Error("aborting decomposition",
				zap.String("op", "benders.Loop.Run"),
				zap.String("state", state.String()),
				zap.Int("iteration", iter),
				zap.Error(err),
			)
			return &Result{Outcome: OutcomeAborted, Iterations: iter - 1, UpperBound: upperBound}, err
		}

		recourse := make([]float64, len(sols))
		unserved := make([]float64, len(sols))
		for w, sol := range sols {
			recourse[w] = sol.Objective
			unserved[w] = sol.TotalUnserved(l.problem)
		}
		prevRecourse = recourse

		expectedRecourse := l.problem.ExpectedValue(recourse)
		lastUnserved = l.problem.ExpectedValue(unserved)
		upperBound = mathutil.Min(upperBound, l.problem.InvestmentCost(ms.Investment)+expectedRecourse)
		gap := upperBound - lowerBound

		l.logger.Info("iteration complete",
			zap.String("op", "benders.Loop.Run"),
			zap.Int("iteration", iter),
			zap.Float64("lowerBound", lowerBound),
			zap.Float64("upperBound", upperBound),
			zap.Float64("gap", gap),
		)

		if math.Abs(gap) <= l.opts.Tolerance {
			state = StateConverged
			l.recorder.Record(IterationRecord{
				Index:           iter,
				Investment:      ms.Investment,
				Theta:           ms.Theta,
				Recourse:        expectedRecourse,
				RecourseDefined: true,
				LowerBound:      lowerBound,
				UpperBound:      upperBound,
				Gap:             gap,
				CutType:         CutTypeNone,
			})
			l.logger.Info("converged",
				zap.String("op", "benders.Loop.Run"),
				zap.String("state", state.String()),
				zap.Int("iterations", iter),
				zap.Float64("gap", gap),
			)
			return &Result{
				Outcome:          OutcomeConverged,
				Investment:       ms.Investment,
				Theta:            ms.Theta,
				LowerBound:       lowerBound,
				UpperBound:       upperBound,
				Gap:              gap,
				Iterations:       iter,
				ExpectedUnserved: lastUnserved,
			}, nil
		}

		if l.opts.CutMode == constants.CutModeMulti {
			for _, cut := range ScenarioCuts(l.problem, sols) {
				l.master.AddOptimalityCut(cut)
			}
		} else {
			l.master.AddOptimalityCut(AggregateCut(l.problem, sols))
		}
		l.recorder.Record(IterationRecord{
			Index:           iter,
			Investment:      ms.Investment,
			Theta:           ms.Theta,
			Recourse:        expectedRecourse,
			RecourseDefined: true,
			LowerBound:      lowerBound,
			UpperBound:      upperBound,
			Gap:             gap,
			CutType:         CutTypeOptimality,
		})
	}

	l.logger.Warn("iteration cap exhausted before the gap closed",
		zap.String("op", "benders.Loop.Run"),
		zap.Int("iterations", l.opts.MaxIterations),
	)
	result := &Result{
		Outcome:          OutcomeIterationLimit,
		Iterations:       l.opts.MaxIterations,
		UpperBound:       upperBound,
		ExpectedUnserved: lastUnserved,
	}
	if best != nil {
		result.Investment = best.Investment
		result.Theta = best.Theta
		result.LowerBound = best.Objective
		result.Gap = upperBound - best.Objective
	}
	return result, nil
}

// solveScenarios evaluates every scenario's dispatch problem at the fixed
// investment x on a bounded worker pool. Scenarios are dispatched in
// descending order of their previous recourse cost so the most expensive
// solves start first. All scenario duals for the iteration are gathered
// before returning; cuts are never built from a partial set.
func (l *Loop) solveScenarios(ctx context.Context, x []float64, prevRecourse []float64) ([]*dispatch.Solution, error) {
	numScenarios := l.problem.NumScenarios()

	pq := priorityqueue.New[int, float64](priorityqueue.MaxHeap)
	for w := 0; w < numScenarios; w++ {
		pq.Put(w, prevRecourse[w])
	}
	jobs := make(chan int, numScenarios)
	for pq.Len() > 0 {
		jobs <- pq.Get().Value
	}
	close(jobs)

	workers := l.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > numScenarios {
		workers = numScenarios
	}

	sols := make([]*dispatch.Solution, numScenarios)
	errCh := make(chan error, numScenarios)
	var wg sync.WaitGroup
	for k := 0; k < workers; k++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for w := range jobs {
				if ctx.Err() != nil {
					errCh <- ctx.Err()
					return
				}
				sol, err := l.evaluator.Evaluate(ctx, x, w)
				if err != nil {
					errCh <- err
					return
				}
				sols[w] = sol
			}
		}()
	}
	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if errors.Is(err, dispatch.ErrSubproblemInfeasible) {
			return nil, err
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return sols, nil
}
