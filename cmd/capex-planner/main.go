package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/powersim/capex-planner/internal/benders"
	"github.com/powersim/capex-planner/internal/config"
	"github.com/powersim/capex-planner/internal/dispatch"
	"github.com/powersim/capex-planner/pkg/adapters"
	"github.com/powersim/capex-planner/pkg/constants"
	"github.com/powersim/capex-planner/pkg/output"
	"github.com/powersim/capex-planner/pkg/solver"
	"github.com/powersim/capex-planner/pkg/validation"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// buildSolver constructs the named backend wrapped with the configured
// timeout.
func buildSolver(conf config.BendersConfig, name string) (solver.Solver, error) {
	if err := validation.ValidateSolverChoice(name); err != nil {
		return nil, err
	}
	var s solver.Solver
	switch name {
	case constants.SolverHighs:
		s = solver.NewHighs()
	case constants.SolverSimplex:
		s = solver.NewSimplex()
	}
	return solver.WithTimeout(s, conf.SolverTimeout), nil
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty // Default to pretty format
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Hard data errors stop the run before any optimization.
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid problem data",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	problem, err := adapters.BuildProblem(conf)
	if err != nil {
		logger.Fatal("failed to build problem data",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	masterSolver, err := buildSolver(conf.Benders, conf.Benders.MasterSolver)
	if err != nil {
		logger.Fatal("failed to build master solver",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	subproblemSolver, err := buildSolver(conf.Benders, conf.Benders.Solver)
	if err != nil {
		logger.Fatal("failed to build subproblem solver",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	master, err := benders.NewMaster(logger, problem, masterSolver, conf.Benders.CutMode)
	if err != nil {
		logger.Fatal("failed to build master problem",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	evaluator, err := dispatch.NewEvaluator(logger, problem, conf.Benders.VOLL, subproblemSolver)
	if err != nil {
		logger.Fatal("failed to build subproblem evaluator",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	log := &benders.Log{}
	loop, err := benders.NewLoop(logger, problem, master, evaluator, log, benders.Options{
		CutMode:       conf.Benders.CutMode,
		Tolerance:     *conf.Benders.Tolerance,
		MaxIterations: conf.Benders.MaxIterations,
		Workers:       conf.Benders.Workers,
	})
	if err != nil {
		logger.Fatal("failed to build decomposition loop",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	result, err := loop.Run(context.Background())
	if err != nil {
		// The iteration log collected so far is still emitted below.
		if errors.Is(err, benders.ErrMasterInfeasible) {
			logger.Error("master problem was not solved to optimality",
				zap.String("op", "main"),
				zap.Error(err),
			)
		} else {
			logger.Error("decomposition aborted",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
	}

	multiCut := conf.Benders.CutMode == constants.CutModeMulti
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(problem, log.Records(), result, multiCut)
	case constants.OutputFormatCSV:
		output.CsvFormat(problem, log.Records(), result, multiCut)
	}

	if err != nil {
		os.Exit(1)
	}
}
