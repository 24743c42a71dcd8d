// Package main provides the CLI entry point for the rowmill runtime.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rowmill/runtime/internal/config"
	"github.com/rowmill/runtime/internal/logger"
	"github.com/rowmill/runtime/internal/registry"
	"github.com/rowmill/runtime/internal/runtime"
	"github.com/rowmill/runtime/pkg/pipeline"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitValidationError = 1
	ExitParseError      = 2
	ExitRuntimeError    = 3
)

var (
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	// Run command flags
	dryRun       bool
	inputPath    string
	inputFormat  string
	outputPath   string
	outputFormat string
	transforms   []string

	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		exit(ExitRuntimeError)
	}
	exit(ExitSuccess)
}

// exit flushes the log file before terminating.
func exit(code int) {
	logger.CloseLogFile()
	os.Exit(code)
}

var rootCmd = &cobra.Command{
	Use:   "rowmill",
	Short: "Rowmill - tabular record transform pipelines",
	Long: `Rowmill transforms CSV and JSON record files through a pipeline of
declarative stages: select, filter, rename, sort, addcol, where, script.

A pipeline comes either from a configuration file (JSON/YAML) or is
assembled on the command line from --input, --transform, and --output.

Examples:
  # Validate a configuration file
  rowmill validate pipeline.yaml

  # Run a pipeline from a configuration file
  rowmill run pipeline.yaml

  # Run an ad-hoc pipeline from flags
  rowmill run --input people.csv --output adults.json \
    --transform "filter:Age,>,17" --transform "sort:Name:asc"`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		} else if quiet {
			level = slog.LevelError
		}
		format := logger.FormatFromName(logFormat)
		if logFile != "" {
			if err := logger.SetLogFile(logFile, level, format); err != nil {
				fmt.Fprintf(os.Stderr, "✗ Failed to open log file: %v\n", err)
				exit(ExitRuntimeError)
			}
		} else {
			logger.SetLevelAndFormat(level, format)
		}
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <config-file>",
	Short: "Validate a pipeline configuration file",
	Long: `Validate a pipeline configuration file against the schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Configuration is valid
  1 - Validation errors (schema violations)
  2 - Parse errors (invalid JSON/YAML syntax)

Examples:
  rowmill validate pipeline.json
  rowmill validate pipeline.yaml
  rowmill validate --verbose pipeline.json`,
	Args: cobra.ExactArgs(1),
	Run:  runValidate,
}

var runCmd = &cobra.Command{
	Use:   "run [config-file]",
	Short: "Run a transform pipeline",
	Long: `Run a pipeline from a configuration file, or from flags when no file
is given (--input and --output are then required; --transform may
repeat and applies in order of occurrence).

A configuration file is validated against the schema before execution.
A stage with a malformed specification is skipped with the dataset
passing through unchanged; only input/output failures abort the run.

Exit codes:
  0 - Pipeline executed successfully
  1 - Validation errors
  2 - Parse errors
  3 - Runtime errors

Examples:
  rowmill run pipeline.json
  rowmill run --dry-run pipeline.yaml
  rowmill run --input in.csv --output out.csv --transform "select:Name,Age"`,
	Args: cobra.MaximumNArgs(1),
	Run:  runPipeline,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version, commit hash, and build date information.",
	Run:   runVersion,
}

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the pipeline configuration schema",
	Long: `Print the JSON schema that pipeline configuration files are
validated against. Useful as a reference when writing configurations,
or for editor integration.`,
	Run: func(_ *cobra.Command, _ []string) {
		os.Stdout.Write(config.GetEmbeddedSchema())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "human", "Log output format: human or json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write JSON logs to this file")

	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without writing the output file")
	runCmd.Flags().StringVar(&inputPath, "input", "", "Input file path (ad-hoc pipeline)")
	runCmd.Flags().StringVar(&inputFormat, "input-format", "", "Input format: csv or json (default: by extension)")
	runCmd.Flags().StringVar(&outputPath, "output", "", "Output file path (ad-hoc pipeline)")
	runCmd.Flags().StringVar(&outputFormat, "output-format", "", "Output format: csv or json (default: by extension)")
	runCmd.Flags().StringArrayVarP(&transforms, "transform", "t", nil, "Transform specification, repeatable (e.g. \"filter:Age,>,30\")")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(schemaCmd)
}

func runValidate(_ *cobra.Command, args []string) {
	configPath := args[0]

	if !quiet {
		fmt.Printf("Validating configuration: %s\n", configPath)
	}

	result := config.ParseConfig(configPath)
	if len(result.ParseErrors) > 0 {
		printParseErrors(result.ParseErrors)
		exit(ExitParseError)
	}
	if len(result.ValidationErrors) > 0 {
		printValidationErrors(result.ValidationErrors)
		exit(ExitValidationError)
	}

	if !quiet {
		fmt.Printf("✓ Configuration is valid (format: %s)\n", result.Format)
		if verbose {
			if p, err := config.ToPipeline(result.Data); err == nil {
				fmt.Printf("  Pipeline: %s\n", p.Name)
				fmt.Printf("  Input: %s\n", p.Input.Path)
				fmt.Printf("  Output: %s\n", p.Output.Path)
				fmt.Printf("  Transform stages: %d\n", len(p.Transforms))
			}
		}
	}
	exit(ExitSuccess)
}

func runPipeline(_ *cobra.Command, args []string) {
	var p *pipeline.Pipeline

	if len(args) == 1 {
		configPath := args[0]
		if !quiet {
			fmt.Printf("Loading pipeline configuration: %s\n", configPath)
		}

		result := config.ParseConfig(configPath)
		if len(result.ParseErrors) > 0 {
			printParseErrors(result.ParseErrors)
			exit(ExitParseError)
		}
		if len(result.ValidationErrors) > 0 {
			printValidationErrors(result.ValidationErrors)
			exit(ExitValidationError)
		}

		var err error
		p, err = config.ToPipeline(result.Data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ Failed to convert configuration: %v\n", err)
			exit(ExitRuntimeError)
		}
	} else {
		var err error
		p, err = pipelineFromFlags()
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %v\n", err)
			exit(ExitValidationError)
		}
	}

	if verbose {
		fmt.Printf("  Pipeline: %s\n", p.Name)
		if p.Description != "" {
			fmt.Printf("  Description: %s\n", p.Description)
		}
		for _, stage := range p.Transforms {
			fmt.Printf("  Stage: %s\n", stage.Raw)
		}
	}

	if !quiet {
		if dryRun {
			fmt.Println("Executing pipeline (dry-run mode - output will not be written)...")
		} else {
			fmt.Println("Executing pipeline...")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	executor := runtime.NewExecutor(logger.Logger, dryRun)
	execResult, err := executor.Execute(ctx, p)

	printExecutionResult(execResult, err)
	if err != nil {
		exit(ExitRuntimeError)
	}
	exit(ExitSuccess)
}

// pipelineFromFlags assembles an ad-hoc pipeline from the run command's
// flags. Transform specifications apply in order of occurrence.
func pipelineFromFlags() (*pipeline.Pipeline, error) {
	if inputPath == "" || outputPath == "" {
		return nil, fmt.Errorf("either a config file argument or both --input and --output are required")
	}

	data := map[string]interface{}{
		"name": "cli",
		"input": map[string]interface{}{
			"path": inputPath,
		},
		"output": map[string]interface{}{
			"path": outputPath,
		},
	}
	if inputFormat != "" {
		data["input"].(map[string]interface{})["format"] = inputFormat
	}
	if outputFormat != "" {
		data["output"].(map[string]interface{})["format"] = outputFormat
	}
	if len(transforms) > 0 {
		specs := make([]interface{}, len(transforms))
		for i, t := range transforms {
			specs[i] = t
		}
		data["transforms"] = specs
	}

	if validation := config.ValidateConfig(data); !validation.Valid {
		printValidationErrors(validation.Errors)
		return nil, fmt.Errorf("invalid pipeline flags")
	}
	return config.ToPipeline(data)
}

func runVersion(_ *cobra.Command, _ []string) {
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Commit: %s\n", commit)
	fmt.Printf("Build Date: %s\n", buildDate)
	fmt.Printf("Transforms: %v\n", registry.TransformActions())
	fmt.Printf("Formats: %v\n", registry.Formats())
}

// printExecutionResult displays the pipeline execution result.
func printExecutionResult(result *pipeline.ExecutionResult, err error) {
	if result == nil {
		fmt.Fprintln(os.Stderr, "✗ No execution result available")
		return
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "✗ Pipeline execution failed")
		if result.Error != nil {
			fmt.Fprintf(os.Stderr, "  Stage: %s\n", result.Error.Stage)
			fmt.Fprintf(os.Stderr, "  Error: %s\n", result.Error.Message)
		}
		return
	}

	if !quiet {
		fmt.Println("✓ Pipeline executed successfully")
		fmt.Printf("  Status: %s\n", result.Status)
		fmt.Printf("  Records loaded: %d\n", result.RecordsLoaded)
		if dryRun {
			fmt.Printf("  Records that would be written: %d\n", result.RecordsWritten)
		} else {
			fmt.Printf("  Records written: %d\n", result.RecordsWritten)
		}
		for _, stage := range result.Stages {
			if stage.Skipped {
				fmt.Printf("  ⚠ Stage %d skipped (%s): %s\n", stage.Index, stage.Spec, stage.Reason)
			} else if verbose {
				fmt.Printf("  Stage %d (%s): %d → %d records in %v\n",
					stage.Index, stage.Spec, stage.RecordsIn, stage.RecordsOut, stage.Duration)
			}
		}
		if verbose {
			fmt.Printf("  Duration: %v\n", result.CompletedAt.Sub(result.StartedAt))
		}
	}
}

func printParseErrors(errors []config.ParseError) {
	fmt.Fprintln(os.Stderr, "✗ Parse errors:")
	for _, err := range errors {
		var location string
		if err.Path != "" {
			location = err.Path
			if err.Line > 0 {
				location += fmt.Sprintf(":%d", err.Line)
				if err.Column > 0 {
					location += fmt.Sprintf(":%d", err.Column)
				}
			}
		}

		if location != "" {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", location, err.Message)
		} else {
			fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
		}

		if verbose && err.Type != "" {
			fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
		}
	}
}

func printValidationErrors(errors []config.ValidationError) {
	fmt.Fprintln(os.Stderr, "✗ Validation errors:")
	for _, err := range errors {
		path := err.Path
		if path == "" {
			path = "/"
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "  %s:\n", path)
			fmt.Fprintf(os.Stderr, "    Message: %s\n", err.Message)
			if err.Type != "" {
				fmt.Fprintf(os.Stderr, "    Type: %s\n", err.Type)
			}
		} else {
			msg := err.Message
			if len(msg) > 80 {
				msg = msg[:77] + "..."
			}
			fmt.Fprintf(os.Stderr, "  %s: %s\n", path, msg)
		}
	}

	if !quiet {
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Hint: Use --verbose for detailed error information")
	}
}
