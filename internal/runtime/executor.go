// Package runtime provides the pipeline execution engine.
// It orchestrates loading, the ordered transform stages, and writing.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rowmill/runtime/internal/dataio"
	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/logger"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/registry"
	"github.com/rowmill/runtime/pkg/pipeline"
)

// Error codes for pipeline execution errors
const (
	ErrCodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	ErrCodeLoadFailed        = "LOAD_FAILED"
	ErrCodeTransformFailed   = "TRANSFORM_FAILED"
	ErrCodeWriteFailed       = "WRITE_FAILED"
	ErrCodeInvalidPipeline   = "INVALID_PIPELINE"
)

// Execution status values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Common errors
var (
	// ErrNilPipeline is returned when the pipeline configuration is nil
	ErrNilPipeline = errors.New("pipeline configuration is nil")
)

// Executor runs pipeline configurations: load the input file, apply the
// transform stages in order, write the result. Only the edges can fail
// an execution; a stage with a malformed specification is skipped with
// the dataset passing through unchanged, and record-level trouble inside
// a stage never aborts the run.
//
// The Executor talks to transforms and adapters only through their
// interfaces, so new actions and formats plug in via the registry
// without touching this package.
type Executor struct {
	log    *slog.Logger
	dryRun bool
}

// NewExecutor creates a pipeline executor. A nil log falls back to the
// package default logger.
func NewExecutor(log *slog.Logger, dryRun bool) *Executor {
	if log == nil {
		log = logger.Logger
	}
	return &Executor{log: log, dryRun: dryRun}
}

// Execute runs the pipeline and returns its result. The result's Status
// and Error fields carry failure details; the returned error mirrors
// them for callers that prefer error handling.
func (e *Executor) Execute(ctx context.Context, p *pipeline.Pipeline) (*pipeline.ExecutionResult, error) {
	if p == nil {
		return nil, ErrNilPipeline
	}

	result := &pipeline.ExecutionResult{
		RunID:      uuid.NewString(),
		PipelineID: p.ID,
		Status:     StatusSuccess,
		StartedAt:  time.Now(),
	}
	log := e.log.With("run_id", result.RunID)

	execCtx := logger.ExecutionContext{
		RunID:        result.RunID,
		PipelineName: p.Name,
		StageIndex:   -1,
		DryRun:       e.dryRun,
	}
	logger.LogExecutionStart(log, execCtx)

	ds, execErr := e.load(ctx, log, p)
	if execErr == nil {
		result.RecordsLoaded = len(ds)
		ds, result.Stages, execErr = e.transform(ctx, log, execCtx, p, ds)
	}
	if execErr == nil {
		result.RecordsWritten = len(ds)
		execErr = e.write(ctx, log, p, ds)
	}

	result.CompletedAt = time.Now()
	if execErr != nil {
		result.Status = StatusError
		result.Error = execErr
		logger.LogExecutionEnd(log, execCtx, StatusError, result.RecordsWritten, result.CompletedAt.Sub(result.StartedAt))
		return result, fmt.Errorf("%s: %s", execErr.Code, execErr.Message)
	}

	logger.LogExecutionEnd(log, execCtx, StatusSuccess, result.RecordsWritten, result.CompletedAt.Sub(result.StartedAt))
	return result, nil
}

// load resolves the input adapter and reads the source file.
func (e *Executor) load(ctx context.Context, log *slog.Logger, p *pipeline.Pipeline) (record.Dataset, *pipeline.ExecutionError) {
	if p.Input == nil {
		return nil, &pipeline.ExecutionError{
			Code:    ErrCodeInvalidPipeline,
			Message: "pipeline has no input",
			Stage:   "input",
		}
	}

	format := dataio.DetectFormat(p.Input.Format, p.Input.Path)
	loader, ok := registry.NewLoader(format, log)
	if !ok {
		return nil, &pipeline.ExecutionError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("no loader for input %q (format %q)", p.Input.Path, p.Input.Format),
			Stage:   "input",
		}
	}

	start := time.Now()
	ds, err := loader.Load(ctx, p.Input.Path)
	if err != nil {
		log.Error("input loading failed",
			slog.String("path", p.Input.Path),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return nil, &pipeline.ExecutionError{
			Code:    ErrCodeLoadFailed,
			Message: err.Error(),
			Stage:   "input",
			Details: map[string]interface{}{"path": p.Input.Path},
		}
	}

	log.Debug("input loaded",
		slog.String("path", p.Input.Path),
		slog.String("format", format),
		slog.Int("records", len(ds)),
		slog.Duration("duration", time.Since(start)),
	)
	return ds, nil
}

// transform applies the configured stages in order. A stage whose
// specification does not build is skipped and reported; the dataset
// passes through unchanged. A processing error is fatal only when the
// error classifies as fatal (cancellation, I/O), which transforms
// reserve for those cases.
func (e *Executor) transform(ctx context.Context, log *slog.Logger, execCtx logger.ExecutionContext, p *pipeline.Pipeline, ds record.Dataset) (record.Dataset, []pipeline.StageReport, *pipeline.ExecutionError) {
	reports := make([]pipeline.StageReport, 0, len(p.Transforms))

	for i, stage := range p.Transforms {
		spec := stage.Raw
		if spec == "" {
			spec = stage.Action + ":" + stage.Params
		}
		report := pipeline.StageReport{
			Index:     i,
			Spec:      spec,
			RecordsIn: len(ds),
		}
		stageCtx := execCtx
		stageCtx.Stage = "transform"
		stageCtx.Action = stage.Action
		stageCtx.StageIndex = i

		module, err := registry.BuildTransform(spec, log)
		if err != nil {
			report.Skipped = true
			report.Reason = err.Error()
			report.RecordsOut = len(ds)
			reports = append(reports, report)
			logger.LogStageSkipped(log, stageCtx, spec, err.Error())
			continue
		}

		logger.LogStageStart(log, stageCtx)
		start := time.Now()
		out, err := module.Process(ctx, ds)
		report.Duration = time.Since(start)

		if err != nil {
			if errhandling.IsFatal(err) {
				return nil, reports, &pipeline.ExecutionError{
					Code:    ErrCodeTransformFailed,
					Message: err.Error(),
					Stage:   "transform",
					Details: map[string]interface{}{"stage_index": i, "spec": spec},
				}
			}
			// Non-fatal stage error: skip the stage, keep the dataset.
			report.Skipped = true
			report.Reason = err.Error()
			report.RecordsOut = len(ds)
			reports = append(reports, report)
			logger.LogStageSkipped(log, stageCtx, spec, err.Error())
			continue
		}

		report.RecordsOut = len(out)
		reports = append(reports, report)
		logger.LogStageEnd(log, stageCtx, report.RecordsIn, report.RecordsOut, report.Duration)
		ds = out
	}

	return ds, reports, nil
}

// write resolves the output adapter and writes the result. Dry-run mode
// stops short of writing.
func (e *Executor) write(ctx context.Context, log *slog.Logger, p *pipeline.Pipeline, ds record.Dataset) *pipeline.ExecutionError {
	if p.Output == nil {
		return &pipeline.ExecutionError{
			Code:    ErrCodeInvalidPipeline,
			Message: "pipeline has no output",
			Stage:   "output",
		}
	}

	format := dataio.DetectFormat(p.Output.Format, p.Output.Path)
	writer, ok := registry.NewWriter(format, log)
	if !ok {
		return &pipeline.ExecutionError{
			Code:    ErrCodeUnsupportedFormat,
			Message: fmt.Sprintf("no writer for output %q (format %q)", p.Output.Path, p.Output.Format),
			Stage:   "output",
		}
	}

	if e.dryRun {
		log.Info("dry-run mode: skipping output",
			slog.String("path", p.Output.Path),
			slog.String("format", format),
			slog.Int("records_would_write", len(ds)),
		)
		return nil
	}

	start := time.Now()
	if err := writer.Write(ctx, p.Output.Path, ds, ds.Fields()); err != nil {
		log.Error("output writing failed",
			slog.String("path", p.Output.Path),
			slog.String("format", format),
			slog.String("error", err.Error()),
		)
		return &pipeline.ExecutionError{
			Code:    ErrCodeWriteFailed,
			Message: err.Error(),
			Stage:   "output",
			Details: map[string]interface{}{"path": p.Output.Path},
		}
	}

	log.Debug("output written",
		slog.String("path", p.Output.Path),
		slog.String("format", format),
		slog.Int("records", len(ds)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// Run is a convenience wrapper that applies a transform stage list to an
// in-memory Dataset without any I/O, the engine's library entry point.
// Stage construction failures skip the stage the same way Execute does.
func Run(ctx context.Context, log *slog.Logger, specs []string, ds record.Dataset) (record.Dataset, []pipeline.StageReport, error) {
	if log == nil {
		log = logger.Logger
	}
	stages := make([]pipeline.StageConfig, 0, len(specs))
	for _, spec := range specs {
		stages = append(stages, pipeline.StageConfig{Raw: spec})
	}

	e := NewExecutor(log, false)
	execCtx := logger.ExecutionContext{RunID: uuid.NewString(), StageIndex: -1}
	out, reports, execErr := e.transform(ctx, log, execCtx, &pipeline.Pipeline{Transforms: stages}, ds)
	if execErr != nil {
		return nil, reports, fmt.Errorf("%s: %s", execErr.Code, execErr.Message)
	}
	return out, reports, nil
}
