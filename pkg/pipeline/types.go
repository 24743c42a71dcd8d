// Package pipeline provides public types for rowmill transform pipelines.
// This package is intended to be importable by external projects that need
// to build and execute pipelines against the rowmill runtime.
package pipeline

import "time"

// Pipeline represents a complete transform pipeline configuration.
// It describes where records come from, the ordered list of transform
// stages applied to them, and where the result is written.
type Pipeline struct {
	// ID is the unique identifier for this pipeline
	ID string `json:"id"`

	// Name is the human-readable name of the pipeline
	Name string `json:"name"`

	// Description provides additional context about the pipeline
	Description string `json:"description,omitempty"`

	// Input describes the data source (CSV or JSON file)
	Input *SourceConfig `json:"input"`

	// Transforms is the ordered list of transform stage specifications
	Transforms []StageConfig `json:"transforms,omitempty"`

	// Output describes the data destination (CSV or JSON file)
	Output *SinkConfig `json:"output"`
}

// SourceConfig describes a data source for a pipeline.
type SourceConfig struct {
	// Path is the input file path
	Path string `json:"path"`

	// Format is the input format ("csv" or "json").
	// Empty means the format is detected from the file extension.
	Format string `json:"format,omitempty"`
}

// SinkConfig describes a data destination for a pipeline.
type SinkConfig struct {
	// Path is the output file path
	Path string `json:"path"`

	// Format is the output format ("csv" or "json").
	// Empty means the format is detected from the file extension.
	Format string `json:"format,omitempty"`
}

// StageConfig represents one transform stage of a pipeline.
// Stages are configured with the one-line transform mini-language,
// e.g. "filter:Age,>,30" has action "filter" and params "Age,>,30".
type StageConfig struct {
	// Action identifies the transform type (select, filter, rename, sort,
	// addcol, where, script)
	Action string `json:"action"`

	// Params is the raw parameter string following "action:"
	Params string `json:"params"`

	// Raw is the original specification string the stage was parsed from
	Raw string `json:"raw,omitempty"`
}

// ExecutionResult represents the result of a pipeline execution.
type ExecutionResult struct {
	// RunID is the unique identifier of this execution
	RunID string `json:"runId"`

	// PipelineID is the ID of the executed pipeline
	PipelineID string `json:"pipelineId"`

	// Status is the execution status ("success", "error")
	Status string `json:"status"`

	// StartedAt is when execution started
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when execution completed
	CompletedAt time.Time `json:"completedAt"`

	// RecordsLoaded is the number of records produced by the loader
	RecordsLoaded int `json:"recordsLoaded"`

	// RecordsWritten is the number of records handed to the writer.
	// In dry-run mode this is the number that would have been written.
	RecordsWritten int `json:"recordsWritten"`

	// Stages reports the outcome of each configured transform stage,
	// including stages skipped because of malformed specifications.
	Stages []StageReport `json:"stages,omitempty"`

	// Error contains error details if execution failed
	Error *ExecutionError `json:"error,omitempty"`
}

// StageReport describes the outcome of one transform stage.
type StageReport struct {
	// Index is the stage's position in the pipeline (0-based)
	Index int `json:"index"`

	// Spec is the stage's original specification string
	Spec string `json:"spec"`

	// Skipped indicates the stage was skipped due to a malformed
	// specification (the dataset passed through unchanged)
	Skipped bool `json:"skipped"`

	// Reason is the skip reason (empty for executed stages)
	Reason string `json:"reason,omitempty"`

	// RecordsIn is the number of records entering the stage
	RecordsIn int `json:"recordsIn"`

	// RecordsOut is the number of records leaving the stage
	RecordsOut int `json:"recordsOut"`

	// Duration is how long the stage took
	Duration time.Duration `json:"duration"`
}

// ExecutionError contains details about an execution failure.
type ExecutionError struct {
	// Code is the error code
	Code string `json:"code"`

	// Message is the human-readable error message
	Message string `json:"message"`

	// Stage is the pipeline stage where the error occurred
	// ("input", "transform", "output")
	Stage string `json:"stage,omitempty"`

	// Details contains additional error context
	Details map[string]interface{} `json:"details,omitempty"`
}
