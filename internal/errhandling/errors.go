// Package errhandling provides error types and classification for the
// rowmill runtime. The taxonomy mirrors the engine's error policy:
// specification errors skip a stage, record errors have a localized
// per-record effect, and only I/O errors are fatal for a run.
package errhandling

import (
	"errors"
	"fmt"
)

// ErrorCategory represents the type/category of an error.
// Categories determine the handling strategy.
type ErrorCategory string

// Error categories for classification.
const (
	// CategorySpecification represents malformed transform specifications
	// (bad syntax, wrong arity, unknown action). The affected stage is
	// skipped and the pipeline continues.
	CategorySpecification ErrorCategory = "specification"

	// CategoryRecord represents per-record evaluation problems (type
	// mismatch, missing field, unsupported operator). The effect is
	// localized to the record; the run never aborts.
	CategoryRecord ErrorCategory = "record"

	// CategoryIO represents load/write failures (file not found,
	// malformed source, non-serializable output). IO errors are fatal
	// for the run.
	CategoryIO ErrorCategory = "io"

	// CategoryUnknown represents unclassified errors. Treated as fatal,
	// since the engine itself only produces the categories above.
	CategoryUnknown ErrorCategory = "unknown"
)

// Error codes used across the runtime.
const (
	CodeSpecInvalid   = "SPEC_INVALID"
	CodeUnknownAction = "UNKNOWN_ACTION"
	CodeEvalFailed    = "EVAL_FAILED"
	CodeLoadFailed    = "LOAD_FAILED"
	CodeWriteFailed   = "WRITE_FAILED"
)

// SpecError reports a malformed transform specification. Stages that
// fail with a SpecError are skipped, not fatal.
type SpecError struct {
	// Code is the error code (SPEC_INVALID, UNKNOWN_ACTION)
	Code string
	// Spec is the offending specification string
	Spec string
	// Message is the human-readable error message
	Message string
}

// Error implements the error interface.
func (e *SpecError) Error() string {
	if e.Spec != "" {
		return fmt.Sprintf("invalid transform spec %q: %s", e.Spec, e.Message)
	}
	return e.Message
}

// NewSpecError creates a SpecError.
func NewSpecError(code, spec, message string) *SpecError {
	return &SpecError{Code: code, Spec: spec, Message: message}
}

// RecordError reports a per-record evaluation problem. Transforms handle
// these internally (row excluded, field set to null); they surface in a
// returned error only when a module cannot continue at all.
type RecordError struct {
	// Code is the error code (EVAL_FAILED)
	Code string
	// RecordIndex is the index of the affected record (-1 if unknown)
	RecordIndex int
	// Field is the field involved, when known
	Field string
	// Message is the human-readable error message
	Message string
	// Err is the underlying error, if any
	Err error
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.RecordIndex >= 0 {
		return fmt.Sprintf("record %d: %s", e.RecordIndex, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// IOError reports a load or write failure at the pipeline's I/O boundary.
type IOError struct {
	// Code is the error code (LOAD_FAILED, WRITE_FAILED)
	Code string
	// Path is the file involved
	Path string
	// Op is the failing operation ("load", "write")
	Op string
	// Err is the underlying error
	Err error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for errors.Is / errors.As.
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewLoadError creates an IOError for a load failure.
func NewLoadError(path string, err error) *IOError {
	return &IOError{Code: CodeLoadFailed, Path: path, Op: "load", Err: err}
}

// NewWriteError creates an IOError for a write failure.
func NewWriteError(path string, err error) *IOError {
	return &IOError{Code: CodeWriteFailed, Path: path, Op: "write", Err: err}
}

// Classify returns the category of an error based on its type.
func Classify(err error) ErrorCategory {
	if err == nil {
		return CategoryUnknown
	}
	var specErr *SpecError
	if errors.As(err, &specErr) {
		return CategorySpecification
	}
	var recErr *RecordError
	if errors.As(err, &recErr) {
		return CategoryRecord
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return CategoryIO
	}
	return CategoryUnknown
}

// IsFatal reports whether an error should abort the whole run.
// Specification and record errors never do; I/O and unknown errors do.
func IsFatal(err error) bool {
	switch Classify(err) {
	case CategorySpecification, CategoryRecord:
		return false
	default:
		return true
	}
}

// ErrorCode extracts the error code from a classified error, or empty
// for unclassified errors.
func ErrorCode(err error) string {
	var specErr *SpecError
	if errors.As(err, &specErr) {
		return specErr.Code
	}
	var recErr *RecordError
	if errors.As(err, &recErr) {
		return recErr.Code
	}
	var ioErr *IOError
	if errors.As(err, &ioErr) {
		return ioErr.Code
	}
	return ""
}
