// Package config provides functionality for parsing and validating
// pipeline configuration files (JSON/YAML).
package config

import "fmt"

// Error types for parse errors
const (
	ErrorTypeIO     = "io"
	ErrorTypeSyntax = "syntax"
	ErrorTypeFormat = "format"
)

// ParseError describes a single parsing failure with location details
// when the underlying decoder provides them.
type ParseError struct {
	Path    string
	Message string
	Type    string
	Line    int
	Column  int
	Offset  int64
}

func (e ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
	}
	return e.Message
}

// ValidationError describes a single schema violation.
type ValidationError struct {
	Path    string
	Type    string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseResult holds the outcome of parsing one document.
type ParseResult struct {
	FilePath string
	Format   string
	Data     map[string]interface{}
	Errors   []ParseError
}

// IsValid reports whether parsing produced no errors.
func (r *ParseResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidationResult holds the outcome of schema validation.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Result is the combined outcome of parsing and validating a pipeline
// configuration.
type Result struct {
	FilePath         string
	Format           string
	Data             map[string]interface{}
	ParseErrors      []ParseError
	ValidationErrors []ValidationError
}

// IsValid reports whether the configuration parsed and validated
// cleanly.
func (r *Result) IsValid() bool {
	return len(r.ParseErrors) == 0 && len(r.ValidationErrors) == 0
}

// Problems flattens all errors into printable strings, parse errors
// first.
func (r *Result) Problems() []string {
	problems := make([]string, 0, len(r.ParseErrors)+len(r.ValidationErrors))
	for _, e := range r.ParseErrors {
		problems = append(problems, e.Error())
	}
	for _, e := range r.ValidationErrors {
		problems = append(problems, e.Error())
	}
	return problems
}
