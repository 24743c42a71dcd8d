// Package registry provides registries for transform modules and for
// data format adapters.
//
// # Overview
//
// Instead of hard-coded switch statements, transforms register their
// constructors by action name and adapters by format name. Adding a new
// transform does not touch the executor: implement transform.Module,
// write a constructor matching the registry signature, and register it
// in an init() function.
//
// Example for a new transform:
//
//	package transform
//
//	func init() {
//	    registry.RegisterTransform("dedupe", func(params string, log *slog.Logger) (transform.Module, error) {
//	        return NewDedupeFromSpec(params, log)
//	    })
//	}
//
// # Built-in modules
//
// The built-in transforms (select, filter, rename, sort, addcol, where,
// script) and the csv/json adapters register at startup via init() in
// builtins.go. Unknown action or format names resolve to nothing; the
// caller gets a specification error, never a silent fallback.
package registry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/rowmill/runtime/internal/dataio"
	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/transform"
)

// TransformConstructor creates a transform module from the parameter
// part of its mini-language specification. It returns an error when the
// parameters are malformed.
type TransformConstructor func(params string, log *slog.Logger) (transform.Module, error)

// LoaderConstructor creates a loader for a data format.
type LoaderConstructor func(log *slog.Logger) dataio.Loader

// WriterConstructor creates a writer for a data format.
type WriterConstructor func(log *slog.Logger) dataio.Writer

var (
	transformMu       sync.RWMutex
	transformRegistry = make(map[string]TransformConstructor)

	loaderMu       sync.RWMutex
	loaderRegistry = make(map[string]LoaderConstructor)

	writerMu       sync.RWMutex
	writerRegistry = make(map[string]WriterConstructor)
)

// RegisterTransform registers a transform constructor by action name.
// Registering an already registered action overwrites the previous
// constructor. Safe for concurrent use; typically called from init().
func RegisterTransform(action string, constructor TransformConstructor) {
	transformMu.Lock()
	defer transformMu.Unlock()
	transformRegistry[action] = constructor
}

// RegisterLoader registers a loader constructor by format name.
func RegisterLoader(format string, constructor LoaderConstructor) {
	loaderMu.Lock()
	defer loaderMu.Unlock()
	loaderRegistry[format] = constructor
}

// RegisterWriter registers a writer constructor by format name.
func RegisterWriter(format string, constructor WriterConstructor) {
	writerMu.Lock()
	defer writerMu.Unlock()
	writerRegistry[format] = constructor
}

// BuildTransform parses a mini-language specification string
// "action:params" and builds the matching transform module. An unknown
// action or malformed parameters yield a specification error.
func BuildTransform(spec string, log *slog.Logger) (transform.Module, error) {
	action, params, _ := strings.Cut(spec, ":")
	action = strings.TrimSpace(action)
	if action == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, spec,
			"empty transform specification")
	}

	transformMu.RLock()
	constructor, ok := transformRegistry[action]
	transformMu.RUnlock()
	if !ok {
		return nil, errhandling.NewSpecError(errhandling.CodeUnknownAction, spec,
			fmt.Sprintf("unknown action %q (known: %s)", action, strings.Join(TransformActions(), ", ")))
	}
	return constructor(params, log)
}

// NewLoader builds a loader for a format. The second return is false for
// unknown formats.
func NewLoader(format string, log *slog.Logger) (dataio.Loader, bool) {
	loaderMu.RLock()
	constructor, ok := loaderRegistry[format]
	loaderMu.RUnlock()
	if !ok {
		return nil, false
	}
	return constructor(log), true
}

// NewWriter builds a writer for a format. The second return is false for
// unknown formats.
func NewWriter(format string, log *slog.Logger) (dataio.Writer, bool) {
	writerMu.RLock()
	constructor, ok := writerRegistry[format]
	writerMu.RUnlock()
	if !ok {
		return nil, false
	}
	return constructor(log), true
}

// TransformActions returns the registered action names, sorted.
func TransformActions() []string {
	transformMu.RLock()
	defer transformMu.RUnlock()
	actions := make([]string, 0, len(transformRegistry))
	for a := range transformRegistry {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}

// Formats returns the format names having both a loader and a writer,
// sorted.
func Formats() []string {
	loaderMu.RLock()
	defer loaderMu.RUnlock()
	writerMu.RLock()
	defer writerMu.RUnlock()
	formats := make([]string, 0, len(loaderRegistry))
	for f := range loaderRegistry {
		if _, ok := writerRegistry[f]; ok {
			formats = append(formats, f)
		}
	}
	sort.Strings(formats)
	return formats
}
