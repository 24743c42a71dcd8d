// Package transform provides implementations for transform modules.
// This file implements the "where" transform, an expression-based row
// filter complementing the single-comparison "filter" transform.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
)

// WhereModule keeps the records for which a boolean expression holds.
// Expressions use the expr language and see the record's fields as
// variables; a missing field evaluates to nil rather than failing, so
// heterogeneous datasets filter cleanly.
type WhereModule struct {
	expression string
	program    *vm.Program
	log        *slog.Logger
}

// NewWhereFromSpec creates a where module from the mini-language
// parameter string, which is the expression itself, e.g.
// "age >= 18 && country == \"FR\"". The expression is compiled once;
// a syntax error is a specification error.
func NewWhereFromSpec(params string, log *slog.Logger) (*WhereModule, error) {
	expression := strings.TrimSpace(params)
	if expression == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "where:"+params,
			"expected a boolean expression")
	}

	// AllowUndefinedVariables() handles missing fields gracefully
	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "where:"+expression,
			fmt.Sprintf("invalid expression: %v", err))
	}

	return &WhereModule{
		expression: expression,
		program:    program,
		log:        moduleLogger(log),
	}, nil
}

// Action implements the Module interface.
func (m *WhereModule) Action() string { return "where" }

// Process implements the Module interface.
// A record whose evaluation errors is excluded and the error logged; kept
// records are shared with the input, never copied.
func (m *WhereModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	result := make(record.Dataset, 0, len(ds))
	for i, r := range ds {
		env := make(map[string]interface{}, r.Len())
		for j := 0; j < r.Len(); j++ {
			f := r.At(j)
			env[f.Name] = f.Value.Native()
		}

		output, err := expr.Run(m.program, env)
		if err != nil {
			m.log.Warn("where expression failed, excluding record",
				"expression", m.expression,
				"record", i,
				"error", err)
			continue
		}

		if truthy(output) {
			result = append(result, r)
		}
	}
	return result, nil
}

// truthy converts an expression result to a boolean.
func truthy(v interface{}) bool {
	if v == nil {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	default:
		return true
	}
}

// Verify interface compliance at compile time
var _ Module = (*WhereModule)(nil)
