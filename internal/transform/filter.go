// Package transform provides implementations for transform modules.
// This file implements the "filter" transform for excluding records by a
// single-column predicate.
package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// Comparison operators supported by the filter transform.
const (
	OpGreater        = ">"
	OpLess           = "<"
	OpGreaterOrEqual = ">="
	OpLessOrEqual    = "<="
	OpEqual          = "=="
	OpNotEqual       = "!="
	OpContains       = "contains"
	OpStartsWith     = "startswith"
	OpEndsWith       = "endswith"
)

// knownOperators is the set of operators the filter understands. An
// unknown operator is not a specification error: the stage runs and
// matches nothing, with a diagnostic warning.
var knownOperators = map[string]bool{
	OpGreater: true, OpLess: true, OpGreaterOrEqual: true, OpLessOrEqual: true,
	OpEqual: true, OpNotEqual: true,
	OpContains: true, OpStartsWith: true, OpEndsWith: true,
}

// FilterModule keeps the records whose column value matches the
// configured predicate. Records missing the column are excluded, and a
// comparison across incompatible kinds is no match rather than an error.
type FilterModule struct {
	column   string
	operator string
	literal  value.Value
	known    bool
	log      *slog.Logger
}

// NewFilterFromSpec creates a filter module from the mini-language
// parameter string "column,operator,value". The literal is coerced with
// the load-time rule, so a numeric-looking literal compares numerically
// against numeric fields.
func NewFilterFromSpec(params string, log *slog.Logger) (*FilterModule, error) {
	parts := strings.SplitN(params, ",", 3)
	if len(parts) != 3 {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "filter:"+params,
			"expected 'column,operator,value'")
	}

	column := strings.TrimSpace(parts[0])
	operator := strings.TrimSpace(parts[1])
	rawLiteral := strings.TrimSpace(parts[2])
	if column == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "filter:"+params,
			"column name is empty")
	}

	log = moduleLogger(log)
	known := knownOperators[operator]
	if !known {
		log.Warn("unsupported filter operator; no records will match",
			slog.String("operator", operator),
			slog.String("column", column),
		)
	}

	return &FilterModule{
		column:   column,
		operator: operator,
		literal:  value.Coerce(rawLiteral),
		known:    known,
		log:      log,
	}, nil
}

// Action implements the Module interface.
func (m *FilterModule) Action() string { return "filter" }

// Process implements the Module interface.
// Output preserves input order; this is a pure filter with no mutation,
// so kept records are shared with the input dataset.
func (m *FilterModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	result := make(record.Dataset, 0, len(ds))
	if !m.known {
		return result, nil
	}

	for _, r := range ds {
		fieldValue, ok := r.Get(m.column)
		if !ok {
			continue
		}
		if m.matches(fieldValue) {
			result = append(result, r)
		}
	}
	return result, nil
}

// matches evaluates the predicate for one field value. Type mismatches
// (string against number, null on either side) are treated as no match.
func (m *FilterModule) matches(fieldValue value.Value) bool {
	switch m.operator {
	case OpEqual:
		return fieldValue.Equal(m.literal)
	case OpNotEqual:
		// Incomparable kinds are still "no match", matching the ordering
		// operators rather than boolean negation of ==.
		if _, ok := fieldValue.Compare(m.literal); !ok {
			return false
		}
		return !fieldValue.Equal(m.literal)
	case OpGreater, OpLess, OpGreaterOrEqual, OpLessOrEqual:
		c, ok := fieldValue.Compare(m.literal)
		if !ok {
			return false
		}
		switch m.operator {
		case OpGreater:
			return c > 0
		case OpLess:
			return c < 0
		case OpGreaterOrEqual:
			return c >= 0
		default:
			return c <= 0
		}
	case OpContains, OpStartsWith, OpEndsWith:
		if fieldValue.Kind() != value.KindString || m.literal.Kind() != value.KindString {
			return false
		}
		s, sub := fieldValue.AsString(), m.literal.AsString()
		switch m.operator {
		case OpContains:
			return strings.Contains(s, sub)
		case OpStartsWith:
			return strings.HasPrefix(s, sub)
		default:
			return strings.HasSuffix(s, sub)
		}
	default:
		return false
	}
}

// Verify interface compliance at compile time
var _ Module = (*FilterModule)(nil)
