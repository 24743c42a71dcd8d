// Package transform provides implementations for transform modules.
// This file implements the "addcol" transform for computing new fields.
package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// AddColumnModule adds a field to every record, or overwrites it when the
// name already exists. The field's Value comes from evaluating an
// expression against each record; a record whose evaluation fails gets
// Null for the field and the failure is logged, never raised.
type AddColumnModule struct {
	name string
	expr ColumnExpr
	log  *slog.Logger
}

// NewAddColumnFromSpec creates an add-column module from the
// mini-language parameter string "name=expression".
func NewAddColumnFromSpec(params string, log *slog.Logger) (*AddColumnModule, error) {
	name, expression, ok := strings.Cut(params, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "addcol:"+params,
			"expected 'name=expression'")
	}

	return &AddColumnModule{
		name: name,
		expr: ParseColumnExpr(expression),
		log:  moduleLogger(log),
	}, nil
}

// Action implements the Module interface.
func (m *AddColumnModule) Action() string { return "addcol" }

// Process implements the Module interface.
// Each output record is a fresh copy; inputs are never mutated.
func (m *AddColumnModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	result := make(record.Dataset, 0, len(ds))
	for i, r := range ds {
		out := r.Clone()
		v, err := m.expr.Eval(out)
		if err != nil {
			m.log.Warn("column expression failed, setting null",
				"column", m.name,
				"record", i,
				"error", err)
			v = value.Null()
		}
		out.Set(m.name, v)
		result = append(result, out)
	}
	return result, nil
}

// Verify interface compliance at compile time
var _ Module = (*AddColumnModule)(nil)
