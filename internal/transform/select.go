// Package transform provides implementations for transform modules.
// This file implements the "select" transform for projecting records onto
// a column subset.
package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rowmill/runtime/internal/record"
)

// SelectModule projects each record onto the requested columns, in the
// requested order. Columns absent from a record are silently omitted;
// records left with zero fields are dropped from the dataset.
type SelectModule struct {
	columns []string
	log     *slog.Logger
}

// NewSelectFromSpec creates a select module from the mini-language
// parameter string "col1,col2,...". An empty column list is accepted and
// makes the module a logged no-op. Duplicate column names keep their
// first occurrence.
func NewSelectFromSpec(params string, log *slog.Logger) (*SelectModule, error) {
	log = moduleLogger(log)

	columns := splitList(params)
	seen := make(map[string]bool, len(columns))
	unique := columns[:0]
	for _, c := range columns {
		if seen[c] {
			log.Warn("select lists a column more than once; keeping the first occurrence",
				slog.String("column", c),
			)
			continue
		}
		seen[c] = true
		unique = append(unique, c)
	}

	return &SelectModule{columns: unique, log: log}, nil
}

// Action implements the Module interface.
func (m *SelectModule) Action() string { return "select" }

// Process implements the Module interface.
// The projected record keeps the requested column order, not the
// record's original field order.
func (m *SelectModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	if len(m.columns) == 0 {
		m.log.Warn("select has no columns; dataset passes through unchanged")
		return ds, nil
	}

	result := make(record.Dataset, 0, len(ds))
	dropped := 0
	for _, r := range ds {
		projected := record.New(len(m.columns))
		for _, col := range m.columns {
			if v, ok := r.Get(col); ok {
				projected.Set(col, v)
			}
		}
		if projected.Len() == 0 {
			dropped++
			continue
		}
		result = append(result, projected)
	}

	if dropped > 0 {
		m.log.Debug("select dropped records with no matching columns",
			slog.Int("dropped", dropped),
		)
	}
	return result, nil
}

// splitList splits a comma-separated parameter list, trimming whitespace
// and skipping empty entries.
func splitList(params string) []string {
	parts := strings.Split(params, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Verify interface compliance at compile time
var _ Module = (*SelectModule)(nil)
