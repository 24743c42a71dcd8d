// Package transform provides implementations for transform modules.
// This file implements the "sort" transform for multi-key record ordering.
package transform

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// SortKey is one sort criterion: a field name and a direction.
type SortKey struct {
	Column     string
	Descending bool
}

// SortModule reorders a Dataset by one or more keys. Keys are compared in
// specification order: earlier keys dominate, later keys break ties. The
// sort is stable, so records that compare equal on every key keep their
// input order. Records missing a key field sort before records that have
// it, regardless of direction.
type SortModule struct {
	keys []SortKey
	log  *slog.Logger
}

// NewSortFromSpec creates a sort module from the mini-language parameter
// string "col1:asc,col2:desc,...". The direction suffix is optional and
// defaults to ascending.
func NewSortFromSpec(params string, log *slog.Logger) (*SortModule, error) {
	entries := splitList(params)
	if len(entries) == 0 {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "sort:"+params,
			"expected 'column[:asc|desc]' keys")
	}

	keys := make([]SortKey, 0, len(entries))
	for _, entry := range entries {
		col, dir, hasDir := strings.Cut(entry, ":")
		col = strings.TrimSpace(col)
		if col == "" {
			return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "sort:"+params,
				"empty column name in key "+entry)
		}
		key := SortKey{Column: col}
		if hasDir {
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "asc", "":
			case "desc":
				key.Descending = true
			default:
				return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "sort:"+params,
					"unknown direction "+dir+" for column "+col+": expected asc or desc")
			}
		}
		keys = append(keys, key)
	}

	return &SortModule{keys: keys, log: moduleLogger(log)}, nil
}

// Action implements the Module interface.
func (m *SortModule) Action() string { return "sort" }

// Process implements the Module interface.
// The input Dataset is not reordered; records are shared into a new slice.
func (m *SortModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	result := make(record.Dataset, len(ds))
	copy(result, ds)

	sort.SliceStable(result, func(i, j int) bool {
		return m.less(result[i], result[j])
	})
	return result, nil
}

// less compares two records key by key. For each key: an absent field
// sorts before a present one in both directions; two present values use
// the total order over Values, negated for descending keys.
func (m *SortModule) less(a, b *record.Record) bool {
	for _, key := range m.keys {
		av, aok := a.Get(key.Column)
		bv, bok := b.Get(key.Column)

		if !aok || !bok {
			if aok == bok {
				continue
			}
			// Absent-before-present is not affected by direction.
			return !aok
		}

		c := value.SortCompare(av, bv)
		if c == 0 {
			continue
		}
		if key.Descending {
			return c > 0
		}
		return c < 0
	}
	return false
}

// Verify interface compliance at compile time
var _ Module = (*SortModule)(nil)
