// Package transform provides implementations for transform modules.
// This file implements the "rename" transform for relocating fields to
// new names.
package transform

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
)

// RenamePair is one old-name to new-name mapping. Pairs are applied in
// specification order, so a later pair may rename a field produced by an
// earlier pair in the same record.
type RenamePair struct {
	Old string
	New string
}

// RenameModule renames fields on every record. A renamed field keeps its
// position (the new name occupies the old field's slot); renaming onto an
// existing field overwrites that field's value. Fields not mentioned in
// the mapping pass through unchanged.
type RenameModule struct {
	pairs []RenamePair
	log   *slog.Logger
}

// NewRenameFromSpec creates a rename module from the mini-language
// parameter string "old1:new1,old2:new2,...". Old names may repeat across
// pairs; a duplicate old name in the same position set is allowed because
// application order is well defined.
func NewRenameFromSpec(params string, log *slog.Logger) (*RenameModule, error) {
	entries := splitList(params)
	if len(entries) == 0 {
		return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "rename:"+params,
			"expected 'old:new' pairs")
	}

	pairs := make([]RenamePair, 0, len(entries))
	for _, entry := range entries {
		old, new, ok := strings.Cut(entry, ":")
		old, new = strings.TrimSpace(old), strings.TrimSpace(new)
		if !ok || old == "" || new == "" {
			return nil, errhandling.NewSpecError(errhandling.CodeSpecInvalid, "rename:"+params,
				"malformed pair "+entry+": expected 'old:new'")
		}
		pairs = append(pairs, RenamePair{Old: old, New: new})
	}

	return &RenameModule{pairs: pairs, log: moduleLogger(log)}, nil
}

// Action implements the Module interface.
func (m *RenameModule) Action() string { return "rename" }

// Process implements the Module interface.
// Each output record is a fresh copy; inputs are never mutated.
func (m *RenameModule) Process(ctx context.Context, ds record.Dataset) (record.Dataset, error) {
	if err := checkCancel(ctx); err != nil {
		return nil, err
	}

	result := make(record.Dataset, 0, len(ds))
	for _, r := range ds {
		renamed := r.Clone()
		for _, p := range m.pairs {
			renamed.Rename(p.Old, p.New)
		}
		result = append(result, renamed)
	}
	return result, nil
}

// Verify interface compliance at compile time
var _ Module = (*RenameModule)(nil)
