// Package transform provides implementations for transform modules.
// Transform modules are pure Dataset → Dataset functions configured from
// one-line specification strings (the transform mini-language), e.g.
// "filter:Age,>,30". Modules never mutate the Records they receive; every
// stage builds new Records so stages compose without aliasing hazards.
package transform

import (
	"context"
	"log/slog"

	"github.com/rowmill/runtime/internal/record"
)

// Module represents a transform module that processes a dataset.
type Module interface {
	// Process transforms the input dataset and returns a new dataset.
	// The input is never mutated. Per-record problems are handled inside
	// the module (row excluded, field set to null); a returned error means
	// the module could not run at all.
	Process(ctx context.Context, ds record.Dataset) (record.Dataset, error)

	// Action returns the module's action name (select, filter, ...).
	Action() string
}

// moduleLogger returns log, or the fallback disabled-at-error logger when
// the caller injected nil. Keeps modules usable without explicit wiring.
func moduleLogger(log *slog.Logger) *slog.Logger {
	if log != nil {
		return log
	}
	return slog.Default()
}

// checkCancel reports a context cancellation error, checked once per
// record batch boundary.
func checkCancel(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
