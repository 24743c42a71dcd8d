package transform

import (
	"context"
	"testing"

	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// rec builds a record from alternating name/raw-text pairs, coercing the
// text the way the loaders do.
func rec(t *testing.T, pairs ...string) *record.Record {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("rec: odd number of arguments")
	}
	r := record.New(len(pairs) / 2)
	for i := 0; i < len(pairs); i += 2 {
		r.Set(pairs[i], value.Coerce(pairs[i+1]))
	}
	return r
}

// fieldStr returns the stringified value of a field, failing the test
// when the field is absent.
func fieldStr(t *testing.T, r *record.Record, name string) string {
	t.Helper()
	v, ok := r.Get(name)
	if !ok {
		t.Fatalf("field %q absent, record has %v", name, r.Fields())
	}
	return v.String()
}

// process runs a module over a dataset with a background context.
func process(t *testing.T, m Module, ds record.Dataset) record.Dataset {
	t.Helper()
	out, err := m.Process(context.Background(), ds)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return out
}

func TestProcessCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m, err := NewSelectFromSpec("a", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Process(ctx, record.Dataset{rec(t, "a", "1")}); err == nil {
		t.Error("expected error from canceled context")
	}
}
