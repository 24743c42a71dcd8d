package transform

import (
	"testing"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

func names(t *testing.T, ds record.Dataset) []string {
	t.Helper()
	out := make([]string, len(ds))
	for i, r := range ds {
		out[i] = fieldStr(t, r, "Name")
	}
	return out
}

func assertOrder(t *testing.T, ds record.Dataset, want ...string) {
	t.Helper()
	got := names(t, ds)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSortSingleKey(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "Bo", "Age", "25"),
		rec(t, "Name", "Ana", "Age", "30"),
		rec(t, "Name", "Cleo", "Age", "17"),
	}

	m, err := NewSortFromSpec("Age:asc", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "Cleo", "Bo", "Ana")

	m, err = NewSortFromSpec("Age:desc", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "Ana", "Bo", "Cleo")

	// Input order is preserved.
	assertOrder(t, ds, "Bo", "Ana", "Cleo")
}

func TestSortDirectionDefaultsToAscending(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "b"),
		rec(t, "Name", "a"),
	}
	m, err := NewSortFromSpec("Name", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "a", "b")
}

func TestSortMultiKey(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "Ana", "City", "Lyon", "Age", "30"),
		rec(t, "Name", "Bo", "City", "Oslo", "Age", "25"),
		rec(t, "Name", "Cleo", "City", "Lyon", "Age", "25"),
	}

	m, err := NewSortFromSpec("City:asc,Age:desc", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "Ana", "Cleo", "Bo")
}

func TestSortStability(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "first", "Group", "x"),
		rec(t, "Name", "second", "Group", "x"),
		rec(t, "Name", "third", "Group", "x"),
	}
	m, err := NewSortFromSpec("Group:asc", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "first", "second", "third")
}

func TestSortMissingKeySortsFirstBothDirections(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "hasAge", "Age", "30"),
		rec(t, "Name", "noAge"),
	}

	for _, dir := range []string{"asc", "desc"} {
		m, err := NewSortFromSpec("Age:"+dir, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := process(t, m, ds)
		if got := fieldStr(t, out[0], "Name"); got != "noAge" {
			t.Errorf("%s: first record = %q, want noAge", dir, got)
		}
	}
}

func TestSortCrossKindGrouping(t *testing.T) {
	// numeric < string < null, regardless of input order
	ds := record.Dataset{
		rec(t, "Name", "text", "V", "zebra"),
		rec(t, "Name", "number", "V", "5"),
	}
	nullRec := rec(t, "Name", "null")
	nullRec.Set("V", value.Null())
	ds = append(ds, nullRec)

	m, err := NewSortFromSpec("V:asc", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertOrder(t, process(t, m, ds), "number", "text", "null")
}

func TestSortSpecErrors(t *testing.T) {
	tests := []struct {
		name   string
		params string
	}{
		{"empty", ""},
		{"empty column", ":asc"},
		{"bad direction", "Age:sideways"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSortFromSpec(tt.params, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if errhandling.Classify(err) != errhandling.CategorySpecification {
				t.Errorf("error category = %v, want specification", errhandling.Classify(err))
			}
		})
	}
}
