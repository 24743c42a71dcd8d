package transform

import (
	"testing"

	"github.com/rowmill/runtime/internal/errhandling"
	"github.com/rowmill/runtime/internal/record"
)

func TestFilterOperators(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Name", "Ana", "Age", "30"),
		rec(t, "Name", "Bo", "Age", "17"),
		rec(t, "Name", "Cleo", "Age", "30.5"),
	}

	tests := []struct {
		name      string
		params    string
		wantNames []string
	}{
		{"greater", "Age,>,18", []string{"Ana", "Cleo"}},
		{"less", "Age,<,18", []string{"Bo"}},
		{"greater equal boundary", "Age,>=,30", []string{"Ana", "Cleo"}},
		{"less equal", "Age,<=,30", []string{"Ana", "Bo"}},
		{"equal numeric", "Age,==,30", []string{"Ana"}},
		{"equal float literal vs int field", "Age,==,30.0", []string{"Ana"}},
		{"not equal", "Age,!=,30", []string{"Bo", "Cleo"}},
		{"equal string", "Name,==,Bo", []string{"Bo"}},
		{"contains", "Name,contains,o", []string{"Bo", "Cleo"}},
		{"startswith", "Name,startswith,A", []string{"Ana"}},
		{"endswith", "Name,endswith,a", []string{"Ana"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewFilterFromSpec(tt.params, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			out := process(t, m, ds)
			if len(out) != len(tt.wantNames) {
				t.Fatalf("got %d records, want %d", len(out), len(tt.wantNames))
			}
			for i, want := range tt.wantNames {
				if got := fieldStr(t, out[i], "Name"); got != want {
					t.Errorf("record %d = %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestFilterTypeMismatchExcludes(t *testing.T) {
	// Age holds text in one record; ordering against a number cannot
	// compare, so the record silently drops out.
	ds := record.Dataset{
		rec(t, "Name", "Ana", "Age", "30"),
		rec(t, "Name", "Bo", "Age", "unknown"),
	}

	m, err := NewFilterFromSpec("Age,>,18", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := process(t, m, ds)
	if len(out) != 1 || fieldStr(t, out[0], "Name") != "Ana" {
		t.Errorf("got %d records, want only Ana", len(out))
	}

	// String operators against a non-string field also never match.
	m, err = NewFilterFromSpec("Age,contains,3", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out = process(t, m, ds)
	if len(out) != 0 {
		t.Errorf("contains on numeric field matched %d records, want 0", len(out))
	}
}

func TestFilterAbsentColumnExcludes(t *testing.T) {
	ds := record.Dataset{
		rec(t, "Age", "30"),
		rec(t, "Name", "NoAge"),
	}

	m, err := NewFilterFromSpec("Age,>,1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := process(t, m, ds)
	if len(out) != 1 {
		t.Errorf("got %d records, want 1", len(out))
	}
}

func TestFilterUnknownOperatorMatchesNothing(t *testing.T) {
	// An unknown operator is not a spec error; it just never matches.
	m, err := NewFilterFromSpec("Age,~=,30", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := process(t, m, record.Dataset{rec(t, "Age", "30")})
	if len(out) != 0 {
		t.Errorf("got %d records, want 0", len(out))
	}
}

func TestFilterSpecErrors(t *testing.T) {
	tests := []struct {
		name   string
		params string
	}{
		{"missing parts", "Age,>"},
		{"empty column", ",>,5"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFilterFromSpec(tt.params, nil)
			if err == nil {
				t.Fatal("expected error")
			}
			if errhandling.Classify(err) != errhandling.CategorySpecification {
				t.Errorf("error category = %v, want specification", errhandling.Classify(err))
			}
		})
	}
}

func TestFilterLiteralWithCommas(t *testing.T) {
	// Only the first two commas split; the rest belongs to the literal.
	m, err := NewFilterFromSpec("Note,==,a,b,c", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := process(t, m, record.Dataset{rec(t, "Note", "a,b,c")})
	if len(out) != 1 {
		t.Errorf("got %d records, want 1", len(out))
	}
}
