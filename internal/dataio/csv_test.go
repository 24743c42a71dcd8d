package dataio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestCSVLoaderCoercesCells(t *testing.T) {
	path := writeFile(t, "in.csv", "Name,Age,Score\nAna,30,9.5\nBo,17,none\n")

	ds, err := NewCSVLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ds) != 2 {
		t.Fatalf("got %d records, want 2", len(ds))
	}

	v, _ := ds[0].Get("Age")
	if v.Kind() != value.KindInteger || v.AsInt() != 30 {
		t.Errorf("Age = %v (%v), want integer 30", v, v.Kind())
	}
	v, _ = ds[0].Get("Score")
	if v.Kind() != value.KindFloat {
		t.Errorf("Score kind = %v, want float", v.Kind())
	}
	v, _ = ds[1].Get("Score")
	if v.Kind() != value.KindString || v.AsString() != "none" {
		t.Errorf("Score = %v, want string none", v)
	}

	fields := ds[0].Fields()
	if len(fields) != 3 || fields[0] != "Name" || fields[2] != "Score" {
		t.Errorf("fields = %v, want header order", fields)
	}
}

func TestCSVLoaderEdgeCases(t *testing.T) {
	t.Run("empty file", func(t *testing.T) {
		ds, err := NewCSVLoader(nil).Load(context.Background(), writeFile(t, "empty.csv", ""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ds) != 0 {
			t.Errorf("got %d records, want 0", len(ds))
		}
	})

	t.Run("header only", func(t *testing.T) {
		ds, err := NewCSVLoader(nil).Load(context.Background(), writeFile(t, "h.csv", "a,b\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ds) != 0 {
			t.Errorf("got %d records, want 0", len(ds))
		}
	})

	t.Run("short row leaves fields absent", func(t *testing.T) {
		ds, err := NewCSVLoader(nil).Load(context.Background(), writeFile(t, "s.csv", "a,b,c\n1,2\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(ds) != 1 {
			t.Fatalf("got %d records, want 1", len(ds))
		}
		if ds[0].Has("c") {
			t.Error("short row materialized a value for c")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewCSVLoader(nil).Load(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
		if err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestCSVWriter(t *testing.T) {
	r1 := record.New(2)
	r1.Set("Name", value.Str("Ana"))
	r1.Set("Age", value.Int(30))
	r2 := record.New(2)
	r2.Set("Name", value.Str("Bo"))
	r2.Set("Note", value.Null())
	ds := record.Dataset{r1, r2}

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVWriter(nil).Write(context.Background(), path, ds, ds.Fields()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), content)
	}
	if lines[0] != "Name,Age,Note" {
		t.Errorf("header = %q, want Name,Age,Note", lines[0])
	}
	if lines[1] != "Ana,30," {
		t.Errorf("row 1 = %q, want Ana,30,", lines[1])
	}
	// Absent and null fields both render empty.
	if lines[2] != "Bo,," {
		t.Errorf("row 2 = %q, want Bo,,", lines[2])
	}
}

func TestCSVWriterEmptyDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	err := NewCSVWriter(nil).Write(context.Background(), path, record.Dataset{}, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	content, _ := os.ReadFile(path)
	if strings.TrimRight(string(content), "\n") != "a,b" {
		t.Errorf("content = %q, want header only", content)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	in := "Name,Age\nAna,30\nBo,17\n"
	path := writeFile(t, "in.csv", in)

	ds, err := NewCSVLoader(nil).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	out := filepath.Join(t.TempDir(), "out.csv")
	if err := NewCSVWriter(nil).Write(context.Background(), out, ds, ds.Fields()); err != nil {
		t.Fatalf("write: %v", err)
	}

	content, _ := os.ReadFile(out)
	if string(content) != in {
		t.Errorf("round trip changed content:\n%q\n%q", in, content)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		explicit string
		path     string
		want     string
	}{
		{"", "data.csv", FormatCSV},
		{"", "data.JSON", FormatJSON},
		{"csv", "data.txt", FormatCSV},
		{"json", "data.csv", FormatJSON},
		{"", "data.txt", ""},
		{"xml", "data.xml", ""},
	}

	for _, tt := range tests {
		if got := DetectFormat(tt.explicit, tt.path); got != tt.want {
			t.Errorf("DetectFormat(%q, %q) = %q, want %q", tt.explicit, tt.path, got, tt.want)
		}
	}
}
