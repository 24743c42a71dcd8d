package record

import (
	"encoding/json"
	"testing"

	"github.com/rowmill/runtime/internal/value"
)

func newTestRecord(pairs ...string) *Record {
	r := New(len(pairs))
	for _, p := range pairs {
		r.Set(p, value.Str("v-"+p))
	}
	return r
}

func TestSetPreservesOrder(t *testing.T) {
	r := New(3)
	r.Set("c", value.Int(1))
	r.Set("a", value.Int(2))
	r.Set("b", value.Int(3))

	want := []string{"c", "a", "b"}
	got := r.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Overwriting keeps the original position.
	r.Set("c", value.Int(9))
	if r.Fields()[0] != "c" {
		t.Errorf("overwrite moved field: %v", r.Fields())
	}
	if v, _ := r.Get("c"); v.AsInt() != 9 {
		t.Errorf("overwrite lost value: %v", v)
	}
}

func TestDelete(t *testing.T) {
	r := newTestRecord("a", "b", "c")
	r.Delete("b")

	if r.Has("b") {
		t.Error("deleted field still present")
	}
	want := []string{"a", "c"}
	for i, name := range r.Fields() {
		if name != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, name, want[i])
		}
	}
	// Index must stay consistent after the shift.
	if v, ok := r.Get("c"); !ok || v.AsString() != "v-c" {
		t.Errorf("Get(c) after delete = %v, %v", v, ok)
	}
}

func TestRename(t *testing.T) {
	t.Run("keeps position", func(t *testing.T) {
		r := newTestRecord("a", "b", "c")
		if !r.Rename("b", "x") {
			t.Fatal("Rename returned false for present field")
		}
		want := []string{"a", "x", "c"}
		for i, name := range r.Fields() {
			if name != want[i] {
				t.Errorf("Fields()[%d] = %q, want %q", i, name, want[i])
			}
		}
		if v, _ := r.Get("x"); v.AsString() != "v-b" {
			t.Errorf("renamed field lost value: %v", v)
		}
	})

	t.Run("overwrites existing target", func(t *testing.T) {
		r := newTestRecord("a", "b", "c")
		r.Rename("a", "c")
		fields := r.Fields()
		if len(fields) != 2 || fields[0] != "c" || fields[1] != "b" {
			t.Fatalf("Fields() = %v, want [c b]", fields)
		}
		if v, _ := r.Get("c"); v.AsString() != "v-a" {
			t.Errorf("target kept old value: %v", v)
		}
	})

	t.Run("absent source is a no-op", func(t *testing.T) {
		r := newTestRecord("a")
		if r.Rename("missing", "x") {
			t.Error("Rename returned true for absent field")
		}
		if r.Has("x") {
			t.Error("no-op rename created a field")
		}
	})

	t.Run("same name is a no-op", func(t *testing.T) {
		r := newTestRecord("a", "b")
		if !r.Rename("a", "a") {
			t.Error("Rename returned false")
		}
		if len(r.Fields()) != 2 || !r.Has("a") {
			t.Errorf("self-rename damaged record: %v", r.Fields())
		}
	})
}

func TestCloneIndependence(t *testing.T) {
	r := newTestRecord("a", "b")
	c := r.Clone()
	c.Set("a", value.Int(1))
	c.Set("new", value.Int(2))
	c.Rename("b", "z")

	if v, _ := r.Get("a"); v.AsString() != "v-a" {
		t.Errorf("clone mutation leaked into original: %v", v)
	}
	if r.Has("new") || r.Has("z") || !r.Has("b") {
		t.Errorf("clone mutation changed original fields: %v", r.Fields())
	}
}

func TestMarshalJSONOrder(t *testing.T) {
	r := New(3)
	r.Set("zeta", value.Int(1))
	r.Set("alpha", value.Str("x"))
	r.Set("mid", value.Null())

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"zeta":1,"alpha":"x","mid":null}`
	if string(data) != want {
		t.Errorf("marshal = %s, want %s", data, want)
	}
}

func TestDatasetFieldsUnion(t *testing.T) {
	r1 := newTestRecord("a", "b")
	r2 := newTestRecord("b", "c")
	r3 := newTestRecord("d")
	ds := Dataset{r1, r2, r3}

	want := []string{"a", "b", "c", "d"}
	got := ds.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if fields := (Dataset{}).Fields(); len(fields) != 0 {
		t.Errorf("empty dataset Fields() = %v, want none", fields)
	}
}
