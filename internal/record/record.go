// Package record implements the ordered record model threaded through the
// transform pipeline. A Record maps unique field names to Values and
// remembers insertion order, which determines output column order. A
// Dataset is an ordered sequence of Records and is the unit every
// transform consumes and produces.
//
// Transforms never mutate a Record they received; they build new Records
// (usually via Clone) so pipeline stages compose without aliasing hazards.
// Read-only sharing of Records across Datasets is therefore always safe.
package record

import (
	"bytes"
	"encoding/json"

	"github.com/rowmill/runtime/internal/value"
)

// Field is one name/value pair of a Record.
type Field struct {
	Name  string
	Value value.Value
}

// Record is an ordered field-name to Value mapping. Field names are
// unique within a Record. The zero Record is empty and ready to use
// through Set.
type Record struct {
	fields []Field
	index  map[string]int
}

// New returns an empty Record with capacity for n fields.
func New(n int) *Record {
	return &Record{
		fields: make([]Field, 0, n),
		index:  make(map[string]int, n),
	}
}

// Len returns the number of fields.
func (r *Record) Len() int {
	return len(r.fields)
}

// Get returns the Value of the named field and whether it is present.
func (r *Record) Get(name string) (value.Value, bool) {
	if r.index == nil {
		return value.Null(), false
	}
	i, ok := r.index[name]
	if !ok {
		return value.Null(), false
	}
	return r.fields[i].Value, true
}

// Has reports whether the named field is present.
func (r *Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Set assigns the named field. An existing field keeps its position; a
// new field is appended. Set mutates the Record and is intended for
// Records under construction (fresh or cloned), never for inputs.
func (r *Record) Set(name string, v value.Value) {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[name]; ok {
		r.fields[i].Value = v
		return
	}
	r.index[name] = len(r.fields)
	r.fields = append(r.fields, Field{Name: name, Value: v})
}

// Delete removes the named field, shifting later fields down one slot.
// It is a no-op when the field is absent.
func (r *Record) Delete(name string) {
	i, ok := r.index[name]
	if !ok {
		return
	}
	r.fields = append(r.fields[:i], r.fields[i+1:]...)
	delete(r.index, name)
	for j := i; j < len(r.fields); j++ {
		r.index[r.fields[j].Name] = j
	}
}

// Rename moves the field old to the name new, keeping old's position and
// Value. If new already exists elsewhere in the Record, that field is
// removed first (the renamed value overwrites it). Rename reports whether
// old was present.
func (r *Record) Rename(old, new string) bool {
	i, ok := r.index[old]
	if !ok {
		return false
	}
	if old == new {
		return true
	}
	// Drop a pre-existing target field; the slot that survives is old's.
	if _, exists := r.index[new]; exists {
		r.Delete(new)
		i = r.index[old]
	}
	r.fields[i].Name = new
	delete(r.index, old)
	r.index[new] = i
	return true
}

// Fields returns the field names in order. The slice is freshly
// allocated and safe for the caller to keep.
func (r *Record) Fields() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// At returns the i-th field in insertion order.
func (r *Record) At(i int) Field {
	return r.fields[i]
}

// Clone returns a deep, independent copy of the Record. Values are
// immutable, so copying the field slice and index is sufficient.
func (r *Record) Clone() *Record {
	c := New(len(r.fields))
	c.fields = append(c.fields, r.fields...)
	for name, i := range r.index {
		c.index[name] = i
	}
	return c
}

// MarshalJSON encodes the Record as a JSON object with keys in field
// order. encoding/json map encoding would sort keys, so the object is
// written by hand.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dataset is an ordered sequence of Records. Records in a Dataset need
// not share the same field set; heterogeneous schemas are tolerated at
// every stage.
type Dataset []*Record

// Fields returns the union of field names across the Dataset in
// first-seen order. Writers use this as the default column order.
func (ds Dataset) Fields() []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range ds {
		for _, f := range r.fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				names = append(names, f.Name)
			}
		}
	}
	return names
}
