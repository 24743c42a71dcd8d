// Package value implements the typed scalar model used by the transform
// engine. A Value is one of four kinds (Integer, Float, String, Null) with
// deterministic coercion from raw text and explicit numeric promotion rules.
package value

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies the type of a Value.
type Kind int

// Value kinds. The zero Kind is Null so the zero Value is the null value.
const (
	KindNull Kind = iota
	KindInteger
	KindFloat
	KindString
)

// String returns the kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "null"
	}
}

// Value is a tagged scalar. Values are immutable; all operations return
// new Values. The zero Value is Null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// Null returns the null Value.
func Null() Value {
	return Value{}
}

// Int returns an Integer Value.
func Int(i int64) Value {
	return Value{kind: KindInteger, i: i}
}

// Float returns a Float Value.
func Float(f float64) Value {
	return Value{kind: KindFloat, f: f}
}

// Str returns a String Value.
func Str(s string) Value {
	return Value{kind: KindString, s: s}
}

// Coerce converts raw text to a Value using the load-time coercion rule:
// integer parse first, floating-point parse second, otherwise the text is
// kept as a String. Coercion is deterministic and total - every input
// yields exactly one of the four kinds (never Null for a raw string).
func Coerce(raw string) Value {
	// Numeric parses tolerate surrounding whitespace; the String fallback
	// keeps the original text untouched.
	trimmed := strings.TrimSpace(raw)
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return Int(i)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return Float(f)
	}
	return Str(raw)
}

// IsNumericText reports whether raw would coerce to a numeric kind.
func IsNumericText(raw string) bool {
	return Coerce(raw).IsNumeric()
}

// FromNative converts a natively-typed value (as produced by a JSON
// decoder using json.Number) to a Value without re-coercing: numbers stay
// numbers, strings stay strings, nil stays Null. Booleans and composite
// values have no kind in this model and are stringified.
func FromNative(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case string:
		return Str(t)
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return Int(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return Str(t.String())
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case bool:
		return Str(strconv.FormatBool(t))
	default:
		// Composite values (nested objects, arrays) keep their JSON text.
		if data, err := json.Marshal(t); err == nil {
			return Str(string(data))
		}
		return Str(fmt.Sprintf("%v", t))
	}
}

// Kind returns the Value's kind.
func (v Value) Kind() Kind {
	return v.kind
}

// IsNull reports whether the Value is Null.
func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// IsNumeric reports whether the Value is Integer or Float.
func (v Value) IsNumeric() bool {
	return v.kind == KindInteger || v.kind == KindFloat
}

// AsInt returns the integer payload. Only meaningful for KindInteger.
func (v Value) AsInt() int64 {
	return v.i
}

// AsFloat returns the numeric payload widened to float64.
// Only meaningful for numeric kinds.
func (v Value) AsFloat() float64 {
	if v.kind == KindInteger {
		return float64(v.i)
	}
	return v.f
}

// AsString returns the string payload. Only meaningful for KindString.
func (v Value) AsString() string {
	return v.s
}

// String renders the Value as text, the form used for CSV cells and for
// string concatenation. Integers render without a decimal point; floats
// use the shortest representation that round-trips; Null renders empty.
func (v Value) String() string {
	switch v.kind {
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindString:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether two Values are equal. Integer and Float compare
// numerically across kinds (Int(3) equals Float(3.0)); other cross-kind
// pairs are never equal.
func (v Value) Equal(o Value) bool {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInteger && o.kind == KindInteger {
			return v.i == o.i
		}
		return v.AsFloat() == o.AsFloat()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	default: // both null
		return true
	}
}

// Compare orders two Values whose kinds support native ordering:
// numeric against numeric, or string against string. The second return
// is false for any other pairing (including Null on either side), which
// the filter operator treats as "no match" rather than an error.
func (v Value) Compare(o Value) (int, bool) {
	if v.IsNumeric() && o.IsNumeric() {
		if v.kind == KindInteger && o.kind == KindInteger {
			return compareInt64(v.i, o.i), true
		}
		return compareFloat64(v.AsFloat(), o.AsFloat()), true
	}
	if v.kind == KindString && o.kind == KindString {
		return strings.Compare(v.s, o.s), true
	}
	return 0, false
}

// sortRank gives every kind a fixed position for the sort operator's
// total order: numeric kinds first, then strings, then nulls.
func sortRank(k Kind) int {
	switch k {
	case KindInteger, KindFloat:
		return 0
	case KindString:
		return 1
	default:
		return 2
	}
}

// SortCompare orders any two Values totally. Natively comparable pairs
// order by Compare; incompatible pairs order by the fixed kind ranking
// numeric < string < null, so cross-kind sorts are deterministic instead
// of undefined.
func SortCompare(a, b Value) int {
	if c, ok := a.Compare(b); ok {
		return c
	}
	ra, rb := sortRank(a.kind), sortRank(b.kind)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

// Mul multiplies two Values. Both operands must be numeric; the result is
// Integer only when both operands are Integers, otherwise Float.
// The second return is false when either operand is non-numeric.
func Mul(a, b Value) (Value, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Null(), false
	}
	if a.kind == KindInteger && b.kind == KindInteger {
		return Int(a.i * b.i), true
	}
	return Float(a.AsFloat() * b.AsFloat()), true
}

// Add adds two Values with the same promotion rule as Mul.
func Add(a, b Value) (Value, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return Null(), false
	}
	if a.kind == KindInteger && b.kind == KindInteger {
		return Int(a.i + b.i), true
	}
	return Float(a.AsFloat() + b.AsFloat()), true
}

// Native returns the Value as a plain Go value (int64, float64, string or
// nil), the form handed to expression engines and JSON encoders.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler. Integers marshal without a
// decimal point and integral Floats keep one, so JSON round-trips
// preserve the kind.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case KindFloat:
		s := strconv.FormatFloat(v.f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return []byte(s), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
