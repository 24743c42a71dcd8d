// Package transform provides implementations for transform modules.
// This file implements the small expression language used by the
// "addcol" transform.
package transform

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rowmill/runtime/internal/record"
	"github.com/rowmill/runtime/internal/value"
)

// ColumnExpr is a parsed add-column expression. Parsing happens once at
// module construction; evaluation runs per record and may fail (missing
// field, non-numeric operand), in which case the caller assigns Null.
type ColumnExpr interface {
	Eval(r *record.Record) (value.Value, error)
}

// literalExpr yields the same Value for every record.
type literalExpr struct {
	v value.Value
}

func (e literalExpr) Eval(*record.Record) (value.Value, error) {
	return e.v, nil
}

// fieldExpr reads a named field and fails when the field is absent.
type fieldExpr struct {
	name string
}

func (e fieldExpr) Eval(r *record.Record) (value.Value, error) {
	v, ok := r.Get(e.name)
	if !ok {
		return value.Null(), fmt.Errorf("field %q not found", e.name)
	}
	return v, nil
}

// fieldOrTextExpr is a concatenation operand: the named field's
// stringified Value when the field exists. An absent operand contributes
// the text itself only when the text could not be a field name (not
// purely alphanumeric); a plausible field name that is missing from the
// record contributes the empty string.
type fieldOrTextExpr struct {
	text string
}

func (e fieldOrTextExpr) Eval(r *record.Record) (value.Value, error) {
	if v, ok := r.Get(e.text); ok {
		return value.Str(v.String()), nil
	}
	if isAlphanumeric(e.text) {
		return value.Str(""), nil
	}
	return value.Str(e.text), nil
}

// isAlphanumeric reports whether s is non-empty and contains only
// letters and digits.
func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

type binaryOp int

const (
	opMul binaryOp = iota
	opAdd
	opConcat
)

// binaryExpr combines two sub-expressions. Arithmetic ops require both
// operands numeric and follow integer/float promotion; concat joins the
// stringified operands.
type binaryExpr struct {
	op    binaryOp
	left  ColumnExpr
	right ColumnExpr
}

func (e binaryExpr) Eval(r *record.Record) (value.Value, error) {
	lv, err := e.left.Eval(r)
	if err != nil {
		return value.Null(), err
	}
	rv, err := e.right.Eval(r)
	if err != nil {
		return value.Null(), err
	}

	switch e.op {
	case opConcat:
		return value.Str(lv.String() + rv.String()), nil
	case opMul:
		v, ok := value.Mul(lv, rv)
		if !ok {
			return value.Null(), fmt.Errorf("cannot multiply %s and %s", lv.Kind(), rv.Kind())
		}
		return v, nil
	case opAdd:
		v, ok := value.Add(lv, rv)
		if !ok {
			return value.Null(), fmt.Errorf("cannot add %s and %s", lv.Kind(), rv.Kind())
		}
		return v, nil
	}
	return value.Null(), fmt.Errorf("unknown operator %d", e.op)
}

// ParseColumnExpr parses an add-column expression. Resolution order:
//
//  1. quoted text ("..." or '...') is a string literal
//  2. an expression containing "*" multiplies a field by a literal
//  3. an expression containing "+" is concatenation when the right-hand
//     text is neither numeric nor quoted, numeric addition otherwise
//  4. anything else is a bare literal, coerced like loaded cell text
//
// The shape of the expression is fixed at parse time; only operand
// values vary per record.
func ParseColumnExpr(expression string) ColumnExpr {
	expression = strings.TrimSpace(expression)

	if lit, ok := quotedLiteral(expression); ok {
		return literalExpr{v: value.Str(lit)}
	}

	if left, right, ok := strings.Cut(expression, "*"); ok {
		return binaryExpr{
			op:    opMul,
			left:  fieldExpr{name: strings.TrimSpace(left)},
			right: literalExpr{v: value.Coerce(strings.TrimSpace(right))},
		}
	}

	if left, right, ok := strings.Cut(expression, "+"); ok {
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if !value.IsNumericText(right) && !startsWithQuote(right) {
			return binaryExpr{
				op:    opConcat,
				left:  fieldOrTextExpr{text: left},
				right: fieldOrTextExpr{text: right},
			}
		}
		return binaryExpr{
			op:    opAdd,
			left:  fieldExpr{name: left},
			right: literalExpr{v: value.Coerce(right)},
		}
	}

	return literalExpr{v: value.Coerce(expression)}
}

// quotedLiteral reports whether s is wrapped in matching single or double
// quotes and returns the unquoted content.
func quotedLiteral(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	first, last := s[0], s[len(s)-1]
	if first != last || (first != '"' && first != '\'') {
		return "", false
	}
	return s[1 : len(s)-1], true
}

func startsWithQuote(s string) bool {
	return len(s) > 0 && (s[0] == '"' || s[0] == '\'')
}
