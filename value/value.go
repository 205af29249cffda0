// Package value provides the JSON-shaped values processed by xq programs.
//
// All values are immutable. Arrays and objects are backed by persistent
// collections, so "copying" a value is free and updates such as
// Array.Append return a new value that shares structure with the old one.
//
//	switch v := v.(type) {
//	case value.Number:
//		// float64(v)
//	case value.Array:
//		// v.Len(), v.Get(i)
//	}
package value

import (
	"math"
	"strconv"
)

// Kind identifies the variant of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the jq type name of the kind, e.g. "number".
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is the interface implemented by every xq value.
type Value interface {
	// Kind of the value.
	Kind() Kind

	// Equal reports structural equality with other.
	Equal(other Value) bool

	// String returns the compact JSON text of the value.
	String() string
}

var (
	_ Value = Null{}
	_ Value = Bool(false)
	_ Value = Number(0)
	_ Value = String("")
	_ Value = Array{}
	_ Value = Object{}
)

// Null is the JSON null value.
type Null struct{}

func (Null) Kind() Kind { return KindNull }

func (Null) Equal(other Value) bool {
	_, ok := other.(Null)
	return ok
}

func (Null) String() string { return "null" }

// Bool is a JSON boolean.
type Bool bool

var (
	True  = Bool(true)
	False = Bool(false)
)

func (b Bool) Kind() Kind { return KindBool }

func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && o == b
}

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Number is a JSON number. Like jq, all numbers are double precision floats.
type Number float64

func (n Number) Kind() Kind { return KindNumber }

func (n Number) Equal(other Value) bool {
	o, ok := other.(Number)
	return ok && o == n
}

func (n Number) String() string {
	return formatNumber(float64(n))
}

// IsInteger reports whether n has no fractional part.
func (n Number) IsInteger() bool {
	f := float64(n)
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "null"
	case math.IsInf(f, 1):
		return "1.7976931348623157e+308"
	case math.IsInf(f, -1):
		return "-1.7976931348623157e+308"
	case f == math.Trunc(f) && math.Abs(f) < 1e17:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}

// String is a JSON string.
type String string

func (s String) Kind() Kind { return KindString }

func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && o == s
}

func (s String) String() string {
	return quote(string(s))
}

// Truthy reports whether v counts as true in a condition. Only null and
// false are falsy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil, Null:
		return false
	case Bool:
		return bool(v)
	default:
		return true
	}
}

// Equal reports whether a and b are structurally equal. Nil values are only
// equal to each other.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(b)
}

// TypeName returns the jq type name of v.
func TypeName(v Value) string {
	if v == nil {
		return KindNull.String()
	}
	return v.Kind().String()
}
