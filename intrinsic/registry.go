// Package intrinsic provides the built-in functions that xq programs call
// through the Intrinsic1 and Intrinsic2 instructions.
//
// Each function is a plain Go function over values. Failures are returned
// as *errz.QueryError and become the result of the failing solution path.
package intrinsic

import (
	"sort"

	"github.com/deepnoodle-ai/xq/bytecode"
)

var unary = map[string]bytecode.Func1{
	"length":   Length,
	"not":      Not,
	"type":     Type,
	"tostring": ToString,
	"tonumber": ToNumber,
	"keys":     Keys,
	"negate":   Negate,
	"floor":    Floor,
	"sqrt":     Sqrt,
	"tojson":   ToJSON,
	"fromjson": FromJSON,
}

var binary = map[string]bytecode.Func2{
	"add":          Add,
	"subtract":     Subtract,
	"multiply":     Multiply,
	"divide":       Divide,
	"modulo":       Modulo,
	"equal":        Equal,
	"notequal":     NotEqual,
	"less":         Less,
	"lessequal":    LessEqual,
	"greater":      Greater,
	"greaterequal": GreaterEqual,
	"index":        Index,
}

// Lookup1 returns the arity-1 intrinsic with the given name.
func Lookup1(name string) (bytecode.Intrinsic1, bool) {
	fn, ok := unary[name]
	if !ok {
		return bytecode.Intrinsic1{}, false
	}
	return bytecode.Intrinsic1{Name: name, Func: fn}, true
}

// Lookup2 returns the arity-2 intrinsic with the given name.
func Lookup2(name string) (bytecode.Intrinsic2, bool) {
	fn, ok := binary[name]
	if !ok {
		return bytecode.Intrinsic2{}, false
	}
	return bytecode.Intrinsic2{Name: name, Func: fn}, true
}

// Must1 is like Lookup1 but panics if the intrinsic does not exist.
func Must1(name string) bytecode.Intrinsic1 {
	fn, ok := Lookup1(name)
	if !ok {
		panic("unknown intrinsic: " + name)
	}
	return fn
}

// Must2 is like Lookup2 but panics if the intrinsic does not exist.
func Must2(name string) bytecode.Intrinsic2 {
	fn, ok := Lookup2(name)
	if !ok {
		panic("unknown intrinsic: " + name)
	}
	return fn
}

// Names1 returns the names of the arity-1 intrinsics, sorted.
func Names1() []string {
	return sortedKeys(unary)
}

// Names2 returns the names of the arity-2 intrinsics, sorted.
func Names2() []string {
	return sortedKeys(binary)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Names returns the names of every intrinsic of either arity, sorted.
func Names() []string {
	names := append(Names1(), Names2()...)
	sort.Strings(names)
	return names
}
