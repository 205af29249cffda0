package bytecode

import (
	"fmt"

	"github.com/deepnoodle-ai/xq/value"
)

// Address identifies an instruction within a Program.
type Address int

// Next returns the address of the following instruction.
func (a Address) Next() Address {
	return a + 1
}

func (a Address) String() string {
	return fmt.Sprintf("#%d", int(a))
}

// ScopeID identifies a lexical nesting level. IDs are assigned by the
// compiler and are the same for every fork running a program.
type ScopeID int

// ScopedSlot identifies a variable or closure slot inside the scope that is
// live at nesting level Scope.
type ScopedSlot struct {
	Scope ScopeID
	Index int
}

// Slot is shorthand for constructing a ScopedSlot.
func Slot(scope ScopeID, index int) ScopedSlot {
	return ScopedSlot{Scope: scope, Index: index}
}

func (s ScopedSlot) String() string {
	return fmt.Sprintf("%d:%d", int(s.Scope), s.Index)
}

// Closure is a callable value. It carries only the address of its code.
type Closure struct {
	Addr Address
}

func (c Closure) String() string {
	return fmt.Sprintf("closure(%s)", c.Addr)
}

// Func1 is the Go signature of an arity-1 intrinsic.
type Func1 func(arg value.Value) (value.Value, error)

// Func2 is the Go signature of an arity-2 intrinsic.
type Func2 func(lhs, rhs value.Value) (value.Value, error)

// Intrinsic1 is a named arity-1 intrinsic. The name is only used for
// diagnostics.
type Intrinsic1 struct {
	Name string
	Func Func1
}

// Intrinsic2 is a named arity-2 intrinsic. The name is only used for
// diagnostics.
type Intrinsic2 struct {
	Name string
	Func Func2
}
