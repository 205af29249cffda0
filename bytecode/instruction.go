package bytecode

import (
	"fmt"
	"strings"

	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
)

// Instruction is one machine instruction. Op selects the operation; the
// remaining fields are operands and only those used by Op are meaningful.
type Instruction struct {
	Op op.Code

	// Value is the literal of Push and Const.
	Value value.Value

	// Slot is the operand of Load, Store, StoreClosure, Append and
	// CallClosure.
	Slot ScopedSlot

	// Target is the destination of Fork, Jump, JumpUnless and Call.
	Target Address

	// Return is the address Call and CallClosure resume at after Ret.
	Return Address

	// Closure is the operand of PushClosure.
	Closure Closure

	// Scope, VarCount and ClosureCount are the operands of NewScope.
	Scope        ScopeID
	VarCount     int
	ClosureCount int

	Fn1 Intrinsic1
	Fn2 Intrinsic2
}

// Simple returns an instruction that takes no operands, such as Pop or
// Output. It is also how the reserved, unimplemented opcodes are encoded.
func Simple(code op.Code) Instruction {
	return Instruction{Op: code}
}

func Nop() Instruction    { return Simple(op.Nop) }
func Pop() Instruction    { return Simple(op.Pop) }
func Dup() Instruction    { return Simple(op.Dup) }
func Ret() Instruction    { return Simple(op.Ret) }
func Output() Instruction { return Simple(op.Output) }

func Push(v value.Value) Instruction {
	return Instruction{Op: op.Push, Value: v}
}

func Const(v value.Value) Instruction {
	return Instruction{Op: op.Const, Value: v}
}

func Load(slot ScopedSlot) Instruction {
	return Instruction{Op: op.Load, Slot: slot}
}

func Store(slot ScopedSlot) Instruction {
	return Instruction{Op: op.Store, Slot: slot}
}

func Append(slot ScopedSlot) Instruction {
	return Instruction{Op: op.Append, Slot: slot}
}

func PushClosure(c Closure) Instruction {
	return Instruction{Op: op.PushClosure, Closure: c}
}

func StoreClosure(slot ScopedSlot) Instruction {
	return Instruction{Op: op.StoreClosure, Slot: slot}
}

func Fork(target Address) Instruction {
	return Instruction{Op: op.Fork, Target: target}
}

func Jump(target Address) Instruction {
	return Instruction{Op: op.Jump, Target: target}
}

func JumpUnless(target Address) Instruction {
	return Instruction{Op: op.JumpUnless, Target: target}
}

func Call(function, returnAddr Address) Instruction {
	return Instruction{Op: op.Call, Target: function, Return: returnAddr}
}

func CallClosure(slot ScopedSlot, returnAddr Address) Instruction {
	return Instruction{Op: op.CallClosure, Slot: slot, Return: returnAddr}
}

func NewScope(id ScopeID, varCount, closureCount int) Instruction {
	return Instruction{Op: op.NewScope, Scope: id, VarCount: varCount, ClosureCount: closureCount}
}

func CallIntrinsic1(fn Intrinsic1) Instruction {
	return Instruction{Op: op.Intrinsic1, Fn1: fn}
}

func CallIntrinsic2(fn Intrinsic2) Instruction {
	return Instruction{Op: op.Intrinsic2, Fn2: fn}
}

// Operands returns the textual operands of the instruction, in assembler
// order.
func (in Instruction) Operands() []string {
	switch in.Op {
	case op.Push, op.Const:
		if in.Value == nil {
			return []string{"null"}
		}
		return []string{in.Value.String()}
	case op.Load, op.Store, op.Append, op.StoreClosure:
		return []string{in.Slot.String()}
	case op.PushClosure:
		return []string{fmt.Sprint(int(in.Closure.Addr))}
	case op.Fork, op.Jump, op.JumpUnless:
		return []string{fmt.Sprint(int(in.Target))}
	case op.Call:
		return []string{fmt.Sprint(int(in.Target)), fmt.Sprint(int(in.Return))}
	case op.CallClosure:
		return []string{in.Slot.String(), fmt.Sprint(int(in.Return))}
	case op.NewScope:
		return []string{fmt.Sprint(int(in.Scope)), fmt.Sprint(in.VarCount), fmt.Sprint(in.ClosureCount)}
	case op.Intrinsic1:
		return []string{in.Fn1.Name}
	case op.Intrinsic2:
		return []string{in.Fn2.Name}
	default:
		return nil
	}
}

// String returns the instruction in assembler syntax, e.g. "call 4 9".
func (in Instruction) String() string {
	name := op.GetInfo(in.Op).Mnemonic
	if name == "" {
		name = in.Op.String()
	}
	operands := in.Operands()
	if len(operands) == 0 {
		return name
	}
	return name + " " + strings.Join(operands, " ")
}
