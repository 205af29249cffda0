// Package op defines the opcodes understood by the xq virtual machine.
package op

import "strings"

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Control
	Nop         Code = 1
	Unreachable Code = 2
	PlaceHolder Code = 3

	// Stack
	Push  Code = 10
	Pop   Code = 11
	Dup   Code = 12
	Const Code = 13

	// Scoped storage
	Load         Code = 20
	Store        Code = 21
	PushClosure  Code = 22
	StoreClosure Code = 23
	Append       Code = 24
	Object       Code = 25

	// Backtracking
	Fork         Code = 30
	ForkTryBegin Code = 31
	ForkTryEnd   Code = 32
	ForkAlt      Code = 33
	ForkLabel    Code = 34
	Backtrack    Code = 35

	// Jumps
	Jump       Code = 40
	JumpUnless Code = 41

	// Calls and scopes
	Call        Code = 50
	CallClosure Code = 51
	PushPC      Code = 52
	CallPC      Code = 53
	NewScope    Code = 54
	Ret         Code = 55

	// Results
	Output Code = 60
	Each   Code = 61

	// Paths
	ExpBegin  Code = 70
	ExpEnd    Code = 71
	PathBegin Code = 72
	PathEnd   Code = 73

	// Intrinsics
	Intrinsic1 Code = 80
	Intrinsic2 Code = 81
)

// Info contains information about an opcode.
type Info struct {
	Code Code
	Name string
	// Mnemonic is the lowercase spelling used by the assembler.
	Mnemonic string
	// OperandCount is the number of operands the assembler expects.
	OperandCount int
	// Implemented is false for opcodes that are reserved in the instruction
	// set but rejected by the machine.
	Implemented bool
}

var (
	infos     = make([]Info, 256)
	mnemonics = map[string]Code{}
)

func init() {
	type opInfo struct {
		op          Code
		name        string
		count       int
		implemented bool
	}
	ops := []opInfo{
		{Nop, "NOP", 0, true},
		{Unreachable, "UNREACHABLE", 0, true},
		{PlaceHolder, "PLACE_HOLDER", 0, true},
		{Push, "PUSH", 1, true},
		{Pop, "POP", 0, true},
		{Dup, "DUP", 0, true},
		{Const, "CONST", 1, true},
		{Load, "LOAD", 1, true},
		{Store, "STORE", 1, true},
		{PushClosure, "PUSH_CLOSURE", 1, true},
		{StoreClosure, "STORE_CLOSURE", 1, true},
		{Append, "APPEND", 1, true},
		{Object, "OBJECT", 0, false},
		{Fork, "FORK", 1, true},
		{ForkTryBegin, "FORK_TRY_BEGIN", 0, false},
		{ForkTryEnd, "FORK_TRY_END", 0, false},
		{ForkAlt, "FORK_ALT", 0, false},
		{ForkLabel, "FORK_LABEL", 0, false},
		{Backtrack, "BACKTRACK", 0, false},
		{Jump, "JUMP", 1, true},
		{JumpUnless, "JUMP_UNLESS", 1, true},
		{Call, "CALL", 2, true},
		{CallClosure, "CALL_CLOSURE", 2, true},
		{PushPC, "PUSH_PC", 0, false},
		{CallPC, "CALL_PC", 0, false},
		{NewScope, "NEW_SCOPE", 3, true},
		{Ret, "RET", 0, true},
		{Output, "OUTPUT", 0, true},
		{Each, "EACH", 0, false},
		{ExpBegin, "EXP_BEGIN", 0, false},
		{ExpEnd, "EXP_END", 0, false},
		{PathBegin, "PATH_BEGIN", 0, false},
		{PathEnd, "PATH_END", 0, false},
		{Intrinsic1, "INTRINSIC1", 1, true},
		{Intrinsic2, "INTRINSIC2", 1, true},
	}
	for _, o := range ops {
		mnemonic := strings.ReplaceAll(strings.ToLower(o.name), "_", "")
		infos[o.op] = Info{
			Code:         o.op,
			Name:         o.name,
			Mnemonic:     mnemonic,
			OperandCount: o.count,
			Implemented:  o.implemented,
		}
		mnemonics[mnemonic] = o.op
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// String returns the opcode name, e.g. "JUMP_UNLESS".
func (c Code) String() string {
	if name := GetInfo(c).Name; name != "" {
		return name
	}
	return "INVALID"
}

// Lookup returns the opcode for an assembler mnemonic such as "jumpunless".
func Lookup(mnemonic string) (Code, bool) {
	code, ok := mnemonics[strings.ToLower(mnemonic)]
	return code, ok
}

// Mnemonics returns every assembler mnemonic.
func Mnemonics() []string {
	names := make([]string, 0, len(mnemonics))
	for name := range mnemonics {
		names = append(names, name)
	}
	return names
}
