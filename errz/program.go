package errz

import (
	"errors"
	"fmt"
)

// ProgramErrorKind identifies an internal consistency violation.
type ProgramErrorKind int

const (
	PopEmptyStack ProgramErrorKind = iota + 1
	UninitializedScope
	UnknownSlot
	UninitializedSlot
	PopEmptyScope
	PopUnknownScope
	CallPending
	NoPendingCall
	AppendNonArray
	ReachedUnreachable
	ReachedPlaceHolder
	Unimplemented
)

// String returns a description of the violation.
func (k ProgramErrorKind) String() string {
	switch k {
	case PopEmptyStack:
		return "tried to pop an empty stack"
	case UninitializedScope:
		return "tried to use an uninitialized scope"
	case UnknownSlot:
		return "tried to use an unknown slot of a scope"
	case UninitializedSlot:
		return "tried to load from an uninitialized slot of a scope"
	case PopEmptyScope:
		return "tried to pop a scope but there was no scope to pop"
	case PopUnknownScope:
		return "tried to restore an unknown scope"
	case CallPending:
		return "call issued while another call is waiting for its scope"
	case NoPendingCall:
		return "new scope entered without a preceding call"
	case AppendNonArray:
		return "expected an array to append to"
	case ReachedUnreachable:
		return "reached an unreachable instruction"
	case ReachedPlaceHolder:
		return "reached a placeholder instruction"
	case Unimplemented:
		return "instruction is not implemented"
	default:
		return "program error"
	}
}

// ProgramError reports bytecode that violates the machine's contract.
type ProgramError struct {
	Kind ProgramErrorKind
	// PC is the address of the failing instruction, or -1 if unknown.
	PC int
	// Op is the name of the failing instruction.
	Op     string
	Detail string
}

// Sentinels for use with errors.Is.
var (
	ErrPopEmptyStack      = &ProgramError{Kind: PopEmptyStack, PC: -1}
	ErrUninitializedScope = &ProgramError{Kind: UninitializedScope, PC: -1}
	ErrUnknownSlot        = &ProgramError{Kind: UnknownSlot, PC: -1}
	ErrUninitializedSlot  = &ProgramError{Kind: UninitializedSlot, PC: -1}
	ErrPopEmptyScope      = &ProgramError{Kind: PopEmptyScope, PC: -1}
	ErrPopUnknownScope    = &ProgramError{Kind: PopUnknownScope, PC: -1}
	ErrCallPending        = &ProgramError{Kind: CallPending, PC: -1}
	ErrNoPendingCall      = &ProgramError{Kind: NoPendingCall, PC: -1}
	ErrAppendNonArray     = &ProgramError{Kind: AppendNonArray, PC: -1}
	ErrUnreachable        = &ProgramError{Kind: ReachedUnreachable, PC: -1}
	ErrPlaceHolder        = &ProgramError{Kind: ReachedPlaceHolder, PC: -1}
	ErrUnimplemented      = &ProgramError{Kind: Unimplemented, PC: -1}
)

// NewProgramError creates a ProgramError with no location.
func NewProgramError(kind ProgramErrorKind, format string, args ...any) *ProgramError {
	return &ProgramError{Kind: kind, PC: -1, Detail: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	msg := "program error: " + e.Kind.String()
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.PC >= 0 {
		msg += fmt.Sprintf(" at %d", e.PC)
		if e.Op != "" {
			msg += " " + e.Op
		}
	}
	return msg
}

// Is reports whether target is a ProgramError of the same kind.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	return ok && t.Kind == e.Kind
}

// At returns a copy of the error located at the given instruction.
func (e *ProgramError) At(pc int, op string) *ProgramError {
	located := *e
	located.PC = pc
	located.Op = op
	return &located
}

// IsFatal reports whether err is, or wraps, a ProgramError.
func IsFatal(err error) bool {
	var perr *ProgramError
	return errors.As(err, &perr)
}

// Recover converts a recovered panic value carrying a ProgramError back
// into an error. Any other panic value is re-raised.
func Recover(r any) error {
	if r == nil {
		return nil
	}
	if err, ok := r.(*ProgramError); ok {
		return err
	}
	panic(r)
}
