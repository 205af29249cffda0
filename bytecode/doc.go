// Package bytecode defines compiled xq programs.
//
// A Program is a flat, immutable sequence of instructions addressed by
// Address, plus an entry address. Programs are produced by a compiler or by
// the assembler in package asm, and executed by package vm.
//
// Variables and closures are addressed lexically: a ScopedSlot names a
// nesting level (ScopeID, assigned at compile time) and a slot index within
// the scope live at that level. A Closure is nothing more than a code
// address; it is resolved against whatever scopes are live when it is
// called, not against a captured environment.
//
// Programs are usually built with a Builder, which resolves forward
// references to labels:
//
//	b := bytecode.NewBuilder()
//	alt := b.NewLabel("alt")
//	b.Fork(alt)
//	b.Emit(bytecode.Push(value.Number(10)))
//	b.Emit(bytecode.Output())
//	b.Mark(alt)
//	b.Emit(bytecode.Push(value.Number(20)))
//	b.Emit(bytecode.Output())
//	program, err := b.Build()
package bytecode
