package vm

import (
	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
)

// scopeFrame records, for an open scope, where execution resumes once the
// scope is exited.
type scopeFrame struct {
	ret bytecode.Address
	id  bytecode.ScopeID
}

// fork is one independent, resumable execution state. Every container is
// persistent, so copying a fork is cheap and the copy shares no mutable
// state with the original.
type fork struct {
	id           int
	pc           bytecode.Address
	stack        stack[value.Value]
	scopes       scopeTable
	scopeStack   stack[scopeFrame]
	closureStack stack[bytecode.Closure]
}

func newFork(id int, pc bytecode.Address) *fork {
	return &fork{id: id, pc: pc}
}

// clone returns a copy of f positioned at pc.
func (f *fork) clone(id int, pc bytecode.Address) *fork {
	c := *f
	c.id = id
	c.pc = pc
	return &c
}

func (f *fork) push(v value.Value) {
	f.stack = f.stack.push(v)
}

func (f *fork) pop() value.Value {
	v, rest, ok := f.stack.pop()
	if !ok {
		panic(errz.ErrPopEmptyStack)
	}
	f.stack = rest
	return v
}

func (f *fork) dup() {
	v, ok := f.stack.peek()
	if !ok {
		panic(errz.ErrPopEmptyStack)
	}
	f.push(v)
}

func (f *fork) pushClosure(c bytecode.Closure) {
	f.closureStack = f.closureStack.push(c)
}

func (f *fork) popClosure() bytecode.Closure {
	c, rest, ok := f.closureStack.pop()
	if !ok {
		panic(errz.ErrPopEmptyStack)
	}
	f.closureStack = rest
	return c
}

func (f *fork) load(slot bytecode.ScopedSlot) value.Value {
	return f.scopes.load(slot)
}

func (f *fork) store(slot bytecode.ScopedSlot, v value.Value) {
	f.scopes = f.scopes.store(slot, v)
}

func (f *fork) appendTo(slot bytecode.ScopedSlot, v value.Value) {
	arr, ok := f.scopes.load(slot).(value.Array)
	if !ok {
		panic(errz.ErrAppendNonArray)
	}
	f.scopes = f.scopes.store(slot, arr.Append(v))
}

func (f *fork) closure(slot bytecode.ScopedSlot) bytecode.Closure {
	return f.scopes.loadClosure(slot)
}

func (f *fork) storeClosure(slot bytecode.ScopedSlot, c bytecode.Closure) {
	f.scopes = f.scopes.storeClosure(slot, c)
}

// enterScope opens a new scope at id that returns to ret when exited.
func (f *fork) enterScope(id bytecode.ScopeID, varCount, closureCount int, ret bytecode.Address) {
	f.scopes = f.scopes.enter(id, varCount, closureCount)
	f.scopeStack = f.scopeStack.push(scopeFrame{ret: ret, id: id})
}

// exitScope closes the innermost open scope and returns the address to
// resume at.
func (f *fork) exitScope() bytecode.Address {
	frame, rest, ok := f.scopeStack.pop()
	if !ok {
		panic(errz.ErrPopEmptyScope)
	}
	f.scopeStack = rest
	f.scopes = f.scopes.exit(frame.id)
	return frame.ret
}
