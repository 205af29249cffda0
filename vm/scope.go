package vm

import (
	"github.com/benbjohnson/immutable"
	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
)

// scope holds the variable and closure slots of one activation of a lexical
// level. A nil entry is an uninitialized slot. Scopes are never mutated in
// place; writes produce a new scope.
type scope struct {
	slots    *immutable.List[value.Value]
	closures *immutable.List[*bytecode.Closure]
}

func newScope(varCount, closureCount int) *scope {
	return &scope{
		slots:    immutable.NewList(make([]value.Value, varCount)...),
		closures: immutable.NewList(make([]*bytecode.Closure, closureCount)...),
	}
}

// scopeEntry is the state of one ScopeID: the live scope, if any, and the
// scopes it shadows, most recent on top.
type scopeEntry struct {
	current *scope
	saved   stack[*scope]
}

// scopeTable maps ScopeIDs to their entries. It grows on demand when a new
// level is entered.
type scopeTable struct {
	entries *immutable.List[scopeEntry]
}

func (t scopeTable) len() int {
	if t.entries == nil {
		return 0
	}
	return t.entries.Len()
}

// live returns the number of levels that currently have a scope.
func (t scopeTable) live() int {
	count := 0
	for i := 0; i < t.len(); i++ {
		if t.entries.Get(i).current != nil {
			count++
		}
	}
	return count
}

// enter installs a fresh scope at id. A scope already live at id is pushed
// onto the saved stack, to be restored by exit.
func (t scopeTable) enter(id bytecode.ScopeID, varCount, closureCount int) scopeTable {
	if id < 0 {
		panic(errz.ErrUninitializedScope)
	}
	entries := t.entries
	if entries == nil {
		entries = immutable.NewList[scopeEntry]()
	}
	for entries.Len() <= int(id) {
		entries = entries.Append(scopeEntry{})
	}
	entry := entries.Get(int(id))
	if entry.current != nil {
		entry.saved = entry.saved.push(entry.current)
	}
	entry.current = newScope(varCount, closureCount)
	return scopeTable{entries: entries.Set(int(id), entry)}
}

// exit discards the scope live at id and restores the one it shadowed, if
// any.
func (t scopeTable) exit(id bytecode.ScopeID) scopeTable {
	if int(id) < 0 || int(id) >= t.len() {
		panic(errz.ErrPopUnknownScope)
	}
	entry := t.entries.Get(int(id))
	if entry.current == nil {
		panic(errz.ErrPopUnknownScope)
	}
	restored, saved, _ := entry.saved.pop()
	entry.current = restored
	entry.saved = saved
	return scopeTable{entries: t.entries.Set(int(id), entry)}
}

func (t scopeTable) current(id bytecode.ScopeID) *scope {
	if int(id) < 0 || int(id) >= t.len() {
		panic(errz.ErrUninitializedScope)
	}
	s := t.entries.Get(int(id)).current
	if s == nil {
		panic(errz.ErrUninitializedScope)
	}
	return s
}

func (t scopeTable) replace(id bytecode.ScopeID, s *scope) scopeTable {
	entry := t.entries.Get(int(id))
	entry.current = s
	return scopeTable{entries: t.entries.Set(int(id), entry)}
}

func (t scopeTable) load(slot bytecode.ScopedSlot) value.Value {
	s := t.current(slot.Scope)
	if slot.Index < 0 || slot.Index >= s.slots.Len() {
		panic(errz.ErrUnknownSlot)
	}
	v := s.slots.Get(slot.Index)
	if v == nil {
		panic(errz.ErrUninitializedSlot)
	}
	return v
}

func (t scopeTable) store(slot bytecode.ScopedSlot, v value.Value) scopeTable {
	s := t.current(slot.Scope)
	if slot.Index < 0 || slot.Index >= s.slots.Len() {
		panic(errz.ErrUnknownSlot)
	}
	return t.replace(slot.Scope, &scope{
		slots:    s.slots.Set(slot.Index, v),
		closures: s.closures,
	})
}

func (t scopeTable) loadClosure(slot bytecode.ScopedSlot) bytecode.Closure {
	s := t.current(slot.Scope)
	if slot.Index < 0 || slot.Index >= s.closures.Len() {
		panic(errz.ErrUnknownSlot)
	}
	c := s.closures.Get(slot.Index)
	if c == nil {
		panic(errz.ErrUninitializedSlot)
	}
	return *c
}

func (t scopeTable) storeClosure(slot bytecode.ScopedSlot, c bytecode.Closure) scopeTable {
	s := t.current(slot.Scope)
	if slot.Index < 0 || slot.Index >= s.closures.Len() {
		panic(errz.ErrUnknownSlot)
	}
	return t.replace(slot.Scope, &scope{
		slots:    s.slots,
		closures: s.closures.Set(slot.Index, &c),
	})
}
