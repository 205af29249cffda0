package vm

import "github.com/benbjohnson/immutable"

// stack is a persistent LIFO stack. Every operation returns a new stack and
// leaves the receiver untouched, so copies never observe each other's
// pushes and pops.
type stack[T any] struct {
	items *immutable.List[T]
}

func (s stack[T]) len() int {
	if s.items == nil {
		return 0
	}
	return s.items.Len()
}

func (s stack[T]) push(item T) stack[T] {
	items := s.items
	if items == nil {
		items = immutable.NewList[T]()
	}
	return stack[T]{items: items.Append(item)}
}

func (s stack[T]) pop() (T, stack[T], bool) {
	n := s.len()
	if n == 0 {
		var zero T
		return zero, s, false
	}
	top := s.items.Get(n - 1)
	return top, stack[T]{items: s.items.Slice(0, n-1)}, true
}

func (s stack[T]) peek() (T, bool) {
	n := s.len()
	if n == 0 {
		var zero T
		return zero, false
	}
	return s.items.Get(n - 1), true
}
