package value

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

// Array is an ordered sequence of values backed by a persistent list. The
// zero value is an empty array.
type Array struct {
	items *immutable.List[Value]
}

// NewArray returns an array holding the given items.
func NewArray(items ...Value) Array {
	return Array{items: immutable.NewList(items...)}
}

func (a Array) list() *immutable.List[Value] {
	if a.items == nil {
		return immutable.NewList[Value]()
	}
	return a.items
}

func (a Array) Kind() Kind { return KindArray }

// Len returns the number of items.
func (a Array) Len() int {
	if a.items == nil {
		return 0
	}
	return a.items.Len()
}

// Get returns the item at index i. It panics if i is out of range.
func (a Array) Get(i int) Value {
	return a.list().Get(i)
}

// Append returns a new array with v added to the end.
func (a Array) Append(v Value) Array {
	return Array{items: a.list().Append(v)}
}

// Set returns a new array with the item at index i replaced by v.
func (a Array) Set(i int, v Value) Array {
	return Array{items: a.list().Set(i, v)}
}

// Slice returns the items in [start, end).
func (a Array) Slice(start, end int) Array {
	return Array{items: a.list().Slice(start, end)}
}

// Concat returns a new array holding the items of a followed by those of b.
func (a Array) Concat(b Array) Array {
	items := a.list()
	for _, v := range b.Values() {
		items = items.Append(v)
	}
	return Array{items: items}
}

// Values returns the items as a Go slice.
func (a Array) Values() []Value {
	values := make([]Value, 0, a.Len())
	if a.items == nil {
		return values
	}
	itr := a.items.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		values = append(values, v)
	}
	return values
}

func (a Array) Equal(other Value) bool {
	o, ok := other.(Array)
	if !ok || o.Len() != a.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !Equal(a.Get(i), o.Get(i)) {
			return false
		}
	}
	return true
}

func (a Array) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range a.Values() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
