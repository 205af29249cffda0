package value

import (
	"strings"

	"github.com/benbjohnson/immutable"
)

type keyComparer struct{}

func (keyComparer) Compare(a, b string) int {
	return strings.Compare(a, b)
}

// Object is a mapping of string keys to values, kept in key order and backed
// by a persistent sorted map. The zero value is an empty object.
type Object struct {
	fields *immutable.SortedMap[string, Value]
}

// NewObject returns an empty object.
func NewObject() Object {
	return Object{fields: immutable.NewSortedMap[string, Value](keyComparer{})}
}

// ObjectOf builds an object from a Go map.
func ObjectOf(fields map[string]Value) Object {
	obj := NewObject()
	for k, v := range fields {
		obj = obj.Set(k, v)
	}
	return obj
}

func (o Object) sorted() *immutable.SortedMap[string, Value] {
	if o.fields == nil {
		return immutable.NewSortedMap[string, Value](keyComparer{})
	}
	return o.fields
}

func (o Object) Kind() Kind { return KindObject }

// Len returns the number of keys.
func (o Object) Len() int {
	if o.fields == nil {
		return 0
	}
	return o.fields.Len()
}

// Get returns the value stored under key.
func (o Object) Get(key string) (Value, bool) {
	if o.fields == nil {
		return nil, false
	}
	return o.fields.Get(key)
}

// Set returns a new object with key bound to v.
func (o Object) Set(key string, v Value) Object {
	return Object{fields: o.sorted().Set(key, v)}
}

// Delete returns a new object without key.
func (o Object) Delete(key string) Object {
	return Object{fields: o.sorted().Delete(key)}
}

// Keys returns the keys in sorted order.
func (o Object) Keys() []string {
	keys := make([]string, 0, o.Len())
	o.Each(func(k string, _ Value) bool {
		keys = append(keys, k)
		return true
	})
	return keys
}

// Each calls fn for each key in order until fn returns false.
func (o Object) Each(fn func(key string, v Value) bool) {
	if o.fields == nil {
		return
	}
	itr := o.fields.Iterator()
	for !itr.Done() {
		k, v, ok := itr.Next()
		if !ok || !fn(k, v) {
			return
		}
	}
}

// Merge returns a new object with the fields of other added to o. Keys
// present in both take the value from other.
func (o Object) Merge(other Object) Object {
	merged := o.sorted()
	other.Each(func(k string, v Value) bool {
		merged = merged.Set(k, v)
		return true
	})
	return Object{fields: merged}
}

func (o Object) Equal(other Value) bool {
	p, ok := other.(Object)
	if !ok || p.Len() != o.Len() {
		return false
	}
	equal := true
	o.Each(func(k string, v Value) bool {
		pv, found := p.Get(k)
		equal = found && Equal(v, pv)
		return equal
	})
	return equal
}

func (o Object) String() string {
	var b strings.Builder
	b.WriteByte('{')
	first := true
	o.Each(func(k string, v Value) bool {
		if !first {
			b.WriteByte(',')
		}
		first = false
		b.WriteString(quote(k))
		b.WriteByte(':')
		b.WriteString(v.String())
		return true
	})
	b.WriteByte('}')
	return b.String()
}
