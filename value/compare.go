package value

import "strings"

// Compare orders two values using jq's total order:
//
//	null < false < true < numbers < strings < arrays < objects
//
// Arrays compare element-wise. Objects compare their sorted key sets first
// and then the values key by key. Compare returns -1, 0 or +1.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmpInt(ra, rb)
	}
	switch a := a.(type) {
	case Number:
		b := b.(Number)
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	case String:
		return strings.Compare(string(a), string(b.(String)))
	case Array:
		b := b.(Array)
		for i := 0; i < a.Len() && i < b.Len(); i++ {
			if c := Compare(a.Get(i), b.Get(i)); c != 0 {
				return c
			}
		}
		return cmpInt(a.Len(), b.Len())
	case Object:
		b := b.(Object)
		if c := Compare(keysArray(a), keysArray(b)); c != 0 {
			return c
		}
		for _, k := range a.Keys() {
			av, _ := a.Get(k)
			bv, _ := b.Get(k)
			if c := Compare(av, bv); c != 0 {
				return c
			}
		}
	}
	return 0
}

func keysArray(o Object) Array {
	arr := NewArray()
	for _, k := range o.Keys() {
		arr = arr.Append(String(k))
	}
	return arr
}

func rank(v Value) int {
	switch v := v.(type) {
	case nil, Null:
		return 0
	case Bool:
		if v {
			return 2
		}
		return 1
	case Number:
		return 3
	case String:
		return 4
	case Array:
		return 5
	default:
		return 6
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
