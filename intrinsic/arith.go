package intrinsic

import (
	"math"
	"strings"

	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
)

func describe(v value.Value) string {
	s := v.String()
	if r := []rune(s); len(r) > 11 {
		s = string(r[:10]) + "..."
	}
	return value.TypeName(v) + " (" + s + ")"
}

func binaryTypeError(lhs, rhs value.Value, verb string) error {
	return errz.TypeErrorf("%s and %s cannot be %s", describe(lhs), describe(rhs), verb)
}

// Add implements jq's "+". Null is the identity, strings and arrays are
// concatenated and objects are merged with the right side winning.
func Add(lhs, rhs value.Value) (value.Value, error) {
	if _, ok := lhs.(value.Null); ok {
		return rhs, nil
	}
	if _, ok := rhs.(value.Null); ok {
		return lhs, nil
	}
	switch l := lhs.(type) {
	case value.Number:
		if r, ok := rhs.(value.Number); ok {
			return l + r, nil
		}
	case value.String:
		if r, ok := rhs.(value.String); ok {
			return l + r, nil
		}
	case value.Array:
		if r, ok := rhs.(value.Array); ok {
			return l.Concat(r), nil
		}
	case value.Object:
		if r, ok := rhs.(value.Object); ok {
			return l.Merge(r), nil
		}
	}
	return nil, binaryTypeError(lhs, rhs, "added")
}

// Subtract implements jq's "-" for numbers and arrays. Array subtraction
// removes every element of lhs that equals some element of rhs.
func Subtract(lhs, rhs value.Value) (value.Value, error) {
	switch l := lhs.(type) {
	case value.Number:
		if r, ok := rhs.(value.Number); ok {
			return l - r, nil
		}
	case value.Array:
		if r, ok := rhs.(value.Array); ok {
			removed := r.Values()
			result := value.NewArray()
			for _, item := range l.Values() {
				if !containsValue(removed, item) {
					result = result.Append(item)
				}
			}
			return result, nil
		}
	}
	return nil, binaryTypeError(lhs, rhs, "subtracted")
}

func containsValue(items []value.Value, v value.Value) bool {
	for _, item := range items {
		if value.Equal(item, v) {
			return true
		}
	}
	return false
}

// Multiply implements jq's "*": numeric product, string repetition and
// recursive object merge.
func Multiply(lhs, rhs value.Value) (value.Value, error) {
	switch l := lhs.(type) {
	case value.Number:
		switch r := rhs.(type) {
		case value.Number:
			return l * r, nil
		case value.String:
			return repeat(r, l)
		}
	case value.String:
		if r, ok := rhs.(value.Number); ok {
			return repeat(l, r)
		}
	case value.Object:
		if r, ok := rhs.(value.Object); ok {
			return deepMerge(l, r), nil
		}
	}
	return nil, binaryTypeError(lhs, rhs, "multiplied")
}

// maxRepeatLen bounds the length of a string built by repetition.
const maxRepeatLen = 1 << 28

func repeat(s value.String, n value.Number) (value.Value, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errz.ValueErrorf("%s cannot be repeated %s times", describe(s), describe(n))
	}
	if f <= 0 {
		return value.Null{}, nil
	}
	if len(s) == 0 {
		return s, nil
	}
	count := math.Ceil(f)
	if count*float64(len(s)) > maxRepeatLen {
		return nil, errz.ValueErrorf("%s repeated %s times is too long", describe(s), describe(n))
	}
	return value.String(strings.Repeat(string(s), int(count))), nil
}

func deepMerge(l, r value.Object) value.Object {
	result := l
	r.Each(func(k string, rv value.Value) bool {
		lv, found := result.Get(k)
		lo, lok := lv.(value.Object)
		ro, rok := rv.(value.Object)
		if found && lok && rok {
			result = result.Set(k, deepMerge(lo, ro))
		} else {
			result = result.Set(k, rv)
		}
		return true
	})
	return result
}

// Divide implements jq's "/": numeric division and string splitting.
// Dividing by zero is an error.
func Divide(lhs, rhs value.Value) (value.Value, error) {
	switch l := lhs.(type) {
	case value.Number:
		if r, ok := rhs.(value.Number); ok {
			if r == 0 {
				return nil, errz.ValueErrorf("%s and %s cannot be divided because the divisor is zero",
					describe(lhs), describe(rhs))
			}
			return l / r, nil
		}
	case value.String:
		if r, ok := rhs.(value.String); ok {
			return split(l, r), nil
		}
	}
	return nil, binaryTypeError(lhs, rhs, "divided")
}

func split(s, sep value.String) value.Value {
	result := value.NewArray()
	if s == "" {
		return result
	}
	for _, part := range strings.Split(string(s), string(sep)) {
		result = result.Append(value.String(part))
	}
	return result
}

// Modulo implements jq's "%" on the integer parts of its operands.
func Modulo(lhs, rhs value.Value) (value.Value, error) {
	l, lok := lhs.(value.Number)
	r, rok := rhs.(value.Number)
	if !lok || !rok {
		return nil, binaryTypeError(lhs, rhs, "divided")
	}
	if math.IsNaN(float64(l)) || math.IsNaN(float64(r)) {
		return nil, errz.ValueErrorf("%s and %s cannot be divided because one is not a number",
			describe(lhs), describe(rhs))
	}
	divisor := int64(r)
	if divisor == 0 {
		return nil, errz.ValueErrorf("%s and %s cannot be divided because the divisor is zero",
			describe(lhs), describe(rhs))
	}
	if divisor < 0 {
		divisor = -divisor
	}
	return value.Number(float64(int64(l) % divisor)), nil
}

// Negate implements unary minus.
func Negate(v value.Value) (value.Value, error) {
	if n, ok := v.(value.Number); ok {
		return -n, nil
	}
	return nil, errz.TypeErrorf("%s cannot be negated", describe(v))
}

// Floor rounds a number down.
func Floor(v value.Value) (value.Value, error) {
	if n, ok := v.(value.Number); ok {
		return value.Number(math.Floor(float64(n))), nil
	}
	return nil, errz.TypeErrorf("%s number required", describe(v))
}

// Sqrt returns the square root of a number.
func Sqrt(v value.Value) (value.Value, error) {
	if n, ok := v.(value.Number); ok {
		return value.Number(math.Sqrt(float64(n))), nil
	}
	return nil, errz.TypeErrorf("%s number required", describe(v))
}
