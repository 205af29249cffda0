package intrinsic

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
)

// Length returns the length of a string (in code points), array or object,
// the absolute value of a number, and zero for null.
func Length(v value.Value) (value.Value, error) {
	switch v := v.(type) {
	case value.Null:
		return value.Number(0), nil
	case value.Number:
		return value.Number(math.Abs(float64(v))), nil
	case value.String:
		return value.Number(utf8.RuneCountInString(string(v))), nil
	case value.Array:
		return value.Number(v.Len()), nil
	case value.Object:
		return value.Number(v.Len()), nil
	default:
		return nil, errz.TypeErrorf("%s has no length", describe(v))
	}
}

// Type returns the name of v's type.
func Type(v value.Value) (value.Value, error) {
	return value.String(value.TypeName(v)), nil
}

// ToString returns strings unchanged and the JSON text of anything else.
func ToString(v value.Value) (value.Value, error) {
	if s, ok := v.(value.String); ok {
		return s, nil
	}
	return value.String(v.String()), nil
}

// ToNumber parses a string as a number. Numbers are returned unchanged.
func ToNumber(v value.Value) (value.Value, error) {
	switch v := v.(type) {
	case value.Number:
		return v, nil
	case value.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, errz.ValueErrorf("%s cannot be parsed as a number", describe(v)).WithCause(err)
		}
		return value.Number(f), nil
	default:
		return nil, errz.TypeErrorf("%s cannot be parsed as a number", describe(v))
	}
}

// Keys returns the sorted keys of an object or the indices of an array.
func Keys(v value.Value) (value.Value, error) {
	switch v := v.(type) {
	case value.Object:
		keys := value.NewArray()
		for _, k := range v.Keys() {
			keys = keys.Append(value.String(k))
		}
		return keys, nil
	case value.Array:
		keys := value.NewArray()
		for i := 0; i < v.Len(); i++ {
			keys = keys.Append(value.Number(i))
		}
		return keys, nil
	default:
		return nil, errz.TypeErrorf("%s has no keys", describe(v))
	}
}

// ToJSON encodes v as a JSON string.
func ToJSON(v value.Value) (value.Value, error) {
	data, err := value.ToJSON(v)
	if err != nil {
		return nil, errz.RuntimeErrorf("cannot encode %s", describe(v)).WithCause(err)
	}
	return value.String(data), nil
}

// FromJSON decodes a JSON string.
func FromJSON(v value.Value) (value.Value, error) {
	s, ok := v.(value.String)
	if !ok {
		return nil, errz.TypeErrorf("%s only strings can be parsed", describe(v))
	}
	parsed, err := value.ParseJSON([]byte(s))
	if err != nil {
		return nil, errz.ValueErrorf("%s cannot be parsed as JSON", describe(v)).WithCause(err)
	}
	return parsed, nil
}

// Index looks up a key in an object or an index in an array. Missing keys
// and out of range indices yield null, as does indexing null.
func Index(container, key value.Value) (value.Value, error) {
	switch c := container.(type) {
	case value.Null:
		switch key.(type) {
		case value.String, value.Number, value.Null:
			return value.Null{}, nil
		}
	case value.Object:
		if k, ok := key.(value.String); ok {
			if v, found := c.Get(string(k)); found {
				return v, nil
			}
			return value.Null{}, nil
		}
	case value.Array:
		if k, ok := key.(value.Number); ok {
			i := int(math.Floor(float64(k)))
			if i < 0 {
				i += c.Len()
			}
			if i < 0 || i >= c.Len() {
				return value.Null{}, nil
			}
			return c.Get(i), nil
		}
	}
	return nil, errz.TypeErrorf("cannot index %s with %s", value.TypeName(container), describe(key))
}
