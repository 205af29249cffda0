package value

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// ParseJSON parses a single JSON document.
func ParseJSON(data []byte) (Value, error) {
	dec := NewDecoder(bytes.NewReader(data))
	v, err := dec.Decode()
	if err != nil {
		return nil, err
	}
	if _, err := dec.Decode(); err != io.EOF {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// MustParseJSON is like ParseJSON but panics on error. Intended for tests and
// literals known to be valid.
func MustParseJSON(s string) Value {
	v, err := ParseJSON([]byte(s))
	if err != nil {
		panic(err)
	}
	return v
}

// Decoder reads a stream of whitespace separated JSON values.
type Decoder struct {
	dec *json.Decoder
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// Decode returns the next value in the stream, or io.EOF when the stream is
// exhausted.
func (d *Decoder) Decode() (Value, error) {
	var raw any
	if err := d.dec.Decode(&raw); err != nil {
		return nil, err
	}
	return FromAny(raw)
}

// FromAny converts a decoded Go value into a Value.
func FromAny(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", x.String(), err)
		}
		return Number(f), nil
	case float64:
		return Number(x), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case string:
		return String(x), nil
	case []any:
		arr := NewArray()
		for _, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			arr = arr.Append(v)
		}
		return arr, nil
	case map[string]any:
		obj := NewObject()
		for k, item := range x {
			v, err := FromAny(item)
			if err != nil {
				return nil, err
			}
			obj = obj.Set(k, v)
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type %T", x)
	}
}

// ToAny converts v into plain Go values (nil, bool, float64, string,
// []any, map[string]any) suitable for generic encoders.
func ToAny(v Value) any {
	switch v := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(v)
	case Number:
		f := float64(v)
		if math.IsNaN(f) {
			return nil
		}
		if math.IsInf(f, 0) {
			return math.Copysign(math.MaxFloat64, f)
		}
		return f
	case String:
		return string(v)
	case Array:
		items := make([]any, 0, v.Len())
		for _, item := range v.Values() {
			items = append(items, ToAny(item))
		}
		return items
	case Object:
		fields := make(map[string]any, v.Len())
		v.Each(func(k string, item Value) bool {
			fields[k] = ToAny(item)
			return true
		})
		return fields
	default:
		return nil
	}
}

// ToJSON returns the compact JSON encoding of v.
func ToJSON(v Value) ([]byte, error) {
	return json.MarshalNoEscape(ToAny(v))
}

// ToIndentedJSON returns the JSON encoding of v indented by indent.
func ToIndentedJSON(v Value, indent string) ([]byte, error) {
	return json.MarshalIndent(ToAny(v), "", indent)
}

// ToYAML returns the YAML encoding of v.
func ToYAML(v Value) ([]byte, error) {
	return yaml.Marshal(ToAny(v))
}

func quote(s string) string {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return fmt.Sprintf("%q", s)
	}
	return string(b)
}
