package intrinsic

import "github.com/deepnoodle-ai/xq/value"

func comparison(pred func(c int) bool) func(lhs, rhs value.Value) (value.Value, error) {
	return func(lhs, rhs value.Value) (value.Value, error) {
		return value.Bool(pred(value.Compare(lhs, rhs))), nil
	}
}

var (
	Equal        = comparison(func(c int) bool { return c == 0 })
	NotEqual     = comparison(func(c int) bool { return c != 0 })
	Less         = comparison(func(c int) bool { return c < 0 })
	LessEqual    = comparison(func(c int) bool { return c <= 0 })
	Greater      = comparison(func(c int) bool { return c > 0 })
	GreaterEqual = comparison(func(c int) bool { return c >= 0 })
)

// Not returns the logical negation of v's truthiness.
func Not(v value.Value) (value.Value, error) {
	return value.Bool(!value.Truthy(v)), nil
}
