// Package xq runs programs on the xq backtracking virtual machine.
//
// Programs are written in the xq assembler format (see package asm) and
// produce zero or more results for each input:
//
//	program, err := xq.Assemble(`
//	    fork other
//	    push 1
//	    output
//	other:
//	    push 2
//	    output
//	`)
//	values, err := xq.Run(ctx, program, value.Null{})
//
// Run collects every value; Stream yields results one at a time and keeps
// going past query errors.
package xq

import (
	"context"
	"iter"

	"github.com/deepnoodle-ai/xq/asm"
	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/deepnoodle-ai/xq/vm"
)

// Assemble translates assembler source into a Program. The returned Program
// is immutable and may be run concurrently by any number of goroutines.
func Assemble(source string, opts ...Option) (*bytecode.Program, error) {
	o := collectOptions(opts...)
	return asm.AssembleFile(o.filename, source)
}

// Stream runs program against input and yields each result. A query error
// is yielded in place of the value of the solution path that raised it and
// the remaining paths continue. A program error or the cancellation of ctx
// is yielded last. A nil input is treated as null.
func Stream(ctx context.Context, program *bytecode.Program, input value.Value, opts ...Option) iter.Seq2[value.Value, error] {
	o := collectOptions(opts...)
	if input == nil {
		input = value.Null{}
	}
	return func(yield func(value.Value, error) bool) {
		machine := vm.New(program, append(o.vmOpts(), vm.WithInput(input))...)
		count := 0
		for o.limit <= 0 || count < o.limit {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			result, ok, err := next(machine)
			if err != nil {
				yield(nil, err)
				return
			}
			if !ok {
				return
			}
			count++
			if !yield(result.Value, result.Err) {
				return
			}
		}
	}
}

// next advances machine, converting a program error panic into an error.
func next(machine *vm.Machine) (result vm.Result, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errz.Recover(r)
		}
	}()
	result, ok = machine.Next()
	return result, ok, nil
}

// Run executes program against input and returns its values in order. The
// first error, whether a query error, a program error or the cancellation of
// ctx, stops the run; it is returned with the values produced before it.
func Run(ctx context.Context, program *bytecode.Program, input value.Value, opts ...Option) ([]value.Value, error) {
	var values []value.Value
	for v, err := range Stream(ctx, program, input, opts...) {
		if err != nil {
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// Eval is a convenience function that assembles and runs source code.
// It is equivalent to Assemble() followed by Run().
func Eval(ctx context.Context, source string, input value.Value, opts ...Option) ([]value.Value, error) {
	program, err := Assemble(source, opts...)
	if err != nil {
		return nil, err
	}
	return Run(ctx, program, input, opts...)
}
