package vm

import (
	"context"

	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
)

// Run executes program to completion in a new Machine and returns every
// result in order. The context is checked between results. A program error
// stops the run and is returned as an *errz.ProgramError together with the
// results produced before it.
func Run(ctx context.Context, program *bytecode.Program, options ...Option) (results []Result, err error) {
	machine := New(program, options...)
	defer func() {
		if r := recover(); r != nil {
			err = errz.Recover(r)
		}
	}()
	for {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, ok := machine.Next()
		if !ok {
			return results, nil
		}
		results = append(results, result)
	}
}
