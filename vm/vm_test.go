package vm

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/intrinsic"
	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func program(instructions ...bytecode.Instruction) *bytecode.Program {
	return bytecode.NewProgram(bytecode.ProgramParams{Instructions: instructions})
}

func run(t *testing.T, p *bytecode.Program, options ...Option) []Result {
	t.Helper()
	results, err := Run(context.Background(), p, options...)
	require.NoError(t, err)
	return results
}

func values(t *testing.T, results []Result) []value.Value {
	t.Helper()
	var out []value.Value
	for _, r := range results {
		require.NoError(t, r.Err)
		out = append(out, r.Value)
	}
	return out
}

func requireFatal(t *testing.T, p *bytecode.Program, target *errz.ProgramError) *errz.ProgramError {
	t.Helper()
	_, err := Run(context.Background(), p)
	require.Error(t, err)
	require.ErrorIs(t, err, target)
	var perr *errz.ProgramError
	require.True(t, errors.As(err, &perr))
	return perr
}

func TestAdd(t *testing.T) {
	p := program(
		bytecode.Push(value.Number(1)),
		bytecode.Push(value.Number(2)),
		bytecode.CallIntrinsic2(intrinsic.Must2("add")),
		bytecode.Output(),
	)
	require.Equal(t, []value.Value{value.Number(3)}, values(t, run(t, p)))
}

func TestForkAlternativesAreLIFO(t *testing.T) {
	b := bytecode.NewBuilder()
	ten := b.NewLabel("ten")
	twenty := b.NewLabel("twenty")
	b.Fork(ten)
	b.Fork(twenty)
	end := b.NewLabel("end")
	b.Jump(end)
	b.Mark(ten)
	b.Emit(bytecode.Push(value.Number(10)))
	b.Emit(bytecode.Output())
	b.Mark(twenty)
	b.Emit(bytecode.Push(value.Number(20)))
	b.Emit(bytecode.Output())
	b.Mark(end)

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, []value.Value{value.Number(20), value.Number(10)}, got)
}

func TestForkContinuationRunsFirst(t *testing.T) {
	b := bytecode.NewBuilder()
	alt := b.NewLabel("alt")
	b.Fork(alt)
	b.Emit(bytecode.Push(value.Number(10)))
	b.Emit(bytecode.Output())
	b.Mark(alt)
	b.Emit(bytecode.Push(value.Number(20)))
	b.Emit(bytecode.Output())

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, []value.Value{value.Number(10), value.Number(20)}, got)
}

func TestNoForkYieldsAtMostOneResult(t *testing.T) {
	p := program(
		bytecode.Push(value.Number(1)),
		bytecode.Output(),
		bytecode.Push(value.Number(2)),
		bytecode.Output(),
	)
	require.Len(t, run(t, p), 1)

	require.Empty(t, run(t, program(bytecode.Push(value.Null{}))))
	require.Empty(t, run(t, program()))
}

func TestExhaustedForkIsSkipped(t *testing.T) {
	b := bytecode.NewBuilder()
	out := b.NewLabel("out")
	end := b.NewLabel("end")
	b.Fork(out)
	b.Fork(out)
	b.Emit(bytecode.Nop())
	b.Jump(end)
	b.Mark(out)
	b.Emit(bytecode.Push(value.String("x")))
	b.Emit(bytecode.Output())
	b.Mark(end)

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, []value.Value{value.String("x"), value.String("x")}, got)
}

func TestDivideByZeroYieldsError(t *testing.T) {
	p := program(
		bytecode.Push(value.Number(1)),
		bytecode.Push(value.Number(0)),
		bytecode.CallIntrinsic2(intrinsic.Must2("divide")),
		bytecode.Output(),
	)
	results := run(t, p)
	require.Len(t, results, 1)
	require.Nil(t, results[0].Value)
	var qerr *errz.QueryError
	require.True(t, errors.As(results[0].Err, &qerr))
	require.Contains(t, qerr.Error(), "divisor is zero")
}

func TestRepeatByNaNYieldsError(t *testing.T) {
	// sqrt(-1) is NaN; repeating a string NaN times fails this path only
	p := program(
		bytecode.Fork(7),
		bytecode.Push(value.String("ab")),
		bytecode.Push(value.Number(-1)),
		bytecode.CallIntrinsic1(intrinsic.Must1("sqrt")),
		bytecode.CallIntrinsic2(intrinsic.Must2("multiply")),
		bytecode.Output(),
		bytecode.Simple(op.Unreachable),
		bytecode.Push(value.String("ok")),
		bytecode.Output(),
	)
	results := run(t, p)
	require.Len(t, results, 2)
	var qerr *errz.QueryError
	require.ErrorAs(t, results[0].Err, &qerr)
	require.Equal(t, errz.ErrValue, qerr.Kind)
	require.Nil(t, results[0].Value)
	require.NoError(t, results[1].Err)
	require.Equal(t, value.String("ok"), results[1].Value)
}

type depthObserver struct {
	NoOpObserver
	depths []int
}

func (o *depthObserver) Config() ObserverConfig {
	return NewObserverConfig(StepNone)
}

func (o *depthObserver) OnOutput(event OutputEvent) bool {
	o.depths = append(o.depths, event.StackDepth)
	return true
}

func TestDeferredErrorLeavesStackShort(t *testing.T) {
	divideBy := func(divisor float64) *bytecode.Program {
		return program(
			bytecode.Push(value.String("below")),
			bytecode.Push(value.Number(6)),
			bytecode.Push(value.Number(divisor)),
			bytecode.CallIntrinsic2(intrinsic.Must2("divide")),
			bytecode.Nop(),
			bytecode.Output(),
		)
	}

	ok := &depthObserver{}
	results := run(t, divideBy(2), WithObserver(ok))
	require.Equal(t, []value.Value{value.Number(3)}, values(t, results))
	require.Equal(t, []int{2}, ok.depths)

	failed := &depthObserver{}
	results = run(t, divideBy(0), WithObserver(failed))
	require.Len(t, results, 1)
	require.Error(t, results[0].Err)
	require.Equal(t, []int{1}, failed.depths)
}

func TestErrorDoesNotAffectOtherForks(t *testing.T) {
	b := bytecode.NewBuilder()
	good := b.NewLabel("good")
	b.Fork(good)
	b.Emit(bytecode.Push(value.String("a")))
	b.Emit(bytecode.CallIntrinsic1(intrinsic.Must1("negate")))
	b.Emit(bytecode.Output())
	b.Mark(good)
	b.Emit(bytecode.Push(value.Number(4)))
	b.Emit(bytecode.CallIntrinsic1(intrinsic.Must1("negate")))
	b.Emit(bytecode.Output())

	results := run(t, b.MustBuild())
	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	require.NoError(t, results[1].Err)
	require.Equal(t, value.Number(-4), results[1].Value)
}

func TestErrorIsLocalToRunSegment(t *testing.T) {
	// The failing fork registers an alternative after its intrinsic
	// fails; the alternative starts a new segment with no recorded error.
	b := bytecode.NewBuilder()
	alt := b.NewLabel("alt")
	b.Emit(bytecode.Push(value.Number(1)))
	b.Emit(bytecode.Push(value.Number(0)))
	b.Emit(bytecode.CallIntrinsic2(intrinsic.Must2("divide")))
	b.Fork(alt)
	b.Emit(bytecode.Output())
	b.Mark(alt)
	b.Emit(bytecode.Push(value.Bool(true)))
	b.Emit(bytecode.Output())

	results := run(t, b.MustBuild())
	require.Len(t, results, 2)
	require.Error(t, results[0].Err)
	require.Equal(t, value.Bool(true), results[1].Value)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	b := bytecode.NewBuilder()
	fn := b.NewLabel("fn")
	done := b.NewLabel("done")
	b.Call(fn, done)
	b.Mark(done)
	b.Emit(bytecode.Output())
	b.Mark(fn)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.MustParseJSON(`{"a":[1,2]}`)))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Load(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	got := values(t, run(t, b.MustBuild()))
	require.Len(t, got, 1)
	require.True(t, value.MustParseJSON(`{"a":[1,2]}`).Equal(got[0]))
}

func TestDupPop(t *testing.T) {
	p := program(
		bytecode.Push(value.Number(1)),
		bytecode.Push(value.Number(2)),
		bytecode.Dup(),
		bytecode.Pop(),
		bytecode.CallIntrinsic2(intrinsic.Must2("subtract")),
		bytecode.Output(),
	)
	require.Equal(t, []value.Value{value.Number(-1)}, values(t, run(t, p)))
}

func TestConstReplacesTop(t *testing.T) {
	p := program(
		bytecode.Push(value.Number(1)),
		bytecode.Const(value.String("c")),
		bytecode.Output(),
	)
	require.Equal(t, []value.Value{value.String("c")}, values(t, run(t, p)))
}

func TestJumpUnless(t *testing.T) {
	build := func(cond value.Value) *bytecode.Program {
		b := bytecode.NewBuilder()
		otherwise := b.NewLabel("otherwise")
		b.Emit(bytecode.Push(cond))
		b.JumpUnless(otherwise)
		b.Emit(bytecode.Push(value.String("then")))
		b.Emit(bytecode.Output())
		b.Mark(otherwise)
		b.Emit(bytecode.Push(value.String("else")))
		b.Emit(bytecode.Output())
		return b.MustBuild()
	}
	tests := []struct {
		cond value.Value
		want value.Value
	}{
		{value.Bool(true), value.String("then")},
		{value.Number(0), value.String("then")},
		{value.String(""), value.String("then")},
		{value.Bool(false), value.String("else")},
		{value.Null{}, value.String("else")},
	}
	for _, tt := range tests {
		t.Run(tt.cond.String(), func(t *testing.T) {
			require.Equal(t, []value.Value{tt.want}, values(t, run(t, build(tt.cond))))
		})
	}
}

func TestAppend(t *testing.T) {
	b := bytecode.NewBuilder()
	fn := b.NewLabel("fn")
	done := b.NewLabel("done")
	b.Call(fn, done)
	b.Mark(done)
	b.Emit(bytecode.Output())
	b.Mark(fn)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.NewArray()))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Push(value.Number(1)))
	b.Emit(bytecode.Append(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Push(value.Number(2)))
	b.Emit(bytecode.Append(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Load(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, "[1,2]", got[0].String())
}

func TestForksDoNotShareState(t *testing.T) {
	// Both branches append to the same slot; each must see only its own
	// element.
	b := bytecode.NewBuilder()
	fn := b.NewLabel("fn")
	done := b.NewLabel("done")
	alt := b.NewLabel("alt")
	join := b.NewLabel("join")
	b.Call(fn, done)
	b.Mark(done)
	b.Emit(bytecode.Output())
	b.Mark(fn)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.NewArray()))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.Fork(alt)
	b.Emit(bytecode.Push(value.String("left")))
	b.Jump(join)
	b.Mark(alt)
	b.Emit(bytecode.Push(value.String("right")))
	b.Mark(join)
	b.Emit(bytecode.Append(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Load(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	got := values(t, run(t, b.MustBuild()))
	require.Len(t, got, 2)
	require.Equal(t, `["left"]`, got[0].String())
	require.Equal(t, `["right"]`, got[1].String())
}

func TestRecursionShadowsAndRestores(t *testing.T) {
	b := bytecode.NewBuilder()
	outer := b.NewLabel("outer")
	inner := b.NewLabel("inner")
	done := b.NewLabel("done")
	back := b.NewLabel("back")
	b.Call(outer, done)
	b.Mark(done)
	b.Emit(bytecode.Output())

	b.Mark(outer)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.String("outer")))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.Call(inner, back)
	b.Mark(back)
	b.Emit(bytecode.Load(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	b.Mark(inner)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.String("inner")))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, []value.Value{value.String("outer")}, got)
}

func TestClosureResolvesCurrentScope(t *testing.T) {
	// A closure created in the first activation of scope 0 and called from
	// a second, shadowing activation reads the shadowing bindings.
	b := bytecode.NewBuilder()
	top := b.NewLabel("top")
	first := b.NewLabel("first")
	second := b.NewLabel("second")
	getter := b.NewLabel("getter")
	done := b.NewLabel("done")
	topRet := b.NewLabel("top_ret")
	firstRet := b.NewLabel("first_ret")
	secondRet := b.NewLabel("second_ret")

	b.Call(top, done)
	b.Mark(done)
	b.Emit(bytecode.Output())

	b.Mark(top)
	b.Emit(bytecode.NewScope(1, 0, 1))
	b.Call(first, topRet)
	b.Mark(topRet)
	b.Emit(bytecode.Ret())

	b.Mark(first)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.String("first")))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.PushClosure(getter)
	b.Emit(bytecode.StoreClosure(bytecode.Slot(1, 0)))
	b.Call(second, firstRet)
	b.Mark(firstRet)
	b.Emit(bytecode.Ret())

	b.Mark(second)
	b.Emit(bytecode.NewScope(0, 1, 0))
	b.Emit(bytecode.Push(value.String("second")))
	b.Emit(bytecode.Store(bytecode.Slot(0, 0)))
	b.CallClosure(bytecode.Slot(1, 0), secondRet)
	b.Mark(secondRet)
	b.Emit(bytecode.Ret())

	b.Mark(getter)
	b.Emit(bytecode.NewScope(2, 0, 0))
	b.Emit(bytecode.Load(bytecode.Slot(0, 0)))
	b.Emit(bytecode.Ret())

	got := values(t, run(t, b.MustBuild()))
	require.Equal(t, []value.Value{value.String("second")}, got)
}

func TestInfiniteGenerator(t *testing.T) {
	// loop: fork loop; push n; output. Every resumed fork forks again.
	b := bytecode.NewBuilder()
	loop := b.NewLabel("loop")
	b.Mark(loop)
	b.Fork(loop)
	b.Emit(bytecode.Push(value.Number(7)))
	b.Emit(bytecode.Output())

	m := New(b.MustBuild())
	var got []value.Value
	for v, err := range m.Results() {
		require.NoError(t, err)
		got = append(got, v)
		if len(got) == 5 {
			break
		}
	}
	require.Len(t, got, 5)
	require.Equal(t, 1, m.Pending())
}

func TestWithInput(t *testing.T) {
	p := program(
		bytecode.CallIntrinsic1(intrinsic.Must1("length")),
		bytecode.Output(),
	)
	results := run(t, p, WithInput(value.String("hello")))
	require.Equal(t, []value.Value{value.Number(5)}, values(t, results))
}

func TestMachineIDsAreUnique(t *testing.T) {
	p := program()
	a := New(p)
	b := New(p)
	require.NotEmpty(t, a.ID())
	require.NotEqual(t, a.ID(), b.ID())
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	b := bytecode.NewBuilder()
	alt := b.NewLabel("alt")
	b.Fork(alt)
	b.Mark(alt)
	b.Emit(bytecode.Push(value.Null{}))
	b.Emit(bytecode.Output())

	_ = run(t, b.MustBuild(), WithLogger(logger))
	out := buf.String()
	require.Contains(t, out, `"message":"push fork"`)
	require.Contains(t, out, `"message":"resume fork"`)
	require.Contains(t, out, `"message":"output value"`)
	require.Contains(t, out, `"machine":"`)
	require.NotContains(t, out, `"message":"step"`)
}

func TestContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, program(bytecode.Push(value.Null{}), bytecode.Output()))
	require.ErrorIs(t, err, context.Canceled)
}

func TestFatalErrors(t *testing.T) {
	t.Run("ret without scope", func(t *testing.T) {
		perr := requireFatal(t, program(bytecode.Ret()), errz.ErrPopEmptyScope)
		require.Equal(t, 0, perr.PC)
		require.Equal(t, "RET", perr.Op)
	})

	t.Run("pop empty stack", func(t *testing.T) {
		requireFatal(t, program(bytecode.Nop(), bytecode.Pop()), errz.ErrPopEmptyStack)
	})

	t.Run("output on empty stack", func(t *testing.T) {
		requireFatal(t, program(bytecode.Output()), errz.ErrPopEmptyStack)
	})

	t.Run("double call", func(t *testing.T) {
		p := program(
			bytecode.Call(1, 3),
			bytecode.Call(2, 3),
			bytecode.NewScope(0, 0, 0),
		)
		perr := requireFatal(t, p, errz.ErrCallPending)
		require.Equal(t, 1, perr.PC)
	})

	t.Run("new scope without call", func(t *testing.T) {
		requireFatal(t, program(bytecode.NewScope(0, 0, 0)), errz.ErrNoPendingCall)
	})

	t.Run("call pending is not carried across segments", func(t *testing.T) {
		// The alternative starts at NewScope. The Call made by the first
		// segment was consumed there and is not visible to it.
		p := program(
			bytecode.Fork(4),
			bytecode.Call(2, 5),
			bytecode.NewScope(0, 0, 0),
			bytecode.Ret(),
			bytecode.NewScope(0, 0, 0),
		)
		requireFatal(t, p, errz.ErrNoPendingCall)
	})

	t.Run("uninitialized scope", func(t *testing.T) {
		requireFatal(t, program(bytecode.Load(bytecode.Slot(0, 0))), errz.ErrUninitializedScope)
	})

	t.Run("unknown slot", func(t *testing.T) {
		p := program(
			bytecode.Call(1, 9),
			bytecode.NewScope(0, 1, 0),
			bytecode.Load(bytecode.Slot(0, 1)),
		)
		requireFatal(t, p, errz.ErrUnknownSlot)
	})

	t.Run("uninitialized slot", func(t *testing.T) {
		p := program(
			bytecode.Call(1, 9),
			bytecode.NewScope(0, 1, 0),
			bytecode.Load(bytecode.Slot(0, 0)),
		)
		perr := requireFatal(t, p, errz.ErrUninitializedSlot)
		require.Equal(t, 2, perr.PC)
	})

	t.Run("uninitialized closure", func(t *testing.T) {
		p := program(
			bytecode.Call(1, 9),
			bytecode.NewScope(0, 0, 1),
			bytecode.CallClosure(bytecode.Slot(0, 0), 9),
		)
		requireFatal(t, p, errz.ErrUninitializedSlot)
	})

	t.Run("append to non-array", func(t *testing.T) {
		p := program(
			bytecode.Call(1, 9),
			bytecode.NewScope(0, 1, 0),
			bytecode.Push(value.Number(1)),
			bytecode.Store(bytecode.Slot(0, 0)),
			bytecode.Push(value.Number(2)),
			bytecode.Append(bytecode.Slot(0, 0)),
		)
		requireFatal(t, p, errz.ErrAppendNonArray)
	})

	t.Run("unreachable", func(t *testing.T) {
		requireFatal(t, program(bytecode.Simple(op.Unreachable)), errz.ErrUnreachable)
	})

	t.Run("placeholder", func(t *testing.T) {
		requireFatal(t, program(bytecode.Simple(op.PlaceHolder)), errz.ErrPlaceHolder)
	})

	for _, code := range []op.Code{op.Object, op.ForkTryBegin, op.Each, op.PathEnd} {
		t.Run("unimplemented "+code.String(), func(t *testing.T) {
			perr := requireFatal(t, program(bytecode.Simple(code)), errz.ErrUnimplemented)
			require.Equal(t, code.String(), perr.Op)
		})
	}
}

func TestFatalErrorKeepsEarlierResults(t *testing.T) {
	b := bytecode.NewBuilder()
	bad := b.NewLabel("bad")
	b.Fork(bad)
	b.Emit(bytecode.Push(value.Number(1)))
	b.Emit(bytecode.Output())
	b.Mark(bad)
	b.Emit(bytecode.Ret())

	results, err := Run(context.Background(), b.MustBuild())
	require.ErrorIs(t, err, errz.ErrPopEmptyScope)
	require.Equal(t, []value.Value{value.Number(1)}, values(t, results))
}

func TestNextPanicsOnProgramError(t *testing.T) {
	m := New(program(bytecode.Pop()))
	require.Panics(t, func() { m.Next() })
}
