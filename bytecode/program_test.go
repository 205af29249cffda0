package bytecode

import (
	"testing"

	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/stretchr/testify/require"
)

func TestProgramFetch(t *testing.T) {
	program := NewProgram(ProgramParams{
		Instructions: []Instruction{Push(value.Number(1)), Output()},
		Entry:        0,
	})
	require.Equal(t, 2, program.Len())
	require.Equal(t, Address(0), program.Entry())

	in, ok := program.Fetch(0)
	require.True(t, ok)
	require.Equal(t, op.Push, in.Op)

	_, ok = program.Fetch(2)
	require.False(t, ok)
	_, ok = program.Fetch(-1)
	require.False(t, ok)
}

func TestProgramIsImmutable(t *testing.T) {
	instructions := []Instruction{Output()}
	program := NewProgram(ProgramParams{Instructions: instructions})
	instructions[0] = Pop()
	in, _ := program.Fetch(0)
	require.Equal(t, op.Output, in.Op)
}

func TestAddressNext(t *testing.T) {
	require.Equal(t, Address(5), Address(4).Next())
	require.Equal(t, "#4", Address(4).String())
}

func TestBuilderResolvesForwardLabels(t *testing.T) {
	b := NewBuilder()
	main := b.NewLabel("main")
	fn := b.NewLabel("fn")
	done := b.NewLabel("done")
	b.SetEntry(main)

	b.Mark(fn)
	b.Emit(NewScope(0, 1, 0))
	b.Emit(Ret())

	b.Mark(main)
	b.Call(fn, done)
	b.PushClosure(fn)
	b.Fork(done)
	b.Mark(done)
	b.Emit(Output())

	program, err := b.Build()
	require.NoError(t, err)
	require.Equal(t, Address(2), program.Entry())

	call, _ := program.Fetch(2)
	require.Equal(t, Address(0), call.Target)
	require.Equal(t, Address(5), call.Return)

	push, _ := program.Fetch(3)
	require.Equal(t, Closure{Addr: 0}, push.Closure)

	fork, _ := program.Fetch(4)
	require.Equal(t, Address(5), fork.Target)

	name, ok := program.Label(2)
	require.True(t, ok)
	require.Equal(t, "main", name)
	require.Equal(t, []Address{0, 2, 5}, program.LabelAddresses())
}

func TestBuilderReportsAllErrors(t *testing.T) {
	b := NewBuilder()
	a := b.NewLabel("a")
	c := b.NewLabel("c")
	b.Jump(a)
	b.Fork(c)
	b.Mark(b.NewLabel("twice"))
	_, err := b.Build()
	require.Error(t, err)
	require.Contains(t, err.Error(), `label "a" is never marked`)
	require.Contains(t, err.Error(), `label "c" is never marked`)

	b = NewBuilder()
	l := b.NewLabel("twice")
	b.Mark(l)
	b.Mark(l)
	_, err = b.Build()
	require.ErrorContains(t, err, `label "twice" marked twice`)
}

func TestInstructionString(t *testing.T) {
	tests := []struct {
		in   Instruction
		want string
	}{
		{Push(value.MustParseJSON(`{"a":[1,"x"]}`)), `push {"a":[1,"x"]}`},
		{Const(nil), "const null"},
		{Load(Slot(1, 2)), "load 1:2"},
		{Call(3, 9), "call 3 9"},
		{CallClosure(Slot(0, 1), 4), "callclosure 0:1 4"},
		{NewScope(2, 3, 1), "newscope 2 3 1"},
		{PushClosure(Closure{Addr: 7}), "pushclosure 7"},
		{JumpUnless(12), "jumpunless 12"},
		{CallIntrinsic2(Intrinsic2{Name: "add"}), "intrinsic2 add"},
		{Simple(op.ForkTryBegin), "forktrybegin"},
		{Output(), "output"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			require.Equal(t, tt.want, tt.in.String())
		})
	}
}

func TestBuilderAbsolute(t *testing.T) {
	b := NewBuilder()
	named := b.NewLabel("named")
	b.Jump(b.Absolute(2))
	b.Mark(named)
	b.Emit(Output())
	b.Fork(b.Absolute(0))
	b.SetEntry(b.Absolute(1))
	program := b.MustBuild()

	jump, _ := program.Fetch(0)
	require.Equal(t, Address(2), jump.Target)
	fork, _ := program.Fetch(2)
	require.Equal(t, Address(0), fork.Target)
	require.Equal(t, Address(1), program.Entry())

	// anonymous labels are not named in the program
	_, ok := program.Label(0)
	require.False(t, ok)
	name, ok := program.Label(1)
	require.True(t, ok)
	require.Equal(t, "named", name)
}
