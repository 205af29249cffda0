// Package vm provides the Machine that executes compiled xq programs.
//
// A program may produce any number of results for one input. The machine
// explores alternatives by suspending copies of its execution state (forks)
// and resuming them later, most recently suspended first, which yields jq's
// depth-first backtracking order. Each call to Next resumes forks until one
// of them reaches an Output instruction.
package vm

import (
	"errors"
	"iter"

	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/errz"
	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog"
)

// ErrHalted is yielded once when an observer stops the machine.
var ErrHalted = errors.New("execution halted by observer")

// Result is one element of a machine's output: either a value or the query
// error raised on the solution path that produced it.
type Result struct {
	Value value.Value
	Err   error
}

// Machine runs one program against one input, producing results lazily.
// A Machine is not safe for concurrent use; run separate machines over the
// same Program instead.
type Machine struct {
	id       string
	env      *environment
	inputs   []value.Value
	logger   zerolog.Logger
	observer Observer
	obsCfg   ObserverConfig
	steps    int
	halted   bool
}

// New creates a machine positioned at the program's entry point.
func New(program *bytecode.Program, options ...Option) *Machine {
	m := &Machine{
		id:     uuid.Must(uuid.NewV4()).String(),
		env:    newEnvironment(program),
		logger: zerolog.Nop(),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.observer != nil {
		m.obsCfg = NormalizeConfig(m.observer.Config())
	}
	m.logger = m.logger.With().Str("machine", m.id).Logger()
	if len(m.inputs) > 0 {
		initial := m.env.forks[0]
		for _, v := range m.inputs {
			initial.push(v)
		}
	}
	return m
}

// ID returns the unique id of this machine, as used in its log entries.
func (m *Machine) ID() string {
	return m.id
}

// Pending returns the number of suspended forks.
func (m *Machine) Pending() int {
	return m.env.pending()
}

// Next resumes suspended forks until one produces a result. It returns
// false once every fork is exhausted.
//
// A query error raised by an intrinsic is returned as a Result with Err
// set; the remaining forks stay resumable. Bytecode that violates the
// machine's contract causes a panic with an *errz.ProgramError.
func (m *Machine) Next() (Result, bool) {
	for !m.halted {
		f, ok := m.env.popFork()
		if !ok {
			return Result{}, false
		}
		m.logger.Debug().Int("fork", f.id).Int("pc", int(f.pc)).Msg("resume fork")
		if result, ok := m.run(f); ok {
			return result, true
		}
	}
	return Result{}, false
}

// Results returns an iterator over the remaining results.
func (m *Machine) Results() iter.Seq2[value.Value, error] {
	return func(yield func(value.Value, error) bool) {
		for {
			result, ok := m.Next()
			if !ok || !yield(result.Value, result.Err) {
				return
			}
		}
	}
}

func (m *Machine) halt() (Result, bool) {
	m.halted = true
	m.logger.Debug().Msg("halted by observer")
	return Result{Err: ErrHalted}, true
}

func (m *Machine) observeStep(f *fork, in bytecode.Instruction) bool {
	switch m.obsCfg.StepMode {
	case StepNone:
		return true
	case StepSampled:
		m.steps++
		if m.steps%m.obsCfg.SampleInterval != 0 {
			return true
		}
	}
	return m.observer.OnStep(StepEvent{
		Fork:       f.id,
		PC:         f.pc,
		Opcode:     in.Op,
		OpcodeName: in.Op.String(),
		StackDepth: f.stack.len(),
		ScopeDepth: f.scopeStack.len(),
		LiveLevels: f.scopes.live(),
		Pending:    m.env.pending(),
	})
}

// locate attaches the failing instruction to program errors raised while
// running f.
func locate(f *fork, in *bytecode.Instruction) {
	if r := recover(); r != nil {
		if perr, ok := r.(*errz.ProgramError); ok && perr.PC < 0 {
			panic(perr.At(int(f.pc), in.Op.String()))
		}
		panic(r)
	}
}

// run executes f until it reaches Output, which yields a result, or runs
// off the end of the program, in which case f is discarded and run returns
// false.
func (m *Machine) run(f *fork) (Result, bool) {
	var (
		in bytecode.Instruction
		// err holds an intrinsic failure until the next Output.
		err error
		// callPC pairs a Call with the NewScope that must follow it.
		callPC    bytecode.Address
		hasCallPC bool
	)
	defer locate(f, &in)

	program := m.env.program
	trace := m.logger.GetLevel() <= zerolog.TraceLevel
	for {
		var ok bool
		in, ok = program.Fetch(f.pc)
		if !ok {
			m.logger.Debug().Int("fork", f.id).Int("pc", int(f.pc)).Msg("fork exhausted")
			return Result{}, false
		}
		if trace {
			m.logger.Trace().Int("fork", f.id).Int("pc", int(f.pc)).
				Str("op", in.String()).Int("stack", f.stack.len()).Msg("step")
		}
		if m.observer != nil && !m.observeStep(f, in) {
			return m.halt()
		}

		switch in.Op {
		case op.Nop:
		case op.Unreachable:
			panic(errz.ErrUnreachable)
		case op.PlaceHolder:
			panic(errz.ErrPlaceHolder)
		case op.Push:
			f.push(in.Value)
		case op.Pop:
			f.pop()
		case op.Dup:
			f.dup()
		case op.Const:
			f.pop()
			f.push(in.Value)
		case op.Load:
			f.push(f.load(in.Slot))
		case op.Store:
			f.store(in.Slot, f.pop())
		case op.PushClosure:
			f.pushClosure(in.Closure)
		case op.StoreClosure:
			f.storeClosure(in.Slot, f.popClosure())
		case op.Append:
			f.appendTo(in.Slot, f.pop())
		case op.Fork:
			c := m.env.pushFork(f, in.Target)
			m.logger.Debug().Int("fork", f.id).Int("new_fork", c.id).
				Int("target", int(in.Target)).Msg("push fork")
			if m.observer != nil && m.obsCfg.ObserveForks {
				if !m.observer.OnFork(ForkEvent{
					Fork:    f.id,
					NewFork: c.id,
					PC:      f.pc,
					Target:  in.Target,
					Pending: m.env.pending(),
				}) {
					return m.halt()
				}
			}
		case op.Jump:
			f.pc = in.Target
			continue
		case op.JumpUnless:
			if !value.Truthy(f.pop()) {
				f.pc = in.Target
				continue
			}
		case op.Call:
			if hasCallPC {
				panic(errz.ErrCallPending)
			}
			callPC, hasCallPC = in.Return, true
			f.pc = in.Target
			continue
		case op.CallClosure:
			closure := f.closure(in.Slot)
			if hasCallPC {
				panic(errz.ErrCallPending)
			}
			callPC, hasCallPC = in.Return, true
			f.pc = closure.Addr
			continue
		case op.NewScope:
			if !hasCallPC {
				panic(errz.ErrNoPendingCall)
			}
			hasCallPC = false
			f.enterScope(in.Scope, in.VarCount, in.ClosureCount, callPC)
		case op.Ret:
			f.pc = f.exitScope()
			continue
		case op.Output:
			return m.output(f, err)
		case op.Intrinsic1:
			arg := f.pop()
			if v, fnErr := in.Fn1.Func(arg); fnErr != nil {
				err = fnErr
			} else {
				f.push(v)
			}
		case op.Intrinsic2:
			rhs := f.pop()
			lhs := f.pop()
			if v, fnErr := in.Fn2.Func(lhs, rhs); fnErr != nil {
				err = fnErr
			} else {
				f.push(v)
			}
		default:
			// Reserved opcodes (object construction, try/alt barriers,
			// labels, each, path tracking) are dispatched here.
			panic(errz.ErrUnimplemented)
		}
		f.pc = f.pc.Next()
	}
}

func (m *Machine) output(f *fork, err error) (Result, bool) {
	depth := f.stack.len()
	var result Result
	if err != nil {
		result = Result{Err: err}
		m.logger.Debug().Int("fork", f.id).Err(err).Msg("output error")
	} else {
		result = Result{Value: f.pop()}
		m.logger.Debug().Int("fork", f.id).Msg("output value")
	}
	if m.observer != nil && m.obsCfg.ObserveOutputs {
		if !m.observer.OnOutput(OutputEvent{
			Fork:       f.id,
			PC:         f.pc,
			Value:      result.Value,
			Err:        result.Err,
			StackDepth: depth,
		}) {
			m.halted = true
		}
	}
	return result, true
}
