package bytecode

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Label is a named code position that may be referenced before it is
// marked.
type Label struct {
	id int
}

type labelState struct {
	name  string
	addr  Address
	bound bool
}

type fixupField uint8

const (
	fixTarget fixupField = iota
	fixReturn
	fixClosure
)

type fixup struct {
	index int
	field fixupField
	label Label
}

// Builder assembles a Program, resolving label references when Build is
// called.
type Builder struct {
	instructions []Instruction
	labels       []labelState
	fixups       []fixup
	entry        *Label
	errs         *multierror.Error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewLabel creates an unbound label. The name is kept for disassembly and
// error messages.
func (b *Builder) NewLabel(name string) Label {
	b.labels = append(b.labels, labelState{name: name})
	return Label{id: len(b.labels) - 1}
}

// Absolute returns an anonymous label already bound to addr. It lets
// literal addresses be passed wherever a Label is expected.
func (b *Builder) Absolute(addr Address) Label {
	b.labels = append(b.labels, labelState{addr: addr, bound: true})
	return Label{id: len(b.labels) - 1}
}

// Mark binds l to the address of the next emitted instruction.
func (b *Builder) Mark(l Label) {
	state := &b.labels[l.id]
	if state.bound {
		b.errs = multierror.Append(b.errs, fmt.Errorf("label %q marked twice", state.name))
		return
	}
	state.addr = b.Here()
	state.bound = true
}

// Here returns the address of the next emitted instruction.
func (b *Builder) Here() Address {
	return Address(len(b.instructions))
}

// SetEntry makes l the program entry point. By default execution starts at
// address 0.
func (b *Builder) SetEntry(l Label) {
	b.entry = &l
}

// Emit appends an instruction and returns its address.
func (b *Builder) Emit(in Instruction) Address {
	addr := b.Here()
	b.instructions = append(b.instructions, in)
	return addr
}

func (b *Builder) emitWithFixups(in Instruction, fixes ...fixup) Address {
	addr := b.Emit(in)
	for _, f := range fixes {
		f.index = int(addr)
		b.fixups = append(b.fixups, f)
	}
	return addr
}

// Fork emits a Fork to l.
func (b *Builder) Fork(l Label) Address {
	return b.emitWithFixups(Fork(0), fixup{field: fixTarget, label: l})
}

// Jump emits a Jump to l.
func (b *Builder) Jump(l Label) Address {
	return b.emitWithFixups(Jump(0), fixup{field: fixTarget, label: l})
}

// JumpUnless emits a JumpUnless to l.
func (b *Builder) JumpUnless(l Label) Address {
	return b.emitWithFixups(JumpUnless(0), fixup{field: fixTarget, label: l})
}

// Call emits a Call of fn that returns to ret.
func (b *Builder) Call(fn, ret Label) Address {
	return b.emitWithFixups(Call(0, 0),
		fixup{field: fixTarget, label: fn},
		fixup{field: fixReturn, label: ret})
}

// CallClosure emits a CallClosure of the closure in slot that returns to
// ret.
func (b *Builder) CallClosure(slot ScopedSlot, ret Label) Address {
	return b.emitWithFixups(CallClosure(slot, 0), fixup{field: fixReturn, label: ret})
}

// PushClosure emits a PushClosure of the code at l.
func (b *Builder) PushClosure(l Label) Address {
	return b.emitWithFixups(PushClosure(Closure{}), fixup{field: fixClosure, label: l})
}

// Build resolves label references and returns the Program. All unresolved
// labels are reported together.
func (b *Builder) Build() (*Program, error) {
	errs := b.errs
	instructions := make([]Instruction, len(b.instructions))
	copy(instructions, b.instructions)
	for _, f := range b.fixups {
		state := b.labels[f.label.id]
		if !state.bound {
			errs = multierror.Append(errs, fmt.Errorf("label %q is never marked (referenced at %d)", state.name, f.index))
			continue
		}
		in := &instructions[f.index]
		switch f.field {
		case fixTarget:
			in.Target = state.addr
		case fixReturn:
			in.Return = state.addr
		case fixClosure:
			in.Closure = Closure{Addr: state.addr}
		}
	}
	var entry Address
	if b.entry != nil {
		state := b.labels[b.entry.id]
		if !state.bound {
			errs = multierror.Append(errs, fmt.Errorf("entry label %q is never marked", state.name))
		}
		entry = state.addr
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	labels := make(map[Address]string, len(b.labels))
	for _, state := range b.labels {
		if _, taken := labels[state.addr]; state.bound && state.name != "" && !taken {
			labels[state.addr] = state.name
		}
	}
	return NewProgram(ProgramParams{
		Instructions: instructions,
		Entry:        entry,
		Labels:       labels,
	}), nil
}

// MustBuild is like Build but panics on error.
func (b *Builder) MustBuild() *Program {
	program, err := b.Build()
	if err != nil {
		panic(err)
	}
	return program
}
