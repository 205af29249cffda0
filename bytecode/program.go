package bytecode

import "sort"

// Program is a compiled xq program. It is immutable after creation and safe
// for concurrent use by any number of machines.
type Program struct {
	instructions []Instruction
	entry        Address

	// Label names by address, for disassembly only.
	labels map[Address]string
}

// ProgramParams contains parameters for creating a new Program.
type ProgramParams struct {
	Instructions []Instruction
	Entry        Address
	Labels       map[Address]string
}

// NewProgram creates a new immutable Program from the given parameters.
// Input slices and maps are copied.
func NewProgram(params ProgramParams) *Program {
	instructions := make([]Instruction, len(params.Instructions))
	copy(instructions, params.Instructions)
	labels := make(map[Address]string, len(params.Labels))
	for addr, name := range params.Labels {
		labels[addr] = name
	}
	return &Program{
		instructions: instructions,
		entry:        params.Entry,
		labels:       labels,
	}
}

// Fetch returns the instruction at addr. It returns false if addr is outside
// the program.
func (p *Program) Fetch(addr Address) (Instruction, bool) {
	if addr < 0 || int(addr) >= len(p.instructions) {
		return Instruction{}, false
	}
	return p.instructions[addr], true
}

// Entry returns the address execution starts at.
func (p *Program) Entry() Address {
	return p.entry
}

// Len returns the number of instructions.
func (p *Program) Len() int {
	return len(p.instructions)
}

// Label returns the name of the label bound at addr, if any.
func (p *Program) Label(addr Address) (string, bool) {
	name, ok := p.labels[addr]
	return name, ok
}

// LabelAddresses returns the addresses that carry labels, in order.
func (p *Program) LabelAddresses() []Address {
	addrs := make([]Address, 0, len(p.labels))
	for addr := range p.labels {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })
	return addrs
}
