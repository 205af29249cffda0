// Package dis disassembles xq programs into a readable table.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

// Instruction represents a single instruction and its operands.
type Instruction struct {
	Address  int
	Label    string
	Name     string
	Opcode   op.Code
	Operands []string
	// Annotation explains the operands, e.g. the labels jump targets
	// resolve to.
	Annotation string
	// Constant is the literal of Push and Const.
	Constant value.Value
}

// Disassemble returns a parsed representation of the given program.
func Disassemble(program *bytecode.Program) []Instruction {
	instructions := make([]Instruction, 0, program.Len())
	for addr := 0; addr < program.Len(); addr++ {
		in, _ := program.Fetch(bytecode.Address(addr))
		label, _ := program.Label(bytecode.Address(addr))
		instr := Instruction{
			Address:  addr,
			Label:    label,
			Name:     in.Op.String(),
			Opcode:   in.Op,
			Operands: in.Operands(),
		}
		switch in.Op {
		case op.Push, op.Const:
			instr.Constant = in.Value
		case op.Fork, op.Jump, op.JumpUnless:
			instr.Annotation = target(program, in.Target)
		case op.Call:
			instr.Annotation = target(program, in.Target) + " ret " + target(program, in.Return)
		case op.CallClosure:
			instr.Annotation = "closure " + in.Slot.String() + " ret " + target(program, in.Return)
		case op.PushClosure:
			instr.Annotation = "closure " + target(program, in.Closure.Addr)
		case op.NewScope:
			instr.Annotation = fmt.Sprintf("scope %d: %d vars, %d closures",
				int(in.Scope), in.VarCount, in.ClosureCount)
		case op.Intrinsic1:
			instr.Annotation = in.Fn1.Name + "/1"
		case op.Intrinsic2:
			instr.Annotation = in.Fn2.Name + "/2"
		default:
			if !op.GetInfo(in.Op).Implemented {
				instr.Annotation = "unimplemented"
			}
		}
		if addr == int(program.Entry()) {
			if instr.Annotation != "" {
				instr.Annotation += " "
			}
			instr.Annotation += "(entry)"
		}
		instructions = append(instructions, instr)
	}
	return instructions
}

func target(program *bytecode.Program, addr bytecode.Address) string {
	if name, ok := program.Label(addr); ok {
		return name
	}
	return addr.String()
}

var (
	bold    = color.New(color.Bold).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
	cyan    = color.New(color.FgHiCyan).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
)

// Print a string representation of the given instructions to the given writer.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		label := instr.Label
		if label != "" {
			label = magenta(label + ":")
		}
		values := []string{
			fmt.Sprintf("%d", instr.Address),
			label,
			bold(instr.Name),
			strings.Join(instr.Operands, " "),
		}
		var info []string
		if instr.Constant != nil {
			info = append(info, formatConstant(instr.Constant))
		}
		switch {
		case instr.Annotation == "unimplemented":
			info = append(info, red(instr.Annotation))
		case instr.Annotation != "":
			info = append(info, cyan(instr.Annotation))
		}
		values = append(values, strings.Join(info, " "))
		lines = append(lines, values)
	}

	table := tablewriter.NewWriter(writer)
	table.SetHeader([]string{"ADDRESS", "LABEL", "OPCODE", "OPERANDS", "INFO"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_LEFT,
	})
	table.AppendBulk(lines)
	table.Render()
}

func formatConstant(v value.Value) string {
	text := v.String()
	if len(text) > 80 {
		text = text[:77] + "..."
	}
	switch v.Kind() {
	case value.KindNumber:
		return yellow(text)
	case value.KindString:
		return green(text)
	default:
		return bold(text)
	}
}
