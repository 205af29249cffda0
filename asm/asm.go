// Package asm implements the xq assembler, a line-oriented text format for
// machine programs.
//
// Each line holds at most one instruction, optionally preceded by labels.
// A semicolon starts a comment that runs to the end of the line:
//
//	; yields 1 + 2
//	.entry main
//	main:
//	    push 1
//	    push 2
//	    intrinsic2 add
//	    output
//
// Instruction names are the lowercase opcode names without underscores, so
// JUMP_UNLESS is written "jumpunless". Operands are separated by spaces or
// commas:
//
//	push V, const V            V is any JSON literal
//	load S:I, store S:I        slot I of the scope at level S
//	append S:I, storeclosure S:I
//	pushclosure L, fork L, jump L, jumpunless L
//	call L R                   call L, resuming at R after ret
//	callclosure S:I R          call the closure in slot S:I
//	newscope ID VARS CLOSURES
//	intrinsic1 NAME, intrinsic2 NAME
//
// L and R are label names or absolute instruction addresses. The .entry
// directive selects the instruction execution starts at; it defaults to the
// first instruction. Every problem in the source is reported, not just the
// first one.
package asm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/deepnoodle-ai/xq/bytecode"
	"github.com/deepnoodle-ai/xq/intrinsic"
	"github.com/deepnoodle-ai/xq/op"
	"github.com/deepnoodle-ai/xq/value"
	"github.com/hashicorp/go-multierror"
)

// Assemble translates assembler source into a Program.
func Assemble(src string) (*bytecode.Program, error) {
	return AssembleFile("", src)
}

// AssembleFile is like Assemble but names the source in error messages.
func AssembleFile(filename, src string) (*bytecode.Program, error) {
	a := &assembler{
		filename: filename,
		builder:  bytecode.NewBuilder(),
		labels:   map[string]*labelDef{},
	}
	return a.assemble(src)
}

// MustAssemble is like Assemble but panics on error.
func MustAssemble(src string) *bytecode.Program {
	program, err := Assemble(src)
	if err != nil {
		panic(err)
	}
	return program
}

type labelDef struct {
	label   bytecode.Label
	line    int
	defined bool
}

type labelRef struct {
	name   string
	line   int
	source string
}

type assembler struct {
	filename string
	builder  *bytecode.Builder
	labels   map[string]*labelDef
	refs     []labelRef
	errs     []*SyntaxError

	// position of the line being assembled
	line   int
	source string
}

func (a *assembler) assemble(src string) (*bytecode.Program, error) {
	for i, raw := range strings.Split(src, "\n") {
		a.line = i + 1
		a.source = strings.TrimRight(raw, "\r")
		a.assembleLine(strings.TrimSpace(stripComment(a.source)))
	}
	a.checkReferences()
	if len(a.errs) > 0 {
		sort.SliceStable(a.errs, func(i, j int) bool { return a.errs[i].Line < a.errs[j].Line })
		result := &multierror.Error{ErrorFormat: formatErrors}
		for _, err := range a.errs {
			result = multierror.Append(result, err)
		}
		return nil, result
	}
	return a.builder.Build()
}

func (a *assembler) assembleLine(text string) {
	if text == "" {
		return
	}
	if strings.HasPrefix(text, ".") {
		a.directive(text)
		return
	}
	for {
		head, rest := splitFirst(text)
		name, isLabel := strings.CutSuffix(head, ":")
		if !isLabel || !isIdent(name) {
			break
		}
		a.define(name)
		text = rest
	}
	if text == "" {
		return
	}
	mnemonic, rest := splitFirst(text)
	a.instruction(mnemonic, rest)
}

func (a *assembler) errorf(suggestions []Suggestion, format string, args ...any) {
	a.errs = append(a.errs, &SyntaxError{
		Filename:    a.filename,
		Line:        a.line,
		SourceLine:  a.source,
		Message:     fmt.Sprintf(format, args...),
		Suggestions: suggestions,
	})
}

func (a *assembler) directive(text string) {
	name, rest := splitFirst(text)
	switch name {
	case ".entry":
		args := operands(rest)
		if len(args) != 1 {
			a.errorf(nil, ".entry expects 1 operand, got %d", len(args))
			return
		}
		if l, ok := a.target(args[0]); ok {
			a.builder.SetEntry(l)
		}
	default:
		a.errorf(suggestSimilar(name, []string{".entry"}), "unknown directive %q", name)
	}
}

func (a *assembler) define(name string) {
	def, ok := a.labels[name]
	if ok && def.defined {
		a.errorf(nil, "label %q already defined on line %d", name, def.line)
		return
	}
	if !ok {
		def = &labelDef{label: a.builder.NewLabel(name)}
		a.labels[name] = def
	}
	def.defined = true
	def.line = a.line
	a.builder.Mark(def.label)
}

// target resolves an address operand, which is either a label name or an
// absolute address.
func (a *assembler) target(arg string) (bytecode.Label, bool) {
	if n, err := strconv.Atoi(arg); err == nil {
		if n < 0 {
			a.errorf(nil, "invalid address %d", n)
			return bytecode.Label{}, false
		}
		return a.builder.Absolute(bytecode.Address(n)), true
	}
	if !isIdent(arg) {
		a.errorf(nil, "invalid label or address %q", arg)
		return bytecode.Label{}, false
	}
	def, ok := a.labels[arg]
	if !ok {
		def = &labelDef{label: a.builder.NewLabel(arg)}
		a.labels[arg] = def
	}
	a.refs = append(a.refs, labelRef{name: arg, line: a.line, source: a.source})
	return def.label, true
}

func (a *assembler) checkReferences() {
	var defined []string
	for name, def := range a.labels {
		if def.defined {
			defined = append(defined, name)
		}
	}
	reported := map[string]bool{}
	for _, ref := range a.refs {
		if a.labels[ref.name].defined || reported[ref.name] {
			continue
		}
		reported[ref.name] = true
		a.errs = append(a.errs, &SyntaxError{
			Filename:    a.filename,
			Line:        ref.line,
			SourceLine:  ref.source,
			Message:     fmt.Sprintf("undefined label %q", ref.name),
			Suggestions: suggestSimilar(ref.name, defined),
		})
	}
}

func (a *assembler) slot(arg string) (bytecode.ScopedSlot, bool) {
	scope, index, found := strings.Cut(arg, ":")
	if found {
		s, err1 := strconv.Atoi(scope)
		i, err2 := strconv.Atoi(index)
		if err1 == nil && err2 == nil && s >= 0 && i >= 0 {
			return bytecode.Slot(bytecode.ScopeID(s), i), true
		}
	}
	a.errorf(nil, "invalid slot %q (expected SCOPE:INDEX)", arg)
	return bytecode.ScopedSlot{}, false
}

func (a *assembler) count(arg, what string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 0 {
		a.errorf(nil, "invalid %s %q", what, arg)
		return 0, false
	}
	return n, true
}

func (a *assembler) instruction(mnemonic, rest string) {
	code, ok := op.Lookup(mnemonic)
	if !ok {
		a.errorf(suggestSimilar(mnemonic, op.Mnemonics()), "unknown instruction %q", mnemonic)
		return
	}
	name := op.GetInfo(code).Mnemonic
	b := a.builder

	if code == op.Push || code == op.Const {
		if rest == "" {
			a.errorf(nil, "%s expects a JSON literal", name)
			return
		}
		v, err := value.ParseJSON([]byte(rest))
		if err != nil {
			a.errorf(nil, "invalid literal %s: %v", rest, err)
			return
		}
		if code == op.Push {
			b.Emit(bytecode.Push(v))
		} else {
			b.Emit(bytecode.Const(v))
		}
		return
	}

	args := operands(rest)
	if want := op.GetInfo(code).OperandCount; len(args) != want {
		a.errorf(nil, "%s expects %d operand(s), got %d", name, want, len(args))
		return
	}

	switch code {
	case op.Load, op.Store, op.Append, op.StoreClosure:
		slot, ok := a.slot(args[0])
		if !ok {
			return
		}
		switch code {
		case op.Load:
			b.Emit(bytecode.Load(slot))
		case op.Store:
			b.Emit(bytecode.Store(slot))
		case op.Append:
			b.Emit(bytecode.Append(slot))
		default:
			b.Emit(bytecode.StoreClosure(slot))
		}
	case op.PushClosure, op.Fork, op.Jump, op.JumpUnless:
		l, ok := a.target(args[0])
		if !ok {
			return
		}
		switch code {
		case op.PushClosure:
			b.PushClosure(l)
		case op.Fork:
			b.Fork(l)
		case op.Jump:
			b.Jump(l)
		default:
			b.JumpUnless(l)
		}
	case op.Call:
		fn, ok1 := a.target(args[0])
		ret, ok2 := a.target(args[1])
		if ok1 && ok2 {
			b.Call(fn, ret)
		}
	case op.CallClosure:
		slot, ok1 := a.slot(args[0])
		ret, ok2 := a.target(args[1])
		if ok1 && ok2 {
			b.CallClosure(slot, ret)
		}
	case op.NewScope:
		id, ok1 := a.count(args[0], "scope id")
		vars, ok2 := a.count(args[1], "variable count")
		closures, ok3 := a.count(args[2], "closure count")
		if ok1 && ok2 && ok3 {
			b.Emit(bytecode.NewScope(bytecode.ScopeID(id), vars, closures))
		}
	case op.Intrinsic1:
		fn, ok := intrinsic.Lookup1(args[0])
		if !ok {
			a.errorf(suggestSimilar(args[0], intrinsic.Names1()), "unknown arity-1 intrinsic %q", args[0])
			return
		}
		b.Emit(bytecode.CallIntrinsic1(fn))
	case op.Intrinsic2:
		fn, ok := intrinsic.Lookup2(args[0])
		if !ok {
			a.errorf(suggestSimilar(args[0], intrinsic.Names2()), "unknown arity-2 intrinsic %q", args[0])
			return
		}
		b.Emit(bytecode.CallIntrinsic2(fn))
	default:
		b.Emit(bytecode.Simple(code))
	}
}

// stripComment removes a trailing ';' comment, ignoring semicolons inside
// JSON strings.
func stripComment(line string) string {
	inString, escaped := false, false
	for i, r := range line {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case r == ';' && !inString:
			return line[:i]
		}
	}
	return line
}

func splitFirst(text string) (string, string) {
	i := strings.IndexFunc(text, unicode.IsSpace)
	if i < 0 {
		return text, ""
	}
	return text[:i], strings.TrimSpace(text[i:])
}

func operands(rest string) []string {
	return strings.FieldsFunc(rest, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
