package asm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// SyntaxError describes one malformed line of assembler source.
type SyntaxError struct {
	Filename    string
	Line        int
	SourceLine  string
	Message     string
	Suggestions []Suggestion
}

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var b strings.Builder
	if e.Filename != "" {
		b.WriteString(e.Filename)
		b.WriteString(":")
	}
	fmt.Fprintf(&b, "%d: %s", e.Line, e.Message)
	if hint := formatSuggestions(e.Suggestions); hint != "" {
		b.WriteString(" (")
		b.WriteString(hint)
		b.WriteString(")")
	}
	return b.String()
}

// Hint returns the suggestion text for the error, if any.
func (e *SyntaxError) Hint() string {
	return formatSuggestions(e.Suggestions)
}

// Errors returns the syntax errors carried by an error returned from
// Assemble, in source order.
func Errors(err error) []*SyntaxError {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		var serr *SyntaxError
		if errors.As(err, &serr) {
			return []*SyntaxError{serr}
		}
		return nil
	}
	var out []*SyntaxError
	for _, e := range merr.Errors {
		var serr *SyntaxError
		if errors.As(e, &serr) {
			out = append(out, serr)
		}
	}
	return out
}

func formatErrors(errs []error) string {
	if len(errs) == 1 {
		return errs[0].Error()
	}
	lines := make([]string, len(errs))
	for i, err := range errs {
		lines[i] = "  " + err.Error()
	}
	return fmt.Sprintf("%d assembler errors:\n%s", len(errs), strings.Join(lines, "\n"))
}
