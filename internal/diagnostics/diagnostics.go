// diagnostics.go — caret-snippet rendering for every diagnostic kind this
// module produces (lex, parse, validate, runtime fault), adapted from the
// teacher's errors.go WrapErrorWithSource/prettyErrorStringLabeled pair.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/Janji03/Racing-Choreographies-parser/lexer"
	"github.com/Janji03/Racing-Choreographies-parser/parser"
	"github.com/Janji03/Racing-Choreographies-parser/sim"
	"github.com/Janji03/Racing-Choreographies-parser/validate"
)

// Render turns err into a caret-annotated snippet against src, if err is one
// of this module's known diagnostic types. Anything else is rendered with
// its plain Error() text.
func Render(err error, srcName, src string) string {
	switch e := err.(type) {
	case *lexer.LexError:
		return snippet(src, "LEXICAL ERROR", srcName, e.Line, e.Col+1, e.Msg)
	case *parser.ParseError:
		return snippet(src, "PARSE ERROR", srcName, e.Line, e.Col+1, e.Msg)
	default:
		return err.Error()
	}
}

// RenderFault formats a runtime Diagnostic the same way, for callers that
// hold a sim.Result.Diagnostic rather than a Go error.
func RenderFault(d *sim.Diagnostic, src string) string {
	if d == nil {
		return ""
	}
	return snippet(src, "RUNTIME FAULT: "+string(d.Kind), d.File, d.Line, d.Col+1, d.Message)
}

// RenderValidationErrors formats the full error list from one validate.Run
// call, one snippet per error, separated by a blank line.
func RenderValidationErrors(errs []validate.Error, srcName, src string) string {
	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		parts = append(parts, snippet(src, "VALIDATION ERROR", srcName, e.Loc.Start.Line, e.Loc.Start.Col+1, e.Message))
	}
	return strings.Join(parts, "\n")
}

func snippet(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if len(lines) == 0 {
		lines = []string{""}
	}
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}
	lineTxt := lines[line-1]

	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lineTxt)
	caretPad := col - 1
	if caretPad < 0 {
		caretPad = 0
	}
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", caretPad))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
