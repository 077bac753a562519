// frame.go — the explicit frame stack, spec.md §4.4.2/§9.
//
// The interpreter is driven by an explicit stack of frames rather than host
// recursion, so maxCallDepth and maxSteps are enforceable exactly and a
// deeply nested choreography cannot overflow the Go call stack.
package sim

import "github.com/Janji03/Racing-Choreographies-parser/ast"

// frame holds one active block's execution position: which block, how far
// into it, the process-name substitution in effect, and — for callee frames
// only — the procedure's name and the call site's location (so a matching
// "ret" trace event can be emitted on pop).
type frame struct {
	block    *ast.Block
	ip       int
	subst    subst
	procName string          // empty for main and for if-branches
	callLoc  ast.SourceRange // call site, used for the "ret" trace event
}

// atEnd reports whether this frame has executed every statement in its
// block.
func (f *frame) atEnd() bool {
	return f.ip >= len(f.block.Statements)
}

// current returns the statement this frame is about to execute. Callers
// must check atEnd first.
func (f *frame) current() ast.Stmt {
	return f.block.Statements[f.ip]
}
