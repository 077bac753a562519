// fault.go — the runtime fault taxonomy, spec.md §7.
//
// Faults are raised by panic(rtErr{...}) and recovered exactly once, at the
// top of Simulator.Run — mirroring the teacher's fail()/rtErr/recover
// pattern in interpreter_ops.go. This keeps every exec*/eval* function free
// of error-plumbing boilerplate: they just call rtFail and unwind straight
// to the one place that turns a fault into a Diagnostic.
package sim

import (
	"fmt"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
)

// FaultKind is the closed set of runtime fault kinds spec.md §7 names.
type FaultKind string

const (
	FaultUninitializedVariable   FaultKind = "UninitializedVariable"
	FaultTypeMismatch            FaultKind = "TypeMismatch"
	FaultUndefinedProcedure      FaultKind = "UndefinedProcedure"
	FaultArityMismatch           FaultKind = "ArityMismatch"
	FaultDoubleRaceResolution    FaultKind = "DoubleRaceResolution"
	FaultRaceNotResolved         FaultKind = "RaceNotResolved"
	FaultDischargeSourceMismatch FaultKind = "DischargeSourceMismatch"
	FaultDoubleDischarge         FaultKind = "DoubleDischarge"
	FaultMaxStepsExceeded        FaultKind = "MaxStepsExceeded"
	FaultMaxCallDepthExceeded    FaultKind = "MaxCallDepthExceeded"
)

// rtErr is the panic payload carrying one runtime fault. It is private: the
// only way a caller observes it is as a Diagnostic in Result, after Run has
// recovered it.
type rtErr struct {
	kind FaultKind
	loc  ast.SourceRange
	msg  string
}

func (e rtErr) Error() string { return e.msg }

// rtFail raises a fault at loc, unwinding the current Run via panic/recover.
func rtFail(kind FaultKind, loc ast.SourceRange, format string, args ...any) {
	panic(rtErr{kind: kind, loc: loc, msg: fmt.Sprintf(format, args...)})
}

// Diagnostic is one outbound runtime fault record, spec.md §6.
type Diagnostic struct {
	Kind    FaultKind
	File    string
	Line    int
	Col     int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s at %s:%d:%d: %s", d.Kind, d.File, d.Line, d.Col, d.Message)
}

func diagnosticFromRtErr(e rtErr) Diagnostic {
	return Diagnostic{
		Kind:    e.kind,
		File:    e.loc.File,
		Line:    e.loc.Start.Line,
		Col:     e.loc.Start.Col,
		Message: e.msg,
	}
}

// internalDiagnostic wraps an unexpected, non-rtErr panic recovered at the
// top of Run, per spec.md §7's "Unexpected internal exceptions" clause.
func internalDiagnostic(v any) Diagnostic {
	return Diagnostic{
		Kind:    "Internal",
		File:    "<internal>",
		Line:    0,
		Col:     0,
		Message: fmt.Sprintf("%v", v),
	}
}
