// validate.go — the precondition the simulator assumes, spec.md §4.3.
//
// Validate walks a Program once, builds a procedure table keyed by name, and
// checks that every CallStmt resolves to a known procedure with matching
// arity. It returns the full list of errors found rather than stopping at the
// first one, so a single pass can report everything wrong with a program.
//
// The simulator does NOT trust that Validate has run: it re-checks arity and
// procedure existence at call time (spec.md §4.3, §4.4.6) because it may be
// invoked directly without a validation pass. Validate exists so tooling (a
// CLI, an editor) can report all errors up front instead of only the first
// one the simulator happens to trip over.
package validate

import (
	"fmt"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
)

// Error is one validation failure, carrying the source range of the
// offending node.
type Error struct {
	Loc     ast.SourceRange
	Message string
}

func (e Error) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Loc.File, e.Loc.Start.Line, e.Loc.Start.Col, e.Message)
}

type procInfo struct {
	arity int
	loc   ast.SourceRange
}

// Validator accumulates errors across one Run call. It is not safe for
// concurrent use; Run resets its state, so one Validator may be reused for
// one program after another.
type Validator struct {
	errs  []Error
	procs map[string]procInfo
}

// New returns a ready-to-use Validator.
func New() *Validator {
	return &Validator{procs: make(map[string]procInfo)}
}

// Validate runs the full validation pass over program and returns every
// error found. A nil/empty result means the program is well-formed.
func Validate(program *ast.Program) []Error {
	v := New()
	return v.Run(program)
}

// Run performs the validation pass. It may be called more than once on the
// same Validator, but each call resets accumulated state first.
func (v *Validator) Run(program *ast.Program) []Error {
	v.errs = nil
	v.procs = make(map[string]procInfo)

	v.buildProcTable(program)
	for _, pd := range program.Procedures {
		v.validateBlock(pd.Body)
	}
	v.validateBlock(program.Main)

	return v.errs
}

func (v *Validator) addError(loc ast.SourceRange, msg string) {
	v.errs = append(v.errs, Error{Loc: loc, Message: msg})
}

func (v *Validator) buildProcTable(program *ast.Program) {
	for _, pd := range program.Procedures {
		if existing, ok := v.procs[pd.Name]; ok {
			v.addError(pd.Rng, fmt.Sprintf("duplicate procedure %q (first defined at %d:%d)", pd.Name, existing.loc.Start.Line, existing.loc.Start.Col))
			continue
		}
		v.procs[pd.Name] = procInfo{arity: len(pd.Params), loc: pd.Rng}
	}
}

func (v *Validator) validateBlock(b *ast.Block) {
	for _, st := range b.Statements {
		v.validateStmt(st)
	}
}

func (v *Validator) validateStmt(st ast.Stmt) {
	switch s := st.(type) {
	case ast.InteractionStmt:
		// No static checks on interactions: types and store presence are
		// only knowable at runtime (spec.md §7), so this is intentionally a
		// no-op, mirroring the reference Validator::validateStmt.
	case ast.CallStmt:
		info, ok := v.procs[s.Proc]
		if !ok {
			v.addError(s.Rng, fmt.Sprintf("call to undefined procedure %q", s.Proc))
			return
		}
		if got := len(s.Args); got != info.arity {
			v.addError(s.Rng, fmt.Sprintf("wrong number of arguments in call to %q: expected %d, got %d", s.Proc, info.arity, got))
		}
	case ast.IfLocalStmt:
		v.validateBlock(s.Then)
		v.validateBlock(s.Else)
	case ast.IfRaceStmt:
		v.validateBlock(s.Then)
		v.validateBlock(s.Else)
	default:
		v.addError(st.Loc(), fmt.Sprintf("unknown statement kind %T", st))
	}
}
