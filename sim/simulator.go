// simulator.go — the core: a tree-walking interpreter for a validated
// Program, spec.md §4.4.
//
// Simulator.Run is the single entry point. It is single-threaded and
// non-suspending (spec.md §5): no statement ever yields, blocks, or awaits.
// "Concurrency" in this language is logical ordering with race elections,
// not parallel dispatch — see the race protocol in interaction.go.
//
// On the first runtime fault, interpretation stops; the partial store, race
// memory and trace accumulated so far are still returned (spec.md §4.4.1).
package sim

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

// execCtx is the mutable state threaded through one Simulator.Run call. It
// is never shared between runs: each Run call constructs its own.
type execCtx struct {
	opt Options

	store *runtime.Store
	races *runtime.Memory
	trace *runtime.Trace

	steps     uint64
	callDepth uint64

	rng *prng

	procs map[string]*ast.ProcDef

	log *zap.Logger
}

// initLoc is the synthetic source location attached to init-binding trace
// events, which have no corresponding source text.
var initLoc = ast.SourceRange{File: "<init>"}

// Simulator executes a validated Program. It carries no state of its own
// between runs — Run is the only method, and every call is independent
// (spec.md §5: "Repeated invocations of run are independent").
type Simulator struct{}

// NewSimulator returns a ready-to-use Simulator. Since Simulator is
// stateless, callers may also just use the zero value; NewSimulator exists
// for symmetry with the rest of the package's constructors.
func NewSimulator() *Simulator { return &Simulator{} }

// Run executes program under opt and returns the full result: trace, final
// store, final race memory, and ok/diagnostic. It never panics outward —
// every fault, expected or not, is captured into Result.Diagnostic.
func (s *Simulator) Run(program *ast.Program, opt Options) Result {
	ctx := &execCtx{
		opt:   opt,
		store: runtime.NewStore(),
		races: runtime.NewMemory(),
		trace: runtime.NewTrace(),
		rng:   newPRNG(opt.Seed),
		procs: buildProcTable(program),
		log:   opt.logger(),
	}

	runID := uuid.New().String()
	ctx.log.Info("sim run starting",
		zap.String("run_id", runID),
		zap.String("race_policy", opt.RacePolicy.String()),
		zap.Uint64("max_steps", opt.MaxSteps),
		zap.Uint64("max_call_depth", opt.MaxCallDepth),
	)

	res := Result{RunID: runID, Store: ctx.store, Races: ctx.races, Trace: ctx.trace}

	func() {
		defer func() {
			if r := recover(); r != nil {
				res.Ok = false
				var diag Diagnostic
				if e, ok := r.(rtErr); ok {
					diag = diagnosticFromRtErr(e)
				} else {
					diag = internalDiagnostic(r)
				}
				res.Diagnostic = &diag
				ctx.log.Warn("sim run faulted",
					zap.String("run_id", runID),
					zap.String("kind", string(diag.Kind)),
					zap.String("message", diag.Message),
				)
			}
		}()

		applyInit(ctx, opt.Init)
		runLoop(ctx, program)
		res.Ok = true
	}()

	ctx.log.Info("sim run finished", zap.String("run_id", runID), zap.Bool("ok", res.Ok))
	return res
}

func buildProcTable(program *ast.Program) map[string]*ast.ProcDef {
	table := make(map[string]*ast.ProcDef, len(program.Procedures))
	for _, pd := range program.Procedures {
		table[pd.Name] = pd
	}
	return table
}

func applyInit(ctx *execCtx, init []InitBinding) {
	for _, b := range init {
		ctx.store.Set(b.Process, b.Var, b.Value)
		pushTrace(ctx, runtime.EventInit, fmt.Sprintf("%s.%s = %s", b.Process, b.Var, b.Value.String()), initLoc)
	}
}

// runLoop drives the explicit frame stack to completion or to the first
// fault (which unwinds via panic, caught by the caller).
func runLoop(ctx *execCtx, program *ast.Program) {
	stack := []*frame{{block: program.Main, subst: nil}}

	for len(stack) > 0 {
		fr := stack[len(stack)-1]

		if fr.atEnd() {
			if fr.procName != "" {
				ctx.callDepth--
				pushTrace(ctx, runtime.EventRet, fr.procName, fr.callLoc)
			}
			stack = stack[:len(stack)-1]
			continue
		}

		st := fr.current()
		stack = dispatch(ctx, stack, fr, st)
	}
}

// dispatch executes one statement and returns the (possibly grown) frame
// stack. Every branch advances fr.ip before pushing any child frame, so that
// on return the caller resumes at the next statement (spec.md §4.4.2).
func dispatch(ctx *execCtx, stack []*frame, fr *frame, st ast.Stmt) []*frame {
	switch s := st.(type) {

	case ast.InteractionStmt:
		checkStepLimit(ctx, s.Loc())
		fr.ip++
		execInteraction(ctx, s.Interaction, fr.subst)
		return stack

	case ast.IfLocalStmt:
		checkStepLimit(ctx, s.Loc())
		cond := evalProcExpr(ctx, s.Cond, fr.subst)
		b := requireBool(cond, s.Cond.Loc)
		pushTrace(ctx, runtime.EventIf, fmt.Sprintf("cond=%t @ %s -> %s", b, procExprString(s.Cond, fr.subst), branchName(b)), s.Rng)

		fr.ip++
		chosen := s.Else
		if b {
			chosen = s.Then
		}
		return append(stack, &frame{block: chosen, subst: fr.subst})

	case ast.IfRaceStmt:
		checkStepLimit(ctx, s.Loc())
		key := toRaceKey(s.Cond, fr.subst)
		entry, ok := ctx.races.Get(key)
		if !ok {
			rtFail(FaultRaceNotResolved, s.Rng, "race %s not resolved", raceKeyString(key))
		}
		won := entry.WinnerSide == runtime.Left
		pushTrace(ctx, runtime.EventIfRace, fmt.Sprintf("%s winner=%s -> %s", raceKeyString(key), entry.WinnerProc, branchName(won)), s.Rng)

		fr.ip++
		chosen := s.Else
		if won {
			chosen = s.Then
		}
		return append(stack, &frame{block: chosen, subst: fr.subst})

	case ast.CallStmt:
		checkStepLimit(ctx, s.Loc())
		def, ok := ctx.procs[s.Proc]
		if !ok {
			rtFail(FaultUndefinedProcedure, s.Rng, "call to undefined procedure %q", s.Proc)
		}
		if len(def.Params) != len(s.Args) {
			rtFail(FaultArityMismatch, s.Rng, "procedure %q arity mismatch: expected %d, got %d", s.Proc, len(def.Params), len(s.Args))
		}
		if ctx.callDepth >= ctx.opt.MaxCallDepth {
			rtFail(FaultMaxCallDepthExceeded, s.Rng, "max call depth %d exceeded calling %q", ctx.opt.MaxCallDepth, s.Proc)
		}
		ctx.callDepth++

		pushTrace(ctx, runtime.EventCall, callTraceMessage(s, fr.subst), s.Rng)

		inner := make(subst, len(def.Params))
		for i, formal := range def.Params {
			inner[formal] = processSubst(s.Args[i], fr.subst)
		}
		composed := composeSubst(fr.subst, inner)

		fr.ip++
		return append(stack, &frame{block: def.Body, subst: composed, procName: s.Proc, callLoc: s.Rng})

	default:
		rtFail("Internal", st.Loc(), "unknown statement kind %T", st)
		return stack // unreachable
	}
}

func branchName(cond bool) string {
	if cond {
		return "then"
	}
	return "else"
}

func callTraceMessage(s ast.CallStmt, subst subst) string {
	out := s.Proc + "("
	for i, a := range s.Args {
		if i > 0 {
			out += ","
		}
		out += processSubst(a, subst)
	}
	return out + ")"
}

func checkStepLimit(ctx *execCtx, loc ast.SourceRange) {
	ctx.steps++
	if ctx.steps > ctx.opt.MaxSteps {
		rtFail(FaultMaxStepsExceeded, loc, "max steps %d exceeded", ctx.opt.MaxSteps)
	}
}

func pushTrace(ctx *execCtx, kind runtime.EventKind, msg string, loc ast.SourceRange) {
	if !ctx.opt.Trace {
		return
	}
	ctx.trace.Append(kind, msg, loc)
}

func requireBool(v runtime.Value, loc ast.SourceRange) bool {
	if !v.IsBool() {
		rtFail(FaultTypeMismatch, loc, "condition is not a boolean")
	}
	return v.BoolVal
}
