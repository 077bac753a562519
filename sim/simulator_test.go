package sim

import (
	"testing"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

func loc() ast.SourceRange { return ast.SourceRange{File: "t.rc"} }

func pVar(p, v string) ast.ProcVar { return ast.ProcVar{Process: p, Var: v, Loc: loc()} }
func pExprVar(p, v string) ast.ProcExpr {
	return ast.ProcExpr{Process: p, Expr: ast.ExprVar{Name: v, Rng: loc()}, Loc: loc()}
}
func pExprInt(p string, n int64) ast.ProcExpr {
	return ast.ProcExpr{Process: p, Expr: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: n, Loc: loc()}}, Loc: loc()}
}

func stmt(in ast.Interaction) ast.Stmt {
	return ast.InteractionStmt{Interaction: in, Rng: loc()}
}

func program(main *ast.Block, procs ...*ast.ProcDef) *ast.Program {
	return &ast.Program{Procedures: procs, Main: main, Rng: loc()}
}

func block(stmts ...ast.Stmt) *ast.Block {
	return &ast.Block{Statements: stmts, Rng: loc()}
}

// S1 — Assignment and communication.
func TestS1AssignAndComm(t *testing.T) {
	main := block(
		stmt(ast.Assign{Target: pVar("a", "x"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 5, Loc: loc()}}, Rng: loc()}),
		stmt(ast.Comm{From: pExprVar("a", "x"), To: pVar("b", "y"), Rng: loc()}),
	)
	res := NewSimulator().Run(program(main), NewOptions())

	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if !snap["a.x"].Equal(runtime.Int(5)) || !snap["b.y"].Equal(runtime.Int(5)) {
		t.Fatalf("final store = %v, want a.x=5 b.y=5", snap)
	}

	kinds := eventKinds(res.Trace)
	if len(kinds) != 2 || kinds[0] != runtime.EventAssign || kinds[1] != runtime.EventComm {
		t.Fatalf("trace kinds = %v, want [asg com]", kinds)
	}
}

// S2 — Race, Left policy.
func TestS2RaceLeftPolicy(t *testing.T) {
	main := block(
		stmt(ast.Race{
			Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
			Left:   pExprInt("p", 1),
			Right:  pExprInt("q", 2),
			Target: pVar("r", "w"),
			Rng:    loc(),
		}),
	)
	opt := NewOptions()
	opt.RacePolicy = Left
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}
	res := NewSimulator().Run(program(main), opt)

	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if !snap["r.w"].Equal(runtime.Int(1)) {
		t.Fatalf("r.w = %v, want 1", snap["r.w"])
	}

	entry, ok := res.Races.Get(runtime.RaceKey{Process: "a", Key: "k"})
	if !ok {
		t.Fatal("expected race a[k] to be resolved")
	}
	if entry.WinnerProc != "p" || entry.LoserProc != "q" || entry.Discharged {
		t.Fatalf("entry = %+v, want winner=p loser=q discharged=false", entry)
	}
	if !entry.VWinner.Equal(runtime.Int(1)) || !entry.VLoser.Equal(runtime.Int(2)) {
		t.Fatalf("entry values = %+v, want vWinner=1 vLoser=2", entry)
	}
}

// S3 — Race then Discharge, then double-discharge fault.
func TestS3RaceThenDischarge(t *testing.T) {
	raceStmt := stmt(ast.Race{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Left:   pExprInt("p", 1),
		Right:  pExprInt("q", 2),
		Target: pVar("r", "w"),
		Rng:    loc(),
	})
	dischargeStmt := stmt(ast.Discharge{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Source: "q",
		Target: pVar("r", "z"),
		Rng:    loc(),
	})

	main := block(raceStmt, dischargeStmt)
	opt := NewOptions()
	opt.RacePolicy = Left
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}
	res := NewSimulator().Run(program(main), opt)
	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if !snap["r.z"].Equal(runtime.Int(2)) {
		t.Fatalf("r.z = %v, want 2", snap["r.z"])
	}
	entry, _ := res.Races.Get(runtime.RaceKey{Process: "a", Key: "k"})
	if !entry.Discharged {
		t.Fatal("expected discharged=true after discharge")
	}

	// Second discharge against the same key must fault.
	secondDischarge := stmt(ast.Discharge{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Source: "q",
		Target: pVar("r", "w2"),
		Rng:    loc(),
	})
	main2 := block(raceStmt, dischargeStmt, secondDischarge)
	res2 := NewSimulator().Run(program(main2), opt)
	if res2.Ok || res2.Diagnostic == nil || res2.Diagnostic.Kind != FaultDoubleDischarge {
		t.Fatalf("expected DoubleDischarge fault, got ok=%v diag=%+v", res2.Ok, res2.Diagnostic)
	}
}

// S4 — IfRace branch selection.
func TestS4IfRaceBranchSelection(t *testing.T) {
	raceStmt := stmt(ast.Race{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Left:   pExprInt("p", 1),
		Right:  pExprInt("q", 2),
		Target: pVar("r", "w"),
		Rng:    loc(),
	})
	ifRace := ast.IfRaceStmt{
		Cond: ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Then: block(stmt(ast.Assign{Target: pVar("s", "flag"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindBool, BoolVal: true, Loc: loc()}}, Rng: loc()})),
		Else: block(stmt(ast.Assign{Target: pVar("s", "flag"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindBool, BoolVal: false, Loc: loc()}}, Rng: loc()})),
		Rng:  loc(),
	}

	main := block(raceStmt, ifRace)
	opt := NewOptions()
	opt.RacePolicy = Left
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}
	res := NewSimulator().Run(program(main), opt)
	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	if v := res.Store.Snapshot()["s.flag"]; !v.Equal(runtime.Bool(true)) {
		t.Fatalf("s.flag = %v, want true (left won)", v)
	}
}

// S5 — Procedure substitution: aliasing the same actual process to two
// formals proves the compose rule.
func TestS5ProcedureSubstitutionAliasing(t *testing.T) {
	def := &ast.ProcDef{
		Name:   "P",
		Params: []ast.Process{"x", "y"},
		Body: block(
			stmt(ast.Assign{Target: pVar("x", "v"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
			stmt(ast.Assign{Target: pVar("y", "v"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 2, Loc: loc()}}, Rng: loc()}),
		),
		Rng: loc(),
	}
	main := block(ast.CallStmt{Proc: "P", Args: []ast.Process{"u", "u"}, Rng: loc()})

	res := NewSimulator().Run(program(main, def), NewOptions())
	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if len(snap) != 1 || !snap["u.v"].Equal(runtime.Int(2)) {
		t.Fatalf("final store = %v, want exactly {u.v: 2}", snap)
	}
}

// S6 — Bounds: max call depth.
func TestS6MaxCallDepthExceeded(t *testing.T) {
	def := &ast.ProcDef{
		Name: "L",
		Body: block(ast.CallStmt{Proc: "L", Rng: loc()}),
		Rng:  loc(),
	}
	main := block(ast.CallStmt{Proc: "L", Rng: loc()})

	opt := NewOptions()
	opt.MaxCallDepth = 8
	res := NewSimulator().Run(program(main, def), opt)

	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultMaxCallDepthExceeded {
		t.Fatalf("expected MaxCallDepthExceeded, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// S7 — Uninitialized read.
func TestS7UninitializedRead(t *testing.T) {
	main := block(stmt(ast.Assign{Target: pVar("a", "y"), Value: ast.ExprVar{Name: "x", Rng: loc()}, Rng: loc()}))
	res := NewSimulator().Run(program(main), NewOptions())

	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultUninitializedVariable {
		t.Fatalf("expected UninitializedVariable, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

func eventKinds(tr *runtime.Trace) []runtime.EventKind {
	var out []runtime.EventKind
	for _, e := range tr.Events() {
		out = append(out, e.Kind)
	}
	return out
}

// tracesEqual compares two traces event-by-event: kind, message and source
// location must all match, in the same order.
func tracesEqual(a, b *runtime.Trace) bool {
	ea, eb := a.Events(), b.Events()
	if len(ea) != len(eb) {
		return false
	}
	for i := range ea {
		if ea[i].Kind != eb[i].Kind || ea[i].Message != eb[i].Message || ea[i].Loc != eb[i].Loc {
			return false
		}
	}
	return true
}

// TestCallSubstTwoPassCompose exercises the compose rule of spec.md §4.4.3
// across three nested calls: an actual process name that has already been
// renamed once by an outer frame must be resolved through the full chain of
// substitutions, not just the innermost one.
//
//	proc Deep(z){z.v=1} proc Mid(g){Deep(p)} proc Top(p){Mid(x)} main{Top(g)}
//
// Top(g) binds p->g; Mid(x) binds g->x (composed with p->g); Deep(p) must
// resolve its actual "p" through {p:g,g:x} to "g", then resolve that "g"
// through the same outer map a second time to "x" — so z.v=1 writes x.v=1,
// not g.v=1.
func TestCallSubstTwoPassCompose(t *testing.T) {
	defDeep := &ast.ProcDef{
		Name:   "Deep",
		Params: []ast.Process{"z"},
		Body:   block(stmt(ast.Assign{Target: pVar("z", "v"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()})),
		Rng:    loc(),
	}
	defMid := &ast.ProcDef{
		Name:   "Mid",
		Params: []ast.Process{"g"},
		Body:   block(ast.CallStmt{Proc: "Deep", Args: []ast.Process{"p"}, Rng: loc()}),
		Rng:    loc(),
	}
	defTop := &ast.ProcDef{
		Name:   "Top",
		Params: []ast.Process{"p"},
		Body:   block(ast.CallStmt{Proc: "Mid", Args: []ast.Process{"x"}, Rng: loc()}),
		Rng:    loc(),
	}
	main := block(ast.CallStmt{Proc: "Top", Args: []ast.Process{"g"}, Rng: loc()})

	res := NewSimulator().Run(program(main, defDeep, defMid, defTop), NewOptions())
	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if len(snap) != 1 || !snap["x.v"].Equal(runtime.Int(1)) {
		t.Fatalf("final store = %v, want exactly {x.v: 1}", snap)
	}
}

// TestDoubleRaceResolutionFaults resolves the same race key twice.
func TestDoubleRaceResolutionFaults(t *testing.T) {
	raceStmt := stmt(ast.Race{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Left:   pExprInt("p", 1),
		Right:  pExprInt("q", 2),
		Target: pVar("r", "w"),
		Rng:    loc(),
	})
	main := block(raceStmt, raceStmt)

	res := NewSimulator().Run(program(main), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultDoubleRaceResolution {
		t.Fatalf("expected DoubleRaceResolution, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestRaceNotResolvedViaDischarge discharges a key that was never raced.
func TestRaceNotResolvedViaDischarge(t *testing.T) {
	main := block(stmt(ast.Discharge{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Source: "q",
		Target: pVar("r", "z"),
		Rng:    loc(),
	}))

	res := NewSimulator().Run(program(main), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultRaceNotResolved {
		t.Fatalf("expected RaceNotResolved, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestRaceNotResolvedViaIfRace branches on a race key that was never raced.
func TestRaceNotResolvedViaIfRace(t *testing.T) {
	main := block(ast.IfRaceStmt{
		Cond: ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Then: block(),
		Else: block(),
		Rng:  loc(),
	})

	res := NewSimulator().Run(program(main), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultRaceNotResolved {
		t.Fatalf("expected RaceNotResolved, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestDischargeSourceMismatch names the winner, not the loser, as the
// discharge source.
func TestDischargeSourceMismatch(t *testing.T) {
	raceStmt := stmt(ast.Race{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Left:   pExprInt("p", 1),
		Right:  pExprInt("q", 2),
		Target: pVar("r", "w"),
		Rng:    loc(),
	})
	badDischarge := stmt(ast.Discharge{
		Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
		Source: "p", // p won under Left policy; the loser is q.
		Target: pVar("r", "z"),
		Rng:    loc(),
	})
	main := block(raceStmt, badDischarge)

	opt := NewOptions()
	opt.RacePolicy = Left
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}
	res := NewSimulator().Run(program(main), opt)
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultDischargeSourceMismatch {
		t.Fatalf("expected DischargeSourceMismatch, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestIfLocalTypeMismatch branches on a non-boolean condition.
func TestIfLocalTypeMismatch(t *testing.T) {
	main := block(ast.IfLocalStmt{
		Cond: pExprInt("a", 1),
		Then: block(),
		Else: block(),
		Rng:  loc(),
	})

	res := NewSimulator().Run(program(main), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultTypeMismatch {
		t.Fatalf("expected TypeMismatch, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestUndefinedProcedureAtRuntime calls a procedure with no matching
// definition. validate.Validate would catch this statically; this test
// exercises the simulator's own defense-in-depth check directly.
func TestUndefinedProcedureAtRuntime(t *testing.T) {
	main := block(ast.CallStmt{Proc: "Ghost", Rng: loc()})

	res := NewSimulator().Run(program(main), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultUndefinedProcedure {
		t.Fatalf("expected UndefinedProcedure, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestArityMismatchAtRuntime calls a defined procedure with the wrong number
// of actual arguments.
func TestArityMismatchAtRuntime(t *testing.T) {
	def := &ast.ProcDef{
		Name:   "P",
		Params: []ast.Process{"x"},
		Body:   block(),
		Rng:    loc(),
	}
	main := block(ast.CallStmt{Proc: "P", Args: []ast.Process{"a", "b"}, Rng: loc()})

	res := NewSimulator().Run(program(main, def), NewOptions())
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultArityMismatch {
		t.Fatalf("expected ArityMismatch, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestMaxStepsExceeded runs a non-recursive block past a tight step budget.
func TestMaxStepsExceeded(t *testing.T) {
	main := block(
		stmt(ast.Assign{Target: pVar("a", "x1"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
		stmt(ast.Assign{Target: pVar("a", "x2"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
		stmt(ast.Assign{Target: pVar("a", "x3"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
		stmt(ast.Assign{Target: pVar("a", "x4"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
		stmt(ast.Assign{Target: pVar("a", "x5"), Value: ast.ExprValue{Value: ast.Value{Kind: ast.KindInt, IntVal: 1, Loc: loc()}}, Rng: loc()}),
	)

	opt := NewOptions()
	opt.MaxSteps = 3
	res := NewSimulator().Run(program(main), opt)
	if res.Ok || res.Diagnostic == nil || res.Diagnostic.Kind != FaultMaxStepsExceeded {
		t.Fatalf("expected MaxStepsExceeded, got ok=%v diag=%+v", res.Ok, res.Diagnostic)
	}
}

// TestRacePolicyRightElectsRight is S2's mirror under RacePolicy=Right,
// exercising Testable Property #3 for the side S2 never tests.
func TestRacePolicyRightElectsRight(t *testing.T) {
	main := block(
		stmt(ast.Race{
			Id:     ast.RaceId{Process: "a", Key: "k", Loc: loc()},
			Left:   pExprInt("p", 1),
			Right:  pExprInt("q", 2),
			Target: pVar("r", "w"),
			Rng:    loc(),
		}),
	)
	opt := NewOptions()
	opt.RacePolicy = Right
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}
	res := NewSimulator().Run(program(main), opt)

	if !res.Ok {
		t.Fatalf("expected ok run, got diagnostic %+v", res.Diagnostic)
	}
	snap := res.Store.Snapshot()
	if !snap["r.w"].Equal(runtime.Int(2)) {
		t.Fatalf("r.w = %v, want 2 (right wins)", snap["r.w"])
	}
	entry, ok := res.Races.Get(runtime.RaceKey{Process: "a", Key: "k"})
	if !ok {
		t.Fatal("expected race a[k] to be resolved")
	}
	if entry.WinnerProc != "q" || entry.LoserProc != "p" {
		t.Fatalf("entry = %+v, want winner=q loser=p", entry)
	}
}

// TestDeterministicReplay asserts Testable Property #2: the same seed, race
// policy and init bindings must produce byte-identical traces, stores and
// race memories across independent Run calls, including under RacePolicy
// Random where the PRNG is actually exercised.
func TestDeterministicReplay(t *testing.T) {
	buildProgram := func() *ast.Program {
		main := block(
			stmt(ast.Race{Id: ast.RaceId{Process: "a", Key: "k1", Loc: loc()}, Left: pExprInt("p", 1), Right: pExprInt("q", 2), Target: pVar("r", "w1"), Rng: loc()}),
			stmt(ast.Race{Id: ast.RaceId{Process: "a", Key: "k2", Loc: loc()}, Left: pExprInt("p", 3), Right: pExprInt("q", 4), Target: pVar("r", "w2"), Rng: loc()}),
			stmt(ast.Race{Id: ast.RaceId{Process: "a", Key: "k3", Loc: loc()}, Left: pExprInt("p", 5), Right: pExprInt("q", 6), Target: pVar("r", "w3"), Rng: loc()}),
		)
		return program(main)
	}

	opt := NewOptions()
	opt.RacePolicy = Random
	opt.Seed = 42
	opt.Init = []InitBinding{
		{Process: "p", Var: "dummy", Value: runtime.Int(0)},
		{Process: "q", Var: "dummy", Value: runtime.Int(0)},
	}

	res1 := NewSimulator().Run(buildProgram(), opt)
	res2 := NewSimulator().Run(buildProgram(), opt)

	if !res1.Ok || !res2.Ok {
		t.Fatalf("expected both runs ok, got res1.Ok=%v (%+v) res2.Ok=%v (%+v)", res1.Ok, res1.Diagnostic, res2.Ok, res2.Diagnostic)
	}
	if !tracesEqual(res1.Trace, res2.Trace) {
		t.Fatalf("traces diverged across replays:\nrun1: %v\nrun2: %v", res1.Trace.Events(), res2.Trace.Events())
	}

	snap1, snap2 := res1.Store.Snapshot(), res2.Store.Snapshot()
	if len(snap1) != len(snap2) {
		t.Fatalf("store sizes diverged: %v vs %v", snap1, snap2)
	}
	for k, v := range snap1 {
		if !v.Equal(snap2[k]) {
			t.Fatalf("store diverged at %s: %v vs %v", k, v, snap2[k])
		}
	}

	races1, races2 := res1.Races.Snapshot(), res2.Races.Snapshot()
	if len(races1) != len(races2) {
		t.Fatalf("race memory sizes diverged: %v vs %v", races1, races2)
	}
	for k, e := range races1 {
		o := races2[k]
		if e.WinnerProc != o.WinnerProc || e.LoserProc != o.LoserProc || !e.VWinner.Equal(o.VWinner) || !e.VLoser.Equal(o.VLoser) {
			t.Fatalf("race entry %s diverged: %+v vs %+v", k, e, o)
		}
	}
}
