// interaction.go — the five store-affecting primitives, spec.md §4.4.5.
package sim

import (
	"fmt"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

func execInteraction(ctx *execCtx, in ast.Interaction, subst subst) {
	switch i := in.(type) {
	case ast.Assign:
		execAssign(ctx, i, subst)
	case ast.Comm:
		execComm(ctx, i, subst)
	case ast.Select:
		execSelect(ctx, i, subst)
	case ast.Race:
		execRace(ctx, i, subst)
	case ast.Discharge:
		execDischarge(ctx, i, subst)
	default:
		rtFail("Internal", in.Loc(), "unknown interaction kind %T", in)
	}
}

// execAssign evaluates Value in target.Process's (pre-substitution) scope —
// per spec.md §9's resolved Open Question, this uses the target process's
// own store, not the caller's — and writes the result to target.
func execAssign(ctx *execCtx, a ast.Assign, subst subst) {
	targetEff := processSubst(a.Target.Process, subst)
	v := evalExpr(ctx, a.Target.Process, a.Value, subst, a.Rng)
	ctx.store.Set(targetEff, a.Target.Var, v)

	pushTrace(ctx, runtime.EventAssign, fmt.Sprintf("%s.%s = %s", targetEff, a.Target.Var, v.String()), a.Rng)
}

func execComm(ctx *execCtx, c ast.Comm, subst subst) {
	toEff := processSubst(c.To.Process, subst)
	v := evalProcExpr(ctx, c.From, subst)
	ctx.store.Set(toEff, c.To.Var, v)

	pushTrace(ctx, runtime.EventComm, fmt.Sprintf("%s = %s -> %s.%s", procExprString(c.From, subst), v.String(), toEff, c.To.Var), c.Rng)
}

// execSelect is pure ceremony: a label announcement with no store effect
// (spec.md §9, Open Question #1).
func execSelect(ctx *execCtx, s ast.Select, subst subst) {
	fromEff := processSubst(s.From, subst)
	toEff := processSubst(s.To, subst)

	pushTrace(ctx, runtime.EventSelect, fmt.Sprintf("%s -> %s [%s]", fromEff, toEff, s.Label), s.Rng)
}

func toRaceKey(id ast.RaceId, subst subst) runtime.RaceKey {
	return runtime.RaceKey{Process: processSubst(id.Process, subst), Key: id.Key}
}

func raceKeyString(k runtime.RaceKey) string {
	return k.Process + "[" + k.Key + "]"
}

func decideWinnerSide(ctx *execCtx, loc ast.SourceRange) runtime.Side {
	switch ctx.opt.RacePolicy {
	case Left:
		return runtime.Left
	case Right:
		return runtime.Right
	case Random:
		if ctx.rng.bit() == 0 {
			return runtime.Left
		}
		return runtime.Right
	default:
		rtFail("Internal", loc, "invalid race policy %v", ctx.opt.RacePolicy)
		panic("unreachable")
	}
}

// execRace resolves one race: both sides are always evaluated, left then
// right (no short-circuit), before the winner is decided (spec.md §4.4.5).
func execRace(ctx *execCtx, r ast.Race, subst subst) {
	key := toRaceKey(r.Id, subst)
	if ctx.races.Contains(key) {
		rtFail(FaultDoubleRaceResolution, r.Rng, "race %s already resolved", raceKeyString(key))
	}

	vL := evalProcExpr(ctx, r.Left, subst)
	vR := evalProcExpr(ctx, r.Right, subst)

	leftEff := processSubst(r.Left.Process, subst)
	rightEff := processSubst(r.Right.Process, subst)

	side := decideWinnerSide(ctx, r.Rng)

	entry := runtime.Entry{LeftProc: leftEff, RightProc: rightEff, WinnerSide: side}
	if side == runtime.Left {
		entry.WinnerProc, entry.LoserProc = leftEff, rightEff
		entry.VWinner, entry.VLoser = vL, vR
	} else {
		entry.WinnerProc, entry.LoserProc = rightEff, leftEff
		entry.VWinner, entry.VLoser = vR, vL
	}

	targetEff := processSubst(r.Target.Process, subst)
	ctx.store.Set(targetEff, r.Target.Var, entry.VWinner)
	ctx.races.Put(key, entry)

	pushTrace(ctx, runtime.EventRace, fmt.Sprintf("%s winner=%s loser=%s write %s.%s=%s",
		raceKeyString(key), entry.WinnerProc, entry.LoserProc, targetEff, r.Target.Var, entry.VWinner.String()), r.Rng)
}

// execDischarge retrieves the loser's value from a resolved race, permitted
// at most once.
func execDischarge(ctx *execCtx, d ast.Discharge, subst subst) {
	key := toRaceKey(d.Id, subst)
	entry, ok := ctx.races.GetMut(key)
	if !ok {
		rtFail(FaultRaceNotResolved, d.Rng, "race %s not resolved", raceKeyString(key))
	}

	sourceEff := processSubst(d.Source, subst)
	if sourceEff != entry.LoserProc {
		rtFail(FaultDischargeSourceMismatch, d.Rng, "discharge expects loser %q, got %q", entry.LoserProc, sourceEff)
	}
	if entry.Discharged {
		rtFail(FaultDoubleDischarge, d.Rng, "race %s already discharged", raceKeyString(key))
	}

	targetEff := processSubst(d.Target.Process, subst)
	ctx.store.Set(targetEff, d.Target.Var, entry.VLoser)
	entry.Discharged = true

	pushTrace(ctx, runtime.EventDisch, fmt.Sprintf("%s loser=%s write %s.%s=%s",
		raceKeyString(key), sourceEff, targetEff, d.Target.Var, entry.VLoser.String()), d.Rng)
}
