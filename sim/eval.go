// eval.go — expression evaluation, spec.md §4.4.4.
package sim

import (
	"strconv"

	"github.com/Janji03/Racing-Choreographies-parser/ast"
	"github.com/Janji03/Racing-Choreographies-parser/runtime"
)

// evalExpr evaluates expr as seen from process (pre-substitution), resolving
// the effective process through subst. errLoc is used when expr itself
// carries no usable location (defensive; every Expr in this AST always has
// one, but the fallback mirrors spec.md §4.4.4 exactly).
func evalExpr(ctx *execCtx, process string, expr ast.Expr, subst subst, errLoc ast.SourceRange) runtime.Value {
	pEff := processSubst(process, subst)

	switch e := expr.(type) {
	case ast.ExprValue:
		return toRuntimeValue(e.Value)
	case ast.ExprVar:
		v, ok := ctx.store.Get(pEff, e.Name)
		if !ok {
			loc := e.Rng
			if loc.File == "" {
				loc = errLoc
			}
			rtFail(FaultUninitializedVariable, loc, "uninitialized variable %q", pEff+"."+e.Name)
		}
		return v
	default:
		rtFail("Internal", errLoc, "unknown expression kind %T", expr)
		panic("unreachable")
	}
}

// evalProcExpr evaluates pe.Expr in pe.Process's scope under subst.
func evalProcExpr(ctx *execCtx, pe ast.ProcExpr, subst subst) runtime.Value {
	return evalExpr(ctx, pe.Process, pe.Expr, subst, pe.Loc)
}

func toRuntimeValue(v ast.Value) runtime.Value {
	if v.Kind == ast.KindBool {
		return runtime.Bool(v.BoolVal)
	}
	return runtime.Int(v.IntVal)
}

// exprString renders an Expr the way trace messages want it: the bare
// variable name, or the literal's decimal/boolean text.
func exprString(e ast.Expr) string {
	switch v := e.(type) {
	case ast.ExprVar:
		return v.Name
	case ast.ExprValue:
		if v.Value.Kind == ast.KindBool {
			if v.Value.BoolVal {
				return "true"
			}
			return "false"
		}
		return strconv.FormatInt(v.Value.IntVal, 10)
	default:
		return "<expr>"
	}
}

func procExprString(pe ast.ProcExpr, s subst) string {
	return processSubst(pe.Process, s) + "." + exprString(pe.Expr)
}

func procVarString(pv ast.ProcVar, s subst) string {
	return processSubst(pv.Process, s) + "." + pv.Var
}
