// Package phase implements spec.md §4.5: for every kernel, compute the
// access mode ({read, write, reduce-op}) of each field and global it
// touches, and prove the kernel is data-race-free under the parallel-
// per-key execution contract before a task is ever emitted for it.
package phase

import (
	"loam/ast"
	"loam/common"
	"loam/relation"
	"loam/report"
)

// PhaseType is the access mode of one field or global within one kernel
// (spec.md §4.5).
type PhaseType struct {
	Read     bool
	Write    bool
	ReduceOp *common.ReduceOp
}

// EffectSummary records the relations a kernel inserts into or deletes
// from.
type EffectSummary struct {
	Inserts []string
	Deletes []string
}

// Result is the phase analyzer's output for one kernel.
type Result struct {
	FieldUse  map[*relation.Field]*PhaseType
	GlobalUse map[*relation.Global]*PhaseType
	Effects   EffectSummary

	// Centered reports whether every field access in the kernel goes
	// through the kernel's own parameter key — no stencil access anywhere.
	// Global accesses do not affect it.
	Centered bool
}

type analyzer struct {
	param    string
	result   *Result
	centered bool
}

// Analyze walks fn.Body (already specialized and checked) accumulating
// field_use/global_use and the insert/delete effect summary, and returns a
// PhaseError for any race-freedom or reduction-legality violation (a
// StencilError for a plain write through a non-centered key).
func Analyze(fn *ast.FuncDef) (*Result, error) {
	a := &analyzer{
		centered: true,
		result: &Result{
			FieldUse:  map[*relation.Field]*PhaseType{},
			GlobalUse: map[*relation.Global]*PhaseType{},
		},
	}
	if fn.IsKernel && len(fn.Params) == 1 {
		a.param = fn.Params[0].Name
	}

	if err := a.walkStmt(fn.Body); err != nil {
		return nil, err
	}
	a.result.Centered = a.centered
	if err := a.validate(); err != nil {
		return nil, err
	}
	return a.result, nil
}

func isCenteredKey(e ast.Expr, param string) bool {
	id, ok := e.(*ast.Ident)
	return ok && id.Name == param
}

// -----------------------------------------------------------------------------
// Statements

func (a *analyzer) walkStmt(st ast.Stmt) error {
	switch n := st.(type) {
	case *ast.Block:
		for _, sub := range n.Stmts {
			if err := a.walkStmt(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.LocalDecl:
		return a.walkExprRead(n.Init)

	case *ast.Assign:
		return a.walkAssign(n.Target, n.Value, nil)

	case *ast.ReduceAssign:
		op := n.Op
		return a.walkAssign(n.Target, n.Value, &op)

	case *ast.If:
		if err := a.walkExprRead(n.Cond); err != nil {
			return err
		}
		if err := a.walkStmt(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return a.walkStmt(n.Else)
		}
		return nil

	case *ast.NumericFor:
		if err := a.walkExprRead(n.Lower); err != nil {
			return err
		}
		if err := a.walkExprRead(n.Upper); err != nil {
			return err
		}
		return a.walkStmt(n.Body)

	case *ast.Insert:
		a.result.Effects.Inserts = append(a.result.Effects.Inserts, n.Rel)
		for _, v := range n.Values {
			if err := a.walkExprRead(v); err != nil {
				return err
			}
		}
		return nil

	case *ast.Delete:
		a.result.Effects.Deletes = append(a.result.Effects.Deletes, n.Rel)
		return a.walkExprRead(n.Key)

	case *ast.Return:
		if n.Value != nil {
			return a.walkExprRead(n.Value)
		}
		return nil

	case *ast.ExprStmt:
		return a.walkExprRead(n.X)

	default:
		return report.PhaseError(st.Position(), "phase analysis: unhandled statement %T", st)
	}
}

// walkAssign handles both a plain Assign (reduceOp == nil) and a
// ReduceAssign (reduceOp set), which share the same target shapes.
func (a *analyzer) walkAssign(target, value ast.Expr, reduceOp *common.ReduceOp) error {
	if err := a.walkExprRead(value); err != nil {
		return err
	}

	switch t := target.(type) {
	case *ast.Ident:
		if t.Resolved != nil && t.Resolved.Kind == ast.RefGlobal {
			return a.markGlobal(t.Position(), t.Resolved.Global, reduceOp)
		}
		return nil // a local rebind has no field/global effect

	case *ast.FieldAccess:
		f := t.Resolved.Field
		if !isCenteredKey(t.Obj, a.param) {
			a.centered = false
			if reduceOp == nil {
				return report.StencilError(t.Position(), "stencil write to field %q is illegal: writes must go through the kernel's own parameter", f.Name)
			}
		}
		return a.markField(t.Position(), f, reduceOp)

	default:
		return report.PhaseError(target.Position(), "phase analysis: unassignable target %T", target)
	}
}

func (a *analyzer) markField(pos *report.Position, f *relation.Field, reduceOp *common.ReduceOp) error {
	pt := a.fieldType(f)

	if reduceOp == nil {
		if pt.ReduceOp != nil {
			return report.PhaseError(pos, "field %q is both written and reduced", f.Name)
		}
		pt.Write = true
		return nil
	}

	if pt.Write {
		return report.PhaseError(pos, "field %q is both written and reduced", f.Name)
	}
	if pt.ReduceOp != nil && *pt.ReduceOp != *reduceOp {
		return report.PhaseError(pos, "field %q is reduced with more than one operator", f.Name)
	}
	op := *reduceOp
	pt.ReduceOp = &op
	return nil
}

func (a *analyzer) markGlobal(pos *report.Position, g *relation.Global, reduceOp *common.ReduceOp) error {
	pt := a.globalType(g)

	if reduceOp == nil {
		return report.PhaseError(pos, "global %q may not be written directly in a kernel; use a reduction", g.Name)
	}
	if pt.Read {
		return report.PhaseError(pos, "global %q is both read and reduced", g.Name)
	}
	if pt.ReduceOp != nil && *pt.ReduceOp != *reduceOp {
		return report.PhaseError(pos, "global %q is reduced with more than one operator", g.Name)
	}
	op := *reduceOp
	pt.ReduceOp = &op
	return nil
}

func (a *analyzer) markFieldRead(f *relation.Field) {
	a.fieldType(f).Read = true
}

func (a *analyzer) markGlobalRead(pos *report.Position, g *relation.Global) error {
	pt := a.globalType(g)
	if pt.ReduceOp != nil {
		return report.PhaseError(pos, "global %q is both read and reduced", g.Name)
	}
	pt.Read = true
	return nil
}

func (a *analyzer) fieldType(f *relation.Field) *PhaseType {
	pt, ok := a.result.FieldUse[f]
	if !ok {
		pt = &PhaseType{}
		a.result.FieldUse[f] = pt
	}
	return pt
}

func (a *analyzer) globalType(g *relation.Global) *PhaseType {
	pt, ok := a.result.GlobalUse[g]
	if !ok {
		pt = &PhaseType{}
		a.result.GlobalUse[g] = pt
	}
	return pt
}

// -----------------------------------------------------------------------------
// Expressions (read-only positions)

func (a *analyzer) walkExprRead(e ast.Expr) error {
	switch n := e.(type) {
	case *ast.Ident:
		if n.Resolved != nil && n.Resolved.Kind == ast.RefGlobal {
			return a.markGlobalRead(n.Position(), n.Resolved.Global)
		}
		return nil

	case *ast.FieldAccess:
		if err := a.walkExprRead(n.Obj); err != nil {
			return err
		}
		if !isCenteredKey(n.Obj, a.param) {
			a.centered = false
		}
		a.markFieldRead(n.Resolved.Field)
		return nil

	case *ast.Affine:
		return a.walkExprRead(n.Base)

	case *ast.UnsafeRow:
		return a.walkExprRead(n.ID)

	case *ast.BinaryOp:
		if err := a.walkExprRead(n.Lhs); err != nil {
			return err
		}
		return a.walkExprRead(n.Rhs)

	case *ast.UnaryOp:
		return a.walkExprRead(n.Operand)

	case *ast.Compare:
		if err := a.walkExprRead(n.Lhs); err != nil {
			return err
		}
		return a.walkExprRead(n.Rhs)

	case *ast.Logical:
		if err := a.walkExprRead(n.Lhs); err != nil {
			return err
		}
		if n.Rhs != nil {
			return a.walkExprRead(n.Rhs)
		}
		return nil

	case *ast.NumberLit, *ast.BoolLit:
		return nil

	case *ast.VectorLit:
		for _, el := range n.Elems {
			if err := a.walkExprRead(el); err != nil {
				return err
			}
		}
		return nil

	case *ast.Call:
		for _, arg := range n.Args {
			if err := a.walkExprRead(arg); err != nil {
				return err
			}
		}
		return nil

	case *ast.KeyDecomp:
		return a.walkExprRead(n.Key)

	default:
		return report.PhaseError(e.Position(), "phase analysis: unhandled expression %T", e)
	}
}

// validate applies the legality rules that can only be decided once the
// kernel's overall centered-ness is known (spec.md §4.5): read+write on the
// same field is a race unless the kernel is centered everywhere.
func (a *analyzer) validate() error {
	if a.centered {
		return nil
	}
	for f, pt := range a.result.FieldUse {
		if pt.Read && pt.Write {
			return report.PhaseError(nil, "field %q is both read and written in a non-centered kernel", f.Name)
		}
	}
	return nil
}
