package lower

import (
	"loam/ast"
	"loam/relation"
	"loam/report"
	"loam/task"
	"loam/types"
)

// lowerBody walks fn's checked body and produces the task-graph-consumable
// instruction sequence spec.md §4.7 describes as `for k in domain do
// <lowered kernel body> end`: every Affine/UnsafeRow key expression and
// every builtin/key-decomposition call is resolved here, once per
// specialization, so a backend never has to re-derive them from the raw
// AST. centered is fn.CenteredRelation (nil for a helper with no relation
// of its own); it is the only relation Insert/Delete inside fn's body may
// target, since neither package env nor a resolved relation table is
// otherwise available at lowering time.
func lowerBody(fn *ast.FuncDef) ([]task.Instr, error) {
	bl := &bodyLowerer{fn: fn, centered: fn.CenteredRelation}
	return bl.block(fn.Body)
}

type bodyLowerer struct {
	fn       *ast.FuncDef
	centered *relation.Relation
}

func (bl *bodyLowerer) block(b *ast.Block) ([]task.Instr, error) {
	if b == nil {
		return nil, nil
	}
	out := make([]task.Instr, 0, len(b.Stmts))
	for _, st := range b.Stmts {
		in, err := bl.stmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, nil
}

func (bl *bodyLowerer) stmt(st ast.Stmt) (task.Instr, error) {
	switch n := st.(type) {
	case *ast.LocalDecl:
		init, err := bl.expr(n.Init)
		if err != nil {
			return nil, err
		}
		return &task.Local{Name: n.Name, Init: init}, nil

	case *ast.Assign:
		target, err := bl.assignTarget(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := bl.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return &task.Store{Target: target, Value: value}, nil

	case *ast.ReduceAssign:
		target, err := bl.assignTarget(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := bl.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return &task.Reduce{Target: target, Op: n.Op, Value: value}, nil

	case *ast.If:
		cond, err := bl.expr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := bl.block(n.Then)
		if err != nil {
			return nil, err
		}
		els, err := bl.elseArm(n.Else)
		if err != nil {
			return nil, err
		}
		return &task.Branch{Cond: cond, Then: then, Else: els}, nil

	case *ast.NumericFor:
		lo, err := bl.expr(n.Lower)
		if err != nil {
			return nil, err
		}
		hi, err := bl.expr(n.Upper)
		if err != nil {
			return nil, err
		}
		body, err := bl.block(n.Body)
		if err != nil {
			return nil, err
		}
		return &task.CountedLoop{Var: n.Var, Lower: lo, Upper: hi, Body: body}, nil

	case *ast.Insert:
		rel, err := bl.resolveTargetRel(n.Rel, n.Position())
		if err != nil {
			return nil, err
		}
		fields := make([]*relation.Field, len(n.Fields))
		for i, name := range n.Fields {
			f, ok := rel.Field(name)
			if !ok {
				return nil, report.MalformedProgram(n.Position(), "relation %q has no field %q", rel.Name, name)
			}
			fields[i] = f
		}
		values, err := bl.exprs(n.Values)
		if err != nil {
			return nil, err
		}
		return &task.InsertRow{Rel: rel, Fields: fields, Values: values}, nil

	case *ast.Delete:
		rel, err := bl.resolveTargetRel(n.Rel, n.Position())
		if err != nil {
			return nil, err
		}
		key, err := bl.keyExpr(n.Key)
		if err != nil {
			return nil, err
		}
		return &task.DeleteRow{Rel: rel, Key: key}, nil

	case *ast.Return:
		if n.Value == nil {
			return &task.Exit{}, nil
		}
		v, err := bl.expr(n.Value)
		if err != nil {
			return nil, err
		}
		return &task.Exit{Value: v}, nil

	case *ast.ExprStmt:
		x, err := bl.expr(n.X)
		if err != nil {
			return nil, err
		}
		return &task.Eval{X: x}, nil

	default:
		return nil, report.MalformedProgram(st.Position(), "unlowerable statement node %T", st)
	}
}

func (bl *bodyLowerer) elseArm(els ast.Stmt) ([]task.Instr, error) {
	switch e := els.(type) {
	case nil:
		return nil, nil
	case *ast.Block:
		return bl.block(e)
	case *ast.If:
		in, err := bl.stmt(e)
		if err != nil {
			return nil, err
		}
		return []task.Instr{in}, nil
	default:
		return nil, report.MalformedProgram(els.Position(), "unlowerable else arm %T", els)
	}
}

// assignTarget lowers an Assign/ReduceAssign target, which is always either
// a field write (through a key expression) or a local rebind.
func (bl *bodyLowerer) assignTarget(e ast.Expr) (task.Expr, error) {
	if fa, ok := e.(*ast.FieldAccess); ok {
		return bl.fieldAccess(fa)
	}
	return bl.expr(e)
}

// resolveTargetRel resolves an Insert/Delete's relation name against fn's
// own centered relation; this lowering pass has no environment to look up
// an arbitrary relation by name, so Insert/Delete against anything other
// than the kernel's own live-mask relation is out of its scope.
func (bl *bodyLowerer) resolveTargetRel(name string, pos *report.Position) (*relation.Relation, error) {
	if bl.centered != nil && bl.centered.Name == name {
		return bl.centered, nil
	}
	return nil, report.UnsupportedBackend(pos, "insert/delete against relation %q is only lowerable when it is the kernel's own centered relation", name)
}

func (bl *bodyLowerer) exprs(es []ast.Expr) ([]task.Expr, error) {
	out := make([]task.Expr, len(es))
	for i, e := range es {
		v, err := bl.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (bl *bodyLowerer) expr(e ast.Expr) (task.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return bl.ident(n)
	case *ast.FieldAccess:
		return bl.fieldAccess(n)
	case *ast.Affine, *ast.UnsafeRow:
		return bl.keyExpr(n)
	case *ast.BinaryOp:
		lhs, err := bl.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := bl.expr(n.Rhs)
		if err != nil {
			return nil, err
		}
		return &task.BinOp{Op: n.Op, Lhs: lhs, Rhs: rhs, IsExponent: n.IsExponent}, nil
	case *ast.UnaryOp:
		operand, err := bl.expr(n.Operand)
		if err != nil {
			return nil, err
		}
		return &task.Neg{Operand: operand}, nil
	case *ast.Compare:
		lhs, err := bl.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := bl.expr(n.Rhs)
		if err != nil {
			return nil, err
		}
		return &task.Cmp{Op: n.Op, Lhs: lhs, Rhs: rhs}, nil
	case *ast.Logical:
		lhs, err := bl.expr(n.Lhs)
		if err != nil {
			return nil, err
		}
		var rhs task.Expr
		if n.Rhs != nil {
			rhs, err = bl.expr(n.Rhs)
			if err != nil {
				return nil, err
			}
		}
		return &task.Bool{Op: n.Op, Lhs: lhs, Rhs: rhs}, nil
	case *ast.NumberLit:
		return &task.NumConst{Value: n.Value, IsInt: n.IsInt}, nil
	case *ast.BoolLit:
		return &task.BoolConst{Value: n.Value}, nil
	case *ast.VectorLit:
		elems, err := bl.exprs(n.Elems)
		if err != nil {
			return nil, err
		}
		return &task.VecConst{Elems: elems}, nil
	case *ast.Call:
		return bl.call(n)
	case *ast.KeyDecomp:
		key, err := bl.expr(n.Key)
		if err != nil {
			return nil, err
		}
		axis, ok := IsKeyExtractor(n.Which)
		if !ok {
			return nil, report.MalformedProgram(n.Position(), "unknown key decomposition %q", n.Which)
		}
		return &task.KeyExtract{Axis: axis, Key: key}, nil
	default:
		return nil, report.MalformedProgram(e.Position(), "unlowerable expression node %T", e)
	}
}

func (bl *bodyLowerer) ident(n *ast.Ident) (task.Expr, error) {
	if n.Resolved == nil {
		return nil, report.MalformedProgram(n.Position(), "identifier %q was never specialized", n.Name)
	}
	switch n.Resolved.Kind {
	case ast.RefLocal:
		return &task.LocalRef{Name: n.Name}, nil
	case ast.RefGlobal:
		return &task.GlobalRef{Global: n.Resolved.Global}, nil
	case ast.RefField:
		return &task.NamedFieldRef{Field: n.Resolved.Field}, nil
	default:
		return nil, report.MalformedProgram(n.Position(), "identifier %q does not name a lowerable value", n.Name)
	}
}

func (bl *bodyLowerer) fieldAccess(n *ast.FieldAccess) (task.Expr, error) {
	if n.Resolved == nil || n.Resolved.Field == nil {
		return nil, report.MalformedProgram(n.Position(), "field access %q was never checked", n.Field)
	}
	key, err := bl.keyExpr(n.Obj)
	if err != nil {
		return nil, err
	}
	return &task.FieldRead{Field: n.Resolved.Field, Key: key}, nil
}

// keyExpr lowers a key expression (spec.md §4.4): the kernel/helper's own
// key local (centered), an Affine (a stencil offset from it), or an
// UNSAFE_ROW construction.
func (bl *bodyLowerer) keyExpr(e ast.Expr) (task.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return &task.LocalRef{Name: n.Name}, nil
	case *ast.Affine:
		rel, translation, err := ResolveAffine(n)
		if err != nil {
			return nil, err
		}
		base, err := bl.keyExpr(n.Base)
		if err != nil {
			return nil, err
		}
		return &task.StencilKey{Rel: rel, Translation: translation, Base: base}, nil
	case *ast.UnsafeRow:
		id, err := bl.expr(n.ID)
		if err != nil {
			return nil, err
		}
		return &task.RowKey{Rel: n.ResolvedRel, ID: id}, nil
	default:
		return nil, report.StencilError(e.Position(), "not a legal key expression")
	}
}

func (bl *bodyLowerer) call(n *ast.Call) (task.Expr, error) {
	if n.Resolved == nil {
		return nil, report.MalformedProgram(n.Position(), "call to %q was never specialized", n.Func)
	}
	switch n.Resolved.Kind {
	case ast.RefBuiltin:
		return bl.builtinCall(n)
	case ast.RefFunction:
		args, err := bl.exprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &task.HelperCall{Name: n.Func, Args: args}, nil
	default:
		return nil, report.MalformedProgram(n.Position(), "%q is not callable", n.Func)
	}
}

func (bl *bodyLowerer) builtinCall(n *ast.Call) (task.Expr, error) {
	name := n.Resolved.Builtin
	switch name {
	case "rand":
		return &task.Rand{}, nil
	case "assert":
		cond, err := bl.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		return &task.Assert{Cond: cond}, nil
	case "dot":
		a, err := bl.expr(n.Args[0])
		if err != nil {
			return nil, err
		}
		b, err := bl.expr(n.Args[1])
		if err != nil {
			return nil, err
		}
		va, ok := n.Args[0].Type().(types.Vector)
		if !ok {
			return nil, report.MalformedProgram(n.Position(), "dot's first argument is not a checked vector")
		}
		return &task.DotCall{Symbol: DotSymbol(va.Elem.Repr(), va.N), Args: []task.Expr{a, b}}, nil
	default:
		rc, ok := LowerBuiltinCall(name)
		if !ok {
			return nil, report.MalformedProgram(n.Position(), "unknown builtin %q", name)
		}
		args, err := bl.exprs(n.Args)
		if err != nil {
			return nil, err
		}
		return &task.RuntimeCall{Symbol: rc.Symbol, Args: args}, nil
	}
}
