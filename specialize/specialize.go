// Package specialize implements spec.md §4.3: it resolves every free
// identifier in a raw kernel/helper AST against a host Environment, expands
// macro-like call forms (the grid neighbor macro `c(dx,dy[,dz])`) into their
// expanded form (an Affine node), and records a per-node Ref so later
// passes never need to re-resolve a name.
package specialize

import (
	"fmt"
	"strings"

	"loam/ast"
	"loam/env"
	"loam/relation"
	"loam/report"
	"loam/types"
)

// primitiveTypeNames maps a helper parameter/return's raw type spelling to
// its resolved primitive (spec.md §4.4's helper "any typed parameters").
var primitiveTypeNames = map[string]types.Type{
	"bool": types.Bool,
	"i8":   types.I8, "i16": types.I16, "i32": types.I32, "i64": types.I64,
	"u8": types.U8, "u16": types.U16, "u32": types.U32, "u64": types.U64,
	"f32": types.F32, "f64": types.F64,
}

// Specializer resolves one kernel or helper body against a fixed
// Environment and (for a kernel) a fixed centered relation — one Bran
// triple's worth of specialization (spec.md §3's Bran).
type Specializer struct {
	Env    *env.Environment
	Param  string              // the kernel's single parameter name; "" for a helper
	Rel    *relation.Relation  // the kernel's centered relation; nil for a helper
	locals map[string]bool
}

// New constructs a Specializer for a kernel launched against rel.
func New(e *env.Environment, param string, rel *relation.Relation) *Specializer {
	return &Specializer{Env: e, Param: param, Rel: rel, locals: map[string]bool{}}
}

// NewHelper constructs a Specializer for a helper, which has no centered
// relation and whose parameters are all ordinary typed locals.
func NewHelper(e *env.Environment, params []ast.Param) *Specializer {
	s := &Specializer{Env: e, locals: map[string]bool{}}
	for _, p := range params {
		s.locals[p.Name] = true
	}
	return s
}

// Specialize resolves fn.Body in place, rewriting macro calls as it goes,
// and fills fn.ParamTypes/fn.CenteredRelation for a kernel.
func (s *Specializer) Specialize(fn *ast.FuncDef) error {
	if fn.IsKernel {
		if len(fn.Params) != 1 {
			return arityErr(fn, "kernel %q must declare exactly one parameter, got %d", fn.Name, len(fn.Params))
		}
		if s.Rel == nil {
			return arityErr(fn, "kernel %q specialized without a centered relation", fn.Name)
		}
		s.Param = fn.Params[0].Name
		fn.CenteredRelation = s.Rel
		fn.ParamTypes = []types.Type{types.Key{RelationID: uint64(s.Rel.ID), RelName: s.Rel.Name}}
	} else {
		paramTypes := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			t, err := s.resolveTypeName(fn, p.TypeName)
			if err != nil {
				return err
			}
			paramTypes[i] = t
		}
		fn.ParamTypes = paramTypes

		if fn.ReturnType != "" {
			t, err := s.resolveTypeName(fn, fn.ReturnType)
			if err != nil {
				return err
			}
			fn.ResolvedReturn = t
		}
	}

	body, err := s.specializeStmt(fn.Body)
	if err != nil {
		return err
	}
	fn.Body = body.(*ast.Block)
	return nil
}

func arityErr(fn *ast.FuncDef, format string, args ...interface{}) error {
	return report.ArityError(fn.Position(), format, args...)
}

// resolveTypeName resolves a helper parameter or return type's raw spelling:
// a primitive name, or `key(<relation>)` for a key-typed parameter.
func (s *Specializer) resolveTypeName(fn *ast.FuncDef, raw string) (types.Type, error) {
	if t, ok := primitiveTypeNames[raw]; ok {
		return t, nil
	}
	if strings.HasPrefix(raw, "key(") && strings.HasSuffix(raw, ")") {
		relName := raw[len("key(") : len(raw)-1]
		b, ok := s.Env.Lookup(relName)
		if !ok || b.Kind != env.BindRelation {
			return nil, report.TypeError(fn.Position(), "unknown relation %q in key type", relName)
		}
		return types.Key{RelationID: uint64(b.Relation.ID), RelName: b.Relation.Name}, nil
	}
	return nil, report.TypeError(fn.Position(), "unknown type name %q", raw)
}

// -----------------------------------------------------------------------------
// Expressions

func (s *Specializer) specializeExpr(e ast.Expr) (ast.Expr, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return s.specializeIdent(n)
	case *ast.FieldAccess:
		obj, err := s.specializeExpr(n.Obj)
		if err != nil {
			return nil, err
		}
		n.Obj = obj
		return n, nil
	case *ast.Affine:
		base, err := s.specializeExpr(n.Base)
		if err != nil {
			return nil, err
		}
		n.Base = base
		return n, nil
	case *ast.UnsafeRow:
		id, err := s.specializeExpr(n.ID)
		if err != nil {
			return nil, err
		}
		n.ID = id
		return n, nil
	case *ast.BinaryOp:
		lhs, err := s.specializeExpr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := s.specializeExpr(n.Rhs)
		if err != nil {
			return nil, err
		}
		n.Lhs, n.Rhs = lhs, rhs
		return n, nil
	case *ast.UnaryOp:
		operand, err := s.specializeExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		n.Operand = operand
		return n, nil
	case *ast.Compare:
		lhs, err := s.specializeExpr(n.Lhs)
		if err != nil {
			return nil, err
		}
		rhs, err := s.specializeExpr(n.Rhs)
		if err != nil {
			return nil, err
		}
		n.Lhs, n.Rhs = lhs, rhs
		return n, nil
	case *ast.Logical:
		lhs, err := s.specializeExpr(n.Lhs)
		if err != nil {
			return nil, err
		}
		n.Lhs = lhs
		if n.Rhs != nil {
			rhs, err := s.specializeExpr(n.Rhs)
			if err != nil {
				return nil, err
			}
			n.Rhs = rhs
		}
		return n, nil
	case *ast.NumberLit, *ast.BoolLit:
		return n, nil
	case *ast.VectorLit:
		for i, el := range n.Elems {
			se, err := s.specializeExpr(el)
			if err != nil {
				return nil, err
			}
			n.Elems[i] = se
		}
		return n, nil
	case *ast.Call:
		return s.specializeCall(n)
	case *ast.KeyDecomp:
		key, err := s.specializeExpr(n.Key)
		if err != nil {
			return nil, err
		}
		n.Key = key
		return n, nil
	default:
		return nil, report.ArityError(e.Position(), "unspecializable expression node %T", e)
	}
}

func (s *Specializer) specializeIdent(n *ast.Ident) (ast.Expr, error) {
	if n.Name == s.Param || s.locals[n.Name] {
		n.Resolved = &ast.Ref{Kind: ast.RefLocal}
		return n, nil
	}

	b, ok := s.Env.Lookup(n.Name)
	if !ok {
		return nil, report.ArityError(n.Position(), "unbound name %q", n.Name)
	}

	n.Resolved = bindingToRef(b)
	return n, nil
}

// specializeCall resolves a call's function name and expands the grid
// neighbor macro `c(dx,dy[,dz])` into its Affine form (spec.md §4.2/§4.3).
func (s *Specializer) specializeCall(n *ast.Call) (ast.Expr, error) {
	if n.Func == "c" && s.Rel != nil && s.Rel.Grid != nil {
		return s.expandGridNeighbor(n)
	}

	b, ok := s.Env.Lookup(n.Func)
	if !ok {
		return nil, report.ArityError(n.Position(), "unbound function %q", n.Func)
	}
	if b.Kind != env.BindBuiltin && b.Kind != env.BindFunction {
		return nil, report.ArityError(n.Position(), "%q is not callable", n.Func)
	}
	n.Resolved = bindingToRef(b)

	for i, a := range n.Args {
		sa, err := s.specializeExpr(a)
		if err != nil {
			return nil, err
		}
		n.Args[i] = sa
	}
	return n, nil
}

// expandGridNeighbor rewrites `c(dx,dy[,dz])` into
// `Affine(rel, diag(1..1 | dx,dy[,dz]), param)`.
func (s *Specializer) expandGridNeighbor(n *ast.Call) (ast.Expr, error) {
	dims := len(s.Rel.Dims)
	if len(n.Args) != dims {
		return nil, report.ArityError(n.Position(), "c(...) expects %d offsets for %q, got %d", dims, s.Rel.Name, len(n.Args))
	}

	matrix := make([][]float64, dims)
	for r := 0; r < dims; r++ {
		matrix[r] = make([]float64, dims+1)
		matrix[r][r] = 1

		lit, ok := n.Args[r].(*ast.NumberLit)
		if !ok {
			return nil, report.StencilError(n.Position(), "c(...) offsets must be literal constants")
		}
		matrix[r][dims] = lit.Value
	}

	param := ast.NewIdent(s.Param)
	param.Resolved = &ast.Ref{Kind: ast.RefLocal}

	return ast.NewAffine(s.Rel.Name, matrix, param), nil
}

func bindingToRef(b env.Binding) *ast.Ref {
	switch b.Kind {
	case env.BindRelation:
		return &ast.Ref{Kind: ast.RefRelation, Relation: b.Relation}
	case env.BindField:
		return &ast.Ref{Kind: ast.RefField, Field: b.Field}
	case env.BindGlobal:
		return &ast.Ref{Kind: ast.RefGlobal, Global: b.Global}
	case env.BindFunction:
		return &ast.Ref{Kind: ast.RefFunction, Function: b.Function}
	case env.BindBuiltin:
		return &ast.Ref{Kind: ast.RefBuiltin, Builtin: b.Builtin}
	default:
		return &ast.Ref{Kind: ast.RefConst, Const: b.Const}
	}
}

// -----------------------------------------------------------------------------
// Statements

func (s *Specializer) specializeStmt(st ast.Stmt) (ast.Stmt, error) {
	switch n := st.(type) {
	case *ast.Block:
		for i, sub := range n.Stmts {
			ss, err := s.specializeStmt(sub)
			if err != nil {
				return nil, err
			}
			n.Stmts[i] = ss
		}
		return n, nil
	case *ast.LocalDecl:
		init, err := s.specializeExpr(n.Init)
		if err != nil {
			return nil, err
		}
		n.Init = init
		s.locals[n.Name] = true
		return n, nil
	case *ast.Assign:
		target, err := s.specializeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := s.specializeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		n.Target, n.Value = target, value
		return n, nil
	case *ast.ReduceAssign:
		target, err := s.specializeExpr(n.Target)
		if err != nil {
			return nil, err
		}
		value, err := s.specializeExpr(n.Value)
		if err != nil {
			return nil, err
		}
		n.Target, n.Value = target, value
		return n, nil
	case *ast.If:
		cond, err := s.specializeExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		then, err := s.specializeStmt(n.Then)
		if err != nil {
			return nil, err
		}
		n.Cond, n.Then = cond, then.(*ast.Block)
		if n.Else != nil {
			els, err := s.specializeStmt(n.Else)
			if err != nil {
				return nil, err
			}
			n.Else = els
		}
		return n, nil
	case *ast.NumericFor:
		lower, err := s.specializeExpr(n.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := s.specializeExpr(n.Upper)
		if err != nil {
			return nil, err
		}
		n.Lower, n.Upper = lower, upper
		s.locals[n.Var] = true
		body, err := s.specializeStmt(n.Body)
		if err != nil {
			return nil, err
		}
		n.Body = body.(*ast.Block)
		return n, nil
	case *ast.Insert:
		for i, v := range n.Values {
			sv, err := s.specializeExpr(v)
			if err != nil {
				return nil, err
			}
			n.Values[i] = sv
		}
		return n, nil
	case *ast.Delete:
		key, err := s.specializeExpr(n.Key)
		if err != nil {
			return nil, err
		}
		n.Key = key
		return n, nil
	case *ast.Return:
		if n.Value != nil {
			v, err := s.specializeExpr(n.Value)
			if err != nil {
				return nil, err
			}
			n.Value = v
		}
		return n, nil
	case *ast.ExprStmt:
		x, err := s.specializeExpr(n.X)
		if err != nil {
			return nil, err
		}
		n.X = x
		return n, nil
	default:
		return nil, fmt.Errorf("unspecializable statement node %T", st)
	}
}
