// Package check implements spec.md §4.4: a pure functional pass over a
// specialized AST that annotates every expression with its inferred type
// (via Expr.SetType) and enforces the signature, field-access, stencil, and
// reduction rules a well-typed kernel or helper must satisfy.
package check

import (
	"loam/ast"
	"loam/common"
	"loam/env"
	"loam/relation"
	"loam/report"
	"loam/types"
)

// Checker type-checks one kernel or helper body against a fixed
// environment, mirroring the (env, centered-relation) pair a Specializer
// was built with (spec.md §3's Bran).
type Checker struct {
	Env    *env.Environment
	Rel    *relation.Relation // nil for a helper
	Kernel bool
	Param  string

	returnType types.Type
	locals     map[string]types.Type
}

// Check type-checks fn.Body in place. fn must already have been specialized
// (ParamTypes/CenteredRelation/ResolvedReturn filled in).
func Check(fn *ast.FuncDef, e *env.Environment) error {
	c := &Checker{Env: e, Kernel: fn.IsKernel, Rel: fn.CenteredRelation, locals: map[string]types.Type{}}

	if fn.IsKernel {
		c.Param = fn.Params[0].Name
		c.locals[c.Param] = fn.ParamTypes[0]
	} else {
		for i, p := range fn.Params {
			c.locals[p.Name] = fn.ParamTypes[i]
		}
		c.returnType = fn.ResolvedReturn
	}

	return c.checkStmt(fn.Body)
}

// -----------------------------------------------------------------------------
// Expressions

func (c *Checker) checkExpr(e ast.Expr) (types.Type, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return c.checkIdent(n)
	case *ast.FieldAccess:
		return c.checkFieldAccess(n)
	case *ast.Affine:
		return c.checkAffine(n)
	case *ast.UnsafeRow:
		return c.checkUnsafeRow(n)
	case *ast.BinaryOp:
		return c.checkBinaryOp(n)
	case *ast.UnaryOp:
		t, err := c.checkExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		p, ok := t.(types.Primitive)
		if !ok || !p.IsNumeric() {
			return nil, report.InvalidTypes(n.Position())
		}
		n.SetType(t)
		return t, nil
	case *ast.Compare:
		return c.checkCompare(n)
	case *ast.Logical:
		return c.checkLogical(n)
	case *ast.NumberLit:
		t := types.Type(types.F64)
		if n.IsInt {
			t = types.I64
		}
		n.SetType(t)
		return t, nil
	case *ast.BoolLit:
		n.SetType(types.Bool)
		return types.Bool, nil
	case *ast.VectorLit:
		return c.checkVectorLit(n)
	case *ast.Call:
		return c.checkCall(n)
	case *ast.KeyDecomp:
		return c.checkKeyDecomp(n)
	default:
		return nil, report.TypeError(e.Position(), "unchecked expression node %T", e)
	}
}

func (c *Checker) checkIdent(n *ast.Ident) (types.Type, error) {
	if n.Resolved == nil {
		return nil, report.TypeError(n.Position(), "identifier %q was never specialized", n.Name)
	}

	switch n.Resolved.Kind {
	case ast.RefLocal:
		t, ok := c.locals[n.Name]
		if !ok {
			return nil, report.TypeError(n.Position(), "local %q has no known type", n.Name)
		}
		n.Resolved.LocalType = t
		n.SetType(t)
		return t, nil
	case ast.RefField:
		t := n.Resolved.Field.Type
		n.SetType(t)
		return t, nil
	case ast.RefGlobal:
		t := n.Resolved.Global.Type
		n.SetType(t)
		return t, nil
	case ast.RefConst:
		return nil, report.TypeError(n.Position(), "constant %q used without a known type", n.Name)
	default:
		return nil, report.TypeError(n.Position(), "%q does not name a value", n.Name)
	}
}

// checkFieldAccess enforces spec.md §4.4's field-access and off-center
// rules: `k.f` requires a legal key expression for some relation R and a
// field of R; any key expression other than the kernel's own parameter
// (centered) or an Affine/UNSAFE_ROW targeting the same relation is
// rejected with StencilError.
func (c *Checker) checkFieldAccess(n *ast.FieldAccess) (types.Type, error) {
	rel, _, err := c.checkKeyExpr(n.Obj)
	if err != nil {
		return nil, err
	}

	f, ok := rel.Field(n.Field)
	if !ok {
		return nil, report.TypeError(n.Position(), "relation %q has no field %q", rel.Name, n.Field)
	}
	n.Resolved = &ast.Ref{Kind: ast.RefField, Field: f}
	n.SetType(f.Type)
	return f.Type, nil
}

// checkKeyExpr type-checks a key expression, returning the relation it is a
// key of and whether it is centered (exactly the kernel's own parameter).
func (c *Checker) checkKeyExpr(e ast.Expr) (*relation.Relation, bool, error) {
	switch n := e.(type) {
	case *ast.Ident:
		t, isLocal := c.locals[n.Name]
		key, isKey := t.(types.Key)
		if !isLocal || !isKey {
			return nil, false, report.StencilError(n.Position(), "off-center access must go through Affine or UNSAFE_ROW, not a bare identifier")
		}
		if _, err := c.checkExpr(n); err != nil {
			return nil, false, err
		}

		// A helper has no single centered key, so any key-typed local is a
		// legal key expression directly. A kernel's field accesses are only
		// legal through its own parameter (centered) or through Affine/
		// UNSAFE_ROW (spec.md §4.4); any other bare local is rejected even
		// though it is well-typed, since the off-center pattern it hides is
		// no longer visible to the stencil analyzer.
		if !c.Kernel {
			rel, ok := c.lookupRelation(key.RelName)
			if !ok {
				return nil, false, report.TypeError(n.Position(), "unknown relation %q for key local %q", key.RelName, n.Name)
			}
			return rel, false, nil
		}
		if n.Name != c.Param {
			return nil, false, report.StencilError(n.Position(), "off-center access must go through Affine or UNSAFE_ROW, not a bare identifier")
		}
		return c.Rel, true, nil
	case *ast.Affine:
		if _, err := c.checkAffine(n); err != nil {
			return nil, false, err
		}
		return n.ResolvedRel, false, nil
	case *ast.UnsafeRow:
		if _, err := c.checkUnsafeRow(n); err != nil {
			return nil, false, err
		}
		return n.ResolvedRel, false, nil
	default:
		return nil, false, report.StencilError(e.Position(), "not a legal key expression")
	}
}

func (c *Checker) checkAffine(n *ast.Affine) (types.Type, error) {
	rel, ok := c.lookupRelation(n.TargetRel)
	if !ok {
		return nil, report.TypeError(n.Position(), "unknown relation %q in Affine", n.TargetRel)
	}

	dims := len(rel.Dims)
	if dims == 0 {
		dims = 1
	}
	if len(n.Matrix) != dims {
		return nil, report.StencilError(n.Position(), "Affine matrix has %d rows, relation %q has %d dimensions", len(n.Matrix), rel.Name, dims)
	}
	for r, row := range n.Matrix {
		if len(row) != dims+1 {
			return nil, report.StencilError(n.Position(), "Affine matrix row %d has %d columns, expected %d", r, len(row), dims+1)
		}
		for col, v := range row {
			if col == dims {
				continue // translation column: any value
			}
			want := 0.0
			if col == r {
				want = 1.0
			}
			if v != want {
				return nil, report.StencilError(n.Position(), "Affine matrix must be an identity-diagonal translation; non-diagonal rotation rejected")
			}
		}
	}

	baseRel, _, err := c.checkKeyExpr(n.Base)
	if err != nil {
		return nil, err
	}
	if baseRel != rel {
		return nil, report.StencilError(n.Position(), "Affine base key is of relation %q, target is %q", baseRel.Name, rel.Name)
	}

	key := types.Key{RelationID: uint64(rel.ID), RelName: rel.Name}
	n.SetType(key)
	n.ResolvedRel = rel
	return key, nil
}

func (c *Checker) checkUnsafeRow(n *ast.UnsafeRow) (types.Type, error) {
	rel, ok := c.lookupRelation(n.Rel)
	if !ok {
		return nil, report.TypeError(n.Position(), "unknown relation %q in UNSAFE_ROW", n.Rel)
	}
	idType, err := c.checkExpr(n.ID)
	if err != nil {
		return nil, err
	}
	p, ok := idType.(types.Primitive)
	if !ok || !p.IsIntegral() {
		return nil, report.InvalidTypes(n.Position())
	}

	key := types.Key{RelationID: uint64(rel.ID), RelName: rel.Name}
	n.SetType(key)
	n.ResolvedRel = rel
	return key, nil
}

func (c *Checker) lookupRelation(name string) (*relation.Relation, bool) {
	if c.Rel != nil && c.Rel.Name == name {
		return c.Rel, true
	}
	b, ok := c.Env.Lookup(name)
	if !ok || b.Kind != env.BindRelation {
		return nil, false
	}
	return b.Relation, true
}

func (c *Checker) checkBinaryOp(n *ast.BinaryOp) (types.Type, error) {
	lhs, err := c.checkExpr(n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := c.checkExpr(n.Rhs)
	if err != nil {
		return nil, err
	}

	if n.IsExponent {
		if _, isVec := lhs.(types.Vector); isVec {
			return nil, report.InvalidTypes(n.Position())
		}
		if _, isVec := rhs.(types.Vector); isVec {
			return nil, report.InvalidTypes(n.Position())
		}
	}

	result := types.ArithmeticResult(lhs, rhs)
	if result == nil {
		return nil, report.InvalidTypes(n.Position())
	}
	n.SetType(result)
	return result, nil
}

func (c *Checker) checkCompare(n *ast.Compare) (types.Type, error) {
	lhs, err := c.checkExpr(n.Lhs)
	if err != nil {
		return nil, err
	}
	rhs, err := c.checkExpr(n.Rhs)
	if err != nil {
		return nil, err
	}

	if types.CommonOrderedFamily(lhs, rhs) == nil {
		return nil, report.InvalidTypes(n.Position())
	}
	n.SetType(types.Bool)
	return types.Bool, nil
}

func (c *Checker) checkLogical(n *ast.Logical) (types.Type, error) {
	lhs, err := c.checkExpr(n.Lhs)
	if err != nil {
		return nil, err
	}
	if p, ok := lhs.(types.Primitive); !ok || p != types.Bool {
		return nil, report.InvalidTypes(n.Position())
	}

	if n.Rhs != nil {
		rhs, err := c.checkExpr(n.Rhs)
		if err != nil {
			return nil, err
		}
		if p, ok := rhs.(types.Primitive); !ok || p != types.Bool {
			return nil, report.InvalidTypes(n.Position())
		}
	}

	n.SetType(types.Bool)
	return types.Bool, nil
}

func (c *Checker) checkVectorLit(n *ast.VectorLit) (types.Type, error) {
	if len(n.Elems) == 0 {
		return nil, report.TypeError(n.Position(), "empty vector literal")
	}
	if len(n.Elems) > 6 {
		return nil, report.TypeError(n.Position(), "vector literal has %d elements, maximum is 6", len(n.Elems))
	}

	var elem types.Primitive
	for i, e := range n.Elems {
		t, err := c.checkExpr(e)
		if err != nil {
			return nil, err
		}
		p, ok := t.(types.Primitive)
		if !ok || !p.IsNumeric() {
			return nil, report.InvalidTypes(e.Position())
		}
		if i == 0 {
			elem = p
			continue
		}
		if res := types.ArithmeticResult(elem, p); res != nil {
			elem = res.(types.Primitive)
		} else {
			return nil, report.InvalidTypes(e.Position())
		}
	}

	v := types.Vector{Elem: elem, N: len(n.Elems)}
	n.SetType(v)
	return v, nil
}

// unaryMathBuiltins take one numeric scalar and return f64 (spec.md §4.7).
var unaryMathBuiltins = map[string]bool{
	"acos": true, "asin": true, "atan": true, "cbrt": true, "ceil": true,
	"cos": true, "fabs": true, "floor": true, "log": true, "sin": true,
	"sqrt": true, "tan": true,
}

func (c *Checker) checkCall(n *ast.Call) (types.Type, error) {
	if n.Resolved == nil {
		return nil, report.TypeError(n.Position(), "call to %q was never specialized", n.Func)
	}

	argTypes := make([]types.Type, len(n.Args))
	for i, a := range n.Args {
		t, err := c.checkExpr(a)
		if err != nil {
			return nil, err
		}
		argTypes[i] = t
	}

	switch n.Resolved.Kind {
	case ast.RefBuiltin:
		return c.checkBuiltinCall(n, argTypes)
	case ast.RefFunction:
		fn := n.Resolved.Function
		if len(argTypes) != len(fn.ParamTypes) {
			return nil, report.ArityError(n.Position(), "%q expects %d arguments, got %d", n.Func, len(fn.ParamTypes), len(argTypes))
		}
		for i, want := range fn.ParamTypes {
			if !types.Coerces(argTypes[i], want) {
				return nil, report.InvalidTypes(n.Args[i].Position())
			}
		}
		n.SetType(fn.ResolvedReturn)
		return fn.ResolvedReturn, nil
	default:
		return nil, report.TypeError(n.Position(), "%q is not callable", n.Func)
	}
}

func (c *Checker) checkBuiltinCall(n *ast.Call, argTypes []types.Type) (types.Type, error) {
	name := n.Resolved.Builtin

	numeric := func(i int) (types.Primitive, bool) {
		p, ok := argTypes[i].(types.Primitive)
		return p, ok && p.IsNumeric()
	}

	switch {
	case unaryMathBuiltins[name]:
		if len(argTypes) != 1 {
			return nil, report.ArityError(n.Position(), "%s expects 1 argument, got %d", name, len(argTypes))
		}
		if _, ok := numeric(0); !ok {
			return nil, report.InvalidTypes(n.Args[0].Position())
		}
		n.SetType(types.F64)
		return types.F64, nil

	case name == "fmod" || name == "pow":
		if len(argTypes) != 2 {
			return nil, report.ArityError(n.Position(), "%s expects 2 arguments, got %d", name, len(argTypes))
		}
		for i := range argTypes {
			if _, ok := numeric(i); !ok {
				return nil, report.InvalidTypes(n.Args[i].Position())
			}
		}
		n.SetType(types.F64)
		return types.F64, nil

	case name == "fmin" || name == "fmax" || name == "imin" || name == "imax":
		if len(argTypes) != 2 {
			return nil, report.ArityError(n.Position(), "%s expects 2 arguments, got %d", name, len(argTypes))
		}
		result := types.ArithmeticResult(argTypes[0], argTypes[1])
		if result == nil {
			return nil, report.InvalidTypes(n.Position())
		}
		n.SetType(result)
		return result, nil

	case name == "rand":
		if len(argTypes) != 0 {
			return nil, report.ArityError(n.Position(), "rand expects 0 arguments, got %d", len(argTypes))
		}
		n.SetType(types.F64)
		return types.F64, nil

	case name == "dot":
		if len(argTypes) != 2 {
			return nil, report.ArityError(n.Position(), "dot expects 2 arguments, got %d", len(argTypes))
		}
		va, ok := argTypes[0].(types.Vector)
		if !ok {
			return nil, report.InvalidTypes(n.Args[0].Position())
		}
		vb, ok := argTypes[1].(types.Vector)
		if !ok || vb.N != va.N || vb.Elem != va.Elem {
			return nil, report.InvalidTypes(n.Args[1].Position())
		}
		if va.N < 1 || va.N > 3 {
			return nil, report.ArityError(n.Position(), "dot is only defined for vectors of length 1-3, got %d", va.N)
		}
		n.SetType(va.Elem)
		return va.Elem, nil

	case name == "assert":
		if len(argTypes) != 1 {
			return nil, report.ArityError(n.Position(), "assert expects 1 argument, got %d", len(argTypes))
		}
		p, ok := argTypes[0].(types.Primitive)
		if !ok || p != types.Bool {
			return nil, report.InvalidTypes(n.Args[0].Position())
		}
		n.SetType(types.Bool)
		return types.Bool, nil

	default:
		return nil, report.TypeError(n.Position(), "unknown builtin %q", name)
	}
}

func (c *Checker) checkKeyDecomp(n *ast.KeyDecomp) (types.Type, error) {
	t, err := c.checkExpr(n.Key)
	if err != nil {
		return nil, err
	}
	if _, ok := t.(types.Key); !ok {
		return nil, report.InvalidTypes(n.Position())
	}
	n.SetType(types.U64)
	return types.U64, nil
}

// -----------------------------------------------------------------------------
// Statements

func (c *Checker) checkStmt(st ast.Stmt) error {
	switch n := st.(type) {
	case *ast.Block:
		for _, sub := range n.Stmts {
			if err := c.checkStmt(sub); err != nil {
				return err
			}
		}
		return nil

	case *ast.LocalDecl:
		t, err := c.checkExpr(n.Init)
		if err != nil {
			return err
		}
		c.locals[n.Name] = t
		return nil

	case *ast.Assign:
		if id, ok := n.Target.(*ast.Ident); ok && id.Resolved != nil && id.Resolved.Kind == ast.RefGlobal {
			return report.PhaseError(n.Position(), "global %q may not be assigned directly; use a reduction", id.Name)
		}
		targetType, err := c.checkTargetExpr(n.Target)
		if err != nil {
			return err
		}
		valueType, err := c.checkExpr(n.Value)
		if err != nil {
			return err
		}
		if !types.Coerces(valueType, targetType) {
			return report.InvalidTypes(n.Position())
		}
		return nil

	case *ast.ReduceAssign:
		return c.checkReduceAssign(n)

	case *ast.If:
		condType, err := c.checkExpr(n.Cond)
		if err != nil {
			return err
		}
		if p, ok := condType.(types.Primitive); !ok || p != types.Bool {
			return report.InvalidTypes(n.Cond.Position())
		}
		if err := c.checkStmt(n.Then); err != nil {
			return err
		}
		if n.Else != nil {
			return c.checkStmt(n.Else)
		}
		return nil

	case *ast.NumericFor:
		lower, err := c.checkExpr(n.Lower)
		if err != nil {
			return err
		}
		upper, err := c.checkExpr(n.Upper)
		if err != nil {
			return err
		}
		loopType := types.ArithmeticResult(lower, upper)
		if loopType == nil {
			return report.InvalidTypes(n.Position())
		}
		prev, hadPrev := c.locals[n.Var]
		c.locals[n.Var] = loopType
		err = c.checkStmt(n.Body)
		if hadPrev {
			c.locals[n.Var] = prev
		} else {
			delete(c.locals, n.Var)
		}
		return err

	case *ast.Insert:
		rel, ok := c.lookupRelation(n.Rel)
		if !ok {
			return report.TypeError(n.Position(), "unknown relation %q", n.Rel)
		}
		if !rel.IsLiveMask {
			return report.TypeError(n.Position(), "relation %q does not support insert (no _is_live_mask)", n.Rel)
		}
		if len(n.Fields) != len(n.Values) {
			return report.ArityError(n.Position(), "insert into %q has %d field names but %d values", n.Rel, len(n.Fields), len(n.Values))
		}
		for i, fname := range n.Fields {
			f, ok := rel.Field(fname)
			if !ok {
				return report.TypeError(n.Position(), "relation %q has no field %q", n.Rel, fname)
			}
			vt, err := c.checkExpr(n.Values[i])
			if err != nil {
				return err
			}
			if !types.Coerces(vt, f.Type) {
				return report.InvalidTypes(n.Values[i].Position())
			}
		}
		return nil

	case *ast.Delete:
		rel, ok := c.lookupRelation(n.Rel)
		if !ok {
			return report.TypeError(n.Position(), "unknown relation %q", n.Rel)
		}
		if !rel.IsLiveMask {
			return report.TypeError(n.Position(), "relation %q does not support delete (no _is_live_mask)", n.Rel)
		}
		keyRel, _, err := c.checkKeyExpr(n.Key)
		if err != nil {
			return err
		}
		if keyRel != rel {
			return report.TypeError(n.Position(), "delete key is of relation %q, expected %q", keyRel.Name, rel.Name)
		}
		return nil

	case *ast.Return:
		if c.Kernel {
			if n.Value != nil {
				return report.TypeError(n.Position(), "a kernel may not return a value")
			}
			return nil
		}
		if n.Value == nil {
			if c.returnType != nil {
				return report.TypeError(n.Position(), "missing return value")
			}
			return nil
		}
		t, err := c.checkExpr(n.Value)
		if err != nil {
			return err
		}
		if c.returnType == nil || !types.Coerces(t, c.returnType) {
			return report.InvalidTypes(n.Position())
		}
		return nil

	case *ast.ExprStmt:
		_, err := c.checkExpr(n.X)
		return err

	default:
		return report.TypeError(st.Position(), "unchecked statement node %T", st)
	}
}

// checkTargetExpr type-checks an assignment/reduction target, which must be
// either a local (by Ident) or a centered field access — stencil writes are
// rejected later by the phase analyzer (spec.md §4.5), but a non-Ident,
// non-FieldAccess target is always a checker error.
func (c *Checker) checkTargetExpr(e ast.Expr) (types.Type, error) {
	switch n := e.(type) {
	case *ast.Ident:
		return c.checkExpr(n)
	case *ast.FieldAccess:
		return c.checkFieldAccess(n)
	default:
		return nil, report.TypeError(e.Position(), "not an assignable target")
	}
}

func (c *Checker) checkReduceAssign(n *ast.ReduceAssign) error {
	targetType, err := c.checkTargetExpr(n.Target)
	if err != nil {
		return err
	}
	valueType, err := c.checkExpr(n.Value)
	if err != nil {
		return err
	}
	if !types.Coerces(valueType, targetType) {
		return report.InvalidTypes(n.Position())
	}

	p, ok := targetType.(types.Primitive)
	if !ok || !p.IsNumeric() {
		return report.InvalidTypes(n.Position())
	}
	if (n.Op == common.ReduceMin || n.Op == common.ReduceMax) && p == types.Bool {
		return report.InvalidTypes(n.Position())
	}
	return nil
}
