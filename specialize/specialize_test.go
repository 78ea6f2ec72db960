package specialize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loam/ast"
	"loam/common"
	"loam/env"
	"loam/relation"
	"loam/types"
)

func TestSpecializeResolvesFieldAccessAndLocal(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	rel.NewField("x", types.I32)

	e := env.Prelude().BindRelation("particles", rel)

	// kernel v.x = v.x + 1
	param := ast.NewIdent("v")
	fieldRead := ast.NewFieldAccess(ast.NewIdent("v"), "x")
	add := ast.NewBinaryOp(common.Add, fieldRead, ast.NewNumberLit(1))
	assign := ast.NewAssign(ast.NewFieldAccess(ast.NewIdent("v"), "x"), add)
	body := ast.NewBlock(assign)
	_ = param

	fn := ast.NewFuncDef("bump", true, []ast.Param{{Name: "v"}}, "", body)

	s := New(e, "v", rel)
	require.NoError(t, s.Specialize(fn))

	assign2 := fn.Body.Stmts[0].(*ast.Assign)
	target := assign2.Target.(*ast.FieldAccess)
	targetKey := target.Obj.(*ast.Ident)
	assert.Equal(t, ast.RefLocal, targetKey.Resolved.Kind)

	assert.Equal(t, rel, fn.CenteredRelation)
	require.Len(t, fn.ParamTypes, 1)
	key, ok := fn.ParamTypes[0].(types.Key)
	require.True(t, ok)
	assert.Equal(t, "particles", key.RelName)
}

func TestSpecializeRejectsUnboundName(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	e := env.Prelude()

	body := ast.NewBlock(ast.NewExprStmt(ast.NewIdent("nonexistent")))
	fn := ast.NewFuncDef("k", true, []ast.Param{{Name: "v"}}, "", body)

	s := New(e, "v", rel)
	err := s.Specialize(fn)
	assert.Error(t, err)
}

func TestSpecializeExpandsGridNeighborMacro(t *testing.T) {
	cells, _, _ := relation.NewGrid("mesh_", []uint64{5, 5}, 1)
	cells.NewField("f", types.F64)

	e := env.Prelude().BindRelation("mesh_cells", cells)

	call := ast.NewCall("c", ast.NewNumberLit(1), ast.NewNumberLit(0))
	access := ast.NewFieldAccess(call, "f")
	body := ast.NewBlock(ast.NewExprStmt(access))
	fn := ast.NewFuncDef("stencil", true, []ast.Param{{Name: "c0"}}, "", body)

	s := New(e, "c0", cells)
	require.NoError(t, s.Specialize(fn))

	exprStmt := fn.Body.Stmts[0].(*ast.ExprStmt)
	fa := exprStmt.X.(*ast.FieldAccess)
	affine, ok := fa.Obj.(*ast.Affine)
	require.True(t, ok, "c(dx,dy) macro should expand into an Affine node")
	assert.Equal(t, "mesh_cells", affine.TargetRel)
	assert.Equal(t, [][]float64{{1, 0, 1}, {0, 1, 0}}, affine.Matrix)
}

func TestSpecializeHelperResolvesTypedParams(t *testing.T) {
	e := env.Prelude()
	body := ast.NewBlock(ast.NewReturn(ast.NewBinaryOp(common.Add, ast.NewIdent("a"), ast.NewIdent("b"))))
	fn := ast.NewFuncDef("add2", false, []ast.Param{{Name: "a", TypeName: "f64"}, {Name: "b", TypeName: "f64"}}, "f64", body)

	s := NewHelper(e, fn.Params)
	require.NoError(t, s.Specialize(fn))

	ret := fn.Body.Stmts[0].(*ast.Return)
	bin := ret.Value.(*ast.BinaryOp)
	assert.Equal(t, ast.RefLocal, bin.Lhs.(*ast.Ident).Resolved.Kind)
	assert.Equal(t, ast.RefLocal, bin.Rhs.(*ast.Ident).Resolved.Kind)
}
