package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loam/ast"
	"loam/env"
	"loam/relation"
	"loam/report"
	"loam/task"
	"loam/types"
)

// TestLowerBodyResolvesStencilFieldAccess exercises spec.md §8 scenario 5's
// access pattern at the body-lowering boundary: writing through an Affine
// key lowers to a Store over a FieldRead whose Key is a StencilKey carrying
// the neighbor's translation vector, not a re-derivable AST node.
func TestLowerBodyResolvesStencilFieldAccess(t *testing.T) {
	cells, _, _ := relation.NewGrid("grid_", []uint64{5, 5}, 1)
	cells.NewField("f", types.F64)
	e := env.Prelude().BindRelation("grid_cells", cells)

	call := ast.NewCall("c", ast.NewNumberLit(1), ast.NewNumberLit(0))
	write := ast.NewAssign(ast.NewFieldAccess(call, "f"), ast.NewNumberLit(2))
	fn := buildKernel(t, e, cells, ast.NewBlock(write))

	body, err := lowerBody(fn)
	require.NoError(t, err)
	require.Len(t, body, 1)

	store, ok := body[0].(*task.Store)
	require.True(t, ok)
	fr, ok := store.Target.(*task.FieldRead)
	require.True(t, ok)
	assert.Equal(t, "f", fr.Field.Name)

	sk, ok := fr.Key.(*task.StencilKey)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 0}, sk.Translation)
	base, ok := sk.Base.(*task.LocalRef)
	require.True(t, ok)
	assert.Equal(t, "v", base.Name)
}

// TestLowerBodyLowersBuiltinMix covers spec.md §4.7's builtin table plus
// key decomposition in one body: a libm call, dot, and id all resolve to
// their task-IR forms instead of surviving as raw ast.Call/KeyDecomp nodes.
func TestLowerBodyLowersBuiltinMix(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	rel.NewField("x", types.F64)
	e := env.Prelude().BindRelation("particles", rel)

	sqrtDecl := ast.NewLocalDecl("s", ast.NewCall("sqrt", ast.NewFieldAccess(ast.NewIdent("v"), "x")))
	dotDecl := ast.NewLocalDecl("d", ast.NewCall("dot",
		ast.NewVectorLit(ast.NewNumberLit(1), ast.NewNumberLit(2)),
		ast.NewVectorLit(ast.NewNumberLit(3), ast.NewNumberLit(4))))
	idDecl := ast.NewLocalDecl("k", ast.NewKeyDecomp("id", ast.NewIdent("v")))
	fn := buildKernel(t, e, rel, ast.NewBlock(sqrtDecl, dotDecl, idDecl))

	body, err := lowerBody(fn)
	require.NoError(t, err)
	require.Len(t, body, 3)

	s, ok := body[0].(*task.Local)
	require.True(t, ok)
	rc, ok := s.Init.(*task.RuntimeCall)
	require.True(t, ok)
	assert.Equal(t, "sqrt", rc.Symbol)

	d, ok := body[1].(*task.Local)
	require.True(t, ok)
	dc, ok := d.Init.(*task.DotCall)
	require.True(t, ok)
	assert.NotEmpty(t, dc.Symbol)
	assert.Len(t, dc.Args, 2)

	k, ok := body[2].(*task.Local)
	require.True(t, ok)
	ke, ok := k.Init.(*task.KeyExtract)
	require.True(t, ok)
	assert.Equal(t, -1, ke.Axis)
}

// TestLowerBodyRejectsInsertAgainstOtherRelation covers body-lowering's
// scope limit: an Insert/Delete naming anything other than the kernel's own
// centered relation has no environment to resolve against here, and is
// rejected rather than silently dropped.
func TestLowerBodyRejectsInsertAgainstOtherRelation(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	rel.NewField("x", types.I32)
	rel.EnableLiveMask()

	other := relation.NewRelation("other_relation", 10)
	other.NewField("x", types.F64)
	other.EnableLiveMask()

	e := env.Prelude().BindRelation("particles", rel).BindRelation("other_relation", other)

	ins := ast.NewInsert("other_relation", []string{"x"}, []ast.Expr{ast.NewNumberLit(1)})
	fn := buildKernel(t, e, rel, ast.NewBlock(ins))

	_, err := lowerBody(fn)
	require.Error(t, err)
	cerr, ok := err.(*report.CompileError)
	require.True(t, ok, "expected a *report.CompileError, got %T", err)
	assert.Equal(t, report.KindUnsupportedBackend, cerr.Kind)
}
