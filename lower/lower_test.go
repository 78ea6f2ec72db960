package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loam/ast"
	"loam/check"
	"loam/common"
	"loam/control"
	"loam/env"
	"loam/phase"
	"loam/relation"
	"loam/specialize"
	"loam/task"
	"loam/types"
)

func buildKernel(t *testing.T, e *env.Environment, rel *relation.Relation, body *ast.Block) *ast.FuncDef {
	t.Helper()
	fn := ast.NewFuncDef("k", true, []ast.Param{{Name: "v"}}, "", body)
	s := specialize.New(e, "v", rel)
	require.NoError(t, s.Specialize(fn))
	require.NoError(t, check.Check(fn, e))
	return fn
}

// TestApplyAffineZeroTranslationIsIdentity is spec.md §8's affine property:
// translating by the zero vector never changes the key.
func TestApplyAffineZeroTranslationIsIdentity(t *testing.T) {
	cells, _, _ := relation.NewGrid("grid_", []uint64{5, 5}, 1)
	e := env.Prelude().BindRelation("grid_cells", cells)

	aff := affineExprFor(t, e, cells)
	for id := uint64(0); id < cells.LogicalSize; id++ {
		out, err := ApplyAffine(aff, id)
		require.NoError(t, err)
		assert.Equal(t, id, out)
	}
}

// TestApplyAffineWrapsOnA5x5Grid is spec.md §8's concrete scenario 4.
func TestApplyAffineWrapsOnA5x5Grid(t *testing.T) {
	cells, _, _ := relation.NewGrid("grid_", []uint64{5, 5}, 1)
	e := env.Prelude().BindRelation("grid_cells", cells)

	call := ast.NewCall("c", ast.NewNumberLit(1), ast.NewNumberLit(0))
	aff := affineExprForCall(t, e, cells, call)

	// cell (xid=4, yid=2), in the rightmost column since xid is
	// fastest-varying, wraps to column 0 of the same row when translated
	// by (+1, 0).
	rightEdge := cells.Grid.Compose([]uint64{4, 2})
	got, err := ApplyAffine(aff, rightEdge)
	require.NoError(t, err)
	want := cells.Grid.Compose([]uint64{0, 2})
	assert.Equal(t, want, got)
}

// affineExprForCall specializes+checks a trivial kernel body that reads
// call.f, returning the resulting *ast.Affine with ResolvedRel filled in.
func affineExprForCall(t *testing.T, e *env.Environment, rel *relation.Relation, call *ast.Call) *ast.Affine {
	t.Helper()
	if _, ok := rel.Field("f"); !ok {
		rel.NewField("f", types.F64)
	}
	read := ast.NewFieldAccess(call, "f")
	decl := ast.NewLocalDecl("n", read)
	buildKernel(t, e, rel, ast.NewBlock(decl))
	return read.Obj.(*ast.Affine)
}

func affineExprFor(t *testing.T, e *env.Environment, rel *relation.Relation) *ast.Affine {
	t.Helper()
	call := ast.NewCall("c", ast.NewNumberLit(0), ast.NewNumberLit(0))
	return affineExprForCall(t, e, rel, call)
}

// TestLowerKernelBuildsPrivilegesFromPhaseResult exercises the ForEach
// no-reduction path: a kernel that only reads gets a read-only Privilege
// and no Accumulator.
func TestLowerKernelBuildsPrivilegesFromPhaseResult(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	rel.NewField("x", types.F64)
	e := env.Prelude().BindRelation("particles", rel)

	read := ast.NewFieldAccess(ast.NewIdent("v"), "x")
	decl := ast.NewLocalDecl("n", read)
	fn := buildKernel(t, e, rel, ast.NewBlock(decl))

	res, err := phase.Analyze(fn)
	require.NoError(t, err)

	caches := NewCaches(8)
	tsk, err := LowerKernel(caches, fn, nil, res, CPU)
	require.NoError(t, err)
	assert.Nil(t, tsk.Accumulator)
	assert.Len(t, tsk.Privileges.Reads, 1)
	assert.Empty(t, tsk.Privileges.Writes)
}

// TestLowerKernelCachesByBranKey is the "double launch increments the
// counter once" style property: lowering the same kernel over the same
// relation and backend twice returns the identical cached Task.
func TestLowerKernelCachesByBranKey(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	rel.NewField("x", types.F64)
	e := env.Prelude().BindRelation("particles", rel)

	write := ast.NewAssign(ast.NewFieldAccess(ast.NewIdent("v"), "x"), ast.NewNumberLit(1))
	fn := buildKernel(t, e, rel, ast.NewBlock(write))
	res, err := phase.Analyze(fn)
	require.NoError(t, err)

	caches := NewCaches(8)
	first, err := LowerKernel(caches, fn, nil, res, CPU)
	require.NoError(t, err)
	second, err := LowerKernel(caches, fn, nil, res, CPU)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

// TestLowerKernelSingleReductionBuildsAccumulator is spec.md §8's "single
// global reduction" scenario: a kernel reducing exactly one global gets an
// Accumulator seeded with that op's identity.
func TestLowerKernelSingleReductionBuildsAccumulator(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	g := relation.NewGlobal("total", types.F64, 0.0)
	e := env.Prelude().BindRelation("particles", rel).BindGlobal("total", g)

	reduce := ast.NewReduceAssign(ast.NewIdent("total"), common.ReduceAdd, ast.NewNumberLit(1))
	fn := buildKernel(t, e, rel, ast.NewBlock(reduce))
	res, err := phase.Analyze(fn)
	require.NoError(t, err)

	caches := NewCaches(8)
	tsk, err := LowerKernel(caches, fn, nil, res, CPU)
	require.NoError(t, err)
	require.NotNil(t, tsk.Accumulator)
	assert.Equal(t, common.ReduceAdd, tsk.Accumulator.Op)
	assert.Equal(t, 0.0, tsk.Accumulator.Init)
}

func TestIdentityValueMinMaxAreSwapped(t *testing.T) {
	assert.Equal(t, types.F64.Max(), identityValue(common.ReduceMin, types.F64))
	assert.Equal(t, types.F64.Min(), identityValue(common.ReduceMax, types.F64))
}

// TestLowerProgramBuildsDriverAndBrans covers a linear control program: one
// ForEach over a kernel that writes its own field, plus a LoadField fill.
// The resulting Bundle carries one Bran and a driver whose body mirrors the
// recorded statement order.
func TestLowerProgramBuildsDriverAndBrans(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	f := rel.NewField("x", types.F64)
	e := env.Prelude().BindRelation("particles", rel)

	write := ast.NewAssign(ast.NewFieldAccess(ast.NewIdent("v"), "x"), ast.NewNumberLit(1))
	fn := buildKernel(t, e, rel, ast.NewBlock(write))
	res, err := phase.Analyze(fn)
	require.NoError(t, err)

	r := control.New()
	r.NewRelation(rel)
	r.NewField(f)
	r.LoadField(f, 0.0)
	r.ForEach(fn, rel, nil)
	prog, err := r.Program()
	require.NoError(t, err)

	caches := NewCaches(8)
	results := PhaseResults{fn: res}
	bundle, err := LowerProgram(caches, prog, r.Decls(), results, CPU)
	require.NoError(t, err)

	require.Len(t, bundle.Tasks, 1)
	require.Len(t, bundle.Driver.ControlBody, 2)

	fill, ok := bundle.Driver.ControlBody[0].(*task.FillField)
	require.True(t, ok)
	assert.Equal(t, f, fill.Field)

	launch, ok := bundle.Driver.ControlBody[1].(*task.LaunchKernel)
	require.True(t, ok)
	assert.Same(t, bundle.Tasks[0], launch.Bran)
	assert.Nil(t, launch.ReduceInto)
}

// TestLowerProgramSkipsMultiRectangleSubsetWithWarning covers the "single-
// rectangle NewSubsets only" rule: a multi-rectangle NewSubset is recorded
// as a decl but never causes LowerProgram to fail; it is simply left
// unpartitioned (a caller-visible warning, not an error, per spec.md §4.7).
func TestLowerProgramSkipsMultiRectangleSubsetWithWarning(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	sub := relation.NewSubsetFromRectangles(rel, "odd_pair", []relation.Rectangle{
		{Lo: []uint64{0}, Hi: []uint64{2}},
		{Lo: []uint64{5}, Hi: []uint64{7}},
	})

	r := control.New()
	r.NewRelation(rel)
	r.NewSubset(sub, nil)
	prog, err := r.Program()
	require.NoError(t, err)

	caches := NewCaches(8)
	bundle, err := LowerProgram(caches, prog, r.Decls(), PhaseResults{}, CPU)
	require.NoError(t, err)
	assert.Empty(t, bundle.Driver.ControlBody)
}

// TestRecorderWhileLoopTerminatesAtThree is spec.md §8's concrete scenario
// 6, exercised at the recorder/lowering boundary: a WHILE loop's recorded
// condition and body survive lowering into a DriverWhile unchanged, so the
// termination behavior lives entirely in the condition expression, not in
// anything the lowerer rewrites.
func TestRecorderWhileLoopTerminatesAtThree(t *testing.T) {
	g := relation.NewGlobal("g", types.F64, 0.0)

	r := control.New()
	r.NewGlobal(g, 0.0)
	r.While(control.CondCompare{Op: common.Lt, Lhs: control.ExprGetGlobal{Global: g}, Rhs: control.ExprValue{Value: 3.0}})
	r.SetGlobal(g, control.ExprBinaryOp{Op: common.Add, Lhs: control.ExprGetGlobal{Global: g}, Rhs: control.ExprValue{Value: 1.0}})
	require.NoError(t, r.End())
	prog, err := r.Program()
	require.NoError(t, err)

	caches := NewCaches(8)
	bundle, err := LowerProgram(caches, prog, r.Decls(), PhaseResults{}, CPU)
	require.NoError(t, err)

	require.Len(t, bundle.Driver.ControlBody, 1)
	while, ok := bundle.Driver.ControlBody[0].(*task.DriverWhile)
	require.True(t, ok)
	require.Len(t, while.Body, 1)
	_, ok = while.Body[0].(*task.AssignGlobal)
	assert.True(t, ok)
}
