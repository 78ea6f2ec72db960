package llvmref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loam/ast"
	"loam/relation"
	"loam/task"
	"loam/types"
)

func TestEmitModuleDeclaresLibmAndOneBranPerTask(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	x := rel.NewField("x", types.F64)
	fn := ast.NewFuncDef("k", true, nil, "", ast.NewBlock())

	tsk := &task.Task{
		Name:       "k",
		Fn:         fn,
		Privileges: task.Privilege{Reads: []*relation.Field{x}},
	}

	mod, err := EmitModule([]*task.Task{tsk})
	require.NoError(t, err)

	ir := mod.String()
	assert.Contains(t, ir, "declare double @sqrt")
	assert.Contains(t, ir, "loam_bran_k_all_")
}

func TestEmitModuleDeclaresAndCallsBodyRuntimeSymbols(t *testing.T) {
	fn := ast.NewFuncDef("k", true, nil, "", ast.NewBlock())

	tsk := &task.Task{
		Name: "k",
		Fn:   fn,
		Body: []task.Instr{
			&task.Eval{X: &task.RuntimeCall{Symbol: "cbrt", Args: []task.Expr{&task.NumConst{Value: 8}}}},
		},
	}

	mod, err := EmitModule([]*task.Task{tsk})
	require.NoError(t, err)

	ir := mod.String()
	assert.Contains(t, ir, "declare double @cbrt")
	assert.Contains(t, ir, "call double @cbrt")
}

func TestEmitModuleDistinguishesDomainsInSymbolName(t *testing.T) {
	fn := ast.NewFuncDef("k", true, nil, "", ast.NewBlock())
	universe, _, _ := relation.NewGrid("g_", []uint64{4}, 1)
	interior := universe.Subsets["interior"]

	whole := &task.Task{Name: "k", Fn: fn}
	sub := &task.Task{Name: "k", Fn: fn, Signature: task.Signature{Domain: interior}}

	mod, err := EmitModule([]*task.Task{whole, sub})
	require.NoError(t, err)

	ir := mod.String()
	assert.Contains(t, ir, "loam_bran_k_all_")
	assert.Contains(t, ir, "loam_bran_k_interior_")
}

func TestEmitModuleSkipsDriverTask(t *testing.T) {
	mod, err := EmitModule([]*task.Task{{Name: "main"}})
	require.NoError(t, err)
	assert.NotContains(t, mod.String(), "loam_bran_main")
}
