package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loam/common"
	"loam/relation"
	"loam/types"
)

func TestRecorderLinearProgram(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	f := rel.NewField("x", types.F64)

	r := New()
	r.NewRelation(rel)
	r.NewField(f)
	r.LoadField(f, 0.0)

	prog, err := r.Program()
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)

	lf, ok := prog.Stmts[0].(*LoadField)
	require.True(t, ok)
	assert.Equal(t, f, lf.Field)

	require.Len(t, r.Decls(), 2)
}

func TestRecorderIfElseEnd(t *testing.T) {
	g := relation.NewGlobal("total", types.F64, 0.0)

	r := New()
	r.If(CondCompare{Op: common.Gt, Lhs: ExprGetGlobal{Global: g}, Rhs: ExprValue{Value: 0.0}})
	r.SetGlobal(g, ExprValue{Value: 1.0})
	require.NoError(t, r.Else())
	r.SetGlobal(g, ExprValue{Value: -1.0})
	require.NoError(t, r.End())

	prog, err := r.Program()
	require.NoError(t, err)
	require.Len(t, prog.Stmts, 1)

	ifStmt, ok := prog.Stmts[0].(*If)
	require.True(t, ok)
	require.NotNil(t, ifStmt.Then)
	require.NotNil(t, ifStmt.Else)
	require.Len(t, ifStmt.Then.Stmts, 1)
	require.Len(t, ifStmt.Else.Stmts, 1)
}

func TestRecorderIfWithoutElse(t *testing.T) {
	g := relation.NewGlobal("total", types.F64, 0.0)

	r := New()
	r.If(CondLiteral{Value: true})
	r.SetGlobal(g, ExprValue{Value: 1.0})
	require.NoError(t, r.End())

	prog, err := r.Program()
	require.NoError(t, err)
	ifStmt := prog.Stmts[0].(*If)
	require.NotNil(t, ifStmt.Then)
	assert.Nil(t, ifStmt.Else)
}

func TestRecorderNestedWhileInsideIf(t *testing.T) {
	g := relation.NewGlobal("i", types.F64, 0.0)

	r := New()
	r.If(CondLiteral{Value: true})
	r.While(CondCompare{Op: common.Lt, Lhs: ExprGetGlobal{Global: g}, Rhs: ExprValue{Value: 10.0}})
	r.SetGlobal(g, ExprBinaryOp{Op: common.Add, Lhs: ExprGetGlobal{Global: g}, Rhs: ExprValue{Value: 1.0}})
	require.NoError(t, r.End()) // closes While
	require.NoError(t, r.End()) // closes If

	prog, err := r.Program()
	require.NoError(t, err)
	ifStmt := prog.Stmts[0].(*If)
	require.Len(t, ifStmt.Then.Stmts, 1)
	_, ok := ifStmt.Then.Stmts[0].(*While)
	assert.True(t, ok)
}

func TestRecorderEndWithoutOpenerIsMalformed(t *testing.T) {
	r := New()
	err := r.End()
	require.Error(t, err)
}

func TestRecorderElseWithoutIfIsMalformed(t *testing.T) {
	r := New()
	err := r.Else()
	require.Error(t, err)
}

func TestRecorderDoubleElseIsMalformed(t *testing.T) {
	r := New()
	r.If(CondLiteral{Value: true})
	require.NoError(t, r.Else())
	err := r.Else()
	require.Error(t, err)
}

func TestRecorderProgramRejectsUnclosedBlock(t *testing.T) {
	r := New()
	r.If(CondLiteral{Value: true})

	_, err := r.Program()
	require.Error(t, err)
}
