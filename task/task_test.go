package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loam/relation"
	"loam/types"
)

func TestNewGermCollectsOnlyPrivilegedFields(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	x := rel.NewField("x", types.F64)
	rel.NewField("unused", types.F64)

	sig := Signature{Regions: []*relation.Relation{rel}}
	priv := Privilege{Reads: []*relation.Field{x}}

	g := NewGerm(sig, priv, rel.LogicalSize)
	assert.Equal(t, uint64(10), g.NRows)
	assert.Equal(t, []*relation.Field{x}, g.FieldPtrs)
	assert.False(t, g.UsesBoolmask)
	assert.False(t, g.UsesIndices)
}

func TestNewGermReflectsSubsetRepresentation(t *testing.T) {
	rel := relation.NewRelation("particles", 10)
	sub := relation.NewSubsetFromIndices(rel, "chosen", []uint64{1, 2, 3})

	sig := Signature{Domain: sub}
	g := NewGerm(sig, Privilege{}, 3)
	assert.True(t, g.UsesIndices)
	assert.False(t, g.UsesBoolmask)
}
