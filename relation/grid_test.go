package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Concrete scenario 1 (spec.md §8): Grid 4x4, n_bd=1: |boundary|=12,
// |interior|=4; boundary mask for id=5 is false, for id=0 is true.
func TestGridBoundaryInterior4x4(t *testing.T) {
	cells, _, _ := NewGrid("", []uint64{4, 4}, 1)

	boundary := cells.Subsets["boundary"]
	interior := cells.Subsets["interior"]

	assert.EqualValues(t, 12, boundary.Size())
	assert.EqualValues(t, 4, interior.Size())

	assert.False(t, boundary.Contains(5))
	assert.True(t, boundary.Contains(0))
	assert.True(t, interior.Contains(5))
}

// Concrete scenario 4 (spec.md §8): on a 5x5 grid, translating cell
// (xid=2,yid=3) by (dx=1,dy=0) resolves to (xid=3,yid=3); translating
// (xid=4,yid=3) wraps to (xid=0,yid=3).
func TestGridNeighborWraps(t *testing.T) {
	cells, _, _ := NewGrid("", []uint64{5, 5}, 0)
	g := cells.Grid

	idOf := func(xid, yid uint64) uint64 { return g.Compose([]uint64{xid, yid}) }

	got := g.Decompose(g.Neighbor(idOf(2, 3), []int64{1, 0}))
	assert.Equal(t, []uint64{3, 3}, got)

	got = g.Decompose(g.Neighbor(idOf(4, 3), []int64{1, 0}))
	assert.Equal(t, []uint64{0, 3}, got)
}

func TestSubsetFromIndicesIsSortedAndDeduped(t *testing.T) {
	rel := NewRelation("pts", 10)
	s := NewSubsetFromIndices(rel, "odds", []uint64{5, 1, 3, 1, 9})

	assert.Equal(t, []uint64{1, 3, 5, 9}, s.Indices())
	assert.True(t, s.Contains(3))
	assert.False(t, s.Contains(4))
}

func TestRelationFieldLogicalSizeMatchesRelation(t *testing.T) {
	rel := NewRelation("particles", 100)
	f := rel.NewField("mass", nil)
	assert.Same(t, rel, f.Relation)
}

func TestEnableLiveMaskInstallsHiddenField(t *testing.T) {
	rel := NewRelation("particles", 100)
	rel.EnableLiveMask()

	_, ok := rel.Field("_is_live_mask")
	assert.True(t, ok)
	assert.True(t, rel.IsLiveMask)
	assert.EqualValues(t, 100, rel.ConcreteSize)
}
