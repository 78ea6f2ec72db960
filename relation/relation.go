// Package relation implements spec.md §4.2: entity sets with a fixed
// logical size, typed columns (Field), filtered views (Subset), and the
// structured grid topology family (Grid) with its neighbor-access macros.
package relation

import (
	"loam/common"
	"loam/types"
)

// Relation is an immutable-identity set of keyed entities. Name and
// dimensionality never change after New*Relation; Fields, Subsets, and the
// Fragmented flag grow/flip over the relation's lifetime.
type Relation struct {
	ID   common.ID
	Name string

	// LogicalSize is the number of live rows. Kept as a wide unsigned
	// integer throughout per spec.md §9's note that the source's
	// uint64->double size widenings are bugs-in-waiting.
	LogicalSize uint64

	// ConcreteSize is the number of physically allocated rows, which can
	// exceed LogicalSize after an Insert reserves tail slots (spec.md §5)
	// and before they are trimmed back down.
	ConcreteSize uint64

	// Dims holds the grid extents (1-3 entries) for a grid-family relation,
	// or is empty for a flat/unstructured relation.
	Dims []uint64

	Fields  []*Field
	Subsets map[string]*Subset

	// Fragmented is set once Insert or Delete has run against this
	// relation (spec.md §5).
	Fragmented bool

	// IsLiveMask reports whether this relation carries a `_is_live_mask`
	// field and therefore supports Insert/Delete (spec.md §3 invariants).
	IsLiveMask bool

	// Grid is non-nil when this relation belongs to a grid family (cells,
	// dual_cells, vertices); see grid.go.
	Grid *GridRelation
}

// NewRelation declares a flat relation of the given logical size.
func NewRelation(name string, size uint64) *Relation {
	return &Relation{
		ID:          common.NextID(),
		Name:        name,
		LogicalSize: size,
		Subsets:     map[string]*Subset{},
	}
}

// NewField declares a field of type typ on rel. Per spec.md §3's invariant,
// a field's logical size always equals its relation's logical size; there
// is no independent sizing.
func (r *Relation) NewField(name string, typ types.Type) *Field {
	f := &Field{
		ID:       common.NextID(),
		Relation: r,
		Name:     name,
		Type:     typ,
	}
	r.Fields = append(r.Fields, f)
	return f
}

// Field looks up a field of r by name.
func (r *Relation) Field(name string) (*Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

// EnableLiveMask installs the `_is_live_mask` field spec.md §3 requires
// before a relation can support Insert/Delete.
func (r *Relation) EnableLiveMask() *Field {
	if r.IsLiveMask {
		f, _ := r.Field("_is_live_mask")
		return f
	}
	r.IsLiveMask = true
	r.ConcreteSize = r.LogicalSize
	return r.NewField("_is_live_mask", types.Bool)
}
