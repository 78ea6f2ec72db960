package relation

import (
	"sort"

	"github.com/willf/bitset"
)

// Rectangle is an inclusive axis-aligned integer extent within a grid
// relation's bounds, used by the rectangle arm of Subset (spec.md §3).
type Rectangle struct {
	Lo, Hi []uint64 // inclusive, one entry per grid dimension
}

// Contains reports whether the flat row id at the given multi-index falls
// inside the rectangle.
func (r Rectangle) Contains(idx []uint64) bool {
	for d := range idx {
		if idx[d] < r.Lo[d] || idx[d] > r.Hi[d] {
			return false
		}
	}
	return true
}

// Subset is a relation plus either a boolean mask or an explicit sorted
// index list over its keys (spec.md §3) — exactly one of the two is ever
// present. On a grid relation, a subset may additionally carry a union of
// axis-aligned rectangles, which is the representation NEW_SUBSET's
// rectangle path records (spec.md §4.7); the boolmask is then derived from
// it lazily via Materialize.
type Subset struct {
	Relation *Relation
	Name     string

	mask    *bitset.BitSet
	indices []uint64

	Rectangles []Rectangle
}

// NewSubsetFromMask declares a subset backed by a boolean predicate
// evaluated once over every key of rel, at compile time.
func NewSubsetFromMask(rel *Relation, name string, pred func(id uint64) bool) *Subset {
	mask := bitset.New(uint(rel.LogicalSize))
	for i := uint64(0); i < rel.LogicalSize; i++ {
		if pred(i) {
			mask.Set(uint(i))
		}
	}
	s := &Subset{Relation: rel, Name: name, mask: mask}
	rel.Subsets[name] = s
	return s
}

// NewSubsetFromIndices declares a subset backed by an explicit list of keys.
// The list is sorted and de-duplicated to satisfy spec.md §3's "sorted
// index list" invariant.
func NewSubsetFromIndices(rel *Relation, name string, indices []uint64) *Subset {
	sorted := append([]uint64(nil), indices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	sorted = dedupeSorted(sorted)

	s := &Subset{Relation: rel, Name: name, indices: sorted}
	rel.Subsets[name] = s
	return s
}

// NewSubsetFromRectangles declares a grid subset as a union of inclusive
// axis-aligned rectangles. The boolmask is not computed until Materialize
// is called, matching the lowerer's lazy single-rectangle handling in
// spec.md §4.7 (a single-rectangle subset partitions without ever touching
// a boolmask at all).
func NewSubsetFromRectangles(rel *Relation, name string, rects []Rectangle) *Subset {
	s := &Subset{Relation: rel, Name: name, Rectangles: rects}
	rel.Subsets[name] = s
	return s
}

func dedupeSorted(sorted []uint64) []uint64 {
	out := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			out = append(out, v)
		}
	}
	return out
}

// UsesBoolmask reports whether this subset is backed by a boolmask (as
// opposed to a sorted index list). Exactly one of UsesBoolmask/UsesIndices
// is true for any fully-materialized subset.
func (s *Subset) UsesBoolmask() bool { return s.mask != nil }

// UsesIndices reports whether this subset is backed by a sorted index list.
func (s *Subset) UsesIndices() bool { return s.indices != nil }

// Mask returns the boolmask backing this subset, materializing it from
// Rectangles first if necessary.
func (s *Subset) Mask() *bitset.BitSet {
	if s.mask == nil && s.Rectangles != nil {
		s.Materialize(s.Relation.Grid)
	}
	return s.mask
}

// Indices returns the sorted index list backing this subset.
func (s *Subset) Indices() []uint64 { return s.indices }

// Materialize computes this subset's boolmask from its Rectangles against
// the given grid topology. It is a no-op if the mask already exists.
func (s *Subset) Materialize(g *GridRelation) {
	if s.mask != nil || s.Rectangles == nil {
		return
	}
	mask := bitset.New(uint(s.Relation.LogicalSize))
	for id := uint64(0); id < s.Relation.LogicalSize; id++ {
		idx := g.Decompose(id)
		for _, r := range s.Rectangles {
			if r.Contains(idx) {
				mask.Set(uint(id))
				break
			}
		}
	}
	s.mask = mask
}

// Size returns the number of keys in the subset.
func (s *Subset) Size() uint64 {
	if s.mask != nil {
		return uint64(s.mask.Count())
	}
	if s.indices != nil {
		return uint64(len(s.indices))
	}
	// Rectangle-only subset, not yet materialized: sum rectangle volumes.
	// Overlapping rectangles double-count here. Multi-rectangle subsets are
	// not rejected anywhere (lower.LowerProgram only warns about them), so
	// for one with overlapping rectangles this is an overcount.
	var n uint64
	for _, r := range s.Rectangles {
		n += rectangleSize(r)
	}
	return n
}

func rectangleSize(r Rectangle) uint64 {
	total := uint64(1)
	for d := range r.Lo {
		total *= r.Hi[d] - r.Lo[d] + 1
	}
	return total
}

// Contains reports whether id is a member of the subset.
func (s *Subset) Contains(id uint64) bool {
	if s.mask != nil {
		return s.mask.Test(uint(id))
	}
	if s.indices != nil {
		i := sort.Search(len(s.indices), func(i int) bool { return s.indices[i] >= id })
		return i < len(s.indices) && s.indices[i] == id
	}
	if s.Rectangles != nil {
		if m := s.Mask(); m != nil {
			return m.Test(uint(id))
		}
	}
	return false
}
