package relation

// GridRelation carries the extra topology a grid-family relation (cells,
// dual_cells, vertices) needs for its generated macros: row-major
// decomposition, neighbor access, and boundary/interior classification
// (spec.md §4.2).
type GridRelation struct {
	// Kind is one of the grid family members below.
	Kind GridKind

	// CellDims is the number of cells along each axis (1-3 entries); every
	// member of a grid family derives its own logical size from this.
	CellDims []uint64

	// NBoundary is the boundary layer depth used to generate the automatic
	// `boundary`/`interior` subsets (spec.md §4.2's n_bd).
	NBoundary uint64
}

// GridKind enumerates the grid relation family.
type GridKind int

const (
	Cells GridKind = iota
	DualCells
	Vertices
)

// NewGrid declares the three relations of a grid family sharing cellDims,
// wiring their Grid fields to a common topology. Per spec.md §4.2's
// invariants: cells has Π size_i rows; dual_cells and vertices have
// Π (size_i+1) rows.
func NewGrid(namePrefix string, cellDims []uint64, nBoundary uint64) (cells, dualCells, vertices *Relation) {
	product := func(dims []uint64, extra uint64) uint64 {
		p := uint64(1)
		for _, d := range dims {
			p *= d + extra
		}
		return p
	}

	mk := func(suffix string, kind GridKind, extra uint64) *Relation {
		r := NewRelation(namePrefix+suffix, product(cellDims, extra))
		r.Dims = addTo(cellDims, extra)
		r.Grid = &GridRelation{Kind: kind, CellDims: cellDims, NBoundary: nBoundary}
		return r
	}

	cells = mk("cells", Cells, 0)
	dualCells = mk("dual_cells", DualCells, 1)
	vertices = mk("vertices", Vertices, 1)

	installBoundaryInterior(cells)

	return cells, dualCells, vertices
}

func addTo(dims []uint64, extra uint64) []uint64 {
	out := make([]uint64, len(dims))
	for i, d := range dims {
		out[i] = d + extra
	}
	return out
}

// Decompose returns the multi-index (xid, yid[, zid]) of a flat row id.
// CellDims is ordered [xsize, ysize, zsize]; xid is the fastest-varying
// component, matching the layout link macros like cell.vertex and
// vertex.cell must agree with (spec.md §4.2's invariant).
func (g *GridRelation) Decompose(id uint64) []uint64 {
	dims := addTo(g.CellDims, gridExtra(g.Kind))
	idx := make([]uint64, len(dims))
	rem := id
	for d := 0; d < len(dims); d++ {
		idx[d] = rem % dims[d]
		rem /= dims[d]
	}
	return idx
}

// Compose is the inverse of Decompose: it packs a multi-index back into a
// flat id, xid fastest-varying.
func (g *GridRelation) Compose(idx []uint64) uint64 {
	dims := addTo(g.CellDims, gridExtra(g.Kind))
	var id uint64
	mult := uint64(1)
	for d := 0; d < len(dims); d++ {
		id += idx[d] * mult
		mult *= dims[d]
	}
	return id
}

func gridExtra(k GridKind) uint64 {
	if k == Cells {
		return 0
	}
	return 1
}

// Neighbor implements the `c(dx,dy[,dz])` macro: a translation of id by the
// given per-axis offsets, wrapping modulo each axis's bounds (this is
// exactly the Affine lowering of spec.md §4.7 applied to a literal
// translation rather than a symbolic one).
func (g *GridRelation) Neighbor(id uint64, offsets []int64) uint64 {
	dims := addTo(g.CellDims, gridExtra(g.Kind))
	idx := g.Decompose(id)
	out := make([]uint64, len(idx))
	for d := range idx {
		signed := int64(idx[d]) + offsets[d]
		m := int64(dims[d])
		signed = ((signed % m) + m) % m
		out[d] = uint64(signed)
	}
	return g.Compose(out)
}

// InBoundary reports whether id lies within depth nBd of any edge of the
// grid along any axis ("in_boundary" macro, spec.md §4.2).
func (g *GridRelation) InBoundary(id uint64, nBd uint64) bool {
	dims := addTo(g.CellDims, gridExtra(g.Kind))
	idx := g.Decompose(id)
	for d := range idx {
		if idx[d] < nBd || idx[d] >= dims[d]-nBd {
			return true
		}
	}
	return false
}

// InInterior is the complement of InBoundary ("in_interior" macro).
func (g *GridRelation) InInterior(id uint64, nBd uint64) bool {
	return !g.InBoundary(id, nBd)
}

// installBoundaryInterior generates the automatic `boundary`/`interior`
// subsets of depth n_bd (spec.md §4.2).
func installBoundaryInterior(cells *Relation) {
	g := cells.Grid
	NewSubsetFromMask(cells, "boundary", func(id uint64) bool {
		return g.InBoundary(id, g.NBoundary)
	})
	NewSubsetFromMask(cells, "interior", func(id uint64) bool {
		return g.InInterior(id, g.NBoundary)
	})
}
