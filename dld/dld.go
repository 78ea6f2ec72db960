// Package dld implements spec.md §4.8: the Data-Layout Descriptor, a
// neutral struct passed at field boundaries so that DLD-aware runtime
// interfaces can address a field's storage without a generated kernel ever
// inspecting it directly.
package dld

import "loam/types"

// Type is a field's DLD-level element type: a fixed-width base type,
// optionally repeated into a short vector.
type Type struct {
	VectorSize   int
	BaseTypeName string
	BaseBytes    int
}

// FromFieldType derives a field's DLD-level Type from its Loam type. A
// matrix column is described as a flat vector of R*C base elements: DLD
// carries no separate row/column stride, matching spec.md §4.8's storage
// boundary contract of vector width + base size only.
func FromFieldType(t types.Type) Type {
	switch tt := t.(type) {
	case types.Primitive:
		return Type{VectorSize: 1, BaseTypeName: tt.Repr(), BaseBytes: tt.Size()}
	case types.Vector:
		return Type{VectorSize: tt.N, BaseTypeName: tt.Elem.Repr(), BaseBytes: tt.Elem.Size()}
	case types.Matrix:
		return Type{VectorSize: tt.R * tt.C, BaseTypeName: tt.Elem.Repr(), BaseBytes: tt.Elem.Size()}
	default:
		return Type{VectorSize: 1, BaseTypeName: t.Repr(), BaseBytes: t.Size()}
	}
}

// DLD describes one field's physical storage.
type DLD struct {
	Type        Type
	LogicalSize uint64
	Address     uintptr
	Stride      uint64
	Offset      uint64
}

// New constructs a DLD in compact form: stride = vector_size * base_bytes,
// offset = 0.
func New(typ Type, logicalSize uint64, address uintptr) DLD {
	return DLD{
		Type:        typ,
		LogicalSize: logicalSize,
		Address:     address,
		Stride:      uint64(typ.VectorSize) * uint64(typ.BaseBytes),
		Offset:      0,
	}
}

// PhysicalSize returns logical_size * stride (spec.md §4.8's invariant).
func (d DLD) PhysicalSize() uint64 {
	return d.LogicalSize * d.Stride
}

// Compact reports whether d is laid out with no padding and no leading
// offset: stride == vector_size * base_bytes and offset == 0.
func (d DLD) Compact() bool {
	return d.Stride == uint64(d.Type.VectorSize)*uint64(d.Type.BaseBytes) && d.Offset == 0
}
