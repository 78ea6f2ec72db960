package dld

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"loam/types"
)

func TestNewIsCompactByConstruction(t *testing.T) {
	typ := FromFieldType(types.F64)
	d := New(typ, 100, 0x1000)

	assert.True(t, d.Compact())
	assert.Equal(t, uint64(8), d.Stride)
	assert.Equal(t, uint64(800), d.PhysicalSize())
}

func TestVectorFieldStride(t *testing.T) {
	typ := FromFieldType(types.Vector{Elem: types.F32, N: 3})
	d := New(typ, 10, 0)

	assert.Equal(t, uint64(12), d.Stride)
	assert.Equal(t, uint64(120), d.PhysicalSize())
	assert.True(t, d.Compact())
}

func TestNonZeroOffsetIsNotCompact(t *testing.T) {
	typ := FromFieldType(types.I32)
	d := New(typ, 10, 0)
	d.Offset = 4

	assert.False(t, d.Compact())
}

func TestPaddedStrideIsNotCompact(t *testing.T) {
	typ := FromFieldType(types.I32)
	d := New(typ, 10, 0)
	d.Stride = 8 // padded past the natural 4-byte i32 stride

	assert.False(t, d.Compact())
}
