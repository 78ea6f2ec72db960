package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrimitiveCoercion(t *testing.T) {
	cases := []struct {
		name     string
		from, to Primitive
		want     bool
	}{
		{"i32 to i64 widens", I32, I64, true},
		{"i32 to f64 widens", I32, F64, true},
		{"f32 to f64 widens", F32, F64, true},
		{"f64 to f32 narrows, rejected", F64, F32, false},
		{"i64 to i32 narrows, rejected", I64, I32, false},
		{"u32 to i64 signedness mismatch, rejected", U32, I64, false},
		{"bool never coerces", Bool, I32, false},
		{"i32 never coerces to bool", I32, Bool, false},
		{"identity always coerces", I32, I32, true},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Coerces(c.from, c.to))
		})
	}
}

func TestVectorCoercionRequiresMatchingLength(t *testing.T) {
	assert.True(t, Coerces(Vector{Elem: I32, N: 3}, Vector{Elem: F64, N: 3}))
	assert.False(t, Coerces(Vector{Elem: I32, N: 3}, Vector{Elem: F64, N: 2}))
}

func TestCommonOrderedFamilyRejectsNumberVsBool(t *testing.T) {
	assert.Nil(t, CommonOrderedFamily(I32, Bool))
	assert.Nil(t, CommonOrderedFamily(Bool, F64))
}

func TestCommonOrderedFamilyRejectsVectors(t *testing.T) {
	assert.Nil(t, CommonOrderedFamily(Vector{Elem: I32, N: 2}, Vector{Elem: I32, N: 2}))
}

func TestCommonOrderedFamilyRejectsRecords(t *testing.T) {
	r := Record{Fields: []RecordField{{Name: "x", Typ: I32}}}
	assert.Nil(t, CommonOrderedFamily(r, r))
}

func TestArithmeticResultRejectsNonNumeric(t *testing.T) {
	assert.Nil(t, ArithmeticResult(Bool, I32))
	assert.NotNil(t, ArithmeticResult(I32, I64))
}
