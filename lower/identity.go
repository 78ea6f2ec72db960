package lower

import (
	"loam/common"
	"loam/types"
)

// identityValue returns the identity element an accumulator local is
// initialized to before a reduction loop, per spec.md §9's resolution of
// the source's min/max identity bug: opIdentity(min, T) is T's maximum
// representable value (so the first real reduce always wins), and
// opIdentity(max, T) is T's minimum.
func identityValue(op common.ReduceOp, t types.Type) float64 {
	switch op {
	case common.ReduceAdd, common.ReduceSub:
		return 0
	case common.ReduceMul, common.ReduceDiv:
		return 1
	case common.ReduceMin:
		return primitiveOf(t).Max()
	case common.ReduceMax:
		return primitiveOf(t).Min()
	default:
		return 0
	}
}

// primitiveOf returns t's base primitive: itself if t already is one, or a
// vector/matrix's element type. Reductions in this language are always
// over a scalar field, but this keeps identityValue total.
func primitiveOf(t types.Type) types.Primitive {
	switch tt := t.(type) {
	case types.Primitive:
		return tt
	case types.Vector:
		return tt.Elem
	case types.Matrix:
		return tt.Elem
	default:
		return types.F64
	}
}
