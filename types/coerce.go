package types

// Coerces reports whether a value of type from can be used where a value of
// type to is expected, per spec.md §4.1: primitives coerce monotonically
// toward the wider/more-precise type (i* -> i-wider, i* -> f64, f32 -> f64);
// there is no implicit narrowing and no bool<->number coercion. Vectors
// coerce elementwise when lengths match.
func Coerces(from, to Type) bool {
	if Equal(from, to) {
		return true
	}

	switch f := from.(type) {
	case Primitive:
		t, ok := to.(Primitive)
		if !ok {
			return false
		}
		return primitiveCoerces(f, t)
	case Vector:
		t, ok := to.(Vector)
		if !ok || f.N != t.N {
			return false
		}
		return primitiveCoerces(f.Elem, t.Elem)
	default:
		return false
	}
}

// primitiveCoerces implements the widening lattice for scalar primitives.
// bool never coerces to or from anything else.
func primitiveCoerces(from, to Primitive) bool {
	if from == Bool || to == Bool {
		return false
	}

	if from == to {
		return true
	}

	// f32 -> f64 is the only floating widening.
	if from == F32 && to == F64 {
		return true
	}
	if from.IsFloating() {
		// no other floating coercions (including f64 -> f32, which narrows)
		return false
	}

	// integers widen to f64 unconditionally, and to a strictly wider
	// integer of the same signedness. Signed <-> unsigned never coerces
	// implicitly (would risk silently reinterpreting a negative value).
	if to == F64 {
		return true
	}
	if to.IsFloating() {
		return false
	}

	if from.IsUnsigned() != to.IsUnsigned() {
		return false
	}
	return from.Size() < to.Size()
}

// CommonOrderedFamily returns the type both a and b coerce to for the
// purposes of an ordered comparison (<, <=, >, >=), or nil if no such
// common type exists (arithmetic uses ArithmeticResult instead). Per spec.md §4.1, comparisons between a
// number and a bool, between vectors, or between arbitrary tables (records)
// always fail: only scalar-numeric and same-length numeric-vector families
// participate.
func CommonOrderedFamily(a, b Type) Type {
	if Equal(a, b) {
		if isOrderable(a) {
			return a
		}
		return nil
	}

	if Coerces(a, b) && isOrderable(b) {
		return b
	}
	if Coerces(b, a) && isOrderable(a) {
		return a
	}
	return nil
}

func isOrderable(t Type) bool {
	p, ok := t.(Primitive)
	return ok && p != Bool
}

// ArithmeticResult returns the result type of a binary arithmetic op over a
// and b, or nil if the operands are not both numeric in a common family.
// `^` (exponentiation) is never defined on vectors, per spec.md §4.1; the
// caller is responsible for rejecting that case for the specific operator.
func ArithmeticResult(a, b Type) Type {
	switch av := a.(type) {
	case Primitive:
		bv, ok := b.(Primitive)
		if !ok || av == Bool || bv == Bool {
			return nil
		}
		if Coerces(av, bv) {
			return bv
		}
		if Coerces(bv, av) {
			return av
		}
		return nil
	case Vector:
		bv, ok := b.(Vector)
		if !ok || av.N != bv.N {
			return nil
		}
		if elem := ArithmeticResult(av.Elem, bv.Elem); elem != nil {
			return Vector{Elem: elem.(Primitive), N: av.N}
		}
		return nil
	default:
		return nil
	}
}
