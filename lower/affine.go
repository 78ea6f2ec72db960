// Package lower implements spec.md §4.7: turning a checked, phase-analyzed
// kernel or a recorded control program into task-graph IR (package task).
package lower

import (
	"loam/ast"
	"loam/relation"
	"loam/report"
)

// ApplyAffine lowers `Affine(targetRel, M, base)` for a concrete base key
// baseID: M's non-translation columns are already proven to be an identity
// diagonal by package check, so all that remains at lowering time is the
// translation vector in M's last column, applied with wraparound over
// aff.ResolvedRel's bounds. This is exactly relation.GridRelation.Neighbor's
// semantics, so ApplyAffine is a thin adapter onto it rather than a second
// implementation of the modular arithmetic. It is the concrete-key half of
// ResolveAffine below, kept for callers (tests, a future interpreter) that
// already have a row id in hand.
func ApplyAffine(aff *ast.Affine, baseID uint64) (uint64, error) {
	rel, translation, err := resolveAffine(aff)
	if err != nil {
		return 0, err
	}
	return rel.Grid.Neighbor(baseID, translation), nil
}

// ResolveAffine is body-lowering's entry point onto Affine: a kernel body
// is walked once per specialization, long before any row id exists, so the
// only part of `Affine(targetRel, M, base)` lowering can resolve is the
// translation vector baked into M — the base key itself stays a runtime
// expression (task.StencilKey.Base) for the backend to apply per row via
// the same relation.GridRelation.Neighbor arithmetic ApplyAffine wraps.
func ResolveAffine(aff *ast.Affine) (*relation.Relation, []int64, error) {
	return resolveAffine(aff)
}

func resolveAffine(aff *ast.Affine) (*relation.Relation, []int64, error) {
	rel := aff.ResolvedRel
	if rel == nil || rel.Grid == nil {
		return nil, nil, report.UnsupportedBackend(aff.Position(), "Affine target %q is not a grid relation", aff.TargetRel)
	}
	return rel, affineTranslation(aff.Matrix), nil
}

// affineTranslation extracts the translation vector (M's last column) from
// a checked Affine matrix.
func affineTranslation(matrix [][]float64) []int64 {
	out := make([]int64, len(matrix))
	for r, row := range matrix {
		out[r] = int64(row[len(row)-1])
	}
	return out
}
