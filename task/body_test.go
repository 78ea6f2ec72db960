package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestRuntimeSymbolsCollectsFirstEncounteredOrderAcrossNesting exercises
// RuntimeSymbols against a body that buries its runtime calls inside a
// Branch and a CountedLoop: order must follow the walk, not any sort, and a
// repeated symbol must not duplicate.
func TestRuntimeSymbolsCollectsFirstEncounteredOrderAcrossNesting(t *testing.T) {
	body := []Instr{
		&Eval{X: &RuntimeCall{Symbol: "sqrt", Args: []Expr{&NumConst{Value: 4}}}},
		&Branch{
			Cond: &Cmp{Op: 0, Lhs: &NumConst{Value: 1}, Rhs: &NumConst{Value: 2}},
			Then: []Instr{
				&CountedLoop{
					Var:   "i",
					Lower: &NumConst{Value: 0},
					Upper: &NumConst{Value: 10},
					Body: []Instr{
						&Eval{X: &DotCall{Symbol: "dot_f64_2", Args: []Expr{&NumConst{Value: 1}, &NumConst{Value: 2}}}},
					},
				},
			},
			Else: []Instr{
				&Eval{X: &RuntimeCall{Symbol: "sqrt", Args: []Expr{&NumConst{Value: 9}}}},
			},
		},
	}

	got := RuntimeSymbols(body)
	assert.Equal(t, []string{"sqrt", "dot_f64_2"}, got)
}

// TestRuntimeSymbolsIgnoresNonRuntimeExpressions confirms a body with no
// RuntimeCall/DotCall anywhere returns an empty, not nil-panicking, slice.
func TestRuntimeSymbolsIgnoresNonRuntimeExpressions(t *testing.T) {
	body := []Instr{
		&Local{Name: "n", Init: &BinOp{Op: 0, Lhs: &NumConst{Value: 1}, Rhs: &NumConst{Value: 2}}},
		&Store{Target: &LocalRef{Name: "n"}, Value: &NumConst{Value: 3}},
	}

	assert.Empty(t, RuntimeSymbols(body))
}
