package lower

import (
	"sort"

	"loam/ast"
	"loam/common"
	"loam/phase"
	"loam/relation"
	"loam/task"
	"loam/types"
)

// buildPrivilege turns a phase.Result's per-field/per-global access modes
// into the Privilege a task must be granted (spec.md §4.7): reads, writes,
// and reduces grouped by operator, declared on the universe region.
func buildPrivilege(res *phase.Result) task.Privilege {
	priv := task.Privilege{
		Reduces:       map[common.ReduceOp][]*relation.Field{},
		GlobalReduces: map[common.ReduceOp][]*relation.Global{},
	}
	for f, pt := range res.FieldUse {
		switch {
		case pt.ReduceOp != nil:
			priv.Reduces[*pt.ReduceOp] = append(priv.Reduces[*pt.ReduceOp], f)
		case pt.Write:
			priv.Writes = append(priv.Writes, f)
		case pt.Read:
			priv.Reads = append(priv.Reads, f)
		}
	}
	for g, pt := range res.GlobalUse {
		switch {
		case pt.ReduceOp != nil:
			priv.GlobalReduces[*pt.ReduceOp] = append(priv.GlobalReduces[*pt.ReduceOp], g)
		case pt.Read:
			priv.GlobalReads = append(priv.GlobalReads, g)
		}
	}
	sortFields(priv.Reads)
	sortFields(priv.Writes)
	for op := range priv.Reduces {
		sortFields(priv.Reduces[op])
	}
	sortGlobals(priv.GlobalReads)
	return priv
}

// buildRegions collects the distinct relations a kernel's fields belong to,
// in a deterministic order, for Signature.Regions.
func buildRegions(res *phase.Result) []*relation.Relation {
	seen := map[*relation.Relation]bool{}
	var out []*relation.Relation
	for f := range res.FieldUse {
		if !seen[f.Relation] {
			seen[f.Relation] = true
			out = append(out, f.Relation)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// buildAccumulator returns the Accumulator for a kernel that reduces
// exactly one global, or nil otherwise. spec.md §4.7 only defines lowering
// for the single-reduced-global case; a kernel that reduces more than one
// global is left without an Accumulator; a caller must reject it before
// this task is ever launched (checked by phase analysis's mutual-exclusion
// rules only within a single global, not across globals).
func buildAccumulator(res *phase.Result) *task.Accumulator {
	var g *relation.Global
	var op common.ReduceOp
	count := 0
	for global, pt := range res.GlobalUse {
		if pt.ReduceOp != nil {
			count++
			g, op = global, *pt.ReduceOp
		}
	}
	if count != 1 {
		return nil
	}
	return &task.Accumulator{Global: g, Op: op, Init: identityValue(op, g.Type)}
}

// buildSignature assembles a kernel's Signature from its resolved centered
// relation and phase result. universe is fn.CenteredRelation; domain is
// nil for a whole-universe launch.
func buildSignature(fn *ast.FuncDef, domain *relation.Subset, res *phase.Result) task.Signature {
	globals := make([]*relation.Global, 0, len(res.GlobalUse))
	for g, pt := range res.GlobalUse {
		if pt.Read {
			globals = append(globals, g)
		}
	}
	sortGlobals(globals)
	return task.Signature{
		Domain:   domain,
		Universe: fn.CenteredRelation,
		Regions:  buildRegions(res),
		Globals:  globals,
	}
}

// buildHelperSignature assembles a helper's Signature: no universe/domain,
// its Args are its resolved parameter types.
func buildHelperSignature(fn *ast.FuncDef, res *phase.Result) task.Signature {
	globals := make([]*relation.Global, 0, len(res.GlobalUse))
	for g, pt := range res.GlobalUse {
		if pt.Read {
			globals = append(globals, g)
		}
	}
	sortGlobals(globals)
	return task.Signature{
		Args:    append([]types.Type(nil), fn.ParamTypes...),
		Regions: buildRegions(res),
		Globals: globals,
	}
}

func sortFields(fields []*relation.Field) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].ID < fields[j].ID })
}

func sortGlobals(globals []*relation.Global) {
	sort.Slice(globals, func(i, j int) bool { return globals[i].ID < globals[j].ID })
}
