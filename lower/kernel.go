package lower

import (
	"loam/ast"
	"loam/common"
	"loam/phase"
	"loam/relation"
	"loam/report"
	"loam/task"
	"loam/types"
)

// subsetDomainID returns the BranKey domain fields for a launch: the
// universe's own ID in both cases, plus the subset's name for a subset
// launch ("" for a whole-universe launch). The name is what distinguishes
// the two (two subsets of the same relation never share a name, per
// relation.Relation.Subsets being keyed by name).
func subsetDomainID(universe *relation.Relation, subset *relation.Subset) (common.ID, string) {
	if subset == nil {
		return universe.ID, ""
	}
	return universe.ID, subset.Name
}

// LowerKernel lowers a checked, phase-analyzed kernel specialization into
// its Bran (spec.md §4.7), memoized on (kernel, relation|subset, backend)
// per spec.md §5/§9. A kernel that inserts or deletes rows is only
// definable on the CPU backend (spec.md §5's defrag/insert-cursor logic
// has no GPU-portable answer in this exercise's scope).
func LowerKernel(caches *Caches, fn *ast.FuncDef, domain *relation.Subset, res *phase.Result, backend Backend) (*task.Task, error) {
	if !fn.IsKernel {
		return nil, report.MalformedProgram(fn.Position(), "LowerKernel called on helper %q", fn.Name)
	}
	universe := fn.CenteredRelation
	if universe == nil {
		return nil, report.MalformedProgram(fn.Position(), "kernel %q has no centered relation", fn.Name)
	}
	domID, subsetName := subsetDomainID(universe, domain)
	key := BranKey{KernelID: fn.ID, DomainID: domID, Subset: subsetName, Backend: backend}
	if cached, ok := caches.getBran(key); ok {
		return cached, nil
	}

	if backend != CPU && (len(res.Effects.Inserts) > 0 || len(res.Effects.Deletes) > 0) {
		return nil, report.UnsupportedBackend(fn.Position(), "kernel %q performs Insert/Delete, which is CPU-only", fn.Name)
	}

	body, err := lowerBody(fn)
	if err != nil {
		return nil, err
	}

	sig := buildSignature(fn, domain, res)
	priv := buildPrivilege(res)
	t := &task.Task{
		Name:        fn.Name,
		Fn:          fn,
		Signature:   sig,
		Privileges:  priv,
		Body:        body,
		Accumulator: buildAccumulator(res),
	}
	caches.putBran(key, t)
	return t, nil
}

// LowerHelper lowers a checked, phase-analyzed helper call into its task,
// memoized on (function, argument types, caller domain) per spec.md §9's
// fix for the source's under-keyed helper cache: a helper's specialized
// body can close over host-environment globals that differ per call site,
// so caching on function id alone would return the wrong closure to a
// different caller.
func LowerHelper(caches *Caches, fn *ast.FuncDef, res *phase.Result, argTypes []types.Type, callerDom common.ID) (*task.Task, error) {
	if fn.IsKernel {
		return nil, report.MalformedProgram(fn.Position(), "LowerHelper called on kernel %q", fn.Name)
	}
	key := HelperKey{FunctionID: fn.ID, ArgTypes: argTypesKey(argTypes), CallerDom: callerDom}
	if cached, ok := caches.getHelper(key); ok {
		return cached, nil
	}

	body, err := lowerBody(fn)
	if err != nil {
		return nil, err
	}

	t := &task.Task{
		Name:      fn.Name,
		Fn:        fn,
		Signature: buildHelperSignature(fn, res),
		Body:      body,
	}
	caches.putHelper(key, t)
	return t, nil
}
