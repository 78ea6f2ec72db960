package lower

import (
	"loam/ast"
	"loam/control"
	"loam/phase"
	"loam/relation"
	"loam/report"
	"loam/task"
)

// PhaseResults maps every kernel/helper FuncDef a control program launches
// to the phase.Result already computed for it, so LowerProgram never has to
// re-run phase analysis itself.
type PhaseResults map[*ast.FuncDef]*phase.Result

// LowerProgram lowers a recorded control program (spec.md §4.6's Recorder
// output) into a full task.Bundle: every distinct kernel/helper reached by
// a ForEach becomes its own memoized Bran, and the control statements
// become the driver task's body (spec.md §4.7's "control-program driver").
// decls are passed through unchanged in Bundle.Decls; no driver op is
// emitted for a NewGlobal, NewRelation or NewSubset (no symbol declaration,
// region allocation or partitioning). A multi-rectangle NewSubset only
// produces a warning.
func LowerProgram(caches *Caches, prog *control.Block, decls []control.Decl, results PhaseResults, backend Backend) (*task.Bundle, error) {
	for _, d := range decls {
		if ds, ok := d.(control.DeclNewSubset); ok {
			if len(ds.Subset.Rectangles) > 1 {
				report.ReportWarning(nil, "subset %q has %d rectangles; multi-rectangle partitioning is unsupported, skipping", ds.Subset.Name, len(ds.Subset.Rectangles))
			}
		}
	}

	brans := map[*task.Task]bool{}
	ops, err := lowerOps(caches, prog.Stmts, results, backend, brans)
	if err != nil {
		return nil, err
	}

	tasks := make([]*task.Task, 0, len(brans))
	for t := range brans {
		tasks = append(tasks, t)
	}

	driver := &task.Task{Name: "main", ControlBody: ops}
	return &task.Bundle{Tasks: tasks, Driver: driver, Decls: decls}, nil
}

func lowerOps(caches *Caches, stmts []control.Stmt, results PhaseResults, backend Backend, brans map[*task.Task]bool) ([]task.DriverOp, error) {
	ops := make([]task.DriverOp, 0, len(stmts))
	for _, st := range stmts {
		op, err := lowerOp(caches, st, results, backend, brans)
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func lowerOp(caches *Caches, st control.Stmt, results PhaseResults, backend Backend, brans map[*task.Task]bool) (task.DriverOp, error) {
	switch n := st.(type) {
	case *control.ForEach:
		return lowerForEach(caches, n, results, backend, brans)
	case *control.LoadField:
		return &task.FillField{Field: n.Field, Value: n.Value}, nil
	case *control.SetGlobal:
		return &task.AssignGlobal{Global: n.Global, Value: n.Value}, nil
	case *control.If:
		then, err := lowerOps(caches, n.Then.Stmts, results, backend, brans)
		if err != nil {
			return nil, err
		}
		var els []task.DriverOp
		if n.Else != nil {
			els, err = lowerOps(caches, n.Else.Stmts, results, backend, brans)
			if err != nil {
				return nil, err
			}
		}
		return &task.DriverIf{Cond: n.Cond, Then: then, Else: els}, nil
	case *control.While:
		body, err := lowerOps(caches, n.Body.Stmts, results, backend, brans)
		if err != nil {
			return nil, err
		}
		return &task.DriverWhile{Cond: n.Cond, Body: body}, nil
	default:
		return nil, report.MalformedProgram(nil, "unrecognized control statement %T", st)
	}
}

// lowerForEach implements spec.md §4.7's ForEach lowering state machine:
// NeedsDomain resolves the launch's subset (or the whole universe);
// NeedsPrivileges is already settled by LowerKernel from phase analysis;
// NeedsReduction wraps the launch as a global accumulation when the kernel
// reduces exactly one global.
func lowerForEach(caches *Caches, fe *control.ForEach, results PhaseResults, backend Backend, brans map[*task.Task]bool) (task.DriverOp, error) {
	res, ok := results[fe.Fn]
	if !ok {
		return nil, report.MalformedProgram(fe.Fn.Position(), "no phase result recorded for kernel %q", fe.Fn.Name)
	}
	bran, err := LowerKernel(caches, fe.Fn, fe.Subset, res, backend)
	if err != nil {
		return nil, err
	}
	brans[bran] = true

	op := &task.LaunchKernel{Bran: bran, Domain: fe.Subset}
	if bran.Accumulator != nil {
		op.ReduceInto = bran.Accumulator.Global
		op.ReduceOp = bran.Accumulator.Op
	}
	return op, nil
}

// RegionsFor is a small helper to enumerate the relations a driver must allocate storage for before
// launching any task against them.
func RegionsFor(decls []control.Decl) []*relation.Relation {
	var out []*relation.Relation
	for _, d := range decls {
		if dr, ok := d.(control.DeclNewRelation); ok {
			out = append(out, dr.Rel)
		}
	}
	return out
}
