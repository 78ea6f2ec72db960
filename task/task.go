// Package task implements the task-graph IR spec.md §4.7 lowers into:
// per-kernel-specialization Task values (signature, privileges, body) and
// the Bundle that collects them alongside the control-program driver task.
package task

import (
	"loam/ast"
	"loam/common"
	"loam/control"
	"loam/relation"
	"loam/types"
)

// Signature is a task's call contract (spec.md §4.7): `(domain, universe,
// args..., regions..., globals...)`. Domain is nil when the launch covers
// the whole universe; Universe is nil for a helper task, which is never
// launched over a domain at all.
type Signature struct {
	Domain   *relation.Subset
	Universe *relation.Relation
	Args     []types.Type
	Regions  []*relation.Relation
	Globals  []*relation.Global
}

// Privilege is the set of region accesses a task is granted, computed from
// phase analysis and declared on the universe region, never on a subset
// (spec.md §4.7).
type Privilege struct {
	Reads   []*relation.Field
	Writes  []*relation.Field
	Reduces map[common.ReduceOp][]*relation.Field

	GlobalReads   []*relation.Global
	GlobalReduces map[common.ReduceOp][]*relation.Global
}

// Germ is the flat ABI record passed from the driver to an emitted task
// (spec.md §3): n_rows, optional subset selectors, an optional insert
// cursor, and one pointer per used field/global. It is derived
// mechanically from a Signature; nothing about its layout is decided by
// the kernel author.
type Germ struct {
	NRows uint64

	// UsesBoolmask/UsesIndices mirror relation.Subset's own representation
	// choice (spec.md §4.3): at most one is true, and only when Domain is
	// a subset.
	UsesBoolmask bool
	UsesIndices  bool

	// InsertWrite is the write-cursor row offset passed to a task that
	// performs an Insert (spec.md §5); zero/unused otherwise.
	InsertWrite uint64

	FieldPtrs  []*relation.Field
	GlobalPtrs []*relation.Global
}

// NewGerm derives a Bran's Germ from its Signature and Privilege and the
// concrete row count of the launch (the universe's LogicalSize for a
// whole-universe launch, or the subset's materialized size otherwise). Only
// fields the Privilege actually names get a pointer slot: an unused column
// of a used region never crosses the ABI.
func NewGerm(sig Signature, priv Privilege, nRows uint64) Germ {
	g := Germ{NRows: nRows}
	if sig.Domain != nil {
		g.UsesBoolmask = sig.Domain.UsesBoolmask()
		g.UsesIndices = sig.Domain.UsesIndices()
	}
	g.FieldPtrs = append(g.FieldPtrs, priv.Reads...)
	g.FieldPtrs = append(g.FieldPtrs, priv.Writes...)
	for _, fields := range priv.Reduces {
		g.FieldPtrs = append(g.FieldPtrs, fields...)
	}
	g.GlobalPtrs = append(g.GlobalPtrs, priv.GlobalReads...)
	for _, globals := range priv.GlobalReduces {
		g.GlobalPtrs = append(g.GlobalPtrs, globals...)
	}
	return g
}

// Accumulator describes a task's single reduced-global return value
// (spec.md §4.7): the body declares a local initialized to Op's identity,
// reduces into it, and returns it.
type Accumulator struct {
	Global *relation.Global
	Op     common.ReduceOp
	Init   float64
}

// DriverOp is one lowered control-program operation inside the driver
// task's body (spec.md §4.7's "control-program driver" bullets): a kernel
// launch resolved to its Bran, a field fill, a global assignment, or a
// structured if/while wrapping a nested sequence of DriverOps.
type DriverOp interface{ driverOp() }

// LaunchKernel is a lowered control.ForEach: Bran names the already-emitted
// kernel Task; Domain narrows the launch to a subset, nil for the whole
// universe (spec.md §4.7's NeedsDomain step). ReduceInto is set when the
// kernel reduces exactly one global (NeedsReduction): the driver assigns
// the launch's return value into it with ReduceOp instead of discarding it.
type LaunchKernel struct {
	Bran       *Task
	Domain     *relation.Subset
	ReduceInto *relation.Global
	ReduceOp   common.ReduceOp
}

// FillField is a lowered control.LoadField.
type FillField struct {
	Field *relation.Field
	Value control.ExprConst
}

// AssignGlobal is a lowered control.SetGlobal.
type AssignGlobal struct {
	Global *relation.Global
	Value  control.Expr
}

// DriverIf is a lowered control.If.
type DriverIf struct {
	Cond control.Cond
	Then []DriverOp
	Else []DriverOp
}

// DriverWhile is a lowered control.While.
type DriverWhile struct {
	Cond control.Cond
	Body []DriverOp
}

func (*LaunchKernel) driverOp() {}
func (*FillField) driverOp()    {}
func (*AssignGlobal) driverOp() {}
func (*DriverIf) driverOp()     {}
func (*DriverWhile) driverOp()  {}

// Task is one emitted task: a loop over Signature.Domain (or Universe) for
// a kernel, a plain call body for a helper, or (when Fn is nil) the
// synthesized control-program driver, whose body is a DriverOp sequence
// rather than a lowered kernel body.
type Task struct {
	Name        string
	Fn          *ast.FuncDef
	Signature   Signature
	Privileges  Privilege
	Body        []Instr
	ControlBody []DriverOp
	Accumulator *Accumulator
}

// IsDriver reports whether t is the synthesized control-program driver task
// (it has no source FuncDef).
func (t *Task) IsDriver() bool { return t.Fn == nil }

// Bundle is the whole emitted task graph: every kernel/helper task plus the
// one driver task sequencing launches, reductions, fills, and partitions.
// Decls carries the control program's declarations (spec.md §3) so a
// downstream backend knows what storage to allocate before the driver's
// first op runs.
type Bundle struct {
	Tasks  []*Task
	Driver *Task
	Decls  []control.Decl
}
