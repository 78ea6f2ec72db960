// Package llvmref is a reference consumer of package task's IR: it lowers
// one task.Task into an illustrative LLVM IR function using
// github.com/llir/llvm, the teacher's own code-generation dependency
// (bootstrap/generate/generator.go), grounded on the same module/function/
// block-building calls without reimplementing the teacher's full expression
// generator (emitting arbitrary kernel bodies is this exercise's concrete
// backend runtime, explicitly out of scope per spec.md's non-goals).
package llvmref

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"loam/task"
	"loam/types"
)

// libmDecls is the subset of lower's builtin runtime table this reference
// backend always declares as extern symbols, enough to demonstrate that a
// Bran's body would call into libm rather than reimplement it (spec.md
// §4.7). Any additional runtime/dot symbol a specific task's lowered body
// actually calls (task.RuntimeSymbols) is declared alongside these.
var libmDecls = []string{"sqrt", "sin", "cos", "fabs", "pow", "fmin", "fmax"}

// twoArgLibm is the subset of libmDecls that take two double arguments
// rather than one.
var twoArgLibm = map[string]bool{"pow": true, "fmin": true, "fmax": true}

// EmitModule builds one LLVM module for tasks: a Germ-shaped function
// signature per task (spec.md §3's flat ABI — n_rows, one pointer per
// privileged field/global), the libm/runtime extern declarations the
// tasks' lowered bodies actually call, and a loop from 0 to n_rows whose
// body calls into those declarations once per distinct symbol used —
// enough to demonstrate a Bran's body drives the runtime rather than
// reimplement full kernel-body codegen, which is this exercise's concrete
// backend runtime and explicitly out of scope (spec.md's non-goals).
func EmitModule(tasks []*task.Task) (*ir.Module, error) {
	mod := ir.NewModule()
	decls := map[string]*ir.Func{}
	for _, name := range libmDecls {
		decls[name] = declareRuntimeFunc(mod, name, arityOf(name))
	}
	for _, t := range tasks {
		for _, sym := range task.RuntimeSymbols(t.Body) {
			if _, ok := decls[sym]; !ok {
				decls[sym] = declareRuntimeFunc(mod, sym, arityOf(sym))
			}
		}
	}

	for _, t := range tasks {
		if err := emitTask(mod, t, decls); err != nil {
			return nil, err
		}
	}
	return mod, nil
}

func arityOf(name string) int {
	if twoArgLibm[name] {
		return 2
	}
	return 1
}

func declareRuntimeFunc(mod *ir.Module, name string, arity int) *ir.Func {
	params := make([]*ir.Param, arity)
	for i := range params {
		params[i] = ir.NewParam("", lltypes.Double)
	}
	return mod.NewFunc(name, lltypes.Double, params...)
}

// emitTask appends t's function to mod: `func(n_rows i64, field0*, ...,
// global0*, ...)`, and a loop over [0, n_rows) that calls, once per
// distinct runtime/libm/dot symbol t.Body uses, into the matching extern
// declaration with placeholder arguments — a stand-in for the per-row
// argument expressions a full expression codegen would compute. Bran
// functions return nothing here since a reduced-global accumulator's
// return value is this reference backend's only variable return type, and
// synthesizing it without a real reduction codegen would be misleading.
func emitTask(mod *ir.Module, t *task.Task, decls map[string]*ir.Func) error {
	if t.IsDriver() {
		return nil
	}

	nRows := ir.NewParam("n_rows", lltypes.I64)
	params := []*ir.Param{nRows}
	for _, f := range t.Privileges.Reads {
		params = append(params, ir.NewParam(f.Name, lltypes.NewPointer(convType(f.Type))))
	}
	for _, f := range t.Privileges.Writes {
		params = append(params, ir.NewParam(f.Name, lltypes.NewPointer(convType(f.Type))))
	}
	for _, fields := range t.Privileges.Reduces {
		for _, f := range fields {
			params = append(params, ir.NewParam(f.Name, lltypes.NewPointer(convType(f.Type))))
		}
	}
	for _, g := range t.Privileges.GlobalReads {
		params = append(params, ir.NewParam(g.Name, lltypes.NewPointer(convType(g.Type))))
	}
	for _, globals := range t.Privileges.GlobalReduces {
		for _, g := range globals {
			params = append(params, ir.NewParam(g.Name, lltypes.NewPointer(convType(g.Type))))
		}
	}

	name := fmt.Sprintf("loam_bran_%s_%s_%d", t.Name, domainDiscriminator(t), t.Fn.ID)
	fn := mod.NewFunc(name, lltypes.Void, params...)
	fn.Linkage = enum.LinkageExternal

	entry := fn.NewBlock("entry")
	header := fn.NewBlock("loop.header")
	body := fn.NewBlock("loop.body")
	end := fn.NewBlock("loop.end")

	entry.NewBr(header)

	idx := header.NewPhi(ir.NewIncoming(constant.NewInt(lltypes.I64, 0), entry))
	cond := header.NewICmp(enum.IPredSLT, idx, nRows)
	header.NewCondBr(cond, body, end)

	for _, sym := range task.RuntimeSymbols(t.Body) {
		callee, ok := decls[sym]
		if !ok {
			continue
		}
		args := make([]value.Value, len(callee.Params))
		for i := range args {
			args[i] = constant.NewFloat(lltypes.Double, 0)
		}
		body.NewCall(callee, args...)
	}

	next := body.NewAdd(idx, constant.NewInt(lltypes.I64, 1))
	body.NewBr(header)
	idx.Incs = append(idx.Incs, ir.NewIncoming(next, body))

	end.NewRet(nil)
	return nil
}

// domainDiscriminator names the subset (or "all" for a whole-universe
// launch) a Bran was specialized for, so two Brans for the same kernel
// over different domains (spec.md §4.2's boundary/interior idiom) never
// collide on the generated symbol name — BranKey already keys the lowering
// cache on this same Subset name (lower.BranKey.Subset).
func domainDiscriminator(t *task.Task) string {
	if t.Signature.Domain == nil {
		return "all"
	}
	return t.Signature.Domain.Name
}

// convType maps a field/global's Loam type onto the LLVM scalar it is
// stored as; record/key/matrix-shaped fields are out of this reference
// backend's scope and fall back to a byte, since no privileged field/global
// in this domain's spec is one of those shapes (spec.md §4.1/§4.2).
func convType(t types.Type) lltypes.Type {
	prim, ok := t.(types.Primitive)
	if !ok {
		if v, ok := t.(types.Vector); ok {
			return lltypes.NewArray(uint64(v.N), convType(v.Elem))
		}
		return lltypes.I8
	}
	switch prim {
	case types.Bool:
		return lltypes.I1
	case types.I8, types.U8:
		return lltypes.I8
	case types.I16, types.U16:
		return lltypes.I16
	case types.I32, types.U32:
		return lltypes.I32
	case types.I64, types.U64:
		return lltypes.I64
	case types.F32:
		return lltypes.Float
	default:
		return lltypes.Double
	}
}
