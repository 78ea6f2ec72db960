package task

import (
	"loam/ast"
	"loam/common"
	"loam/relation"
)

// Instr is one lowered kernel/helper body statement (spec.md §4.7's "for k
// in domain do <lowered kernel body> end"): the form LowerKernel/LowerHelper
// produce by walking a checked ast.Block, with every stencil access,
// builtin call, and key decomposition resolved to something a backend can
// consume directly instead of re-deriving from the raw AST. Dispatch is a
// type switch per backend, mirroring DriverOp (task.go) rather than a per-node
// visitor method.
type Instr interface{ instrNode() }

// Local declares a kernel/helper-local variable, lowered from ast.LocalDecl.
type Local struct {
	Name string
	Init Expr
}

// Store is a field or local write, lowered from ast.Assign.
type Store struct {
	Target Expr
	Value  Expr
}

// Reduce is a reduction into a global or field, lowered from
// ast.ReduceAssign.
type Reduce struct {
	Target Expr
	Op     common.ReduceOp
	Value  Expr
}

// Branch is lowered from ast.If; elseifs are already flattened into nested
// Branch values inside Else by the raw AST, so lowering just walks both
// arms.
type Branch struct {
	Cond Expr
	Then []Instr
	Else []Instr
}

// CountedLoop is lowered from ast.NumericFor.
type CountedLoop struct {
	Var          string
	Lower, Upper Expr
	Body         []Instr
}

// InsertRow is lowered from ast.Insert: Fields is resolved to concrete
// relation.Field columns in declaration order.
type InsertRow struct {
	Rel    *relation.Relation
	Fields []*relation.Field
	Values []Expr
}

// DeleteRow is lowered from ast.Delete.
type DeleteRow struct {
	Rel *relation.Relation
	Key Expr
}

// Exit is lowered from ast.Return; Value is nil for a bare return.
type Exit struct {
	Value Expr
}

// Eval is an expression lowered for its side effect alone (e.g. `assert`),
// lowered from ast.ExprStmt.
type Eval struct {
	X Expr
}

func (*Local) instrNode()       {}
func (*Store) instrNode()       {}
func (*Reduce) instrNode()      {}
func (*Branch) instrNode()      {}
func (*CountedLoop) instrNode() {}
func (*InsertRow) instrNode()   {}
func (*DeleteRow) instrNode()   {}
func (*Exit) instrNode()        {}
func (*Eval) instrNode()        {}

// Expr is a lowered kernel/helper body expression. Plain scalar arithmetic
// and comparisons carry straight over from ast (BinOp/Cmp/Bool/NumConst/
// BoolConst/VecConst); what actually changes shape are the three forms
// spec.md §4.7 calls out as needing resolution at lowering time: field
// access through a stencil offset, builtin/runtime calls, and key
// decomposition.
type Expr interface{ exprInstr() }

// LocalRef reads a kernel/helper-local variable or the kernel's own
// parameter (both resolve through ast.RefLocal; the parameter is simply the
// local the specializer seeds before the body runs).
type LocalRef struct {
	Name string
}

// GlobalRef reads a global by value, lowered from an ast.Ident resolved to
// ast.RefGlobal.
type GlobalRef struct {
	Global *relation.Global
}

// NamedFieldRef reads a field bound directly into the host environment by
// name (env.BindField) rather than reached through a key expression;
// lowered from an ast.Ident resolved to ast.RefField.
type NamedFieldRef struct {
	Field *relation.Field
}

// FieldRead is `key.f`, lowered from ast.FieldAccess: Key is a LocalRef for
// a centered access or a StencilKey for an off-center one.
type FieldRead struct {
	Field *relation.Field
	Key   Expr
}

// StencilKey is a resolved Affine: Translation is the compile-time-known
// offset vector (spec.md §4.4's identity-diagonal-plus-translation matrix),
// applied to Base at run time the same way relation.GridRelation.Neighbor
// applies it (see lower.ResolveAffine).
type StencilKey struct {
	Rel         *relation.Relation
	Translation []int64
	Base        Expr
}

// RowKey is a resolved UNSAFE_ROW(id, rel).
type RowKey struct {
	Rel *relation.Relation
	ID  Expr
}

// BinOp is a lowered ast.BinaryOp.
type BinOp struct {
	Op         common.ArithOp
	Lhs, Rhs   Expr
	IsExponent bool
}

// Neg is a lowered ast.UnaryOp.
type Neg struct {
	Operand Expr
}

// Cmp is a lowered ast.Compare.
type Cmp struct {
	Op       common.CompareOp
	Lhs, Rhs Expr
}

// Bool is a lowered ast.Logical.
type Bool struct {
	Op       ast.LogicalOp
	Lhs, Rhs Expr // Rhs is nil for Not
}

// NumConst is a lowered ast.NumberLit.
type NumConst struct {
	Value float64
	IsInt bool
}

// BoolConst is a lowered ast.BoolLit.
type BoolConst struct {
	Value bool
}

// VecConst is a lowered ast.VectorLit.
type VecConst struct {
	Elems []Expr
}

// RuntimeCall is a builtin lowered to a call into the runtime support
// library (spec.md §4.7's builtins table): Symbol is the libm/runtime
// C name LowerBuiltinCall resolved it to.
type RuntimeCall struct {
	Symbol string
	Args   []Expr
}

// DotCall is `dot(a, b)`, lowered to a call into the memoized per-(T,N)
// runtime helper lower.DotSymbol generates.
type DotCall struct {
	Symbol string
	Args   []Expr
}

// Rand is `rand()`.
type Rand struct{}

// Assert is `assert(cond)`.
type Assert struct {
	Cond Expr
}

// KeyExtract is one of `id/xid/yid/zid` applied to a key expression,
// lowered from ast.KeyDecomp. Axis is -1 for id (the flat key itself), 0-2
// for xid/yid/zid.
type KeyExtract struct {
	Axis int
	Key  Expr
}

// HelperCall invokes a helper by name, lowered from an ast.Call resolved to
// ast.RefFunction. The callee is named rather than eagerly resolved to a
// *Task: a kernel body may call a helper before that helper's own Bran is
// built, so resolution to a concrete Task happens at helper-cache lookup
// time (see lower.Caches), not during body lowering.
type HelperCall struct {
	Name string
	Args []Expr
}

func (*LocalRef) exprInstr()      {}
func (*GlobalRef) exprInstr()     {}
func (*NamedFieldRef) exprInstr() {}
func (*FieldRead) exprInstr()     {}
func (*StencilKey) exprInstr()    {}
func (*RowKey) exprInstr()        {}
func (*BinOp) exprInstr()         {}
func (*Neg) exprInstr()           {}
func (*Cmp) exprInstr()           {}
func (*Bool) exprInstr()          {}
func (*NumConst) exprInstr()      {}
func (*BoolConst) exprInstr()     {}
func (*VecConst) exprInstr()      {}
func (*RuntimeCall) exprInstr()   {}
func (*DotCall) exprInstr()       {}
func (*Rand) exprInstr()          {}
func (*Assert) exprInstr()        {}
func (*KeyExtract) exprInstr()    {}
func (*HelperCall) exprInstr()    {}

// RuntimeSymbols walks body and returns the distinct runtime/libm/dot
// symbols it calls, in first-encountered order. A backend uses this to
// declare exactly the extern symbols a Bran's body needs rather than a
// fixed guess.
func RuntimeSymbols(body []Instr) []string {
	var syms []string
	seen := map[string]bool{}
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			syms = append(syms, s)
		}
	}

	var walkExpr func(Expr)
	walkExpr = func(e Expr) {
		switch n := e.(type) {
		case nil:
		case *RuntimeCall:
			add(n.Symbol)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *DotCall:
			add(n.Symbol)
			for _, a := range n.Args {
				walkExpr(a)
			}
		case *Assert:
			walkExpr(n.Cond)
		case *BinOp:
			walkExpr(n.Lhs)
			walkExpr(n.Rhs)
		case *Neg:
			walkExpr(n.Operand)
		case *Cmp:
			walkExpr(n.Lhs)
			walkExpr(n.Rhs)
		case *Bool:
			walkExpr(n.Lhs)
			walkExpr(n.Rhs)
		case *VecConst:
			for _, el := range n.Elems {
				walkExpr(el)
			}
		case *FieldRead:
			walkExpr(n.Key)
		case *StencilKey:
			walkExpr(n.Base)
		case *RowKey:
			walkExpr(n.ID)
		case *KeyExtract:
			walkExpr(n.Key)
		case *HelperCall:
			for _, a := range n.Args {
				walkExpr(a)
			}
		}
	}

	var walk func([]Instr)
	walk = func(instrs []Instr) {
		for _, in := range instrs {
			switch n := in.(type) {
			case *Local:
				walkExpr(n.Init)
			case *Store:
				walkExpr(n.Target)
				walkExpr(n.Value)
			case *Reduce:
				walkExpr(n.Target)
				walkExpr(n.Value)
			case *Branch:
				walkExpr(n.Cond)
				walk(n.Then)
				walk(n.Else)
			case *CountedLoop:
				walkExpr(n.Lower)
				walkExpr(n.Upper)
				walk(n.Body)
			case *InsertRow:
				for _, v := range n.Values {
					walkExpr(v)
				}
			case *DeleteRow:
				walkExpr(n.Key)
			case *Exit:
				walkExpr(n.Value)
			case *Eval:
				walkExpr(n.X)
			}
		}
	}
	walk(body)
	return syms
}
