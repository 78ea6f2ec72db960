package ast

import (
	"loam/common"
	"loam/relation"
	"loam/types"
)

// Expr is a raw expression node. Every Expr carries a mutable inferred
// type, filled in by the semantic checker (spec.md §4.4).
type Expr interface {
	Node
	Type() types.Type
	SetType(types.Type)
	exprNode()
}

// Ident is a free identifier to be resolved by the specializer against the
// host environment (spec.md §4.3): a relation, field, global, function,
// builtin, or local variable. Resolved is nil until specialization runs.
type Ident struct {
	exprBase
	Name     string
	Resolved *Ref
}

func NewIdent(name string) *Ident { return &Ident{exprBase: newExprBase(1), Name: name} }
func (*Ident) exprNode()          {}

// FieldAccess is `k.f`: access of field f through key expression Obj
// (spec.md §4.4). When Obj is not the kernel's own parameter, this must be
// wrapped in an Affine to be legal (stencil access).
type FieldAccess struct {
	exprBase
	Obj      Expr
	Field    string
	Resolved *Ref // the relation.Field this resolves to, filled by check
}

func NewFieldAccess(obj Expr, field string) *FieldAccess {
	return &FieldAccess{exprBase: newExprBase(1), Obj: obj, Field: field}
}
func (*FieldAccess) exprNode() {}

// Affine is a key transformation `Affine(targetRel, M, base)`: M is a
// padded diagonal translation matrix (identity rotation + translation);
// spec.md §4.4 rejects any other off-center access pattern at check time.
// Matrix is stored as R rows of R+1 coefficients each (row-major); only the last column (the translation vector) and an
// identity diagonal are legal (checked in package check).
type Affine struct {
	exprBase
	TargetRel string
	Matrix    [][]float64
	Base      Expr

	// ResolvedRel is TargetRel looked up, filled in by check.
	ResolvedRel *relation.Relation
}

func NewAffine(targetRel string, matrix [][]float64, base Expr) *Affine {
	return &Affine{exprBase: newExprBase(1), TargetRel: targetRel, Matrix: matrix, Base: base}
}
func (*Affine) exprNode() {}

// UnsafeRow is the UNSAFE_ROW(id, rel) stencil macro: a typed key
// constructor trusted by the phase analyzer only where it is provably
// within bounds or where the user accepts unchecked access (spec.md §4.2).
type UnsafeRow struct {
	exprBase
	Rel string
	ID  Expr

	// ResolvedRel is Rel looked up, filled in by check.
	ResolvedRel *relation.Relation
}

func NewUnsafeRow(rel string, id Expr) *UnsafeRow {
	return &UnsafeRow{exprBase: newExprBase(1), Rel: rel, ID: id}
}
func (*UnsafeRow) exprNode() {}

// BinaryOp is a binary arithmetic expression.
type BinaryOp struct {
	exprBase
	Op         common.ArithOp
	Lhs, Rhs   Expr
	IsExponent bool // `^`; not defined on vectors (spec.md §4.1)
}

func NewBinaryOp(op common.ArithOp, lhs, rhs Expr) *BinaryOp {
	return &BinaryOp{exprBase: newExprBase(1), Op: op, Lhs: lhs, Rhs: rhs}
}
func (*BinaryOp) exprNode() {}

// UnaryOp is a unary arithmetic expression (only negation, spec.md §3).
type UnaryOp struct {
	exprBase
	Operand Expr
}

func NewUnaryOp(operand Expr) *UnaryOp {
	return &UnaryOp{exprBase: newExprBase(1), Operand: operand}
}
func (*UnaryOp) exprNode() {}

// Compare is a comparison expression.
type Compare struct {
	exprBase
	Op       common.CompareOp
	Lhs, Rhs Expr
}

func NewCompare(op common.CompareOp, lhs, rhs Expr) *Compare {
	return &Compare{exprBase: newExprBase(1), Op: op, Lhs: lhs, Rhs: rhs}
}
func (*Compare) exprNode() {}

// Logical is And/Or/Not over boolean sub-expressions.
type Logical struct {
	exprBase
	Op       LogicalOp
	Lhs, Rhs Expr // Rhs is nil for Not
}

type LogicalOp int

const (
	LAnd LogicalOp = iota
	LOr
	LNot
)

func NewLogical(op LogicalOp, lhs, rhs Expr) *Logical {
	return &Logical{exprBase: newExprBase(1), Op: op, Lhs: lhs, Rhs: rhs}
}
func (*Logical) exprNode() {}

// NumberLit is a numeric literal. IsInt distinguishes an integer literal
// (typed i64 by the checker) from a float literal (typed f64); both store
// their value as a float64 since the host has no separate integer literal
// syntax to preserve.
type NumberLit struct {
	exprBase
	Value float64
	IsInt bool
}

func NewNumberLit(v float64) *NumberLit {
	return &NumberLit{exprBase: newExprBase(1), Value: v}
}

func NewIntLit(v int64) *NumberLit {
	return &NumberLit{exprBase: newExprBase(1), Value: float64(v), IsInt: true}
}
func (*NumberLit) exprNode() {}

// BoolLit is a boolean literal.
type BoolLit struct {
	exprBase
	Value bool
}

func NewBoolLit(v bool) *BoolLit { return &BoolLit{exprBase: newExprBase(1), Value: v} }
func (*BoolLit) exprNode()       {}

// VectorLit is `{e0, e1, ...}` constructing a vector or matrix row.
type VectorLit struct {
	exprBase
	Elems []Expr
}

func NewVectorLit(elems ...Expr) *VectorLit {
	return &VectorLit{exprBase: newExprBase(1), Elems: elems}
}
func (*VectorLit) exprNode() {}

// Call invokes a builtin (spec.md §4.7) or a helper function by name. The
// specializer resolves Func to a Builtin or Function binding.
type Call struct {
	exprBase
	Func     string
	Args     []Expr
	Resolved *Ref
}

func NewCall(fn string, args ...Expr) *Call {
	return &Call{exprBase: newExprBase(1), Func: fn, Args: args}
}
func (*Call) exprNode() {}

// KeyDecomp is one of `id/xid/yid/zid` applied to a key expression
// (spec.md §4.7).
type KeyDecomp struct {
	exprBase
	Which string // "id", "xid", "yid", "zid"
	Key   Expr
}

func NewKeyDecomp(which string, key Expr) *KeyDecomp {
	return &KeyDecomp{exprBase: newExprBase(1), Which: which, Key: key}
}
func (*KeyDecomp) exprNode() {}
