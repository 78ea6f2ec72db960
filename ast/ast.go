// Package ast defines the raw AST for kernel and helper bodies: the form
// produced by a host-language macro/builder layer before specialization
// (spec.md §4.3). Since this port embeds the DSL directly in Go rather than
// parsing a separate concrete syntax (there is no "Lua source text" to
// lex — the host *is* Go), raw AST nodes are assembled by calling the
// constructor functions in this package directly from kernel-declaration
// call sites; Position captures that call site.
package ast

import (
	"loam/relation"
	"loam/report"
	"loam/types"
)

// Node is implemented by every raw AST family (Expr, Stmt, Decl). Per
// spec.md §9's design note, dispatch over node kinds is done with a type
// switch in each pass (specializer, checker, lowerer), not a virtual method
// per node — Node only carries what every pass needs regardless of kind.
type Node interface {
	Position() *report.Position
}

// base is embedded by every concrete node to supply Position() and to
// record the call site at construction time.
type base struct {
	pos *report.Position
}

func (b base) Position() *report.Position { return b.pos }

func newBase(skip int) base {
	return base{pos: report.Here(skip + 1)}
}

// exprBase is embedded by every Expr node. It carries the node's inferred
// type, set in place by the semantic checker (spec.md §4.4's "every node
// annotated with node_type") rather than threaded through a parallel typed
// tree — the same technique the teacher's ExprBase uses for its Type()/
// SetType() pair.
type exprBase struct {
	base
	typ types.Type
}

func (e *exprBase) Type() types.Type     { return e.typ }
func (e *exprBase) SetType(t types.Type) { e.typ = t }

func newExprBase(skip int) exprBase {
	return exprBase{base: newBase(skip + 1)}
}

// RefKind tags what an Ident or Call's Func name was resolved to by the
// specializer (spec.md §4.3).
type RefKind int

const (
	RefUnresolved RefKind = iota
	RefRelation
	RefField
	RefGlobal
	RefFunction
	RefBuiltin
	RefConst
	RefLocal
)

// Ref is the specializer's resolution of one free name, stored directly on
// the Ident/Call node it annotates (spec.md §9: "a symbol map passed
// explicitly to the specializer", not ambient state — the *result* of a
// lookup is recorded on the node that triggered it).
type Ref struct {
	Kind RefKind

	Relation *relation.Relation
	Field    *relation.Field
	Global   *relation.Global
	Function *FuncDef
	Builtin  string
	Const    interface{}

	// LocalType is set when Kind == RefLocal: the type of a kernel
	// parameter or local variable, discovered during checking rather than
	// specialization (it isn't known from the environment alone).
	LocalType types.Type
}
