// Package control implements spec.md §4.6: the control-IR recorder. Host
// code drives relations, fields, globals and kernels through a small set of
// DSL-embedded statements (IF/ELSE/WHILE/END/FOR_EACH/LOAD_FIELD/SET_GLOBAL/
// NEW_*); the Recorder captures those calls into a serializable Decl/Stmt
// tree rather than executing them directly.
package control

import (
	"loam/ast"
	"loam/common"
	"loam/relation"
	"loam/report"
)

// Decl is one of the top-level declarations a control program issues before
// (or interleaved with) its statement stream: NewField, NewFunction,
// NewGlobal, NewRelation, NewSubset (spec.md §3).
type Decl interface{ declNode() }

type DeclNewRelation struct{ Rel *relation.Relation }
type DeclNewField struct{ Field *relation.Field }
type DeclNewFunction struct{ Function *ast.FuncDef }
type DeclNewGlobal struct {
	Global *relation.Global
	Init   ExprConst
}
type DeclNewSubset struct {
	Subset     *relation.Subset
	Rectangles ExprConst
}

func (DeclNewRelation) declNode() {}
func (DeclNewField) declNode()    {}
func (DeclNewFunction) declNode() {}
func (DeclNewGlobal) declNode()   {}
func (DeclNewSubset) declNode()   {}

// ExprConst is a finite, recursively-nested compile-time constant: a bool, a
// float64, or a slice of ExprConst (spec.md §3's `ExprConst[N]`).
type ExprConst interface{}

// Stmt is one recorded imperative statement (spec.md §3).
type Stmt interface{ stmtNode() }

type Block struct{ Stmts []Stmt }
type ForEach struct {
	Fn     *ast.FuncDef
	Rel    *relation.Relation
	Subset *relation.Subset // nil when the kernel launches over the universe
}
type If struct {
	Cond Cond
	Then *Block
	Else *Block // nil if no ELSE was recorded
}
type LoadField struct {
	Field *relation.Field
	Value ExprConst
}
type SetGlobal struct {
	Global *relation.Global
	Value  Expr
}
type While struct {
	Cond Cond
	Body *Block
}

func (*Block) stmtNode()     {}
func (*ForEach) stmtNode()   {}
func (*If) stmtNode()        {}
func (*LoadField) stmtNode() {}
func (*SetGlobal) stmtNode() {}
func (*While) stmtNode()     {}

// Cond is a boolean control-program condition (spec.md §3).
type Cond interface{ condNode() }

type CondLiteral struct{ Value bool }
type CondAnd struct{ Lhs, Rhs Cond }
type CondOr struct{ Lhs, Rhs Cond }
type CondNot struct{ Operand Cond }
type CondCompare struct {
	Op       common.CompareOp
	Lhs, Rhs Expr
}

func (CondLiteral) condNode() {}
func (CondAnd) condNode()     {}
func (CondOr) condNode()      {}
func (CondNot) condNode()     {}
func (CondCompare) condNode() {}

// Expr is a control-program scalar expression (spec.md §3): a constant, a
// global read, or arithmetic over those.
type Expr interface{ exprNode() }

type ExprValue struct{ Value ExprConst }
type ExprGetGlobal struct{ Global *relation.Global }
type ExprBinaryOp struct {
	Op       common.ArithOp
	Lhs, Rhs Expr
}
type ExprUnaryOp struct{ Operand Expr }

func (ExprValue) exprNode()     {}
func (ExprGetGlobal) exprNode() {}
func (ExprBinaryOp) exprNode()  {}
func (ExprUnaryOp) exprNode()   {}

// blockKind tags which wrapper an openBlock is building.
type blockKind int

const (
	blockIf blockKind = iota
	blockWhile
)

// openBlock is one entry of the Recorder's blocks stack: an in-progress
// If or While wrapper waiting for its body scope(s) to close.
type openBlock struct {
	kind      blockKind
	ifStmt    *If
	whileStmt *While
	elseSeen  bool
}

// Recorder implements the exact state machine of spec.md §4.6: a scopes
// stack of statement lists and a blocks stack of open If/While wrappers.
// IF/WHILE push a wrapper and a new scope; ELSE closes the current scope as
// the wrapper's thenBlock and opens a new one; END pops the wrapper,
// installs the current scope as thenBlock/elseBlock/body, and appends the
// finished wrapper to the scope below.
type Recorder struct {
	decls  []Decl
	scopes [][]Stmt
	blocks []*openBlock
}

// New returns a Recorder ready to record a fresh control program.
func New() *Recorder {
	return &Recorder{scopes: [][]Stmt{{}}}
}

func (r *Recorder) top() []Stmt { return r.scopes[len(r.scopes)-1] }

func (r *Recorder) pushScope() { r.scopes = append(r.scopes, nil) }

func (r *Recorder) popScope() []Stmt {
	n := len(r.scopes) - 1
	s := r.scopes[n]
	r.scopes = r.scopes[:n]
	return s
}

func (r *Recorder) appendToTop(st Stmt) {
	n := len(r.scopes) - 1
	r.scopes[n] = append(r.scopes[n], st)
}

// -----------------------------------------------------------------------------
// Decls

func (r *Recorder) NewRelation(rel *relation.Relation) {
	r.decls = append(r.decls, DeclNewRelation{Rel: rel})
}

func (r *Recorder) NewField(f *relation.Field) {
	r.decls = append(r.decls, DeclNewField{Field: f})
}

func (r *Recorder) NewFunction(fn *ast.FuncDef) {
	r.decls = append(r.decls, DeclNewFunction{Function: fn})
}

func (r *Recorder) NewGlobal(g *relation.Global, init ExprConst) {
	r.decls = append(r.decls, DeclNewGlobal{Global: g, Init: init})
}

func (r *Recorder) NewSubset(s *relation.Subset, rectangles ExprConst) {
	r.decls = append(r.decls, DeclNewSubset{Subset: s, Rectangles: rectangles})
}

// Decls returns the declarations recorded so far, in issue order.
func (r *Recorder) Decls() []Decl { return r.decls }

// -----------------------------------------------------------------------------
// Stmts

// ForEach records a kernel launch over rel (or subset, if non-nil).
func (r *Recorder) ForEach(fn *ast.FuncDef, rel *relation.Relation, subset *relation.Subset) {
	r.appendToTop(&ForEach{Fn: fn, Rel: rel, Subset: subset})
}

// LoadField records a constant fill of a field.
func (r *Recorder) LoadField(f *relation.Field, value ExprConst) {
	r.appendToTop(&LoadField{Field: f, Value: value})
}

// SetGlobal records an assignment to a global from a control-program
// expression.
func (r *Recorder) SetGlobal(g *relation.Global, value Expr) {
	r.appendToTop(&SetGlobal{Global: g, Value: value})
}

// If opens an If wrapper on cond and pushes a fresh scope for its
// then-branch.
func (r *Recorder) If(cond Cond) {
	r.blocks = append(r.blocks, &openBlock{kind: blockIf, ifStmt: &If{Cond: cond}})
	r.pushScope()
}

// While opens a While wrapper on cond and pushes a fresh scope for its
// body.
func (r *Recorder) While(cond Cond) {
	r.blocks = append(r.blocks, &openBlock{kind: blockWhile, whileStmt: &While{Cond: cond}})
	r.pushScope()
}

// Else closes the current scope as the top If's then-branch and opens a
// fresh scope for the else-branch. It is a MalformedProgram error outside
// an open If, or after a second Else on the same If.
func (r *Recorder) Else() error {
	if len(r.blocks) == 0 {
		return report.MalformedProgram(nil, "ELSE with no matching IF")
	}
	b := r.blocks[len(r.blocks)-1]
	if b.kind != blockIf || b.elseSeen {
		return report.MalformedProgram(nil, "ELSE with no matching IF")
	}
	b.ifStmt.Then = &Block{Stmts: r.popScope()}
	b.elseSeen = true
	r.pushScope()
	return nil
}

// End closes the innermost open If/While: it pops the wrapper, installs the
// just-closed scope as the wrapper's outstanding branch/body, and appends
// the finished statement to the scope now on top.
func (r *Recorder) End() error {
	if len(r.blocks) == 0 {
		return report.MalformedProgram(nil, "END with no matching IF/WHILE")
	}
	n := len(r.blocks) - 1
	b := r.blocks[n]
	r.blocks = r.blocks[:n]

	scope := &Block{Stmts: r.popScope()}
	var finished Stmt
	switch b.kind {
	case blockIf:
		if !b.elseSeen {
			b.ifStmt.Then = scope
		} else {
			b.ifStmt.Else = scope
		}
		finished = b.ifStmt
	case blockWhile:
		b.whileStmt.Body = scope
		finished = b.whileStmt
	}
	r.appendToTop(finished)
	return nil
}

// Program returns the finished statement tree. It is an error to call
// Program with any If/While still open.
func (r *Recorder) Program() (*Block, error) {
	if len(r.blocks) != 0 {
		return nil, report.MalformedProgram(nil, "control program ended with %d block(s) still open", len(r.blocks))
	}
	if len(r.scopes) != 1 {
		return nil, report.MalformedProgram(nil, "control program has unbalanced scopes")
	}
	return &Block{Stmts: r.top()}, nil
}
