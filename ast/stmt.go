package ast

import "loam/common"

// Stmt is a raw statement node inside a kernel/helper body.
type Stmt interface {
	Node
	stmtNode()
}

// Block is an ordered sequence of statements.
type Block struct {
	base
	Stmts []Stmt
}

func NewBlock(stmts ...Stmt) *Block { return &Block{base: newBase(1), Stmts: stmts} }
func (*Block) stmtNode()            {}

// LocalDecl declares a kernel/helper-local variable.
type LocalDecl struct {
	base
	Name string
	Init Expr
}

func NewLocalDecl(name string, init Expr) *LocalDecl {
	return &LocalDecl{base: newBase(1), Name: name, Init: init}
}
func (*LocalDecl) stmtNode() {}

// Assign is `k.f = e` (a field write) or `local = e` (a local rebind).
type Assign struct {
	base
	Target Expr
	Value  Expr
}

func NewAssign(target, value Expr) *Assign { return &Assign{base: newBase(1), Target: target, Value: value} }
func (*Assign) stmtNode()                  {}

// ReduceAssign is `g +=|-=|...= e` or `k.f +=|...= e`: a reduction into a
// global or field (spec.md §4.4/§4.5).
type ReduceAssign struct {
	base
	Target Expr
	Op     common.ReduceOp
	Value  Expr
}

func NewReduceAssign(target Expr, op common.ReduceOp, value Expr) *ReduceAssign {
	return &ReduceAssign{base: newBase(1), Target: target, Op: op, Value: value}
}
func (*ReduceAssign) stmtNode() {}

// If is `if/elseif/else`. Elseifs are represented as a nested If in Else.
type If struct {
	base
	Cond Expr
	Then *Block
	Else Stmt // *Block, *If, or nil
}

func NewIf(cond Expr, then *Block, els Stmt) *If {
	return &If{base: newBase(1), Cond: cond, Then: then, Else: els}
}
func (*If) stmtNode() {}

// NumericFor is a kernel-local counted loop: `for i = lower, upper do ...`.
// spec.md §9 flags the source's lowering bug of reusing `lower` as both
// bounds; this raw node already carries two distinct fields so the bug has
// nowhere to reappear.
type NumericFor struct {
	base
	Var          string
	Lower, Upper Expr
	Body         *Block
}

func NewNumericFor(v string, lower, upper Expr, body *Block) *NumericFor {
	return &NumericFor{base: newBase(1), Var: v, Lower: lower, Upper: upper, Body: body}
}
func (*NumericFor) stmtNode() {}

// Insert records a row insertion against a live-mask relation.
type Insert struct {
	base
	Rel    string
	Fields []string
	Values []Expr
}

func NewInsert(rel string, fields []string, values []Expr) *Insert {
	return &Insert{base: newBase(1), Rel: rel, Fields: fields, Values: values}
}
func (*Insert) stmtNode() {}

// Delete records a row deletion against a live-mask relation, keyed by the
// kernel parameter (the row being visited).
type Delete struct {
	base
	Rel string
	Key Expr
}

func NewDelete(rel string, key Expr) *Delete { return &Delete{base: newBase(1), Rel: rel, Key: key} }
func (*Delete) stmtNode()                    {}

// Return is a helper function's return statement; kernels never return a
// value (spec.md §4.4).
type Return struct {
	base
	Value Expr // nil for a bare return
}

func NewReturn(value Expr) *Return { return &Return{base: newBase(1), Value: value} }
func (*Return) stmtNode()          {}

// ExprStmt wraps an expression evaluated for effect (e.g. `assert(c)`).
type ExprStmt struct {
	base
	X Expr
}

func NewExprStmt(x Expr) *ExprStmt { return &ExprStmt{base: newBase(1), X: x} }
func (*ExprStmt) stmtNode()        {}
