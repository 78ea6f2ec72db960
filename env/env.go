// Package env models the "Lua-host environment" of spec.md §4.3 as an
// explicit, immutable-per-lookup symbol map threaded through the
// specializer — never ambient/global state, per spec.md §9's design note
// on host-environment capture.
package env

import (
	"loam/ast"
	"loam/relation"
)

// BindingKind tags what a name in the environment refers to.
type BindingKind int

const (
	BindRelation BindingKind = iota
	BindField
	BindGlobal
	BindFunction
	BindBuiltin
	BindConst
)

// Binding is one entry of the environment: a name resolved to exactly one
// of a Relation, Field, Global, Function (kernel or helper), Builtin, or a
// compile-time constant value.
type Binding struct {
	Kind BindingKind

	Relation *relation.Relation
	Field    *relation.Field
	Global   *relation.Global
	Function *ast.FuncDef
	Builtin  string
	Const    interface{}
}

// Environment is a flat, explicit symbol table: free identifiers in a raw
// kernel/helper body are resolved against it by the specializer.
type Environment struct {
	bindings map[string]Binding
}

// New constructs an empty environment.
func New() *Environment {
	return &Environment{bindings: map[string]Binding{}}
}

// clone returns a copy of e's bindings. Environments are copy-on-write so that a kernel's environment (this relation's fields
// in-scope) can be derived from a shared base without mutating it (the
// base environment is itself still in use by other kernels).
func (e *Environment) clone() *Environment {
	n := &Environment{bindings: make(map[string]Binding, len(e.bindings))}
	for k, v := range e.bindings {
		n.bindings[k] = v
	}
	return n
}

func (e *Environment) BindRelation(name string, rel *relation.Relation) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindRelation, Relation: rel}
	return n
}

func (e *Environment) BindField(name string, f *relation.Field) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindField, Field: f}
	return n
}

func (e *Environment) BindGlobal(name string, g *relation.Global) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindGlobal, Global: g}
	return n
}

func (e *Environment) BindFunction(name string, fn *ast.FuncDef) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindFunction, Function: fn}
	return n
}

func (e *Environment) BindBuiltin(name string) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindBuiltin, Builtin: name}
	return n
}

func (e *Environment) BindConst(name string, v interface{}) *Environment {
	n := e.clone()
	n.bindings[name] = Binding{Kind: BindConst, Const: v}
	return n
}

// Lookup resolves name, reporting whether it is bound.
func (e *Environment) Lookup(name string) (Binding, bool) {
	b, ok := e.bindings[name]
	return b, ok
}

// builtinNames is the fixed set of builtins spec.md §4.7 lowers to runtime
// calls; a fresh Environment for a relation's kernels starts with all of
// them in scope.
var builtinNames = []string{
	"acos", "asin", "atan", "cbrt", "ceil", "cos", "fabs", "floor", "fmod",
	"log", "sin", "sqrt", "tan", "pow", "fmin", "fmax", "imin", "imax",
	"rand", "dot", "assert", "id", "xid", "yid", "zid",
}

// Prelude returns a fresh Environment with every builtin bound.
func Prelude() *Environment {
	e := New()
	for _, name := range builtinNames {
		e = e.BindBuiltin(name)
	}
	return e
}
