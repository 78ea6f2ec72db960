package ast

import (
	"loam/common"
	"loam/relation"
	"loam/types"
)

// Param is one parameter of a kernel or helper function's raw signature.
// TypeName is the raw, unresolved spelling of an optional type annotation
// (helpers only; a kernel's single parameter's type is always inferred
// from the relation it is launched over, per spec.md §4.4).
type Param struct {
	Name     string
	TypeName string
}

// FuncDef is a raw kernel or helper definition: the body of a NEW_FUNCTION
// (spec.md §6). IsKernel distinguishes the two per spec.md §4.4's
// signature rules (exactly one key-typed parameter, no return, for a
// kernel; any typed parameters and an optional typed return, for a
// helper).
type FuncDef struct {
	base
	Name       string
	IsKernel   bool
	Params     []Param
	ReturnType string // raw spelling, empty if none
	Body       *Block

	// ID uniquely identifies this function for the Bran/helper-task caches
	// (spec.md §9).
	ID common.ID

	// The following are filled in by specialize/check, not at construction:

	// ParamTypes is the resolved type of each parameter, in order. For a
	// kernel this is always a single types.Key.
	ParamTypes []types.Type

	// ResolvedReturn is the resolved return type, or nil for a kernel or a
	// helper with no return.
	ResolvedReturn types.Type

	// CenteredRelation is the relation a kernel's single parameter ranges
	// over, set once the kernel is specialized against a call site.
	CenteredRelation *relation.Relation
}

func NewFuncDef(name string, isKernel bool, params []Param, returnType string, body *Block) *FuncDef {
	return &FuncDef{
		base:       newBase(1),
		Name:       name,
		IsKernel:   isKernel,
		Params:     params,
		ReturnType: returnType,
		Body:       body,
		ID:         common.NextID(),
	}
}
