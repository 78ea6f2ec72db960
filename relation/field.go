package relation

import (
	"loam/common"
	"loam/types"
)

// Field is a typed column of a Relation. Per spec.md §4.2, read/write/reduce
// operations are never expressed directly against a Field: they are only
// reached through a kernel, so Field itself is just a handle plus its type.
type Field struct {
	ID       common.ID
	Relation *Relation
	Name     string
	Type     types.Type
}

// Global is a named, typed, process-wide cell with an initial constant
// value (spec.md §3). It is updated only by a control-program SetGlobal or
// by a kernel reduction with a single op over one execution.
type Global struct {
	ID   common.ID
	Name string
	Type types.Type

	// Init is the global's initial constant value, recorded at NewGlobal
	// time so the control-IR driver can emit its initializer.
	Init interface{}
}

// NewGlobal declares a new global cell.
func NewGlobal(name string, typ types.Type, init interface{}) *Global {
	return &Global{ID: common.NextID(), Name: name, Type: typ, Init: init}
}
