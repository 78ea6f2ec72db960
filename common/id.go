package common

import "sync/atomic"

// ID is an opaque, process-wide unique identifier assigned to relations,
// fields, globals, and functions (kernels/helpers) as they are declared.
// Using a dedicated ID type instead of a pointer keeps cache keys (spec.md
// §9's Bran seedbank and helper-task cache) simple, comparable map keys.
type ID uint64

var idCounter uint64

// NextID hands out the next process-wide unique ID. Declarations are
// single-threaded (spec.md §5), so a plain atomic counter is sufficient.
func NextID() ID {
	return ID(atomic.AddUint64(&idCounter, 1))
}
