package cmd

import (
	"fmt"

	"loam/task"
)

// bundleSummary renders a one-line digest of a finished build: how many
// distinct tasks were emitted, how many driver operations sequence them, and
// how many declarations the program made, the numbers a build log most
// wants to confirm changed (or didn't) between runs.
func bundleSummary(b *task.Bundle) string {
	return fmt.Sprintf("%d task(s), %d driver op(s), %d decl(s)", len(b.Tasks), len(b.Driver.ControlBody), len(b.Decls))
}
