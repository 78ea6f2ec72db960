package lower

import (
	"context"

	"golang.org/x/sync/errgroup"

	"loam/ast"
	"loam/relation"
	"loam/report"
	"loam/task"
)

// Specialization is one (kernel, launch domain) pair a caller wants lowered
// into a Bran. Domain is nil for a whole-universe launch.
type Specialization struct {
	Fn     *ast.FuncDef
	Domain *relation.Subset
}

// LowerAllKernels lowers a batch of independent kernel specializations
// concurrently: build-time lowering is a pure function of its inputs
// (spec.md §5), so nothing here needs to serialize across specializations
// except the shared memo tables: the caches, which are safe for concurrent
// use since golang-lru guards its own map with a mutex, and DotSymbol's
// table, which has a mutex of its own. Results preserve the input
// order regardless of completion order.
func LowerAllKernels(ctx context.Context, caches *Caches, specs []Specialization, results PhaseResults, backend Backend) ([]*task.Task, error) {
	out := make([]*task.Task, len(specs))
	g, _ := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		g.Go(func() error {
			res, ok := results[spec.Fn]
			if !ok {
				return report.MalformedProgram(spec.Fn.Position(), "no phase result recorded for kernel %q", spec.Fn.Name)
			}
			t, err := LowerKernel(caches, spec.Fn, spec.Domain, res, backend)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
