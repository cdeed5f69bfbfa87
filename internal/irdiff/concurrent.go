package irdiff

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"optdbg/internal/ir"
	"optdbg/internal/trace"
)

// DiffConcurrent produces the same ModuleDiff as Diff, diffing function
// pairs on up to jobs goroutines. jobs <= 0 means GOMAXPROCS. Each pair
// gets a function-scope span on the tracer in ctx.
func DiffConcurrent(ctx context.Context, before, after *ir.Module, jobs int) (*ModuleDiff, error) {
	pairs := plan(before, after)
	if len(pairs) == 0 {
		return assemble(before, after, nil), nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// каждая горутина пишет только в свой индекс
	fns := make([]FunctionDiff, len(pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(pairs)))
	for i, p := range pairs {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			span := trace.FunctionSpan(ctx, p.name())
			fns[i] = diffPair(p)
			span.End(fns[i].Kind.String())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return assemble(before, after, fns), nil
}
