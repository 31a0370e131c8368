package session

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunCohort runs one task per target member of a generation cohort,
// capping concurrency at cohort.MaxSimultaneous the way
// maxSimultaneousGeneration governs generation/delta-debug fan-out
// (spec §3, §4.6). The concurrency-limited fan-out shape is adapted
// from gitrdm-gokando/internal/parallel/pool.go's worker pool, traded
// for errgroup.Group's simpler SetLimit since the cohort only needs a
// bounded-concurrency barrier, not dynamic scaling.
func RunCohort(ctx context.Context, cohort *GenerationCohort, n int, task func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	limit := cohort.MaxSimultaneous
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return task(gctx, i)
		})
	}
	return g.Wait()
}
