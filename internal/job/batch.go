package job

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RunBatch converts independent jobs with at most workers running at once.
// Every job runs to completion regardless of the others; the returned error
// joins each failure, prefixed with its input path. workers < 1 means one.
func RunBatch(ctx context.Context, jobs []*Job, workers int) error {
	if workers < 1 {
		workers = 1
	}

	var g errgroup.Group
	g.SetLimit(workers)

	errs := make([]error, len(jobs))
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if err := j.ConvertContext(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", j.Input, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}
