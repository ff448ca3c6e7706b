// Package batch runs a worker over a list of items in consecutive
// fixed-size batches. Items within a batch run concurrently; batch N+1 never
// starts before batch N has fully settled. That cap on outstanding requests
// is a backpressure contract with the remote service, not an optimization.
package batch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"planscope/internal/cancelctl"
)

// ProgressFunc receives percentComplete (completed batches over total) and a
// short label after each settled batch.
type ProgressFunc func(percent float64, label string)

// Worker produces one result for one item. A per-item remote failure must be
// converted into a sentinel value, not returned as an error; the only errors
// a Worker may return are propagated cancellations, which unwind the run.
type Worker[T, R any] func(ctx context.Context, item T) (R, error)

// Run partitions items into consecutive batches of size, runs each batch's
// items concurrently, and waits for the whole batch to settle before starting
// the next. The result slice preserves input order regardless of completion
// order. Cancellation is checked before each batch and rejects the run with
// ErrAborted without starting further calls.
func Run[T, R any](ctx context.Context, items []T, size int, worker Worker[T, R], onProgress ProgressFunc) ([]R, error) {
	if size <= 0 {
		size = 1
	}

	results := make([]R, len(items))
	total := (len(items) + size - 1) / size

	for b := 0; b < total; b++ {
		if ctx.Err() != nil {
			return nil, cancelctl.ErrAborted
		}

		lo := b * size
		hi := min(lo+size, len(items))

		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			g.Go(func() error {
				r, err := worker(gctx, items[i])
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			if cancelctl.IsAborted(err) {
				return nil, cancelctl.ErrAborted
			}
			return nil, err
		}

		if onProgress != nil {
			onProgress(float64(b+1)/float64(total)*100, fmt.Sprintf("%d/%d", b+1, total))
		}
	}

	return results, nil
}
