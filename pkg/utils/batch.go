package utils

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// InBatches calls fn for every item, running up to size items concurrently
// and waiting for each group to finish before starting the next. size <= 0
// runs one item at a time. Items after a cancelled context are not started.
func InBatches[T any](ctx context.Context, items []T, size int, fn func(context.Context, T)) {
	if size <= 0 {
		size = 1
	}
	for start := 0; start < len(items); start += size {
		if ctx.Err() != nil {
			return
		}
		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var g errgroup.Group
		for _, item := range items[start:end] {
			item := item
			g.Go(func() error {
				fn(ctx, item)
				return nil
			})
		}
		_ = g.Wait()
	}
}
