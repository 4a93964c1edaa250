package simulation

import (
	"context"
	"fmt"

	"github.com/specialistvlad/xsbenchgo/internal/ctxlog"
	"golang.org/x/sync/errgroup"
)

// Replicate runs replicas independent drivers concurrently. build is called
// once per replica index and must return a fresh driver; replicas share
// nothing but the read-only data their drivers read. Results are returned in
// replica order.
func Replicate(ctx context.Context, replicas int, build func(replica int) (*Driver, error)) ([]*Result, error) {
	if replicas < 1 {
		return nil, fmt.Errorf("replica count must be positive, got %d", replicas)
	}
	logger := ctxlog.FromContext(ctx)

	results := make([]*Result, replicas)
	eg, egCtx := errgroup.WithContext(ctx)
	for r := 0; r < replicas; r++ {
		eg.Go(func() error {
			d, err := build(r)
			if err != nil {
				return fmt.Errorf("replica %d: %w", r, err)
			}
			res, err := d.Run(ctxlog.With(egCtx, "replica", r))
			if err != nil {
				return fmt.Errorf("replica %d: %w", r, err)
			}
			results[r] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	logger.Debug("All replicas finished.", "replicas", replicas)
	return results, nil
}

// AggregateRate sums lookups per second over independent replicas.
func AggregateRate(results []*Result) float64 {
	var total float64
	for _, r := range results {
		total += r.Rate()
	}
	return total
}
