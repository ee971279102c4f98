// Package worker runs independent partitions of a batch on a bounded set
// of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/pitwall/pkg/logger"
	"github.com/okian/pitwall/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Default pool configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
)

// ErrPartitionFailed wraps the first error returned by a partition.
var ErrPartitionFailed = errors.New("partition failed")

// Pool bounds how many partitions run at once. A Pool holds no per-run
// state and is safe for concurrent use.
type Pool struct {
	workers int
	name    string
	logger  logger.Logger
}

// NewPool creates a pool. A non-positive worker count selects a multiple of
// the CPU count.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		workers: runtime.NumCPU() * defaultWorkerMultiplier,
		name:    "worker-pool",
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	metrics.UpdatePoolWorkers(p.workers)
	return p
}

// Workers returns the concurrency limit.
func (p *Pool) Workers() int {
	return p.workers
}

// Run calls fn once for every i in [0, n) with at most Workers calls in
// flight. The first error cancels the context handed to the remaining
// calls and is returned wrapped in ErrPartitionFailed. Cancellation of ctx
// itself is returned unwrapped.
func (p *Pool) Run(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	if n <= 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			err := fn(gctx, i)
			metrics.RecordPartition(float64(time.Since(start).Milliseconds()))
			if err != nil {
				return fmt.Errorf("%w: partition %d: %w", ErrPartitionFailed, i, err)
			}
			return nil
		})
	}

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		p.logger.Warn(ctx, "partition failed",
			logger.String("pool", p.name),
			logger.Int("partitions", n),
			logger.Error(err),
		)
	}
	return err
}

// Map applies fn to every element of in on the pool and returns the results
// in input order.
func Map[T, R any](ctx context.Context, p *Pool, in []T, fn func(ctx context.Context, v T) (R, error)) ([]R, error) {
	out := make([]R, len(in))
	err := p.Run(ctx, len(in), func(ctx context.Context, i int) error {
		r, err := fn(ctx, in[i])
		if err != nil {
			return err
		}
		out[i] = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
