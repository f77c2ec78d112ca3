// Package parallel provides a generic data-parallel fold over input
// partitions.
//
// MapReduce runs a map function over every partition with bounded
// concurrency and combines the partial results pairwise with a merge
// function. The merge function must be pure, associative and
// commutative; under that contract the result is independent of
// scheduling, and a failed partition can simply be re-executed, which
// is how transient partition failures are recovered.
package parallel

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/xtxerr/sessionstats/internal/errors"
)

// Options configures MapReduce.
type Options struct {
	// Workers is the number of partitions processed concurrently.
	Workers int

	// MaxRetries is how many times a failed partition is re-run.
	MaxRetries int

	// RetryInterval is the initial backoff between retries.
	RetryInterval time.Duration
}

func (o Options) withDefaults() Options {
	if o.Workers < 1 {
		o.Workers = 4
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.RetryInterval <= 0 {
		o.RetryInterval = time.Second
	}
	return o
}

// MapReduce applies mapFn to every partition and reduces the partial
// results with mergeFn. With zero partitions it returns the zero value
// of R. A partition that keeps failing after retries aborts the whole
// run with an error matching errors.ErrPartitionFailure.
func MapReduce[T, R any](
	ctx context.Context,
	parts [][]T,
	mapFn func(context.Context, []T) (R, error),
	mergeFn func(R, R) R,
	opts Options,
) (R, error) {
	var zero R
	if len(parts) == 0 {
		return zero, nil
	}
	opts = opts.withDefaults()

	results := make([]R, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, part := range parts {
		g.Go(func() error {
			op := func() error {
				r, err := mapFn(gctx, part)
				if err != nil {
					return err
				}
				results[i] = r
				return nil
			}

			ebo := backoff.NewExponentialBackOff()
			ebo.InitialInterval = opts.RetryInterval
			bo := backoff.WithContext(backoff.WithMaxRetries(ebo, uint64(opts.MaxRetries)), gctx)

			if err := backoff.Retry(op, bo); err != nil {
				return fmt.Errorf("partition %d: %v: %w", i, err, apperrors.ErrPartitionFailure)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return zero, err
	}

	// Pairwise tree reduction over the partial results.
	for len(results) > 1 {
		next := make([]R, 0, (len(results)+1)/2)
		for i := 0; i < len(results); i += 2 {
			if i+1 < len(results) {
				next = append(next, mergeFn(results[i], results[i+1]))
			} else {
				next = append(next, results[i])
			}
		}
		results = next
	}

	return results[0], nil
}

// Chunks splits items into at most n nearly equal partitions, dropping
// empty ones. It is used to partition in-memory observation sets before
// handing them to MapReduce.
func Chunks[T any](items []T, n int) [][]T {
	if len(items) == 0 || n < 1 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}

	size := (len(items) + n - 1) / n
	out := make([][]T, 0, n)
	for lo := 0; lo < len(items); lo += size {
		hi := lo + size
		if hi > len(items) {
			hi = len(items)
		}
		out = append(out, items[lo:hi])
	}
	return out
}
