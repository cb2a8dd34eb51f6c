package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/tesseract/internal/request"
)

// ResolveBatch resolves reqs concurrently, at most batchLimit at a time.
//
// Results come back in input order with per-request errors in Result.Err;
// one failing request does not affect the others. Every request of the batch
// sees the same schema revision. Log records are appended after all
// resolutions finish, in input order, so seq numbers follow the input and
// not goroutine scheduling.
//
// The returned error is non-nil only for cancellation or a log write failure.
func (e *Engine) ResolveBatch(ctx context.Context, reqs []request.Request) ([]*Result, error) {
	st := e.state.Load()
	results := make([]*Result, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.batchLimit)
	for i, req := range reqs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = e.resolve(st, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, res := range results {
		if err := e.record(ctx, st, res); err != nil {
			return results, err
		}
	}

	e.logger.Info("batch resolved",
		"requests", len(reqs),
		"failed", countFailed(results),
	)
	return results, nil
}

func countFailed(results []*Result) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
