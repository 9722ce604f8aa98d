package corrector

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// correctBatch corrects segments concurrently, capped at MaxConcurrent
// in-flight calls. Results come back in submission order. The first failure
// cancels the remaining work and is returned as the batch error.
func (e *Engine) correctBatch(ctx context.Context, segments []string, previous [][]string) ([]*SegmentResult, error) {
	if len(segments) == 0 {
		return nil, nil
	}

	results := make([]*SegmentResult, len(segments))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.MaxConcurrent)

	for i, seg := range segments {
		i, seg := i, seg
		g.Go(func() error {
			var prev []string
			if i < len(previous) {
				prev = previous[i]
			}
			r, err := e.CorrectSegment(gctx, seg, prev)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
