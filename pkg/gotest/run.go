package gotest

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/dkoosis/zephyr-bridge/pkg/reporter"
)

// Lifecycle is the full set of reporter hooks a run drives.
type Lifecycle interface {
	Hooks
	OnBegin(ctx context.Context)
	OnEnd(ctx context.Context) (*reporter.Summary, error)
}

// Run feeds every input to lc concurrently, one Driver per input, and calls
// OnEnd once all of them reached EOF. A failed input cancels the others and
// OnEnd is not called. commentType is passed to NewDriver.
func Run(ctx context.Context, lc Lifecycle, commentType string, inputs ...io.Reader) (*reporter.Summary, Stats, error) {
	lc.OnBegin(ctx)

	stats := make([]Stats, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			s, err := NewDriver(lc, commentType).Feed(gctx, in)
			stats[i] = s
			if err != nil {
				return errors.Wrapf(err, "input %d", i)
			}
			return nil
		})
	}
	err := g.Wait()

	var total Stats
	for _, s := range stats {
		total.Merge(s)
	}
	if err != nil {
		return nil, total, err
	}

	sum, err := lc.OnEnd(ctx)
	return sum, total, err
}
