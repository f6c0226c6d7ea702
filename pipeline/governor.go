package pipeline

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/use-agent/jobscout/site"
)

// Delay presets, re-exported for callers that only import pipeline.
const (
	CautiousDelay = site.CautiousDelay
	QuickDelay    = site.QuickDelay
)

// Governor spaces out page visits. The zero value waits exactly the
// requested delay.
type Governor struct {
	// Jitter is the upper bound of a random extra wait added to every
	// non-zero delay.
	Jitter time.Duration
}

// NewGovernor returns a Governor with the given jitter.
func NewGovernor(jitter time.Duration) *Governor {
	return &Governor{Jitter: jitter}
}

// Wait blocks for d (plus jitter) or until ctx is done, whichever comes
// first, and returns ctx.Err() in the latter case. A zero delay returns
// at once, but still reports an already-cancelled ctx.
func (g *Governor) Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	if g != nil && g.Jitter > 0 {
		d += rand.N(g.Jitter)
	}

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
