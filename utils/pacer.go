package utils

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a fixed minimum gap between consecutive actions. The first
// Wait returns immediately; each later one blocks until the interval since
// the previous action has passed.
type Pacer struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewPacer creates a Pacer with the given gap. A zero or negative interval
// disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	p := &Pacer{interval: interval}
	if interval > 0 {
		p.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return p
}

// Interval reports the configured gap.
func (p *Pacer) Interval() time.Duration {
	return p.interval
}

// Mark records that an action just finished, so the next Wait blocks for
// a full interval counted from now rather than from the previous Wait.
// Dropping the burst to zero at now empties the bucket; restoring it to one
// leaves the next token a full interval away.
func (p *Pacer) Mark() {
	if p.limiter == nil {
		return
	}
	now := time.Now()
	p.limiter.SetBurstAt(now, 0)
	p.limiter.SetBurstAt(now, 1)
}

// Wait blocks until the next action is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.limiter == nil {
		return ctx.Err()
	}
	return p.limiter.Wait(ctx)
}
