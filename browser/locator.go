package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound means none of a chain's probes located a usable element.
var ErrNotFound = eris.New("browser: element not found")

// Probe is one way of locating a UI element.
type Probe struct {
	Name     string
	Selector string
	Timeout  time.Duration
}

// Chain is an ordered list of probes for the same element, tried in turn.
type Chain []Probe

// Result is the outcome of a chain lookup.
type Result struct {
	Found bool
	Probe Probe
}

// WithTimeout returns a copy of the chain with every probe timeout set to d.
func (c Chain) WithTimeout(d time.Duration) Chain {
	out := make(Chain, len(c))
	for i, p := range c {
		p.Timeout = d
		out[i] = p
	}
	return out
}

// Find returns the first probe whose element becomes visible within its
// timeout.
func (c Chain) Find(ctx context.Context, page Page) Result {
	for _, p := range c {
		if ctx.Err() != nil {
			break
		}
		if err := page.WaitVisible(ctx, p.Selector, p.Timeout); err == nil {
			return Result{Found: true, Probe: p}
		}
	}
	return Result{}
}

// Do runs fn against each probe whose element is visible until one call
// succeeds, and returns that probe. When no probe works the error wraps
// ErrNotFound.
func (c Chain) Do(ctx context.Context, page Page, fn func(Probe) error) (Probe, error) {
	var lastErr error
	for _, p := range c {
		if err := ctx.Err(); err != nil {
			return Probe{}, eris.Wrap(err, "browser: locator cancelled")
		}
		if err := page.WaitVisible(ctx, p.Selector, p.Timeout); err != nil {
			continue
		}
		if err := fn(p); err != nil {
			lastErr = err
			continue
		}
		return p, nil
	}
	if lastErr != nil {
		return Probe{}, eris.Wrapf(ErrNotFound, "last action error: %v", lastErr)
	}
	return Probe{}, ErrNotFound
}
