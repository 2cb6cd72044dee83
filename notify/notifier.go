// Package notify delivers monitor digests.
package notify

import (
	"context"

	"go.uber.org/multierr"

	"realty-automation/models"
)

// Notifier delivers a digest to one destination.
type Notifier interface {
	Notify(ctx context.Context, digest models.Digest) error
}

// Multi fans a digest out to every notifier in order. All notifiers are
// tried; their errors are combined.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, digest models.Digest) error {
	var errs error
	for _, n := range m {
		errs = multierr.Append(errs, n.Notify(ctx, digest))
	}
	return errs
}
