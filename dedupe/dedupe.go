// Package dedupe tracks already-applied activity ids so redelivery of the
// same activity is a safe no-op.
package dedupe

import "context"

// Store remembers applied activity ids. Seen is checked before an
// activity is applied; Mark is recorded only after it has been applied
// successfully, so a rejected activity can still be retried by its sender.
type Store interface {
	Seen(ctx context.Context, activityID string) (bool, error)
	Mark(ctx context.Context, activityID string) error
}
