package timesource

import (
	"context"
	"time"

	"github.com/erp/reconcile/internal/domain/reconcile"
)

// SystemClock reads the local clock. Readings are verified: deployments
// using SystemClock trust the host's own time discipline.
type SystemClock struct{}

// NewSystemClock creates a SystemClock
func NewSystemClock() SystemClock {
	return SystemClock{}
}

// Now returns the local time as a verified reading
func (SystemClock) Now(ctx context.Context) (reconcile.Reading, error) {
	return reconcile.Reading{Time: time.Now().UTC(), Verified: true}, nil
}

// FixedClock always returns the same instant. For tests.
type FixedClock struct {
	Reading reconcile.Reading
}

// NewFixedClock creates a clock pinned to the given time
func NewFixedClock(t time.Time) FixedClock {
	return FixedClock{Reading: reconcile.Reading{Time: t, Verified: true}}
}

// Now returns the pinned reading
func (c FixedClock) Now(ctx context.Context) (reconcile.Reading, error) {
	return c.Reading, nil
}
