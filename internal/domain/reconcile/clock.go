package reconcile

import (
	"context"
	"time"
)

// Reading is a single observation of the current time.
// Verified is false when the reading came from the local clock after the
// time authority could not be reached; both kinds gate identically, the
// flag exists for observability only.
type Reading struct {
	Time     time.Time
	Verified bool
}

// Clock supplies a trusted "now" for eligibility checks.
// Implementations must either return a usable reading or an error;
// an error fails the calling operation rather than defaulting the
// order to eligible or ineligible.
type Clock interface {
	Now(ctx context.Context) (Reading, error)
}
