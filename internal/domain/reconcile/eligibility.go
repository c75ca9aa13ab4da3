package reconcile

import "time"

// ReturnWindow is how long after delivery customer-initiated mutations
// (return, replace, complimentary) remain permitted. The boundary is
// inclusive; once exceeded the window never re-opens.
const ReturnWindow = 7 * 24 * time.Hour

// Eligibility is the result of evaluating the return window for an order.
// Exactly one of Remaining/ExpiredSince is meaningful depending on Eligible.
type Eligibility struct {
	Eligible     bool
	Remaining    time.Duration
	ExpiredSince time.Duration
}

// CheckEligibility evaluates the return window against a point in time.
// It is evaluated fresh on every mutating call; the result is never cached
// on the order because "now" advances between requests.
//
// A delivery timestamp in the future is a data anomaly and is treated as
// eligible with the full window remaining.
func CheckEligibility(deliveredAt, now time.Time) Eligibility {
	elapsed := now.Sub(deliveredAt)
	if elapsed < 0 {
		return Eligibility{Eligible: true, Remaining: ReturnWindow}
	}
	if elapsed <= ReturnWindow {
		return Eligibility{Eligible: true, Remaining: ReturnWindow - elapsed}
	}
	return Eligibility{Eligible: false, ExpiredSince: elapsed - ReturnWindow}
}
