package reconcile

import (
	"errors"

	"github.com/erp/reconcile/internal/domain/shared"
)

// Error codes for reconciliation operations
const (
	ErrCodeNotEligible          = "NOT_ELIGIBLE"
	ErrCodeOrderLocked          = "ORDER_LOCKED"
	ErrCodeInsufficientQuantity = "INSUFFICIENT_QUANTITY"
	ErrCodeInsufficientSerials  = "INSUFFICIENT_SERIALS"
	ErrCodeInvalidReason        = "INVALID_REASON"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeLineNotFound         = "LINE_NOT_FOUND"
	ErrCodeConcurrencyConflict  = "CONCURRENCY_CONFLICT"
)

// ErrorCode extracts the domain error code from an error, or "" if the
// error is not a DomainError.
func ErrorCode(err error) string {
	var de *shared.DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsCode reports whether err is a DomainError carrying the given code
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}
