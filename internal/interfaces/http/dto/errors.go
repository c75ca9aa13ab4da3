package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Reconciliation business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
	// ErrCodeNotEligible is used when the return window has closed
	ErrCodeNotEligible = "ERR_NOT_ELIGIBLE"
	// ErrCodeOrderLocked is used when an order has been finalized
	ErrCodeOrderLocked = "ERR_ORDER_LOCKED"
	// ErrCodeInsufficientQuantity is used when a line lacks remaining quantity
	ErrCodeInsufficientQuantity = "ERR_INSUFFICIENT_QUANTITY"
	// ErrCodeInsufficientSerials is used when serialized stock cannot cover a replacement
	ErrCodeInsufficientSerials = "ERR_INSUFFICIENT_SERIALS"
	// ErrCodeStalePreview is used when a lock request no longer matches the previewed total
	ErrCodeStalePreview = "ERR_STALE_PREVIEW"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Availability error codes
const (
	// ErrCodeTimeUnavailable is used when no trusted time source can be reached
	ErrCodeTimeUnavailable = "ERR_TIME_UNAVAILABLE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity, except conflicts
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeNotEligible:          http.StatusUnprocessableEntity,
	ErrCodeOrderLocked:          http.StatusConflict,
	ErrCodeInsufficientQuantity: http.StatusUnprocessableEntity,
	ErrCodeInsufficientSerials:  http.StatusUnprocessableEntity,
	ErrCodeStalePreview:         http.StatusConflict,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Availability -> 503 Service Unavailable
	ErrCodeTimeUnavailable: http.StatusServiceUnavailable,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to the standardized codes
// used on the wire
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"LINE_NOT_FOUND":           ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"CONCURRENT_MODIFICATION":  ErrCodeConcurrencyConflict,
	"NOT_ELIGIBLE":             ErrCodeNotEligible,
	"ORDER_LOCKED":             ErrCodeOrderLocked,
	"INSUFFICIENT_QUANTITY":    ErrCodeInsufficientQuantity,
	"INSUFFICIENT_SERIALS":     ErrCodeInsufficientSerials,
	"STALE_PREVIEW":            ErrCodeStalePreview,
	"TIME_UNAVAILABLE":         ErrCodeTimeUnavailable,
	"INVALID_STATE":            ErrCodeInvalidState,
	"NO_LINES":                 ErrCodeInvalidState,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"INVALID_QUANTITY":         ErrCodeInvalidInput,
	"INVALID_REASON":           ErrCodeInvalidInput,
	"INVALID_CONDITION":        ErrCodeInvalidInput,
	"INVALID_LINE_KIND":        ErrCodeInvalidInput,
	"INVALID_SERIALS":          ErrCodeInvalidInput,
	"INVALID_ORDER_ID":         ErrCodeInvalidInput,
	"INVALID_ORDER_NUMBER":     ErrCodeInvalidInput,
	"INVALID_CUSTOMER":         ErrCodeInvalidInput,
	"INVALID_LOCATION":         ErrCodeInvalidInput,
	"INVALID_PRICE":            ErrCodeInvalidInput,
	"INVALID_DELIVERY_TIME":    ErrCodeInvalidInput,
	"INVALID_STORAGE_KEY":      ErrCodeInvalidInput,
	"UNSUPPORTED_CONTENT_TYPE": ErrCodeInvalidInput,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := DomainErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
