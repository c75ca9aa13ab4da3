package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/erp/reconcile/internal/domain/shared"
)

// IdempotencyKeyHeader carries the caller-supplied de-duplication key.
// Reconciliation mutations are not naturally idempotent (a retried return
// would double-deduct), so callers attach a key and retries are rejected.
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header to prevent abuse
const MaxIdempotencyKeyLength = 255

// Idempotency returns a middleware that rejects duplicate mutation requests.
// The key is marked before the handler runs; a request that arrives with a
// key that was already seen within the TTL gets 409 without touching the
// order. Requests without the header pass through unchecked.
func Idempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		// Only mutations need de-duplication
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_IDEMPOTENCY_KEY",
					"message": "Idempotency key exceeds maximum length",
				},
			})
			return
		}

		isNew, err := store.MarkProcessed(c.Request.Context(), key, cfg.TTL)
		if err != nil {
			// Store outage must not block business traffic; log and continue
			logger.Warn("idempotency store unavailable, skipping duplicate check",
				zap.String("key", key),
				zap.Error(err))
			c.Next()
			return
		}

		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "DUPLICATE_REQUEST",
					"message": "A request with this idempotency key was already processed",
				},
			})
			return
		}

		c.Next()
	}
}
