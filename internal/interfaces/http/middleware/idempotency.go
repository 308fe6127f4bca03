package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sellerops/backend/internal/infrastructure/logger"
)

// IdempotencyKeyHeader carries the client-chosen key for a push submission.
const IdempotencyKeyHeader = "Idempotency-Key"

// IdempotencyStore is the subset of the cache store the middleware needs.
type IdempotencyStore interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// Idempotency rejects a repeated Idempotency-Key with 409 so a client retry
// of an already-accepted push batch is not pushed to the marketplace twice.
// Requests without the header pass through untouched. A store failure fails
// open: losing dedupe briefly is better than refusing all pushes.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}

		isNew, err := store.MarkProcessed(c.Request.Context(), key, ttl)
		if err != nil {
			logger.GetGinLogger(c).Warn("idempotency store unavailable, skipping dedupe",
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "ERR_DUPLICATE_REQUEST",
					"message": "a request with this idempotency key was already accepted",
				},
			})
			return
		}

		c.Next()
	}
}
