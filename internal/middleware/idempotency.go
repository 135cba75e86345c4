package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/airport/internal/logger"
	"github.com/gin-gonic/gin"
)

const IdempotencyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Idempotency rejects a repeated Idempotency-Key from the same user within
// ttl. Failed requests release their key so the client can retry.
// Requests without the header pass through.
func Idempotency(store IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}

		userID, _ := UserID(c)
		scoped := fmt.Sprintf("%d:%s", userID, key)
		ctx := c.Request.Context()

		acquired, err := store.Reserve(ctx, scoped, ttl)
		if err != nil {
			logger.WithContext(ctx).Warn("idempotency store unavailable", "error", err)
			c.Next()
			return
		}
		if !acquired {
			c.Header("X-Idempotency-Hit", "true")
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{
				"error": "request with this Idempotency-Key was already processed",
				"code":  "duplicate_request",
			})
			return
		}

		// A panic below unwinds to Recovery; the key is freed on the way out.
		defer func() {
			p := recover()
			if p != nil || c.Writer.Status() >= http.StatusBadRequest {
				if err := store.Release(context.WithoutCancel(ctx), scoped); err != nil {
					logger.WithContext(ctx).Warn("failed to release idempotency key", "error", err)
				}
			}
			if p != nil {
				panic(p)
			}
		}()

		c.Next()
	}
}
