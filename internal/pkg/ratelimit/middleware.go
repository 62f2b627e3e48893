package ratelimit

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mabuhotel/booking-backend/internal/pkg/logger"
)

// Limit caps requests per client IP to max hits inside a fixed window.
// A broken store fails open.
func Limit(store Store, prefix string, max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := prefix + ":" + c.ClientIP()

		count, err := store.Incr(c.Request.Context(), key, window)
		if err != nil {
			logger.Get().Warn("rate limit store unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if count > max {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}

		c.Next()
	}
}
