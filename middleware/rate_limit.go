package middleware

import (
	"fmt"
	"net/http"
	"time"

	"rescuereach/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// rateLimit is a fixed-window counter in Redis keyed per caller. Emergency
// trigger routes are deliberately left out of the limited groups.
func rateLimit(rdb *redis.Client, prefix string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.GetString("userID")
		if caller == "" {
			caller = c.ClientIP()
		}
		key := fmt.Sprintf("ratelimit:%s:%s", prefix, caller)

		count, err := rdb.Incr(c.Request.Context(), key).Result()
		if err != nil {
			// Limiter outage should not take the API down with it.
			logrus.Warnf("Rate limiter unavailable: %v", err)
			c.Next()
			return
		}
		if count == 1 {
			rdb.Expire(c.Request.Context(), key, window)
		}

		if count > int64(limit) {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			utils.ErrorResponse(c, http.StatusTooManyRequests, "Too many requests", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthRateLimit bounds login and registration attempts
func AuthRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return rateLimit(rdb, "auth", 10, time.Minute)
}

// APIRateLimit bounds authenticated read/write traffic per user
func APIRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return rateLimit(rdb, "api", 120, time.Minute)
}
