package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/osvaldoandrade/sqldojo/internal/metrics"
	"github.com/osvaldoandrade/sqldojo/internal/ratelimit"
	"github.com/osvaldoandrade/sqldojo/pkg/config"
)

func RateLimitCheck(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return rateLimitLearner(lim, "check", "check_submission", cfg.RateLimit.Check)
}

func RateLimitHint(lim ratelimit.Limiter, cfg *config.Config) gin.HandlerFunc {
	return rateLimitLearner(lim, "hint", "get_hint", cfg.RateLimit.Hint)
}

// rateLimitLearner keys buckets by learner identity when authenticated and by
// client address otherwise.
func rateLimitLearner(lim ratelimit.Limiter, scope string, operation string, bcfg config.RateLimitBucketConfig) gin.HandlerFunc {
	bucket := ratelimit.Bucket{RequestsPerMinute: bcfg.RequestsPerMinute, BurstSize: bcfg.BurstSize}
	return func(c *gin.Context) {
		if lim == nil || !bucket.Enabled() {
			c.Next()
			return
		}

		dec, err := lim.Allow(c.Request.Context(), scope, subject(c), bucket)
		if err != nil {
			// Fail open to avoid turning Redis hiccups into outages.
			LoggerFrom(c).Warn("rate limit check failed", "scope", scope, "op", operation, "err", err)
			c.Next()
			return
		}
		if dec.Allowed {
			c.Next()
			return
		}

		retryAfterSeconds := int(dec.RetryAfter.Seconds())
		if retryAfterSeconds <= 0 {
			retryAfterSeconds = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		metrics.RateLimitHitsTotal.WithLabelValues(scope, operation).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate limit exceeded",
			"scope":             scope,
			"operation":         operation,
			"retryAfterSeconds": retryAfterSeconds,
		})
	}
}

func subject(c *gin.Context) string {
	if l := Learner(c); l != "" {
		return "learner:" + l
	}
	return "ip:" + c.ClientIP()
}

func bearerToken(authHeader string) string {
	authHeader = strings.TrimSpace(authHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

