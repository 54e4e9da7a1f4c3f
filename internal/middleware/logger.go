package middleware

import (
	"log/slog"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/logctx"

	"github.com/gin-gonic/gin"
)

// LoggerMiddleware stores a request-scoped logger in the gin context and the
// request context, and writes one access line per request.
func LoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger
		if id := c.GetString("request_id"); id != "" {
			reqLogger = logger.With("request_id", id)
		}
		c.Set("logger", reqLogger)
		c.Request = c.Request.WithContext(logctx.With(c.Request.Context(), reqLogger))

		c.Next()

		level := slog.LevelInfo
		switch {
		case c.Writer.Status() >= 500:
			level = slog.LevelError
		case c.FullPath() == "/healthz" || c.FullPath() == "/metrics":
			level = slog.LevelDebug
		}
		reqLogger.Log(c.Request.Context(), level, "http request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"learner", Learner(c),
		)
	}
}

// LoggerFrom returns the logger set by LoggerMiddleware, or slog.Default.
func LoggerFrom(c *gin.Context) *slog.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	return slog.Default()
}
