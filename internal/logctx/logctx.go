// Package logctx carries a request-scoped slog.Logger through context.Context
// so service code below the HTTP layer logs with the request's attributes.
package logctx

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With returns a copy of ctx that carries l.
func With(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// From returns the logger stored in ctx, or fallback when there is none.
func From(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}
