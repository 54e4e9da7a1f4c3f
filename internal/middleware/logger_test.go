package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osvaldoandrade/sqldojo/internal/logctx"

	"github.com/gin-gonic/gin"
)

func TestRequestIDAndLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	r := gin.New()
	r.Use(RequestIDMiddleware(), LoggerMiddleware(logger))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = RequestID(c.Request.Context())
		LoggerFrom(c).Info("inside handler")
		logctx.From(c.Request.Context(), nil).Info("inside service")
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	id := rec.Header().Get("X-Request-Id")
	if len(id) != 36 {
		t.Fatalf("expected generated uuid, got %q", id)
	}
	if seen != id {
		t.Fatalf("request id not propagated to context: %q vs %q", seen, id)
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"`+id+`"`) != 3 {
		t.Fatalf("expected handler, service and access lines to carry request id, got %s", out)
	}
	if !strings.Contains(out, `"route":"/ping"`) || !strings.Contains(out, `"status":204`) {
		t.Fatalf("access line missing fields: %s", out)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	ctx.Request.Header.Set("X-Request-Id", "abc-123")

	RequestIDMiddleware()(ctx)
	if rec.Header().Get("X-Request-Id") != "abc-123" || ctx.GetString("request_id") != "abc-123" {
		t.Fatalf("expected client request id to be preserved")
	}
}

func TestLoggerFromDefault(t *testing.T) {
	ctx, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(ctx) != slog.Default() {
		t.Fatal("expected slog.Default without middleware")
	}
}
