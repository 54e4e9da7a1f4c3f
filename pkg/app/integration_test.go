package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/osvaldoandrade/sqldojo/pkg/auth"
	_ "github.com/osvaldoandrade/sqldojo/pkg/auth/static"
	"github.com/osvaldoandrade/sqldojo/pkg/catalog"
	"github.com/osvaldoandrade/sqldojo/pkg/config"
	"github.com/osvaldoandrade/sqldojo/pkg/domain"
	"github.com/osvaldoandrade/sqldojo/pkg/engine"
	"github.com/osvaldoandrade/sqldojo/pkg/engine/memory"

	"github.com/alicebob/miniredis/v2"
)

const adminToken = "integration-admin-token"

func newTestServer(t *testing.T, mutate func(*config.Config), opts ...ApplicationOption) *httptest.Server {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := &config.Config{
		Port:      8080,
		RedisAddr: mr.Addr(),
		LogLevel:  "error",
		LogFormat: "json",
		Env:       "test",
		Engine:    config.EngineConfig{Driver: "sqlite", QueryTimeoutSeconds: 5},
		RateLimit: config.RateLimitConfig{
			Hint: config.RateLimitBucketConfig{RequestsPerMinute: 1, BurstSize: 2},
		},
		Auth: auth.ProviderConfig{Type: "static", Config: map[string]any{
			"token":   "learner-token",
			"email":   "ana@dojo.test",
			"subject": "ana",
		}},
		AdminToken: adminToken,
	}
	if mutate != nil {
		mutate(cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config validate: %v", err)
	}

	opts = append([]ApplicationOption{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	app, err := NewApplication(cfg, opts...)
	if err != nil {
		t.Fatalf("new application: %v", err)
	}
	t.Cleanup(func() { _ = app.Close(context.Background()) })
	SetupMappings(app)

	server := httptest.NewServer(app.Engine)
	t.Cleanup(server.Close)
	return server
}

func TestHTTPIntegrationFlow(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, nil)
	token := "learner-token"

	var list struct {
		Tasks []domain.TaskView `json:"tasks"`
		Count int               `json:"count"`
	}
	status, body := doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/tasks", token, nil, nil, &list)
	if status != http.StatusOK || list.Count != catalog.Default().Len() {
		t.Fatalf("list status %d count %d body=%s", status, list.Count, body)
	}
	if strings.Contains(body, "SELECT") {
		t.Fatalf("listing leaked canonical SQL: %s", body)
	}

	var hint domain.Hint
	status, body = doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/tasks/1/hints/1", token, nil, nil, &hint)
	if status != http.StatusOK || hint.Index != 1 || hint.Text == "" {
		t.Fatalf("hint status %d body=%s", status, body)
	}

	task, _ := catalog.Default().Find(2)
	var out domain.CheckOutcome
	status, body = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/2/check", token, nil, map[string]string{"sql": task.ExpectedSQL}, &out)
	if status != http.StatusOK || !out.OK || out.Kind != domain.OutcomePassed {
		t.Fatalf("check canonical status %d body=%s", status, body)
	}

	status, body = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/2/check", token, nil, map[string]string{"sql": "SELECT name FROM ducklings"}, &out)
	if status != http.StatusOK || out.OK || out.Kind != domain.OutcomeMismatch {
		t.Fatalf("check mismatch status %d body=%s", status, body)
	}

	status, body = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/2/check", token, nil, map[string]string{"sql": "SELEC"}, &out)
	if status != http.StatusOK || out.Kind != domain.OutcomeQueryError || !strings.Contains(out.Message, "Try: sqldojo hint 2 1") {
		t.Fatalf("check query error status %d body=%s", status, body)
	}

	status, _ = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/999/check", token, nil, map[string]string{"sql": "SELECT 1"}, nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown task status %d", status)
	}

	var info domain.DatasetInfo
	status, body = doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/dataset", token, nil, nil, &info)
	if status != http.StatusOK || info.Table != "ducklings" || info.RowCount != 12 {
		t.Fatalf("dataset status %d body=%s", status, body)
	}
}

func TestHTTPAuthAndAdmin(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, func(cfg *config.Config) { cfg.AuthRequired = true })

	status, _ := doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/tasks", "", nil, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("anonymous status %d, want 401", status)
	}
	status, _ = doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/tasks", "wrong", nil, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("bad token status %d, want 401", status)
	}

	status, _ = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/admin/selftest", "learner-token", nil, nil, nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("learner selftest status %d, want 401", status)
	}

	var report domain.SelfTestReport
	admin := map[string]string{"X-Admin-Token": adminToken}
	status, body := doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/admin/selftest", "", admin, nil, &report)
	if status != http.StatusOK || report.Failed != 0 || report.Passed != catalog.Default().Len() {
		t.Fatalf("selftest status %d body=%s", status, body)
	}
}

func TestHTTPHintRateLimit(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, nil)

	for i := 0; i < 2; i++ {
		if status, body := doJSON(t, ctx, http.MethodGet, server.URL+"/v1/dojo/tasks/1/hints/1", "learner-token", nil, nil, nil); status != http.StatusOK {
			t.Fatalf("hint %d status %d body=%s", i, status, body)
		}
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/dojo/tasks/1/hints/1", nil)
	req.Header.Set("Authorization", "Bearer learner-token")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests || resp.Header.Get("Retry-After") == "" {
		t.Fatalf("third hint status %d retry-after %q", resp.StatusCode, resp.Header.Get("Retry-After"))
	}

	// Checks use a separate, disabled bucket.
	if status, _ := doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/1/check", "learner-token", nil, map[string]string{"sql": "SELECT 1"}, nil); status == http.StatusTooManyRequests {
		t.Fatal("check should not share the hint bucket")
	}
}

func TestHealthAndMetrics(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, nil)

	var health struct {
		Status map[string]string `json:"status"`
	}
	status, body := doJSON(t, ctx, http.MethodGet, server.URL+"/healthz", "", nil, nil, &health)
	if status != http.StatusOK || health.Status["engine"] != "ok" || health.Status["redis"] != "ok" {
		t.Fatalf("healthz status %d body=%s", status, body)
	}

	_, _ = doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/1/check", "learner-token", nil, map[string]string{"sql": "SELECT 1"}, nil)
	status, body = doJSON(t, ctx, http.MethodGet, server.URL+"/metrics", "", nil, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("metrics status %d", status)
	}
	for _, name := range []string{"sqldojo_check_total", "sqldojo_catalog_tasks"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}

type downEngine struct{ engine.Engine }

func (downEngine) Health(context.Context) error { return errors.New("engine unavailable") }

func TestHTTPEngineFailures(t *testing.T) {
	ctx := context.Background()

	broken := memory.New().FailExec(errors.New("disk full"))
	server := newTestServer(t, nil, WithQueryEngine(broken))
	var out domain.CheckOutcome
	status, body := doJSON(t, ctx, http.MethodPost, server.URL+"/v1/dojo/tasks/1/check", "learner-token", nil, map[string]string{"sql": "SELECT 1"}, nil)
	if status != http.StatusInternalServerError {
		t.Fatalf("provision failure status %d body=%s", status, body)
	}
	_ = json.Unmarshal([]byte(body), &out)
	if out.Kind != domain.OutcomeInternalError || !strings.HasPrefix(out.Message, "Internal error: failed to initialize ducklings dataset") {
		t.Fatalf("unexpected outcome %+v", out)
	}

	down := newTestServer(t, nil, WithQueryEngine(downEngine{memory.New()}))
	status, body = doJSON(t, ctx, http.MethodGet, down.URL+"/healthz", "", nil, nil, nil)
	if status != http.StatusServiceUnavailable || !strings.Contains(body, "engine unavailable") {
		t.Fatalf("healthz status %d body=%s", status, body)
	}
}

func doJSON(t *testing.T, ctx context.Context, method, url, token string, headers map[string]string, body any, out any) (int, string) {
	t.Helper()
	var buf io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewBuffer(b)
	}
	req, _ := http.NewRequestWithContext(ctx, method, url, buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if out != nil && resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_ = json.Unmarshal(b, out)
	}
	return resp.StatusCode, string(b)
}
