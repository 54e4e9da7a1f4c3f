package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/osvaldoandrade/sqldojo/internal/dataset"
	"github.com/osvaldoandrade/sqldojo/internal/metrics"
	"github.com/osvaldoandrade/sqldojo/internal/middleware"
	"github.com/osvaldoandrade/sqldojo/internal/providers"
	"github.com/osvaldoandrade/sqldojo/internal/ratelimit"
	"github.com/osvaldoandrade/sqldojo/internal/services"
	"github.com/osvaldoandrade/sqldojo/internal/tracing"
	"github.com/osvaldoandrade/sqldojo/pkg/auth"
	"github.com/osvaldoandrade/sqldojo/pkg/catalog"
	"github.com/osvaldoandrade/sqldojo/pkg/config"
	"github.com/osvaldoandrade/sqldojo/pkg/engine"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	QueryEngine     engine.Engine
	Catalog         *catalog.Registry
	Grading         services.GradingService
	Tasks           services.CatalogService
	Logger          *slog.Logger
	Redis           *redis.Client
	Validator       auth.Validator
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithValidator sets a custom learner validator
func WithValidator(validator auth.Validator) ApplicationOption {
	return func(app *Application) error {
		app.Validator = validator
		return nil
	}
}

// WithQueryEngine replaces the configured query engine
func WithQueryEngine(eng engine.Engine) ApplicationOption {
	return func(app *Application) error {
		app.QueryEngine = eng
		return nil
	}
}

// WithLogger replaces the default stdout logger
func WithLogger(logger *slog.Logger) ApplicationOption {
	return func(app *Application) error {
		app.Logger = logger
		return nil
	}
}

func NewLogger(cfg *config.Config) *slog.Logger {
	level := new(slog.LevelVar)
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	return slog.New(handler).With("service", "sqldojo", "env", cfg.Env)
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	app := &Application{Config: cfg, Catalog: catalog.Default()}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.Logger == nil {
		app.Logger = NewLogger(cfg)
		slog.SetDefault(app.Logger)
	}
	logger := app.Logger

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	app.TracingShutdown = shutdown

	if cfg.RedisAddr != "" {
		app.Redis = providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
		if err := providers.PingRedis(context.Background(), app.Redis, 2*time.Second); err != nil {
			// The limiter fails open, so an unreachable Redis only disables limiting.
			logger.Warn("redis unavailable at startup", "err", err)
		}
		app.RateLimiter = ratelimit.NewTokenBucketLimiter(app.Redis)
	}

	if app.QueryEngine == nil {
		eng, err := providers.NewEngine(context.Background(), cfg.Engine)
		if err != nil {
			return nil, fmt.Errorf("query engine: %w", err)
		}
		app.QueryEngine = eng
	}

	if app.Validator == nil && cfg.Auth.Type != "" {
		validator, err := auth.NewValidator(cfg.Auth)
		if err != nil {
			return nil, err
		}
		app.Validator = validator
	}

	app.Grading = services.NewGradingService(app.Catalog, app.QueryEngine, dataset.NewProvisioner(), logger, time.Now)
	app.Tasks = services.NewCatalogService(app.Catalog, logger)

	metrics.RegisterStateCollector(app.Redis, app.Catalog.Len, logger)

	serviceName := cfg.Tracing.ServiceName
	if serviceName == "" {
		serviceName = "sqldojo"
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware(serviceName),
	)
	app.Engine = router

	logger.Info("application ready",
		"engine", cfg.Engine.Driver,
		"tasks", app.Catalog.Len(),
		"auth", cfg.Auth.Type,
		"rate_limit", app.RateLimiter != nil,
	)
	return app, nil
}

// Health reports whether the query engine and, when configured, Redis respond.
func (app *Application) Health(ctx context.Context) map[string]string {
	status := map[string]string{"engine": "ok"}
	if err := app.QueryEngine.Health(ctx); err != nil {
		status["engine"] = err.Error()
	}
	if app.Redis != nil {
		status["redis"] = "ok"
		if err := providers.PingRedis(ctx, app.Redis, time.Second); err != nil {
			status["redis"] = err.Error()
		}
	}
	return status
}

func (app *Application) healthHandler(c *gin.Context) {
	status := app.Health(c.Request.Context())
	code := http.StatusOK
	// Redis only backs rate limiting, so only the engine decides readiness.
	if status["engine"] != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status})
}

// Close releases the query engine, Redis and the trace exporter.
func (app *Application) Close(ctx context.Context) error {
	var firstErr error
	if app.QueryEngine != nil {
		firstErr = app.QueryEngine.Close()
	}
	if app.Redis != nil {
		if err := app.Redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if app.TracingShutdown != nil {
		if err := app.TracingShutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
