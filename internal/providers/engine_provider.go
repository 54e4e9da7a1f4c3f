package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/osvaldoandrade/sqldojo/pkg/config"
	"github.com/osvaldoandrade/sqldojo/pkg/engine"

	// Register engine providers.
	_ "github.com/osvaldoandrade/sqldojo/pkg/engine/memory"
	_ "github.com/osvaldoandrade/sqldojo/pkg/engine/sqlite"
)

// NewEngine builds the configured query engine and verifies it answers.
func NewEngine(ctx context.Context, cfg config.EngineConfig) (engine.Engine, error) {
	eng, err := engine.New(
		engine.ProviderConfig{Type: cfg.Driver, DSN: cfg.DSN},
		engine.PluginConfig{
			QueryTimeout:    time.Duration(cfg.QueryTimeoutSeconds) * time.Second,
			MaxOpenSessions: cfg.MaxOpenSessions,
		},
	)
	if err != nil {
		return nil, err
	}
	if err := eng.Health(ctx); err != nil {
		_ = eng.Close()
		return nil, fmt.Errorf("engine %s health: %w", cfg.Driver, err)
	}
	return eng, nil
}
