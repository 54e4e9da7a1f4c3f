package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// ProviderConfig selects a registered engine provider
type ProviderConfig struct {
	Type string `yaml:"type" json:"type"`
	DSN  string `yaml:"dsn" json:"dsn"`
}

// PluginConfig provides initialization parameters to engine providers
type PluginConfig struct {
	// DSN is provider specific; empty means the provider default
	DSN string

	// QueryTimeout bounds every statement; zero disables the bound
	QueryTimeout time.Duration

	// MaxOpenSessions caps concurrent sessions; zero means unlimited
	MaxOpenSessions int
}

// PluginFactory creates engines from configuration
type PluginFactory func(config PluginConfig) (Engine, error)

var (
	registry = make(map[string]PluginFactory)
	mu       sync.RWMutex
)

// RegisterProvider registers an engine factory for a provider type
func RegisterProvider(providerType string, factory PluginFactory) {
	mu.Lock()
	defer mu.Unlock()
	registry[providerType] = factory
}

// New creates an engine from provider configuration
func New(providerConfig ProviderConfig, pluginConfig PluginConfig) (Engine, error) {
	mu.RLock()
	factory, ok := registry[providerConfig.Type]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown engine provider type: %s", providerConfig.Type)
	}
	if pluginConfig.DSN == "" {
		pluginConfig.DSN = providerConfig.DSN
	}
	return factory(pluginConfig)
}

// ListProviders returns registered provider types, sorted
func ListProviders() []string {
	mu.RLock()
	defer mu.RUnlock()

	providers := make([]string, 0, len(registry))
	for name := range registry {
		providers = append(providers, name)
	}
	sort.Strings(providers)
	return providers
}
