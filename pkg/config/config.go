package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/osvaldoandrade/sqldojo/internal/tracing"
	"github.com/osvaldoandrade/sqldojo/pkg/auth"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port          int    `yaml:"port"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	LogLevel      string `yaml:"logLevel"`
	LogFormat     string `yaml:"logFormat"`
	Env           string `yaml:"env"`

	Engine    EngineConfig    `yaml:"engine"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Tracing   TracingConfig   `yaml:"tracing"`

	// Auth configures the optional learner identity provider. An empty type
	// leaves learner routes anonymous.
	Auth         auth.ProviderConfig `yaml:"auth"`
	AuthRequired bool                `yaml:"authRequired"`
	AdminToken   string              `yaml:"adminToken"`
}

type EngineConfig struct {
	Driver              string `yaml:"driver"`
	DSN                 string `yaml:"dsn"`
	QueryTimeoutSeconds int    `yaml:"queryTimeoutSeconds"`
	MaxOpenSessions     int    `yaml:"maxOpenSessions"`
}

type RateLimitBucketConfig struct {
	RequestsPerMinute int `yaml:"requestsPerMinute"`
	BurstSize         int `yaml:"burstSize"`
}

type RateLimitConfig struct {
	Check RateLimitBucketConfig `yaml:"check"`
	Hint  RateLimitBucketConfig `yaml:"hint"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ServiceName  string  `yaml:"serviceName"`
	OTLPEndpoint string  `yaml:"otlpEndpoint"`
	OTLPInsecure bool    `yaml:"otlpInsecure"`
	SampleRatio  float64 `yaml:"sampleRatio"`
}

func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

// LoadConfigOptional behaves like LoadConfig but treats a blank path or a
// missing file as an empty document, so env vars alone can configure the server.
func LoadConfigOptional(filePath string) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return parse(nil)
	}
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var c Config
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	c.applyEnv()
	c.applyDefaults()
	log.Printf("sqldojo config: {Port:%d Env:%s Engine:%s Timeout:%ds Redis:%q Auth:%q}\n",
		c.Port, c.Env, c.Engine.Driver, c.Engine.QueryTimeoutSeconds, c.RedisAddr, c.Auth.Type)
	return &c, nil
}

func (c *Config) applyEnv() {
	envInt("PORT", &c.Port)
	envString("REDIS_ADDR", &c.RedisAddr)
	envString("REDIS_PASSWORD", &c.RedisPassword)
	envString("LOG_LEVEL", &c.LogLevel)
	envString("LOG_FORMAT", &c.LogFormat)
	envString("ENV", &c.Env)

	envString("ENGINE_DRIVER", &c.Engine.Driver)
	envString("ENGINE_DSN", &c.Engine.DSN)
	envInt("QUERY_TIMEOUT_SECONDS", &c.Engine.QueryTimeoutSeconds)
	envInt("ENGINE_MAX_OPEN_SESSIONS", &c.Engine.MaxOpenSessions)

	envInt("RATE_LIMIT_CHECK_RPM", &c.RateLimit.Check.RequestsPerMinute)
	envInt("RATE_LIMIT_CHECK_BURST", &c.RateLimit.Check.BurstSize)
	envInt("RATE_LIMIT_HINT_RPM", &c.RateLimit.Hint.RequestsPerMinute)
	envInt("RATE_LIMIT_HINT_BURST", &c.RateLimit.Hint.BurstSize)

	envBool("OTEL_TRACING_ENABLED", &c.Tracing.Enabled)
	envString("OTEL_SERVICE_NAME", &c.Tracing.ServiceName)
	envString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Tracing.OTLPEndpoint)
	envBool("OTEL_EXPORTER_OTLP_INSECURE", &c.Tracing.OTLPInsecure)
	if v := os.Getenv("OTEL_TRACES_SAMPLER_ARG"); v != "" {
		c.Tracing.SampleRatio = tracing.ParseSampleRatio(v)
	}

	envString("AUTH_PROVIDER", &c.Auth.Type)
	envBool("AUTH_REQUIRED", &c.AuthRequired)
	envString("ADMIN_TOKEN", &c.AdminToken)
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Env == "" {
		c.Env = "dev"
	}
	if c.Engine.Driver == "" {
		c.Engine.Driver = "sqlite"
	}
	if c.Engine.QueryTimeoutSeconds <= 0 {
		c.Engine.QueryTimeoutSeconds = 5
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "sqldojo"
	}
	if c.RedisAddr == "" && c.rateLimited() {
		log.Println("Warning: rate limits configured without redisAddr, using localhost:6379")
		c.RedisAddr = "localhost:6379"
	}
}

func (c *Config) rateLimited() bool {
	return enabled(c.RateLimit.Check) || enabled(c.RateLimit.Hint)
}

func enabled(b RateLimitBucketConfig) bool {
	return b.RequestsPerMinute > 0 && b.BurstSize > 0
}

func negative(b RateLimitBucketConfig) bool {
	return b.RequestsPerMinute < 0 || b.BurstSize < 0
}

func (c *Config) Validate() error {
	var errs []string
	dev := strings.EqualFold(strings.TrimSpace(c.Env), "dev")

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errs = append(errs, "logFormat must be json or text")
	}
	if strings.TrimSpace(c.Engine.Driver) == "" {
		errs = append(errs, "engine.driver is required")
	}
	if c.Engine.MaxOpenSessions < 0 {
		errs = append(errs, "engine.maxOpenSessions must be >= 0")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, "tracing.sampleRatio must be within [0, 1]")
	}
	if negative(c.RateLimit.Check) {
		errs = append(errs, "rateLimit.check values must be >= 0")
	}
	if negative(c.RateLimit.Hint) {
		errs = append(errs, "rateLimit.hint values must be >= 0")
	}
	if c.AuthRequired && strings.TrimSpace(c.Auth.Type) == "" {
		errs = append(errs, "authRequired needs an auth provider")
	}
	if strings.TrimSpace(c.AdminToken) == "" {
		if !dev {
			errs = append(errs, "adminToken is required in non-dev")
		}
	} else if len(c.AdminToken) < 16 && !dev {
		errs = append(errs, "adminToken must be at least 16 characters in non-dev")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
