package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// DefaultConfigPath is read relative to the working directory.
const DefaultConfigPath = "config.yaml"

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// History scopes.
const (
	HistoryScopeGlobal = "global"
	HistoryScopeUser   = "user"
)

// Config holds all configuration for nutridive.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"8001"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// Storage selects the AnalysisStore backend. "memory" keeps records in
	// process and needs no database; it is meant for local runs and the CLI.
	Storage string `yaml:"storage" env:"STORAGE" env-default:"postgres"`

	Auth          AuthConfig          `yaml:"auth"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	LLM           LLMConfig           `yaml:"llm"`
	ProductSource ProductSourceConfig `yaml:"product_source"`
	Cache         CacheConfig         `yaml:"cache"`
	History       HistoryConfig       `yaml:"history"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// AuthConfig holds bearer-token verification settings.
type AuthConfig struct {
	// EnableVerification controls whether bearer tokens are validated.
	// When false, tokens are ignored and every caller is anonymous.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWTSecret verifies HS256 tokens. Secret - not in YAML.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"`

	// JWKSURL switches verification to the keys published at this URL.
	JWKSURL string `yaml:"jwks_url" env:"JWKS_URL" env-default:""`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"nutridive"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"nutridive"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds the optional Redis connection used for cross-instance
// barcode locks. An empty Host disables Redis.
type RedisConfig struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int           `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"2m"`
}

// Enabled reports whether Redis is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}

// LLMConfig selects and tunes the analysis generator.
type LLMConfig struct {
	Provider        string        `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL         string        `yaml:"base_url" env:"LLM_BASE_URL" env-default:"https://api.openai.com/v1"`
	Model           string        `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4.1-mini"`
	APIKey          string        `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	Temperature     float64       `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.2"`
	ChatTemperature float64       `yaml:"chat_temperature" env:"LLM_CHAT_TEMPERATURE" env-default:"0.3"`
	Timeout         time.Duration `yaml:"timeout" env:"LLM_TIMEOUT" env-default:"60s"`
	MaxConcurrent   int           `yaml:"max_concurrent" env:"LLM_MAX_CONCURRENT" env-default:"4"`

	// Circuit breaker: consecutive failures before failing fast, and how long to wait.
	BreakerThreshold  int           `yaml:"breaker_threshold" env:"LLM_BREAKER_THRESHOLD" env-default:"5"`
	BreakerResetAfter time.Duration `yaml:"breaker_reset_after" env:"LLM_BREAKER_RESET_AFTER" env-default:"30s"`
}

// ProductSourceConfig configures the Open Food Facts client.
type ProductSourceConfig struct {
	BaseURL   string        `yaml:"base_url" env:"PRODUCT_SOURCE_BASE_URL" env-default:"https://world.openfoodfacts.org"`
	Timeout   time.Duration `yaml:"timeout" env:"PRODUCT_SOURCE_TIMEOUT" env-default:"30s"`
	UserAgent string        `yaml:"user_agent" env:"PRODUCT_SOURCE_USER_AGENT" env-default:""`
}

// CacheConfig sizes the in-process record cache. LRUSize 0 disables it.
type CacheConfig struct {
	LRUSize int           `yaml:"lru_size" env:"CACHE_LRU_SIZE" env-default:"512"`
	TTL     time.Duration `yaml:"ttl" env:"CACHE_TTL" env-default:"10m"`
}

// HistoryConfig bounds and scopes the history listing.
type HistoryConfig struct {
	DefaultLimit int    `yaml:"default_limit" env:"HISTORY_DEFAULT_LIMIT" env-default:"50"`
	MaxLimit     int    `yaml:"max_limit" env:"HISTORY_MAX_LIMIT" env-default:"200"`
	Scope        string `yaml:"scope" env:"HISTORY_SCOPE" env-default:"global"`
}

// MetricsConfig names the prometheus namespace.
type MetricsConfig struct {
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"nutridive"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// A missing config.yaml is not an error: configuration then comes from the
// environment and defaults alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	return LoadFrom(DefaultConfigPath, version)
}

// LoadFrom is Load with an explicit config file path.
func LoadFrom(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Database.Host = ResolveHostForDocker(cfg.Database.Host)
	cfg.Redis.Host = ResolveHostForDocker(cfg.Redis.Host)

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", StoragePostgres, StorageMemory, c.Storage)
	}

	c.History.Scope = strings.ToLower(strings.TrimSpace(c.History.Scope))
	switch c.History.Scope {
	case HistoryScopeGlobal, HistoryScopeUser:
	default:
		return fmt.Errorf("history.scope must be %q or %q, got %q", HistoryScopeGlobal, HistoryScopeUser, c.History.Scope)
	}

	if c.History.DefaultLimit < 1 {
		return fmt.Errorf("history.default_limit must be positive")
	}
	if c.History.MaxLimit < c.History.DefaultLimit {
		return fmt.Errorf("history.max_limit (%d) must be at least default_limit (%d)", c.History.MaxLimit, c.History.DefaultLimit)
	}
	return nil
}

// IsLocal reports whether the service runs in the local development environment.
func (c *Config) IsLocal() bool {
	return c.Env == "local"
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection URL.
func (c *DatabaseConfig) ConnectionString() string {
	u := &url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Database,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

// Addr returns host:port for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
