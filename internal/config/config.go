// AngelaMos | 2026
// config.go

package config

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	App       AppConfig       `koanf:"app"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	JWT       JWTConfig       `koanf:"jwt"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	CORS      CORSConfig      `koanf:"cors"`
	Log       LogConfig       `koanf:"log"`
	Otel      OtelConfig      `koanf:"otel"`
	Ledger    LedgerConfig    `koanf:"ledger"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"oneof=development staging production test"`
}

type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"             validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gt=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gt=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver          string        `koanf:"driver"             validate:"oneof=postgres memory"`
	URL             string        `koanf:"url"                validate:"required_if=Driver postgres"`
	MaxOpenConns    int           `koanf:"max_open_conns"     validate:"min=0"`
	MinIdleConns    int           `koanf:"min_idle_conns"     validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	AutoMigrate     bool          `koanf:"auto_migrate"`
}

// RedisConfig is optional. With an empty URL, idempotency keys are not
// enforced and rate limiting stays process-local.
type RedisConfig struct {
	URL          string `koanf:"url"`
	PoolSize     int    `koanf:"pool_size"`
	MinIdleConns int    `koanf:"min_idle_conns"`
}

type JWTConfig struct {
	Enabled       bool   `koanf:"enabled"`
	PublicKeyPath string `koanf:"public_key_path" validate:"required_if=Enabled true"`
	Issuer        string `koanf:"issuer"`
	Audience      string `koanf:"audience"`
}

type RateLimitConfig struct {
	Requests int           `koanf:"requests" validate:"min=0"`
	Window   time.Duration `koanf:"window"`
	Burst    int           `koanf:"burst"    validate:"min=0"`
}

type CORSConfig struct {
	AllowedOrigins   []string `koanf:"allowed_origins"`
	AllowedMethods   []string `koanf:"allowed_methods"`
	AllowedHeaders   []string `koanf:"allowed_headers"`
	AllowCredentials bool     `koanf:"allow_credentials"`
	MaxAge           int      `koanf:"max_age"`
}

type LogConfig struct {
	Level      string `koanf:"level"  validate:"oneof=debug info warn error"`
	Format     string `koanf:"format" validate:"oneof=json text"`
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
}

type OtelConfig struct {
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	Enabled     bool    `koanf:"enabled"`
	Insecure    bool    `koanf:"insecure"`
	SampleRate  float64 `koanf:"sample_rate" validate:"gte=0,lte=1"`
}

// LedgerConfig tunes the completion ledger and the reset engine.
type LedgerConfig struct {
	ResetMaxAttempts     int           `koanf:"reset_max_attempts"     validate:"min=1"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`
	IdempotencyTTL       time.Duration `koanf:"idempotency_ttl"`
}

type JobsConfig struct {
	Enabled       bool          `koanf:"enabled"`
	ResetInterval time.Duration `koanf:"reset_interval"`
	MaxWorkers    int           `koanf:"max_workers" validate:"min=1"`
	SweepBatch    int           `koanf:"sweep_batch" validate:"min=1"`
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Load layers the embedded defaults, the optional YAML file at configPath
// and the bound environment variables. Later layers win.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(embedded(defaultsYAML), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", fromEnv), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// embedded serves an in-binary YAML document as a koanf provider.
type embedded []byte

func (b embedded) ReadBytes() ([]byte, error) {
	return b, nil
}

func (b embedded) Read() (map[string]any, error) {
	return nil, fmt.Errorf("embedded provider does not support Read")
}
