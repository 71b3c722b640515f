package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Workspace WorkspaceConfig `yaml:"workspace" toml:"workspace"`
	Sessions  SessionConfig   `yaml:"sessions" toml:"sessions"`
	Sandbox   SandboxConfig   `yaml:"sandbox" toml:"sandbox"`
	Logging   LogConfig       `yaml:"logging" toml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string   `envconfig:"PORT" default:"8050" yaml:"port" toml:"port"`
	Host            string   `envconfig:"HOST" default:"localhost" yaml:"host" toml:"host"`
	AllowedOrigins  []string `envconfig:"CORS_ORIGINS" default:"*" yaml:"allowed_origins" toml:"allowed_origins"`
	ShutdownTimeout Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s" yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// WorkspaceConfig describes the virtual workspace every session gets.
type WorkspaceConfig struct {
	Root      string `envconfig:"WORKSPACE_ROOT" default:"/workspace" yaml:"root" toml:"root"`
	CanvasDir string `envconfig:"CANVAS_DIR" default:".canvas" yaml:"canvas_dir" toml:"canvas_dir"`
}

// SessionConfig controls idle session reaping. A zero IdleTTL disables it.
type SessionConfig struct {
	IdleTTL      Duration `envconfig:"SESSION_IDLE_TTL" default:"0s" yaml:"idle_ttl" toml:"idle_ttl"`
	ReapInterval Duration `envconfig:"SESSION_REAP_INTERVAL" default:"1m" yaml:"reap_interval" toml:"reap_interval"`
}

// SandboxConfig holds command execution settings.
type SandboxConfig struct {
	// BaseDir is where per-run temp directories are created. Empty means os.TempDir().
	BaseDir          string   `envconfig:"SANDBOX_BASE_DIR" yaml:"base_dir" toml:"base_dir"`
	DefaultTimeout   Duration `envconfig:"SANDBOX_DEFAULT_TIMEOUT" default:"60s" yaml:"default_timeout" toml:"default_timeout"`
	Image            string   `envconfig:"SANDBOX_IMAGE" default:"python:3.11-slim" yaml:"image" toml:"image"`
	Memory           string   `envconfig:"SANDBOX_MEMORY" default:"512m" yaml:"memory" toml:"memory"`
	CPUs             string   `envconfig:"SANDBOX_CPUS" default:"1" yaml:"cpus" toml:"cpus"`
	Backend          string   `envconfig:"SANDBOX_BACKEND" default:"auto" yaml:"backend" toml:"backend"`
	BreakerThreshold int      `envconfig:"SANDBOX_BREAKER_THRESHOLD" default:"5" yaml:"breaker_threshold" toml:"breaker_threshold"`
	BreakerCooldown  Duration `envconfig:"SANDBOX_BREAKER_COOLDOWN" default:"30s" yaml:"breaker_cooldown" toml:"breaker_cooldown"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info" yaml:"level" toml:"level"`
	Development bool   `envconfig:"LOG_DEV" default:"false" yaml:"development" toml:"development"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100" yaml:"requests_per_second" toml:"requests_per_second"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200" yaml:"burst" toml:"burst"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `envconfig:"METRICS_ENABLED" default:"true" yaml:"enabled" toml:"enabled"`
}

// Duration is a time.Duration written as "90s" or "1m" in env vars and files.
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// MarshalText renders the duration the way UnmarshalText reads it.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// LoadFile reads a YAML or TOML file over the defaults, then applies any
// environment variables that are set. Env always wins over the file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return nil, fmt.Errorf("unsupported config file type: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var env Config
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	overlaySetEnv(reflect.ValueOf(cfg).Elem(), reflect.ValueOf(&env).Elem())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overlaySetEnv copies fields from src to dst when their env var is present.
func overlaySetEnv(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := field.Tag.Get("envconfig")
		if key == "" {
			if field.Type.Kind() == reflect.Struct {
				overlaySetEnv(dst.Field(i), src.Field(i))
			}
			continue
		}
		if _, ok := os.LookupEnv(key); ok {
			dst.Field(i).Set(src.Field(i))
		}
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("invalid config: port is required")
	}
	if !strings.HasPrefix(c.Workspace.Root, "/") {
		return fmt.Errorf("invalid config: workspace root must be absolute, got %q", c.Workspace.Root)
	}
	if c.Sandbox.DefaultTimeout <= 0 {
		return fmt.Errorf("invalid config: sandbox default timeout must be positive")
	}
	if c.Sessions.IdleTTL < 0 {
		return fmt.Errorf("invalid config: session idle ttl must not be negative")
	}
	if c.Sessions.IdleTTL > 0 && c.Sessions.ReapInterval <= 0 {
		return fmt.Errorf("invalid config: reap interval must be positive when idle ttl is set")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate limit rps and burst must be positive")
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8050",
			Host:            "localhost",
			AllowedOrigins:  []string{"*"},
			ShutdownTimeout: Duration(10 * time.Second),
		},
		Workspace: WorkspaceConfig{
			Root:      "/workspace",
			CanvasDir: ".canvas",
		},
		Sessions: SessionConfig{
			ReapInterval: Duration(time.Minute),
		},
		Sandbox: SandboxConfig{
			DefaultTimeout:   Duration(60 * time.Second),
			Image:            "python:3.11-slim",
			Memory:           "512m",
			CPUs:             "1",
			Backend:          "auto",
			BreakerThreshold: 5,
			BreakerCooldown:  Duration(30 * time.Second),
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}
