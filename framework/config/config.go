package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
	_ "time/tzdata" // zones resolve in images without zoneinfo

	"github.com/joho/godotenv"

	"github.com/km-arc/go-resolver/framework/validation"
)

// Config is the central typed configuration struct.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Log      LogConfig      `yaml:"log"`
	Resolver ResolverConfig `yaml:"resolver"`
}

type AppConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Env      string `yaml:"env" validate:"required,oneof=local testing staging production"`
	Debug    bool   `yaml:"debug"`
	Port     string `yaml:"port" validate:"required,numeric"`
	Timezone string `yaml:"timezone" validate:"required,timezone"`
}

// Location loads the configured time zone. Timezone is validated by Load,
// so this only fails on a Config built by hand.
func (a AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: app.timezone: %w", err)
	}
	return loc, nil
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json console"`
}

// ResolverConfig drives the bootstrap.
type ResolverConfig struct {
	// Manifest is an optional YAML file adding resolvers to the ones the
	// providers declare.
	Manifest string `yaml:"manifest"`
	// Workers bounds the parallel discovery calls of each scan.
	Workers int  `yaml:"workers" validate:"gte=1,lte=64"`
	Strict  bool `yaml:"strict"`
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg, err := config.Load()
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	cfg := &Config{
		App: AppConfig{
			Name:     env("APP_NAME", "go-resolver"),
			Env:      env("APP_ENV", "local"),
			Debug:    envBool("APP_DEBUG", true),
			Port:     env("APP_PORT", "8000"),
			Timezone: env("APP_TIMEZONE", "UTC"),
		},
		Log: LogConfig{
			Level:  env("LOG_LEVEL", "info"),
			Format: env("LOG_FORMAT", "console"),
		},
		Resolver: ResolverConfig{
			Manifest: env("RESOLVER_MANIFEST", ""),
			Workers:  GetInt("RESOLVER_WORKERS", 2),
			Strict:   envBool("RESOLVER_STRICT", false),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field against its rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Addr is the listen address built from the port.
func (c *Config) Addr() string { return ":" + c.App.Port }

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
