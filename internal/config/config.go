package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const EnvPrefix = "QC"

type Config struct {
	APIBaseURL     string        `mapstructure:"API_BASE_URL"`
	Namespace      string        `mapstructure:"NAMESPACE"`
	Provider       string        `mapstructure:"PROVIDER"`
	GenStore       string        `mapstructure:"GENSTORE"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	MaxCost        int64         `mapstructure:"MAX_COST"`
	LogBackend     string        `mapstructure:"LOG_BACKEND"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	StaleTime      time.Duration `mapstructure:"STALE_TIME"`
	CacheTime      time.Duration `mapstructure:"CACHE_TIME"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	HookWorkers    int           `mapstructure:"HOOK_WORKERS"`
	HookQueue      int           `mapstructure:"HOOK_QUEUE"`
}

var keys = []string{
	"API_BASE_URL", "NAMESPACE", "PROVIDER", "GENSTORE", "REDIS_URL", "MAX_COST",
	"LOG_BACKEND", "LOG_LEVEL", "STALE_TIME", "CACHE_TIME", "REQUEST_TIMEOUT",
	"HOOK_WORKERS", "HOOK_QUEUE",
}

// Load reads QC_* environment variables, then file if it is not empty.
// Environment wins over the file.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("NAMESPACE", "querycache")
	v.SetDefault("PROVIDER", "ristretto")
	v.SetDefault("GENSTORE", "local")
	v.SetDefault("MAX_COST", 64<<20)
	v.SetDefault("LOG_BACKEND", "zap")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STALE_TIME", "0s")
	v.SetDefault("CACHE_TIME", "5m")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("HOOK_WORKERS", 0)
	v.SetDefault("HOOK_QUEUE", 256)

	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind %s: %w", k, err)
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.GenStore = strings.ToLower(cfg.GenStore)
	cfg.LogBackend = strings.ToLower(cfg.LogBackend)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	return cfg, nil
}

// Validate reports the first setting the CLI cannot start with.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("%s_API_BASE_URL is required", EnvPrefix)
	}
	if c.Namespace == "" {
		return fmt.Errorf("%s_NAMESPACE must not be empty", EnvPrefix)
	}
	switch c.Provider {
	case "ristretto", "bigcache", "redis":
	default:
		return fmt.Errorf("PROVIDER must be ristretto, bigcache or redis, got %q", c.Provider)
	}
	switch c.GenStore {
	case "local", "redis":
	default:
		return fmt.Errorf("GENSTORE must be local or redis, got %q", c.GenStore)
	}
	if c.UsesRedis() && c.RedisURL == "" {
		return fmt.Errorf("%s_REDIS_URL is required when provider or genstore is redis", EnvPrefix)
	}
	switch c.LogBackend {
	case "zap", "zerolog", "logrus", "slog":
	default:
		return fmt.Errorf("LOG_BACKEND must be zap, zerolog, logrus or slog, got %q", c.LogBackend)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}
	if c.MaxCost <= 0 {
		return fmt.Errorf("MAX_COST must be positive, got %d", c.MaxCost)
	}
	if c.StaleTime < 0 || c.CacheTime < 0 || c.RequestTimeout < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.HookWorkers < 0 || c.HookQueue < 0 {
		return fmt.Errorf("HOOK_WORKERS and HOOK_QUEUE must not be negative")
	}
	return nil
}

func (c *Config) UsesRedis() bool {
	return c.Provider == "redis" || c.GenStore == "redis"
}
