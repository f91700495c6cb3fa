package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	LockMemory    = "memory"
	LockRedis     = "redis"
)

// Config is read from an optional YAML file and overridden by environment
// variables named after the upper-cased keys (PORT, STORE_DRIVER, ...).
type Config struct {
	Port        int    `mapstructure:"port"`
	Environment string `mapstructure:"environment"`

	StoreDriver string `mapstructure:"store_driver"`
	DatabaseURL string `mapstructure:"database_url"`

	LockDriver    string        `mapstructure:"lock_driver"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`

	PricingCacheTTL time.Duration `mapstructure:"pricing_cache_ttl"`

	OTelServiceName string `mapstructure:"otel_service_name"`
	OTelEndpoint    string `mapstructure:"otel_exporter_otlp_endpoint"`
	OTelEnabled     bool   `mapstructure:"otel_enabled"`
}

// Load reads configPath when it is non-empty, then the environment.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("environment", "development")

	v.SetDefault("store_driver", StoreMemory)
	v.SetDefault("database_url", "")

	v.SetDefault("lock_driver", LockMemory)
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("lock_ttl", "10s")

	v.SetDefault("pricing_cache_ttl", "30s")

	v.SetDefault("otel_service_name", "mall-parking")
	v.SetDefault("otel_exporter_otlp_endpoint", "http://localhost:4318")
	v.SetDefault("otel_enabled", true)
}

func validate(cfg *Config) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port %d out of range", cfg.Port)
	}

	switch cfg.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}

	switch cfg.LockDriver {
	case LockMemory:
	case LockRedis:
		if cfg.RedisAddr == "" {
			return errors.New("REDIS_ADDR is required for the redis locker")
		}
	default:
		return fmt.Errorf("unknown lock driver %q", cfg.LockDriver)
	}

	if cfg.LockTTL <= 0 {
		return fmt.Errorf("lock ttl %s must be positive", cfg.LockTTL)
	}
	if cfg.PricingCacheTTL < 0 {
		return fmt.Errorf("pricing cache ttl %s is negative", cfg.PricingCacheTTL)
	}

	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
