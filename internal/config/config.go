// Package config содержит логику чтения конфигурации сервиса заказов поставщикам.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendLegacy   = "legacy"
)

const (
	defaultRunAddress     = "localhost:8080"
	defaultCatalogRefresh = "@every 1m"
	defaultCallTimeout    = 5 * time.Second
)

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress       string        `env:"RUN_ADDRESS"`
	DatabaseURI      string        `env:"DATABASE_URI"`
	StoreBackend     string        `env:"STORE_BACKEND"`
	LegacyAPIAddress string        `env:"LEGACY_API_ADDRESS"`
	RedisAddr        string        `env:"REDIS_ADDR"`
	CatalogRefresh   string        `env:"CATALOG_REFRESH"`
	CallTimeout      time.Duration `env:"CALL_TIMEOUT"`
	SessionSecret    string        `env:"SESSION_SECRET"`
}

// Parse считывает конфигурацию из файла .env, флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	envCfg := &Config{}
	if err := env.Parse(envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{}

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.StoreBackend, "b", BackendPostgres, "store backend: postgres or legacy")
	flag.StringVar(&cfg.LegacyAPIAddress, "l", "", "legacy REST backend address")
	flag.StringVar(&cfg.RedisAddr, "redis", "", "redis address for submission guard")
	flag.StringVar(&cfg.CatalogRefresh, "refresh", defaultCatalogRefresh, "catalog refresh cron schedule, \"off\" to disable")
	flag.DurationVar(&cfg.CallTimeout, "timeout", defaultCallTimeout, "timeout of a single external call")

	flag.Parse()

	merge(cfg, envCfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromEnv считывает конфигурацию только из файла .env и переменных окружения.
func FromEnv() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	envCfg := &Config{}
	if err := env.Parse(envCfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg := &Config{
		RunAddress:     defaultRunAddress,
		StoreBackend:   BackendPostgres,
		CatalogRefresh: defaultCatalogRefresh,
		CallTimeout:    defaultCallTimeout,
	}
	merge(cfg, envCfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// RefreshSchedule возвращает расписание обновления каталога; пустая строка отключает обновление.
func (c *Config) RefreshSchedule() string {
	if c.CatalogRefresh == "off" {
		return ""
	}
	return c.CatalogRefresh
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func merge(cfg, envCfg *Config) {
	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.StoreBackend != "" {
		cfg.StoreBackend = envCfg.StoreBackend
	}
	if envCfg.LegacyAPIAddress != "" {
		cfg.LegacyAPIAddress = envCfg.LegacyAPIAddress
	}
	if envCfg.RedisAddr != "" {
		cfg.RedisAddr = envCfg.RedisAddr
	}
	if envCfg.CatalogRefresh != "" {
		cfg.CatalogRefresh = envCfg.CatalogRefresh
	}
	if envCfg.CallTimeout != 0 {
		cfg.CallTimeout = envCfg.CallTimeout
	}
	if envCfg.SessionSecret != "" {
		cfg.SessionSecret = envCfg.SessionSecret
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURI == "" {
			return fmt.Errorf("database URI is required for %s backend", BackendPostgres)
		}
	case BackendLegacy:
		if c.LegacyAPIAddress == "" {
			return fmt.Errorf("legacy API address is required for %s backend", BackendLegacy)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.StoreBackend)
	}

	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}

	return nil
}
