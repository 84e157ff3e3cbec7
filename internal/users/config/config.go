// Package config содержит конфигурацию сервиса пользователей.
package config

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	pkgconfig "devplatform/pkg/config"
	"devplatform/pkg/logger"
)

// Сообщения логгера и ошибок.
const (
	LogLoadingConfig    = "Loading users service configuration"
	LogConfigLoaded     = "Configuration loaded successfully"
	ErrFailedLoadConfig = "Failed to load configuration"
	ErrInvalidConfig    = "Invalid configuration"
)

// FileEnv - переменная окружения с путем к необязательному файлу конфигурации.
const FileEnv = "USERS_CONFIG_FILE"

const serviceName = "users"

// Config представляет полную конфигурацию приложения.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Redis      RedisConfig      `yaml:"redis"`
	HTTP       HTTPConfig       `yaml:"http"`
	GRPC       GRPCConfig       `yaml:"grpc"`
	Logging    LoggingConfig    `yaml:"logging"`
	Shutdown   ShutdownConfig   `yaml:"shutdown"`
	Validation ValidationConfig `yaml:"validation"`
	Enterprise EnterpriseConfig `yaml:"enterprise"`
}

// Load загружает конфигурацию и проверяет ее. Если задан USERS_CONFIG_FILE,
// значения сначала читаются из файла, переменные окружения имеют приоритет.
func Load(ctx context.Context) (*Config, error) {
	log := logger.Log(ctx)
	log.Info(ctx, LogLoadingConfig)

	cfg, err := pkgconfig.Load[Config](ctx, serviceName, os.Getenv(FileEnv))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrFailedLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		log.Error(ctx, ErrInvalidConfig, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", ErrInvalidConfig, err)
	}

	log.Info(ctx, LogConfigLoaded,
		zap.String("storage", cfg.Storage.Driver),
		zap.String("postgres_host", cfg.Postgres.Host),
		zap.Int("postgres_port", cfg.Postgres.Port),
		zap.Bool("cache_enabled", cfg.Redis.Enabled),
		zap.String("http_address", cfg.HTTP.GetAddress()),
		zap.String("grpc_address", cfg.GRPC.GetAddress()),
		zap.String("log_level", cfg.Logging.Level),
		zap.String("log_mode", cfg.Logging.Mode),
		zap.Bool("profanity_filter", cfg.Validation.ProfanityFilter),
		zap.Strings("allowed_domains", cfg.Validation.AllowedDomains),
		zap.Bool("business_hours_only", cfg.Validation.BusinessHoursOnly),
		zap.Int64("max_users", cfg.Validation.MaxUsers))

	return cfg, nil
}

// Validate проверяет значения, которые cleanenv не может проверить сам.
func (c *Config) Validate() error {
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if _, err := c.Validation.GetLocation(); err != nil {
		return err
	}
	if c.Validation.MaxUsers < 0 {
		return fmt.Errorf("max users must not be negative: %d", c.Validation.MaxUsers)
	}
	return nil
}
