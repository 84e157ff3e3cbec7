// Package config загружает конфигурацию сервисов через cleanenv.
package config

import (
	"context"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"go.uber.org/zap"

	"devplatform/pkg/logger"
)

const (
	msgLoadingConfiguration    = "loading configuration"
	msgConfigurationLoaded     = "configuration loaded successfully"
	msgFailedLoadConfiguration = "failed to load configuration"

	errFailedLoadConfiguration = "failed to load configuration"

	attrService = "service"
	attrPath    = "path"
	attrSource  = "source"

	sourceEnv  = "env"
	sourceFile = "file"
)

// Load заполняет T из файла path (yaml, json, toml или .env), а затем из
// переменных окружения. При пустом path читаются только переменные окружения.
func Load[T any](ctx context.Context, serviceName, path string) (*T, error) {
	log := logger.Log(ctx).With(zap.String(attrService, serviceName))

	var (
		cfg T
		err error
	)
	if path == "" {
		log.Info(ctx, msgLoadingConfiguration, zap.String(attrSource, sourceEnv))
		err = cleanenv.ReadEnv(&cfg)
	} else {
		log.Info(ctx, msgLoadingConfiguration, zap.String(attrSource, sourceFile), zap.String(attrPath, path))
		err = cleanenv.ReadConfig(path, &cfg)
	}
	if err != nil {
		log.Error(ctx, msgFailedLoadConfiguration, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", errFailedLoadConfiguration, err)
	}

	log.Debug(ctx, msgConfigurationLoaded)
	return &cfg, nil
}
