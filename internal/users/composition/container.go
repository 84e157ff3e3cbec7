// Package composition собирает зависимости сервиса пользователей из конфигурации.
package composition

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	usercache "devplatform/internal/users/adapters/cache"
	"devplatform/internal/users/adapters/memory"
	"devplatform/internal/users/adapters/postgres"
	"devplatform/internal/users/app"
	"devplatform/internal/users/config"
	"devplatform/internal/users/db"
	"devplatform/internal/users/domain/services"
	"devplatform/internal/users/ports/api"
	"devplatform/internal/users/ports/cache"
	"devplatform/internal/users/ports/repositories"
	"devplatform/pkg/db/redis"
	"devplatform/pkg/logger"
)

// Сообщения логгера.
const (
	LogInitStorage    = "initializing storage"
	LogInitCache      = "initializing user cache"
	LogCacheFallback  = "user cache unavailable, continuing without cache"
	LogInitServices   = "initializing domain services"
	LogInitUseCases   = "initializing use cases"
	LogClosingStorage = "closing storage"
)

// Сообщения об ошибках.
const (
	ErrInitStorage  = "failed to initialize storage"
	ErrInitTimezone = "failed to load business hours timezone"
)

// HealthChecker проверяет доступность хранилища.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Container владеет ресурсами сервиса и отдает готовые сценарии.
type Container struct {
	useCase api.UserUseCase
	factory *services.DomainServiceFactory
	cache   cache.UserCache

	database *db.DB
	redis    *redis.Client
}

// Option настраивает Container.
type Option func(*options)

type options struct {
	factoryOpts []services.FactoryOption
	store       *memory.Store
}

// WithFactoryOptions передает опции фабрике доменных сервисов (например, часы).
func WithFactoryOptions(opts ...services.FactoryOption) Option {
	return func(o *options) {
		o.factoryOpts = append(o.factoryOpts, opts...)
	}
}

// WithMemoryStore задает хранилище для режима memory.
func WithMemoryStore(store *memory.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// New собирает контейнер. Ошибка подключения к Redis не фатальна:
// сервис продолжает работу без кэша.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	log := logger.Log(ctx)

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Container{}

	log.Info(ctx, LogInitStorage, zap.String("driver", cfg.Storage.Driver))
	uow, err := c.initStorage(ctx, cfg, o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrInitStorage, err)
	}

	c.initCache(ctx, cfg)

	log.Info(ctx, LogInitServices)
	loc, err := cfg.Validation.GetLocation()
	if err != nil {
		_ = c.Close(ctx)
		return nil, fmt.Errorf("%s: %w", ErrInitTimezone, err)
	}
	factoryOpts := append([]services.FactoryOption{services.WithLocation(loc)}, o.factoryOpts...)
	c.factory = services.NewDomainServiceFactory(
		cfg.Validation.RuleSettings(),
		cfg.Enterprise.RuleSettings(),
		factoryOpts...,
	)

	log.Info(ctx, LogInitUseCases)
	c.useCase = app.NewUserUseCase(uow, c.factory, app.WithCache(c.cache))

	return c, nil
}

func (c *Container) initStorage(ctx context.Context, cfg *config.Config, o *options) (repositories.UnitOfWork, error) {
	if cfg.Storage.IsMemory() {
		store := o.store
		if store == nil {
			store = memory.NewStore()
		}
		return memory.NewUnitOfWork(store), nil
	}

	database, err := db.New(ctx, &cfg.Postgres)
	if err != nil {
		return nil, err
	}
	c.database = database

	return postgres.NewRepositoryFactory(database.Pool(), cfg.Postgres.GetRetryConfig()).UnitOfWork(), nil
}

func (c *Container) initCache(ctx context.Context, cfg *config.Config) {
	c.cache = usercache.NoopUserCache{}
	if !cfg.Redis.Enabled {
		return
	}

	log := logger.Log(ctx)
	log.Info(ctx, LogInitCache)

	client, err := redis.NewClient(ctx, cfg.Redis.GetClientConfig())
	if err != nil {
		log.Warn(ctx, LogCacheFallback, zap.Error(err))
		return
	}
	c.redis = client
	c.cache = usercache.NewRedisUserCache(client, cfg.Redis.TTL)
}

// UserUseCase возвращает сценарии работы с пользователями.
func (c *Container) UserUseCase() api.UserUseCase { return c.useCase }

// Factory возвращает фабрику доменных сервисов.
func (c *Container) Factory() *services.DomainServiceFactory { return c.factory }

// Cache возвращает используемый кэш пользователей.
func (c *Container) Cache() cache.UserCache { return c.cache }

// HealthChecker возвращает проверку хранилища или nil для хранилища в памяти.
func (c *Container) HealthChecker() HealthChecker {
	if c.database == nil {
		return nil
	}
	return c.database
}

// Close освобождает соединения с Redis и PostgreSQL.
func (c *Container) Close(ctx context.Context) error {
	logger.Log(ctx).Info(ctx, LogClosingStorage)

	var errs []error
	if c.redis != nil {
		if err := c.redis.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if c.database != nil {
		c.database.Close(ctx)
	}
	return errors.Join(errs...)
}
