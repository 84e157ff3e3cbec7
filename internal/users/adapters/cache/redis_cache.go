// Package cache содержит реализации порта cache.UserCache.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/ports/cache"
	"devplatform/pkg/db/redis"
	"devplatform/pkg/logger"
)

const (
	keyPrefix = "users:"

	// DefaultTTL - время жизни записи, если не задано иное.
	DefaultTTL = 5 * time.Minute

	errCtxEncode = "encoding cached user"
	errCtxDecode = "decoding cached user"
	errCtxGet    = "reading cached user"
	errCtxSet    = "writing cached user"
	errCtxDelete = "deleting cached user"
)

// KeyValueStore - минимальный набор операций хранилища ключ-значение.
// Реализуется redis.Client из pkg/db/redis.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type cachedUser struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RedisUserCache хранит пользователей в Redis в виде JSON.
type RedisUserCache struct {
	store KeyValueStore
	ttl   time.Duration
}

// NewRedisUserCache создает кэш. Неположительный ttl заменяется DefaultTTL.
func NewRedisUserCache(store KeyValueStore, ttl time.Duration) *RedisUserCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisUserCache{store: store, ttl: ttl}
}

// Key возвращает ключ Redis для пользователя.
func Key(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

// Get возвращает пользователя из кэша или cache.ErrCacheMiss.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (entities.User, error) {
	raw, err := c.store.Get(ctx, Key(id))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return entities.User{}, cache.ErrCacheMiss
		}
		return entities.User{}, fmt.Errorf("%s: %w", errCtxGet, err)
	}

	var cu cachedUser
	if err := json.Unmarshal([]byte(raw), &cu); err != nil {
		c.drop(ctx, id)
		return entities.User{}, fmt.Errorf("%s: %w", errCtxDecode, err)
	}

	user, err := entities.RestoreUser(cu.ID, cu.Name, cu.Email, cu.CreatedAt, cu.UpdatedAt)
	if err != nil {
		c.drop(ctx, id)
		return entities.User{}, fmt.Errorf("%s: %w", errCtxDecode, err)
	}
	return user, nil
}

// Set сохраняет сохраненного в БД пользователя.
func (c *RedisUserCache) Set(ctx context.Context, user entities.User) error {
	id, ok := user.ID()
	if !ok {
		return entities.ErrUserNotPersisted
	}

	payload, err := json.Marshal(cachedUser{
		ID:        id,
		Name:      user.Name().String(),
		Email:     user.Email().String(),
		CreatedAt: user.CreatedAt(),
		UpdatedAt: user.UpdatedAt(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", errCtxEncode, err)
	}

	if err := c.store.Set(ctx, Key(id), payload, c.ttl); err != nil {
		return fmt.Errorf("%s: %w", errCtxSet, err)
	}
	return nil
}

// Invalidate удаляет пользователя из кэша.
func (c *RedisUserCache) Invalidate(ctx context.Context, id int64) error {
	if err := c.store.Delete(ctx, Key(id)); err != nil {
		return fmt.Errorf("%s: %w", errCtxDelete, err)
	}
	return nil
}

// drop удаляет поврежденную запись, чтобы следующий запрос перечитал ее из БД.
func (c *RedisUserCache) drop(ctx context.Context, id int64) {
	if err := c.store.Delete(ctx, Key(id)); err != nil {
		logger.Log(ctx).Warn(ctx, "failed to drop corrupted cache entry",
			zap.Int64("id", id), zap.Error(err))
	}
}
