package cache

import (
	"context"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/ports/cache"
)

// NoopUserCache ничего не хранит: каждый Get - промах.
type NoopUserCache struct{}

// Get всегда возвращает cache.ErrCacheMiss.
func (NoopUserCache) Get(context.Context, int64) (entities.User, error) {
	return entities.User{}, cache.ErrCacheMiss
}

func (NoopUserCache) Set(context.Context, entities.User) error { return nil }

func (NoopUserCache) Invalidate(context.Context, int64) error { return nil }
