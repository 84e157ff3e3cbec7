package cache

import (
	"context"
	"errors"

	"devplatform/internal/users/domain/entities"
)

// ErrCacheMiss возвращается, когда пользователя нет в кэше.
var ErrCacheMiss = errors.New("user not cached")

// UserCache - кэш пользователей по идентификатору.
type UserCache interface {
	Get(ctx context.Context, id int64) (entities.User, error)

	Set(ctx context.Context, user entities.User) error

	Invalidate(ctx context.Context, id int64) error
}
