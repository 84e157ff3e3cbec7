package repositories

import (
	"context"

	"devplatform/internal/users/domain/entities"
)

// UserRepository определяет операции хранения пользователей.
// Отсутствие пользователя сообщается ошибкой entities.ErrUserNotFound.
type UserRepository interface {
	Create(ctx context.Context, user entities.User) (entities.User, error)

	Update(ctx context.Context, user entities.User) (entities.User, error)

	FindByID(ctx context.Context, id int64) (entities.User, error)

	FindByEmail(ctx context.Context, email string) (entities.User, error)

	FindAll(ctx context.Context) ([]entities.User, error)

	Delete(ctx context.Context, id int64) error

	Count(ctx context.Context) (int64, error)
}
