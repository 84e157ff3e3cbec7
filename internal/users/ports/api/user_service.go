package api

import (
	"context"

	"devplatform/internal/users/app/dto"
)

// UserUseCase определяет основной порт для операций над пользователями.
type UserUseCase interface {
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (dto.UserResponse, error)

	UpdateUser(ctx context.Context, id int64, req dto.UpdateUserRequest) (dto.UserResponse, error)

	GetUser(ctx context.Context, id int64) (dto.UserResponse, error)

	ListUsers(ctx context.Context, req dto.ListUsersRequest) (dto.UserListResponse, error)

	DeleteUser(ctx context.Context, id int64) error

	UserStatistics(ctx context.Context) (dto.StatisticsResponse, error)

	ValidationRules(ctx context.Context) (dto.RulesResponse, error)
}
