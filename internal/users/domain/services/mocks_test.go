package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devplatform/internal/users/domain/entities"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) FindByID(ctx context.Context, id int64) (entities.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(entities.User), args.Error(1)
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(entities.User), args.Error(1)
}

func (m *mockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockUserRepository) FindAll(ctx context.Context) ([]entities.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.User), args.Error(1)
}

// readerOnly скрывает Count, чтобы проверить репозиторий без подсчета.
type readerOnly struct {
	repo *mockUserRepository
}

func (r readerOnly) FindByID(ctx context.Context, id int64) (entities.User, error) {
	return r.repo.FindByID(ctx, id)
}

func (r readerOnly) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	return r.repo.FindByEmail(ctx, email)
}

func newUser(t *testing.T, name, email string) entities.User {
	t.Helper()
	user, err := entities.NewUser(name, email)
	require.NoError(t, err)
	return user
}

func emptyRepo() *mockUserRepository {
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(entities.User{}, entities.ErrUserNotFound)
	return repo
}
