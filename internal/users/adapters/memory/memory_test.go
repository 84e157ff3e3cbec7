package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devplatform/internal/users/adapters/memory"
	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/ports/repositories"
)

var fixedNow = time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)

func newUoW() *memory.UnitOfWork {
	return memory.NewUnitOfWork(memory.NewStore(memory.WithNow(func() time.Time { return fixedNow })))
}

func mustUser(t *testing.T, name, email string) entities.User {
	t.Helper()
	u, err := entities.NewUser(name, email)
	require.NoError(t, err)
	return u
}

func TestCreateAndFind(t *testing.T) {
	uow := newUoW()
	ctx := context.Background()

	created, err := repositories.ExecuteWithResult(ctx, uow,
		func(ctx context.Context, repo repositories.UserRepository) (entities.User, error) {
			return repo.Create(ctx, mustUser(t, "Ana Souza", "ana@example.com"))
		})
	require.NoError(t, err)

	id, ok := created.ID()
	require.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, fixedNow, created.CreatedAt())

	err = uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		byID, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		byEmail, err := repo.FindByEmail(ctx, "ANA@example.com")
		require.NoError(t, err)
		assert.Equal(t, created, byEmail)

		_, err = repo.FindByID(ctx, 42)
		assert.ErrorIs(t, err, entities.ErrUserNotFound)
		return nil
	})
	require.NoError(t, err)
}

func TestRollbackOnError(t *testing.T) {
	uow := newUoW()
	ctx := context.Background()
	errAbort := errors.New("abort")

	err := uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		_, err := repo.Create(ctx, mustUser(t, "Ana Souza", "ana@example.com"))
		require.NoError(t, err)
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	count, err := repositories.ExecuteWithResult(ctx, uow,
		func(ctx context.Context, repo repositories.UserRepository) (int64, error) {
			return repo.Count(ctx)
		})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRollbackOnPanic(t *testing.T) {
	uow := newUoW()
	ctx := context.Background()

	assert.Panics(t, func() {
		_ = uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
			_, _ = repo.Create(ctx, mustUser(t, "Ana Souza", "ana@example.com"))
			panic("boom")
		})
	})

	count, err := repositories.ExecuteWithResult(ctx, uow,
		func(ctx context.Context, repo repositories.UserRepository) (int64, error) {
			return repo.Count(ctx)
		})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestUniqueEmail(t *testing.T) {
	uow := newUoW()
	ctx := context.Background()

	err := uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		_, err := repo.Create(ctx, mustUser(t, "Ana Souza", "ana@example.com"))
		require.NoError(t, err)
		bob, err := repo.Create(ctx, mustUser(t, "Bob Lima", "bob@example.com"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, mustUser(t, "Ana Clone", "Ana@Example.com"))
		assert.ErrorIs(t, err, entities.ErrUserAlreadyExists)

		moved, err := bob.UpdateDetails("Bob Lima", "ana@example.com")
		require.NoError(t, err)
		_, err = repo.Update(ctx, moved)
		assert.ErrorIs(t, err, entities.ErrUserAlreadyExists)

		renamed, err := bob.UpdateDetails("Roberto Lima", "bob@example.com")
		require.NoError(t, err)
		saved, err := repo.Update(ctx, renamed)
		require.NoError(t, err)
		assert.Equal(t, "Roberto Lima", saved.Name().String())
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateRequiresPersistedUser(t *testing.T) {
	uow := newUoW()
	err := uow.Execute(context.Background(), func(ctx context.Context, repo repositories.UserRepository) error {
		_, err := repo.Update(ctx, mustUser(t, "Ana Souza", "ana@example.com"))
		return err
	})
	require.ErrorIs(t, err, entities.ErrUserNotPersisted)
}

func TestFindAllDeleteCount(t *testing.T) {
	uow := newUoW()
	ctx := context.Background()

	err := uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
			if _, err := repo.Create(ctx, mustUser(t, "Ana Souza", email)); err != nil {
				return err
			}
		}
		return repo.Delete(ctx, 2)
	})
	require.NoError(t, err)

	users, err := repositories.ExecuteWithResult(ctx, uow,
		func(ctx context.Context, repo repositories.UserRepository) ([]entities.User, error) {
			return repo.FindAll(ctx)
		})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "a@example.com", users[0].Email().String())
	assert.Equal(t, "c@example.com", users[1].Email().String())

	err = uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		return repo.Delete(ctx, 2)
	})
	require.ErrorIs(t, err, entities.ErrUserNotFound)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := newUoW().Execute(ctx, func(context.Context, repositories.UserRepository) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
