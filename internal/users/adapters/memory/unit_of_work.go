package memory

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/ports/repositories"
	"devplatform/pkg/logger"
)

const (
	methodExecute = "memory.UnitOfWork.Execute"

	msgTxRolledBack = "in-memory transaction rolled back"
)

// Store - зафиксированное состояние хранилища.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time
}

// StoreOption настраивает Store.
type StoreOption func(*Store)

// WithNow задает источник времени для отметок created_at/updated_at.
func WithNow(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		state: &state{users: make(map[int64]entities.User)},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UnitOfWork выполняет транзакции над Store по одной за раз.
// Изменения видны другим транзакциям только после фиксации.
type UnitOfWork struct {
	store *Store
}

func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{store: store}
}

// Execute запускает fn над копией состояния и фиксирует ее, если fn вернула nil.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repo repositories.UserRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	u.store.mu.Lock()
	defer u.store.mu.Unlock()

	tx := u.store.state.clone()
	repo := &UserRepository{state: tx, now: u.store.now}

	defer func() {
		if p := recover(); p != nil {
			logger.Log(ctx).Warn(ctx, msgTxRolledBack, zap.String("method", methodExecute), zap.Any("panic", p))
			panic(p)
		}
	}()

	if err := fn(ctx, repo); err != nil {
		logger.Log(ctx).Debug(ctx, msgTxRolledBack, zap.String("method", methodExecute), zap.Error(err))
		return err
	}

	u.store.state = tx
	return nil
}
