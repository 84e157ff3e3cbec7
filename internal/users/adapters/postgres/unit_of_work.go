package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"devplatform/internal/users/ports/repositories"
	"devplatform/pkg/logger"
	"devplatform/pkg/resilience"
)

const (
	methodExecute = "postgres.UnitOfWork.Execute"

	msgTxBeginFailed    = "failed to begin transaction"
	msgTxRollback       = "rolling back transaction"
	msgTxRollbackFailed = "failed to roll back transaction"
	msgTxCommitFailed   = "failed to commit transaction"

	errCtxBeginTx  = "beginning transaction"
	errCtxCommitTx = "committing transaction"
)

// TxBeginner открывает транзакции; реализуется pgxpool.Pool и pgxmock.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxPoolInterface - пул соединений, с которым работают адаптеры.
type PgxPoolInterface interface {
	Querier
	TxBeginner
	Ping(ctx context.Context) error
	Close()
}

// UnitOfWork выполняет функцию в одной транзакции pgx.
type UnitOfWork struct {
	pool  TxBeginner
	retry *resilience.Retrier
}

// NewUnitOfWork создает UnitOfWork. Открытие транзакции повторяется
// при временных ошибках соединения.
func NewUnitOfWork(pool TxBeginner, retryConfig resilience.Config) *UnitOfWork {
	retryConfig.ShouldRetry = IsTransient
	return &UnitOfWork{
		pool:  pool,
		retry: resilience.New("postgres.begin", retryConfig),
	}
}

// Execute открывает транзакцию, выполняет fn и фиксирует ее, если fn вернула nil.
// При ошибке или панике транзакция откатывается.
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, repo repositories.UserRepository) error) error {
	log := logger.Log(ctx).With(zap.String("method", methodExecute))

	tx, err := resilience.DoWithResult(ctx, u.retry, func(ctx context.Context) (pgx.Tx, error) {
		return u.pool.Begin(ctx)
	})
	if err != nil {
		log.Error(ctx, msgTxBeginFailed, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxBeginTx, err)
	}

	defer func() {
		if p := recover(); p != nil {
			rollback(ctx, log, tx)
			panic(p)
		}
	}()

	if err := fn(ctx, NewUserRepository(tx)); err != nil {
		log.Debug(ctx, msgTxRollback, zap.Error(err))
		rollback(ctx, log, tx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		log.Error(ctx, msgTxCommitFailed, zap.Error(err))
		return fmt.Errorf("%s: %w", errCtxCommitTx, err)
	}
	return nil
}

func rollback(ctx context.Context, log *logger.Logger, tx pgx.Tx) {
	// Откат выполняется и после отмены исходного контекста.
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		log.Error(ctx, msgTxRollbackFailed, zap.Error(err))
	}
}

// IsTransient сообщает, что операцию можно безопасно повторить.
func IsTransient(err error) bool {
	if !resilience.NotCanceled(err) {
		return false
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
