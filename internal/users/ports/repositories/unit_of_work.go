package repositories

import "context"

// UnitOfWork выполняет функцию в рамках одной транзакции: фиксирует ее,
// если fn вернула nil, и откатывает при любой ошибке или панике.
// Переданный в fn репозиторий действителен только внутри вызова.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, repo UserRepository) error) error
}

// ExecuteWithResult - вариант Execute, возвращающий значение из транзакции.
func ExecuteWithResult[T any](
	ctx context.Context,
	uow UnitOfWork,
	fn func(ctx context.Context, repo UserRepository) (T, error),
) (T, error) {
	var result T
	err := uow.Execute(ctx, func(ctx context.Context, repo UserRepository) error {
		var err error
		result, err = fn(ctx, repo)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
