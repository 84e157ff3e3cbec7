// Package postgres реализует хранение пользователей в PostgreSQL через pgx.
package postgres

import (
	"devplatform/internal/users/ports/repositories"
	"devplatform/pkg/resilience"
)

// RepositoryFactory создает репозитории и unit of work над одним пулом.
type RepositoryFactory struct {
	userRepo repositories.UserRepository
	uow      repositories.UnitOfWork
}

// NewRepositoryFactory создает новую фабрику репозиториев.
func NewRepositoryFactory(pool PgxPoolInterface, retryConfig resilience.Config) *RepositoryFactory {
	return &RepositoryFactory{
		userRepo: NewUserRepository(pool),
		uow:      NewUnitOfWork(pool, retryConfig),
	}
}

// UserRepository возвращает репозиторий, работающий вне транзакции.
func (f *RepositoryFactory) UserRepository() repositories.UserRepository {
	return f.userRepo
}

// UnitOfWork возвращает транзакционную границу для сценариев.
func (f *RepositoryFactory) UnitOfWork() repositories.UnitOfWork {
	return f.uow
}
