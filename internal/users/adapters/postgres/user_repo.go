package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"devplatform/internal/users/domain/entities"
	"devplatform/pkg/logger"
)

// uniqueViolation - код ошибки PostgreSQL при нарушении уникальности.
const uniqueViolation = "23505"

const (
	queryCreateUser = `
        INSERT INTO users (name, email, created_at, updated_at)
        VALUES ($1, $2, $3, $3)
        RETURNING id, name, email, created_at, updated_at
    `
	queryUpdateUser = `
        UPDATE users
        SET name = $2, email = $3, updated_at = $4
        WHERE id = $1
        RETURNING id, name, email, created_at, updated_at
    `
	queryFindByID = `
        SELECT id, name, email, created_at, updated_at
        FROM users
        WHERE id = $1
    `
	queryFindByEmail = `
        SELECT id, name, email, created_at, updated_at
        FROM users
        WHERE LOWER(email) = LOWER($1)
    `
	queryFindAll = `
        SELECT id, name, email, created_at, updated_at
        FROM users
        ORDER BY id
    `
	queryDeleteUser = `
        DELETE FROM users
        WHERE id = $1
    `
	queryCountUsers = `SELECT COUNT(*) FROM users`
)

// Querier - общее подмножество pgxpool.Pool и pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, query string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, query string, args ...interface{}) (pgx.Rows, error)
}

// UserRepository реализует repositories.UserRepository поверх PostgreSQL.
type UserRepository struct {
	db  Querier
	now func() time.Time
}

// NewUserRepository создает репозиторий над пулом или транзакцией.
func NewUserRepository(db Querier) *UserRepository {
	return &UserRepository{db: db, now: time.Now}
}

func (r *UserRepository) log(ctx context.Context, method string) *logger.Logger {
	return logger.Log(ctx).With(zap.String("repository", "user"), zap.String("method", method))
}

// Create создает нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user entities.User) (entities.User, error) {
	log := r.log(ctx, "Create")

	created, err := scanUser(r.db.QueryRow(ctx, queryCreateUser,
		user.Name().String(),
		user.Email().String(),
		r.now().UTC(),
	))
	if err != nil {
		if isUniqueViolation(err) {
			log.Debug(ctx, "email already taken", zap.String("email", user.Email().String()))
			return entities.User{}, &entities.AlreadyExistsError{Email: user.Email().String()}
		}
		log.Error(ctx, "error creating user", zap.Error(err))
		return entities.User{}, fmt.Errorf("error creating user: %w", err)
	}

	return created, nil
}

// Update обновляет имя и email пользователя.
func (r *UserRepository) Update(ctx context.Context, user entities.User) (entities.User, error) {
	log := r.log(ctx, "Update")

	id, ok := user.ID()
	if !ok {
		return entities.User{}, entities.ErrUserNotPersisted
	}

	updated, err := scanUser(r.db.QueryRow(ctx, queryUpdateUser,
		id,
		user.Name().String(),
		user.Email().String(),
		r.now().UTC(),
	))
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			log.Debug(ctx, "user not found for update", zap.Int64("id", id))
			return entities.User{}, entities.ErrUserNotFound
		case isUniqueViolation(err):
			log.Debug(ctx, "email already taken", zap.String("email", user.Email().String()))
			return entities.User{}, &entities.AlreadyExistsError{Email: user.Email().String()}
		}
		log.Error(ctx, "error updating user", zap.Error(err))
		return entities.User{}, fmt.Errorf("error updating user: %w", err)
	}

	return updated, nil
}

// FindByID находит пользователя по ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (entities.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryFindByID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log(ctx, "FindByID").Debug(ctx, "user not found", zap.Int64("id", id))
			return entities.User{}, entities.ErrUserNotFound
		}
		r.log(ctx, "FindByID").Error(ctx, "error finding user by id", zap.Error(err))
		return entities.User{}, fmt.Errorf("error querying user by id: %w", err)
	}
	return user, nil
}

// FindByEmail находит пользователя по email без учета регистра.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, queryFindByEmail, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.log(ctx, "FindByEmail").Debug(ctx, "user not found", zap.String("email", email))
			return entities.User{}, entities.ErrUserNotFound
		}
		r.log(ctx, "FindByEmail").Error(ctx, "error finding user by email", zap.Error(err))
		return entities.User{}, fmt.Errorf("error querying user by email: %w", err)
	}
	return user, nil
}

// FindAll возвращает всех пользователей в порядке возрастания ID.
func (r *UserRepository) FindAll(ctx context.Context) ([]entities.User, error) {
	log := r.log(ctx, "FindAll")

	rows, err := r.db.Query(ctx, queryFindAll)
	if err != nil {
		log.Error(ctx, "error listing users", zap.Error(err))
		return nil, fmt.Errorf("error listing users: %w", err)
	}
	defer rows.Close()

	users := make([]entities.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Error(ctx, "error scanning user row", zap.Error(err))
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Error(ctx, "error iterating user rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}

	return users, nil
}

// Delete удаляет пользователя по ID.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	log := r.log(ctx, "Delete")

	result, err := r.db.Exec(ctx, queryDeleteUser, id)
	if err != nil {
		log.Error(ctx, "error deleting user", zap.Error(err))
		return fmt.Errorf("error deleting user: %w", err)
	}

	if result.RowsAffected() == 0 {
		log.Debug(ctx, "user not found for deletion", zap.Int64("id", id))
		return entities.ErrUserNotFound
	}

	return nil
}

// Count возвращает число пользователей.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, queryCountUsers).Scan(&count); err != nil {
		r.log(ctx, "Count").Error(ctx, "error counting users", zap.Error(err))
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

func scanUser(row pgx.Row) (entities.User, error) {
	var (
		id                   int64
		name, email          string
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &name, &email, &createdAt, &updatedAt); err != nil {
		return entities.User{}, err
	}

	user, err := entities.RestoreUser(id, name, email, createdAt, updatedAt)
	if err != nil {
		return entities.User{}, fmt.Errorf("restoring user %d: %w", id, err)
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
