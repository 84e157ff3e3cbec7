// Package memory реализует хранение пользователей в памяти процесса.
// Используется в режиме разработки и в тестах.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"devplatform/internal/users/domain/entities"
)

// UserRepository работает с состоянием одной транзакции.
// Экземпляр не потокобезопасен: доступ сериализует UnitOfWork.
type UserRepository struct {
	state *state
	now   func() time.Time
}

type state struct {
	users  map[int64]entities.User
	nextID int64
}

func (s *state) clone() *state {
	users := make(map[int64]entities.User, len(s.users))
	for id, u := range s.users {
		users[id] = u
	}
	return &state{users: users, nextID: s.nextID}
}

// Create назначает пользователю идентификатор и отметки времени.
func (r *UserRepository) Create(ctx context.Context, user entities.User) (entities.User, error) {
	if err := ctx.Err(); err != nil {
		return entities.User{}, err
	}
	if r.emailTaken(user.Email().String(), 0) {
		return entities.User{}, &entities.AlreadyExistsError{Email: user.Email().String()}
	}

	r.state.nextID++
	now := r.now().UTC()
	created := user.WithID(r.state.nextID).WithTimestamps(now, now)
	r.state.users[r.state.nextID] = created
	return created, nil
}

// Update сохраняет новые имя и email, сохраняя дату создания.
func (r *UserRepository) Update(ctx context.Context, user entities.User) (entities.User, error) {
	if err := ctx.Err(); err != nil {
		return entities.User{}, err
	}
	id, ok := user.ID()
	if !ok {
		return entities.User{}, entities.ErrUserNotPersisted
	}
	current, ok := r.state.users[id]
	if !ok {
		return entities.User{}, entities.ErrUserNotFound
	}
	if r.emailTaken(user.Email().String(), id) {
		return entities.User{}, &entities.AlreadyExistsError{Email: user.Email().String()}
	}

	updated := user.WithTimestamps(current.CreatedAt(), r.now().UTC())
	r.state.users[id] = updated
	return updated, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (entities.User, error) {
	if err := ctx.Err(); err != nil {
		return entities.User{}, err
	}
	user, ok := r.state.users[id]
	if !ok {
		return entities.User{}, entities.ErrUserNotFound
	}
	return user, nil
}

// FindByEmail ищет пользователя по email без учета регистра.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (entities.User, error) {
	if err := ctx.Err(); err != nil {
		return entities.User{}, err
	}
	for _, u := range r.state.users {
		if strings.EqualFold(u.Email().String(), email) {
			return u, nil
		}
	}
	return entities.User{}, entities.ErrUserNotFound
}

// FindAll возвращает пользователей в порядке возрастания идентификатора.
func (r *UserRepository) FindAll(ctx context.Context) ([]entities.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(r.state.users))
	for id := range r.state.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	users := make([]entities.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, r.state.users[id])
	}
	return users, nil
}

func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.state.users[id]; !ok {
		return entities.ErrUserNotFound
	}
	delete(r.state.users, id)
	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return int64(len(r.state.users)), nil
}

func (r *UserRepository) emailTaken(email string, excludeID int64) bool {
	for id, u := range r.state.users {
		if id != excludeID && strings.EqualFold(u.Email().String(), email) {
			return true
		}
	}
	return false
}
