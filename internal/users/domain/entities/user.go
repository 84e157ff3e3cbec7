// Package entities содержит сущность пользователя и ее value objects.
package entities

import (
	"fmt"
	"time"
)

// User - сущность пользователя. Значение неизменяемо: любые изменения
// возвращают новую копию, поэтому невалидное состояние получить нельзя.
type User struct {
	id        int64
	name      UserName
	email     Email
	createdAt time.Time
	updatedAt time.Time
}

// NewUser создает еще не сохраненного пользователя из сырых строк.
func NewUser(name, email string) (User, error) {
	userName, err := NewUserName(name)
	if err != nil {
		return User{}, fmt.Errorf("name: %w", err)
	}
	userEmail, err := NewEmail(email)
	if err != nil {
		return User{}, fmt.Errorf("email: %w", err)
	}
	return User{name: userName, email: userEmail}, nil
}

// RestoreUser восстанавливает пользователя из хранилища.
func RestoreUser(id int64, name, email string, createdAt, updatedAt time.Time) (User, error) {
	user, err := NewUser(name, email)
	if err != nil {
		return User{}, err
	}
	user.id = id
	user.createdAt = createdAt
	user.updatedAt = updatedAt
	return user, nil
}

// ID возвращает идентификатор и признак того, что он уже назначен.
func (u User) ID() (int64, bool) { return u.id, u.id != 0 }

func (u User) Name() UserName       { return u.name }
func (u User) Email() Email         { return u.email }
func (u User) CreatedAt() time.Time { return u.createdAt }
func (u User) UpdatedAt() time.Time { return u.updatedAt }

// IsPersisted сообщает, назначен ли пользователю идентификатор.
func (u User) IsPersisted() bool { return u.id != 0 }

// WithID возвращает копию с новым идентификатором.
func (u User) WithID(id int64) User {
	u.id = id
	return u
}

// WithTimestamps возвращает копию с отметками времени из хранилища.
func (u User) WithTimestamps(createdAt, updatedAt time.Time) User {
	u.createdAt = createdAt
	u.updatedAt = updatedAt
	return u
}

// UpdateDetails возвращает копию с новыми именем и email,
// оба значения проходят валидацию value objects.
func (u User) UpdateDetails(name, email string) (User, error) {
	userName, err := NewUserName(name)
	if err != nil {
		return u, fmt.Errorf("name: %w", err)
	}
	userEmail, err := NewEmail(email)
	if err != nil {
		return u, fmt.Errorf("email: %w", err)
	}
	u.name = userName
	u.email = userEmail
	return u, nil
}
