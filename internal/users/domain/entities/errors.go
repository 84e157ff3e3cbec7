package entities

import (
	"errors"
	"fmt"
	"strconv"
)

// Ошибки домена пользователя.
var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrNameTooShort       = errors.New("name must be at least 3 characters long")
	ErrNameTooLong        = errors.New("name cannot exceed 100 characters")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrUserNotPersisted   = errors.New("user has no identifier yet")
)

// NotFoundError описывает отсутствующего пользователя и сопоставляется с ErrUserNotFound.
type NotFoundError struct {
	Identifier     string
	IdentifierType string
}

// NewNotFoundByID создает ошибку для поиска по идентификатору.
func NewNotFoundByID(id int64) *NotFoundError {
	return &NotFoundError{Identifier: strconv.FormatInt(id, 10), IdentifierType: "id"}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("User not found with %s: %s", e.IdentifierType, e.Identifier)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrUserNotFound
}

// AlreadyExistsError описывает конфликт по email и сопоставляется с ErrUserAlreadyExists.
type AlreadyExistsError struct {
	Email string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("User with email '%s' already exists", e.Email)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrUserAlreadyExists
}
