package app

import (
	"errors"
	"fmt"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/domain/services"
)

// ErrUseCaseFailed - ошибка, с которой сопоставляется любой *UseCaseError.
var ErrUseCaseFailed = errors.New("use case failed")

// UseCaseError оборачивает непредвиденные ошибки инфраструктуры,
// чтобы вызывающая сторона не зависела от деталей хранилища.
type UseCaseError struct {
	Op  string
	Err error
}

func (e *UseCaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UseCaseError) Is(target error) bool {
	return target == ErrUseCaseFailed
}

func (e *UseCaseError) Unwrap() error {
	return e.Err
}

// Ключи ошибок, не связанные с правилами.
const (
	NameKey    = "name"
	RequestKey = "request"

	msgEmptyUpdate = "At least one of name or email must be provided"
)

// isDomainError сообщает, что ошибка ожидаема и передается вызывающему без обертки.
func isDomainError(err error) bool {
	return errors.Is(err, services.ErrValidationFailed) ||
		errors.Is(err, entities.ErrUserNotFound) ||
		errors.Is(err, entities.ErrUserAlreadyExists)
}

// isConflict - ожидаемый конфликт: отсутствующий пользователь или занятый email.
func isConflict(err error) bool {
	if errors.Is(err, entities.ErrUserNotFound) || errors.Is(err, entities.ErrUserAlreadyExists) {
		return true
	}
	var validationErr *services.ValidationError
	return errors.As(err, &validationErr) && validationErr.IsConflict()
}

// entityValidationError переводит ошибки value objects в агрегат по полям.
func entityValidationError(err error) error {
	var errs services.ValidationErrors
	switch {
	case errors.Is(err, entities.ErrInvalidEmailFormat):
		errs.Add(services.EmailKey, entities.ErrInvalidEmailFormat.Error())
	case errors.Is(err, entities.ErrNameTooShort):
		errs.Add(NameKey, entities.ErrNameTooShort.Error())
	case errors.Is(err, entities.ErrNameTooLong):
		errs.Add(NameKey, entities.ErrNameTooLong.Error())
	default:
		return err
	}
	return services.NewValidationError(errs)
}

func emptyUpdateError() error {
	var errs services.ValidationErrors
	errs.Add(RequestKey, msgEmptyUpdate)
	return services.NewValidationError(errs)
}
