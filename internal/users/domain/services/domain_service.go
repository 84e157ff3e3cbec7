// Package services содержит движок бизнес-правил пользователя:
// правила, их композицию, проверку уникальности email и аналитику.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"devplatform/internal/users/domain/entities"
	"devplatform/pkg/logger"
)

const (
	methodCheckBusinessRules = "CheckBusinessRules"
	methodCheckUserUpdate    = "CheckUserUpdate"
	methodCreationLimits     = "CheckCreationConstraints"

	msgRuleFailed          = "validation rule failed"
	msgRulesViolated       = "business rules violated"
	msgCreationLimitFailed = "unable to verify system constraints"

	msgRuleFailedFmt        = "Validation rule failed: %v"
	msgMaxUsersReached      = "Maximum number of users reached"
	msgConstraintsUnchecked = "Unable to verify system constraints: %v"

	errCtxCheckingUniqueness = "checking email uniqueness"
	errCtxLoadingCurrentUser = "loading current user"
)

// ErrCountUnsupported возвращается, если репозиторий не умеет считать пользователей.
var ErrCountUnsupported = errors.New("repository does not support counting users")

// UserReader - то, что движку правил нужно от хранилища.
type UserReader interface {
	FindByID(ctx context.Context, id int64) (entities.User, error)
	FindByEmail(ctx context.Context, email string) (entities.User, error)
}

// UserCounter сообщает количество сохраненных пользователей.
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// UserLister возвращает всех пользователей.
type UserLister interface {
	FindAll(ctx context.Context) ([]entities.User, error)
}

// UserDomainService запускает набор правил и проверку уникальности,
// собирая все нарушения за один проход.
type UserDomainService struct {
	repo       UserReader
	uniqueness *UserUniquenessService
	maxUsers   int64

	mu    sync.RWMutex
	rules []ValidationRule
}

// Option настраивает UserDomainService.
type Option func(*UserDomainService)

// WithMaxUsers задает предел числа пользователей; 0 отключает проверку.
func WithMaxUsers(limit int64) Option {
	return func(s *UserDomainService) {
		s.maxUsers = limit
	}
}

// NewUserDomainService создает сервис. Если правила не переданы,
// используются проверки формата email и содержимого имени.
func NewUserDomainService(repo UserReader, rules []ValidationRule, opts ...Option) *UserDomainService {
	if len(rules) == 0 {
		rules = []ValidationRule{NewEmailFormatRule(), NewNameContentRule()}
	}

	s := &UserDomainService{
		repo:       repo,
		uniqueness: NewUserUniquenessService(repo),
		rules:      append([]ValidationRule(nil), rules...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddValidationRule добавляет правило в конец набора.
func (s *UserDomainService) AddValidationRule(rule ValidationRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, rule)
}

// RemoveValidationRule удаляет все правила с указанным именем.
// Отсутствие правила не является ошибкой.
func (s *UserDomainService) RemoveValidationRule(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.rules[:0:0]
	for _, r := range s.rules {
		if r.Name() != name {
			kept = append(kept, r)
		}
	}
	s.rules = kept
}

// RuleNames возвращает имена активных правил в порядке выполнения.
func (s *UserDomainService) RuleNames() []string {
	rules := s.snapshot()
	names := make([]string, 0, len(rules))
	for _, r := range rules {
		names = append(names, r.Name())
	}
	return names
}

// ValidationSummary возвращает описания активных правил.
func (s *UserDomainService) ValidationSummary() map[string]string {
	rules := s.snapshot()
	summary := make(map[string]string, len(rules))
	for _, r := range rules {
		desc := "No description available"
		if d, ok := r.(Describer); ok {
			desc = d.Description()
		}
		summary[r.Name()] = desc
	}
	return summary
}

// CheckBusinessRules проверяет нового пользователя: уникальность email и все правила.
// Пустой агрегат означает успех; ошибка возвращается только при сбое хранилища.
func (s *UserDomainService) CheckBusinessRules(ctx context.Context, user entities.User) (ValidationErrors, error) {
	var errs ValidationErrors

	excludeID, _ := user.ID()
	if err := s.recordUniqueness(ctx, &errs, user.Email().String(), excludeID); err != nil {
		return ValidationErrors{}, err
	}

	s.runRules(ctx, methodCheckBusinessRules, &errs, user)
	return errs, nil
}

// ValidateBusinessRules - вариант CheckBusinessRules, возвращающий *ValidationError.
func (s *UserDomainService) ValidateBusinessRules(ctx context.Context, user entities.User) error {
	errs, err := s.CheckBusinessRules(ctx, user)
	if err != nil {
		return err
	}
	return s.toError(ctx, methodCheckBusinessRules, errs)
}

// CheckUserUpdate проверяет изменения пользователя с идентификатором userID.
// Уникальность email проверяется, только если email изменился.
func (s *UserDomainService) CheckUserUpdate(ctx context.Context, userID int64, updated entities.User) (ValidationErrors, error) {
	current, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return ValidationErrors{}, entities.NewNotFoundByID(userID)
		}
		return ValidationErrors{}, fmt.Errorf("%s: %w", errCtxLoadingCurrentUser, err)
	}

	var errs ValidationErrors
	if !current.Email().Equals(updated.Email()) {
		if err := s.recordUniqueness(ctx, &errs, updated.Email().String(), userID); err != nil {
			return ValidationErrors{}, err
		}
	}

	s.runRules(ctx, methodCheckUserUpdate, &errs, updated)
	return errs, nil
}

// ValidateUserUpdate - вариант CheckUserUpdate, возвращающий *ValidationError.
func (s *UserDomainService) ValidateUserUpdate(ctx context.Context, userID int64, updated entities.User) error {
	errs, err := s.CheckUserUpdate(ctx, userID, updated)
	if err != nil {
		return err
	}
	return s.toError(ctx, methodCheckUserUpdate, errs)
}

// CheckCreationConstraints проверяет системные ограничения на создание пользователей.
func (s *UserDomainService) CheckCreationConstraints(ctx context.Context) ValidationErrors {
	var errs ValidationErrors
	if s.maxUsers <= 0 {
		return errs
	}

	count, err := s.countUsers(ctx)
	if err != nil {
		logger.Log(ctx).Warn(ctx, msgCreationLimitFailed,
			zap.String("method", methodCreationLimits), zap.Error(err))
		errs.Add(SystemCheckKey, fmt.Sprintf(msgConstraintsUnchecked, err))
		return errs
	}
	if count >= s.maxUsers {
		errs.Add(SystemLimitKey, msgMaxUsersReached)
	}
	return errs
}

// ValidateCreationConstraints - вариант CheckCreationConstraints, возвращающий *ValidationError.
func (s *UserDomainService) ValidateCreationConstraints(ctx context.Context) error {
	return s.toError(ctx, methodCreationLimits, s.CheckCreationConstraints(ctx))
}

func (s *UserDomainService) countUsers(ctx context.Context) (int64, error) {
	counter, ok := s.repo.(UserCounter)
	if !ok {
		return 0, ErrCountUnsupported
	}
	return counter.Count(ctx)
}

func (s *UserDomainService) recordUniqueness(ctx context.Context, errs *ValidationErrors, email string, excludeID int64) error {
	err := s.uniqueness.EnsureEmailIsUnique(ctx, email, excludeID)
	var exists *entities.AlreadyExistsError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &exists):
		errs.AddConflict(EmailKey, exists.Error())
		return nil
	default:
		return fmt.Errorf("%s: %w", errCtxCheckingUniqueness, err)
	}
}

func (s *UserDomainService) runRules(ctx context.Context, method string, errs *ValidationErrors, user entities.User) {
	for _, rule := range s.snapshot() {
		msg, err := evaluate(ctx, rule, user)
		if err != nil {
			logger.Log(ctx).Warn(ctx, msgRuleFailed,
				zap.String("method", method), zap.String("rule", rule.Name()), zap.Error(err))
			errs.Add(rule.Name(), fmt.Sprintf(msgRuleFailedFmt, err))
			continue
		}
		if msg != "" {
			errs.Add(rule.Name(), msg)
		}
	}
}

func (s *UserDomainService) toError(ctx context.Context, method string, errs ValidationErrors) error {
	if errs.IsEmpty() {
		return nil
	}
	logger.Log(ctx).Debug(ctx, msgRulesViolated,
		zap.String("method", method), zap.Strings("keys", errs.Keys()))
	return NewValidationError(errs)
}

func (s *UserDomainService) snapshot() []ValidationRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]ValidationRule(nil), s.rules...)
}

// evaluate запускает правило, превращая панику в ошибку.
func evaluate(ctx context.Context, rule ValidationRule, user entities.User) (msg string, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg, err = "", fmt.Errorf("%v", r)
		}
	}()
	return rule.Evaluate(ctx, user)
}

// UserUniquenessService проверяет, что email не занят другим пользователем.
type UserUniquenessService struct {
	repo UserReader
}

func NewUserUniquenessService(repo UserReader) *UserUniquenessService {
	return &UserUniquenessService{repo: repo}
}

// EnsureEmailIsUnique возвращает *entities.AlreadyExistsError, если email
// принадлежит пользователю, отличному от excludeID (0 - никого не исключать).
func (s *UserUniquenessService) EnsureEmailIsUnique(ctx context.Context, email string, excludeID int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, entities.ErrUserNotFound) {
			return nil
		}
		return err
	}

	if id, ok := existing.ID(); ok && excludeID != 0 && id == excludeID {
		return nil
	}
	return &entities.AlreadyExistsError{Email: email}
}
