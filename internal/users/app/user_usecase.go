// Package app содержит сценарии работы с пользователями: каждый сценарий
// выполняется в одной транзакции и проверяет бизнес-правила перед сохранением.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"devplatform/internal/users/app/dto"
	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/domain/services"
	"devplatform/internal/users/ports/api"
	"devplatform/internal/users/ports/cache"
	"devplatform/internal/users/ports/repositories"
	"devplatform/pkg/logger"
)

const (
	methodCreateUser      = "CreateUser"
	methodUpdateUser      = "UpdateUser"
	methodGetUser         = "GetUser"
	methodListUsers       = "ListUsers"
	methodDeleteUser      = "DeleteUser"
	methodUserStatistics  = "UserStatistics"
	methodValidationRules = "ValidationRules"

	msgCreatingUser       = "creating user"
	msgUserCreated        = "user created successfully"
	msgUpdatingUser       = "updating user"
	msgUserUpdated        = "user updated successfully"
	msgFetchingUser       = "fetching user"
	msgUserFetched        = "user fetched successfully"
	msgUserFromCache      = "user served from cache"
	msgListingUsers       = "listing users"
	msgUsersListed        = "users listed successfully"
	msgDeletingUser       = "deleting user"
	msgUserDeleted        = "user deleted successfully"
	msgCollectingStats    = "collecting user statistics"
	msgStatsCollected     = "user statistics collected"
	msgRulesListed        = "validation rules listed"
	msgValidationFailed   = "user validation failed"
	msgExpectedConflict   = "user operation rejected"
	msgUnexpectedError    = "user operation failed unexpectedly"
	msgCacheReadFailed    = "failed to read user from cache"
	msgCacheWriteFailed   = "failed to cache user"
	msgCacheInvalidateErr = "failed to invalidate cached user"

	errCtxBuildingDomainService = "building domain service"
	errCtxCreatingUser          = "creating user"
	errCtxUpdatingUser          = "updating user"
	errCtxFetchingUser          = "fetching user"
	errCtxListingUsers          = "listing users"
	errCtxDeletingUser          = "deleting user"
	errCtxCollectingStats       = "collecting user statistics"
	errCtxListingRules          = "listing validation rules"
)

// UserUseCaseImpl реализует интерфейс UserUseCase.
type UserUseCaseImpl struct {
	uow     repositories.UnitOfWork
	factory *services.DomainServiceFactory
	cache   cache.UserCache
}

// Option настраивает UserUseCaseImpl.
type Option func(*UserUseCaseImpl)

// WithCache подключает кэш пользователей для GetUser.
func WithCache(c cache.UserCache) Option {
	return func(u *UserUseCaseImpl) {
		u.cache = c
	}
}

// NewUserUseCase создает новый экземпляр сервиса пользователей.
func NewUserUseCase(uow repositories.UnitOfWork, factory *services.DomainServiceFactory, opts ...Option) api.UserUseCase {
	u := &UserUseCaseImpl{
		uow:     uow,
		factory: factory,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// CreateUser проверяет и сохраняет нового пользователя.
func (u *UserUseCaseImpl) CreateUser(ctx context.Context, req dto.CreateUserRequest) (dto.UserResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	req = req.Normalize()
	log := logger.Log(ctx).With(zap.String("method", methodCreateUser), zap.String("email", req.Email))
	log.Info(ctx, msgCreatingUser)

	if err := dto.Validate(req); err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxCreatingUser, err)
	}

	user, err := entities.NewUser(req.Name, req.Email)
	if err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxCreatingUser, entityValidationError(err))
	}

	created, err := repositories.ExecuteWithResult(ctx, u.uow,
		func(ctx context.Context, repo repositories.UserRepository) (entities.User, error) {
			svc, err := u.domainService(ctx, repo, req.Enterprise)
			if err != nil {
				return entities.User{}, err
			}

			errs := svc.CheckCreationConstraints(ctx)
			ruleErrs, err := svc.CheckBusinessRules(ctx, user)
			if err != nil {
				return entities.User{}, err
			}
			errs.Merge(ruleErrs)
			if !errs.IsEmpty() {
				return entities.User{}, services.NewValidationError(errs)
			}

			return repo.Create(ctx, user)
		})
	if err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxCreatingUser, err)
	}

	id, _ := created.ID()
	log.Info(ctx, msgUserCreated, zap.Int64("userID", id))
	return dto.FromUser(created), nil
}

// UpdateUser меняет имя и/или email пользователя. Пустые поля запроса не меняются.
func (u *UserUseCaseImpl) UpdateUser(ctx context.Context, id int64, req dto.UpdateUserRequest) (dto.UserResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	log := logger.Log(ctx).With(zap.String("method", methodUpdateUser), zap.Int64("userID", id))
	log.Info(ctx, msgUpdatingUser)

	req = req.Normalize()
	if req.IsEmpty() {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxUpdatingUser, emptyUpdateError())
	}
	if err := dto.Validate(req); err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxUpdatingUser, err)
	}

	updated, err := repositories.ExecuteWithResult(ctx, u.uow,
		func(ctx context.Context, repo repositories.UserRepository) (entities.User, error) {
			current, err := findUser(ctx, repo, id)
			if err != nil {
				return entities.User{}, err
			}

			name, email := current.Name().String(), current.Email().String()
			if req.Name != nil {
				name = *req.Name
			}
			if req.Email != nil {
				email = *req.Email
			}

			candidate, err := current.UpdateDetails(name, email)
			if err != nil {
				return entities.User{}, entityValidationError(err)
			}

			svc, err := u.domainService(ctx, repo, false)
			if err != nil {
				return entities.User{}, err
			}
			if err := svc.ValidateUserUpdate(ctx, id, candidate); err != nil {
				return entities.User{}, err
			}

			return repo.Update(ctx, candidate)
		})
	if err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxUpdatingUser, err)
	}

	u.invalidate(ctx, log, id)
	log.Info(ctx, msgUserUpdated)
	return dto.FromUser(updated), nil
}

// GetUser возвращает пользователя по идентификатору, сначала заглядывая в кэш.
func (u *UserUseCaseImpl) GetUser(ctx context.Context, id int64) (dto.UserResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	log := logger.Log(ctx).With(zap.String("method", methodGetUser), zap.Int64("userID", id))
	log.Debug(ctx, msgFetchingUser)

	if u.cache != nil {
		cached, err := u.cache.Get(ctx, id)
		switch {
		case err == nil:
			log.Debug(ctx, msgUserFromCache)
			return dto.FromUser(cached), nil
		case !errors.Is(err, cache.ErrCacheMiss):
			log.Warn(ctx, msgCacheReadFailed, zap.Error(err))
		}
	}

	user, err := repositories.ExecuteWithResult(ctx, u.uow,
		func(ctx context.Context, repo repositories.UserRepository) (entities.User, error) {
			return findUser(ctx, repo, id)
		})
	if err != nil {
		return dto.UserResponse{}, u.fail(ctx, log, errCtxFetchingUser, err)
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, user); err != nil {
			log.Warn(ctx, msgCacheWriteFailed, zap.Error(err))
		}
	}

	log.Info(ctx, msgUserFetched)
	return dto.FromUser(user), nil
}

// ListUsers возвращает всех пользователей или только пользователей указанного домена.
func (u *UserUseCaseImpl) ListUsers(ctx context.Context, req dto.ListUsersRequest) (dto.UserListResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	req = req.Normalize()
	log := logger.Log(ctx).With(zap.String("method", methodListUsers), zap.String("domain", req.Domain))
	log.Debug(ctx, msgListingUsers)

	if err := dto.Validate(req); err != nil {
		return dto.UserListResponse{}, u.fail(ctx, log, errCtxListingUsers, err)
	}

	users, err := repositories.ExecuteWithResult(ctx, u.uow,
		func(ctx context.Context, repo repositories.UserRepository) ([]entities.User, error) {
			if req.Domain != "" {
				return u.factory.CreateAnalyticsService(repo).FindUsersByDomain(ctx, req.Domain)
			}
			return repo.FindAll(ctx)
		})
	if err != nil {
		return dto.UserListResponse{}, u.fail(ctx, log, errCtxListingUsers, err)
	}

	log.Info(ctx, msgUsersListed, zap.Int("count", len(users)))
	return dto.FromUsers(users), nil
}

// DeleteUser удаляет пользователя по идентификатору.
func (u *UserUseCaseImpl) DeleteUser(ctx context.Context, id int64) error {
	ctx = logger.EnsureRequestID(ctx)
	log := logger.Log(ctx).With(zap.String("method", methodDeleteUser), zap.Int64("userID", id))
	log.Info(ctx, msgDeletingUser)

	err := u.uow.Execute(ctx, func(ctx context.Context, repo repositories.UserRepository) error {
		if _, err := findUser(ctx, repo, id); err != nil {
			return err
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return u.fail(ctx, log, errCtxDeletingUser, err)
	}

	u.invalidate(ctx, log, id)
	log.Info(ctx, msgUserDeleted)
	return nil
}

// UserStatistics возвращает число пользователей и распределение по доменам.
func (u *UserUseCaseImpl) UserStatistics(ctx context.Context) (dto.StatisticsResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	log := logger.Log(ctx).With(zap.String("method", methodUserStatistics))
	log.Debug(ctx, msgCollectingStats)

	stats, err := repositories.ExecuteWithResult(ctx, u.uow,
		func(ctx context.Context, repo repositories.UserRepository) (services.UserStatistics, error) {
			return u.factory.CreateAnalyticsService(repo).Statistics(ctx)
		})
	if err != nil {
		return dto.StatisticsResponse{}, u.fail(ctx, log, errCtxCollectingStats, err)
	}

	log.Info(ctx, msgStatsCollected, zap.Int64("total", stats.TotalUsers))
	return dto.FromStatistics(stats), nil
}

// ValidationRules возвращает правила, которые применяются при создании пользователя.
func (u *UserUseCaseImpl) ValidationRules(ctx context.Context) (dto.RulesResponse, error) {
	ctx = logger.EnsureRequestID(ctx)
	log := logger.Log(ctx).With(zap.String("method", methodValidationRules))

	svc, err := u.factory.CreateUserDomainService(ctx, nil)
	if err != nil {
		return dto.RulesResponse{}, u.fail(ctx, log, errCtxListingRules, err)
	}

	resp := dto.FromRules(svc.RuleNames(), svc.ValidationSummary())
	log.Debug(ctx, msgRulesListed, zap.Int("count", len(resp.Rules)))
	return resp, nil
}

func (u *UserUseCaseImpl) domainService(ctx context.Context, repo repositories.UserRepository, enterprise bool) (*services.UserDomainService, error) {
	var (
		svc *services.UserDomainService
		err error
	)
	if enterprise {
		svc, err = u.factory.CreateEnterpriseUserDomainService(ctx, repo)
	} else {
		svc, err = u.factory.CreateUserDomainService(ctx, repo)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxBuildingDomainService, err)
	}
	return svc, nil
}

func (u *UserUseCaseImpl) invalidate(ctx context.Context, log *logger.Logger, id int64) {
	if u.cache == nil {
		return
	}
	if err := u.cache.Invalidate(ctx, id); err != nil {
		log.Warn(ctx, msgCacheInvalidateErr, zap.Error(err))
	}
}

// fail логирует ошибку с нужным уровнем. Доменные ошибки возвращаются
// как есть, остальные оборачиваются в *UseCaseError.
func (u *UserUseCaseImpl) fail(ctx context.Context, log *logger.Logger, op string, err error) error {
	switch {
	case isConflict(err):
		log.Warn(ctx, msgExpectedConflict, zap.Error(err))
		return err
	case isDomainError(err):
		log.Error(ctx, msgValidationFailed, zap.Error(err))
		return err
	default:
		log.Error(ctx, msgUnexpectedError, zap.Error(err))
		return &UseCaseError{Op: op, Err: err}
	}
}

func findUser(ctx context.Context, repo repositories.UserRepository, id int64) (entities.User, error) {
	user, err := repo.FindByID(ctx, id)
	if errors.Is(err, entities.ErrUserNotFound) {
		return entities.User{}, entities.NewNotFoundByID(id)
	}
	return user, err
}
