package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/domain/services"
)

var errDatabaseDown = errors.New("database is down")

func baselineRules() []services.ValidationRule {
	return []services.ValidationRule{services.NewEmailFormatRule(), services.NewNameContentRule()}
}

func TestCheckBusinessRulesValidUser(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), baselineRules())

	errs, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "ana@example.com"))
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())

	require.NoError(t, svc.ValidateBusinessRules(context.Background(), newUser(t, "Ana Souza", "ana@example.com")))
}

func TestCheckBusinessRulesReportsEveryViolation(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), baselineRules())

	user := newUser(t, "Ana123", "bad-email@-example.com")
	errs, err := svc.CheckBusinessRules(context.Background(), user)
	require.NoError(t, err)

	assert.Equal(t, []string{services.EmailFormatRuleName, services.NameContentRuleName}, errs.Keys())
	msg, _ := errs.Get(services.NameContentRuleName)
	assert.Equal(t, "Name cannot contain numbers", msg)

	err = svc.ValidateBusinessRules(context.Background(), user)
	require.ErrorIs(t, err, services.ErrValidationFailed)

	var validationErr *services.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 2, validationErr.Errors.Len())
}

func TestCheckBusinessRulesDuplicateEmail(t *testing.T) {
	existing := newUser(t, "Dup User", "dup@example.com").WithID(1)
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "dup@example.com").Return(existing, nil)

	svc := services.NewUserDomainService(repo, baselineRules())
	errs, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "dup@example.com"))
	require.NoError(t, err)

	assert.Equal(t, []string{services.EmailKey}, errs.Keys())
	msg, _ := errs.Get(services.EmailKey)
	assert.Equal(t, "User with email 'dup@example.com' already exists", msg)
	assert.True(t, errs.OnlyConflicts())
	assert.True(t, services.NewValidationError(errs).IsConflict())
}

func TestCheckBusinessRulesDuplicateAndFormatBothReported(t *testing.T) {
	existing := newUser(t, "Dup User", "a..b@c.com").WithID(1)
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "a..b@c.com").Return(existing, nil)

	svc := services.NewUserDomainService(repo, baselineRules())
	errs, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "a..b@c.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{services.EmailKey, services.EmailFormatRuleName}, errs.Keys())
	assert.False(t, errs.OnlyConflicts())
}

func TestCheckBusinessRulesRepositoryFailure(t *testing.T) {
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, mock.Anything).Return(entities.User{}, errDatabaseDown)

	svc := services.NewUserDomainService(repo, baselineRules())
	_, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "ana@example.com"))
	require.ErrorIs(t, err, errDatabaseDown)
	assert.NotErrorIs(t, err, services.ErrValidationFailed)
}

func TestCheckUserUpdate(t *testing.T) {
	current := newUser(t, "Ana Souza", "ana@example.com").WithID(10)

	t.Run("unchanged email skips uniqueness", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("FindByID", mock.Anything, int64(10)).Return(current, nil)

		svc := services.NewUserDomainService(repo, baselineRules())
		updated, err := current.UpdateDetails("Ana Maria", "ana@example.com")
		require.NoError(t, err)

		require.NoError(t, svc.ValidateUserUpdate(context.Background(), 10, updated))
		repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("changed email to taken address", func(t *testing.T) {
		other := newUser(t, "Bob Lima", "bob@example.com").WithID(11)
		repo := new(mockUserRepository)
		repo.On("FindByID", mock.Anything, int64(10)).Return(current, nil)
		repo.On("FindByEmail", mock.Anything, "bob@example.com").Return(other, nil)

		svc := services.NewUserDomainService(repo, baselineRules())
		updated, err := current.UpdateDetails("Ana Souza", "bob@example.com")
		require.NoError(t, err)

		errs, err := svc.CheckUserUpdate(context.Background(), 10, updated)
		require.NoError(t, err)
		assert.Equal(t, []string{services.EmailKey}, errs.Keys())
	})

	t.Run("changed email to free address", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("FindByID", mock.Anything, int64(10)).Return(current, nil)
		repo.On("FindByEmail", mock.Anything, "ana.souza@example.com").Return(entities.User{}, entities.ErrUserNotFound)

		svc := services.NewUserDomainService(repo, baselineRules())
		updated, err := current.UpdateDetails("Ana Souza", "ana.souza@example.com")
		require.NoError(t, err)

		require.NoError(t, svc.ValidateUserUpdate(context.Background(), 10, updated))
		repo.AssertExpectations(t)
	})

	t.Run("unknown user", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("FindByID", mock.Anything, int64(99)).Return(entities.User{}, entities.ErrUserNotFound)

		svc := services.NewUserDomainService(repo, baselineRules())
		err := svc.ValidateUserUpdate(context.Background(), 99, current)
		require.ErrorIs(t, err, entities.ErrUserNotFound)

		var notFound *entities.NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "99", notFound.Identifier)
	})

	t.Run("rules still run on update", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("FindByID", mock.Anything, int64(10)).Return(current, nil)

		svc := services.NewUserDomainService(repo, baselineRules())
		updated, err := current.UpdateDetails("Ana9 Souza", "ana@example.com")
		require.NoError(t, err)

		errs, err := svc.CheckUserUpdate(context.Background(), 10, updated)
		require.NoError(t, err)
		assert.Equal(t, []string{services.NameContentRuleName}, errs.Keys())
	})
}

func TestRemoveValidationRule(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), baselineRules())
	user := newUser(t, "Ana123", "ana@example.com")

	errs, err := svc.CheckBusinessRules(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, []string{services.NameContentRuleName}, errs.Keys())

	svc.RemoveValidationRule(services.NameContentRuleName)
	svc.RemoveValidationRule("does_not_exist")

	errs, err = svc.CheckBusinessRules(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, errs.IsEmpty())
	assert.Equal(t, []string{services.EmailFormatRuleName}, svc.RuleNames())
}

func TestRuleFailuresAreRecorded(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), baselineRules())
	svc.AddValidationRule(services.RuleFunc{
		RuleName: "broken_rule",
		Fn: func(context.Context, entities.User) (string, error) {
			return "", errors.New("config missing")
		},
	})
	svc.AddValidationRule(services.RuleFunc{
		RuleName: "panicking_rule",
		Fn: func(context.Context, entities.User) (string, error) {
			panic("boom")
		},
	})

	errs, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "ana@example.com"))
	require.NoError(t, err)

	msg, ok := errs.Get("broken_rule")
	require.True(t, ok)
	assert.Equal(t, "Validation rule failed: config missing", msg)

	msg, ok = errs.Get("panicking_rule")
	require.True(t, ok)
	assert.Equal(t, "Validation rule failed: boom", msg)
}

func TestDuplicateRuleNamesShadow(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), []services.ValidationRule{
		services.RuleFunc{RuleName: "same", Fn: func(context.Context, entities.User) (string, error) { return "first", nil }},
		services.RuleFunc{RuleName: "other", Fn: func(context.Context, entities.User) (string, error) { return "middle", nil }},
		services.RuleFunc{RuleName: "same", Fn: func(context.Context, entities.User) (string, error) { return "second", nil }},
	})

	errs, err := svc.CheckBusinessRules(context.Background(), newUser(t, "Ana Souza", "ana@example.com"))
	require.NoError(t, err)
	assert.Equal(t, []string{"same", "other"}, errs.Keys())
	msg, _ := errs.Get("same")
	assert.Equal(t, "second", msg)
}

func TestDefaultRulesWhenNoneGiven(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), nil)
	assert.Equal(t, []string{services.EmailFormatRuleName, services.NameContentRuleName}, svc.RuleNames())

	summary := svc.ValidationSummary()
	assert.Equal(t, "Validates name content and format", summary[services.NameContentRuleName])

	svc.AddValidationRule(services.RuleFunc{RuleName: "custom", Fn: func(context.Context, entities.User) (string, error) { return "", nil }})
	assert.Equal(t, "No description available", svc.ValidationSummary()["custom"])
}

func TestCreationConstraints(t *testing.T) {
	t.Run("disabled by default", func(t *testing.T) {
		repo := new(mockUserRepository)
		svc := services.NewUserDomainService(repo, nil)
		require.NoError(t, svc.ValidateCreationConstraints(context.Background()))
		repo.AssertNotCalled(t, "Count", mock.Anything)
	})

	t.Run("limit reached", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("Count", mock.Anything).Return(int64(5), nil)

		svc := services.NewUserDomainService(repo, nil, services.WithMaxUsers(5))
		errs := svc.CheckCreationConstraints(context.Background())
		msg, ok := errs.Get(services.SystemLimitKey)
		require.True(t, ok)
		assert.Equal(t, "Maximum number of users reached", msg)
	})

	t.Run("below limit", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("Count", mock.Anything).Return(int64(4), nil)

		svc := services.NewUserDomainService(repo, nil, services.WithMaxUsers(5))
		require.NoError(t, svc.ValidateCreationConstraints(context.Background()))
	})

	t.Run("count failure", func(t *testing.T) {
		repo := new(mockUserRepository)
		repo.On("Count", mock.Anything).Return(int64(0), errDatabaseDown)

		svc := services.NewUserDomainService(repo, nil, services.WithMaxUsers(5))
		errs := svc.CheckCreationConstraints(context.Background())
		msg, ok := errs.Get(services.SystemCheckKey)
		require.True(t, ok)
		assert.Equal(t, "Unable to verify system constraints: database is down", msg)
	})

	t.Run("repository cannot count", func(t *testing.T) {
		svc := services.NewUserDomainService(readerOnly{repo: new(mockUserRepository)}, nil, services.WithMaxUsers(5))
		err := svc.ValidateCreationConstraints(context.Background())
		require.ErrorIs(t, err, services.ErrValidationFailed)
	})
}

func TestEnsureEmailIsUnique(t *testing.T) {
	owner := newUser(t, "Ana Souza", "ana@example.com").WithID(3)
	repo := new(mockUserRepository)
	repo.On("FindByEmail", mock.Anything, "ana@example.com").Return(owner, nil)
	repo.On("FindByEmail", mock.Anything, "free@example.com").Return(entities.User{}, entities.ErrUserNotFound)

	uniqueness := services.NewUserUniquenessService(repo)

	err := uniqueness.EnsureEmailIsUnique(context.Background(), "ana@example.com", 0)
	require.ErrorIs(t, err, entities.ErrUserAlreadyExists)

	require.NoError(t, uniqueness.EnsureEmailIsUnique(context.Background(), "ana@example.com", 3))
	require.ErrorIs(t, uniqueness.EnsureEmailIsUnique(context.Background(), "ana@example.com", 4), entities.ErrUserAlreadyExists)
	require.NoError(t, uniqueness.EnsureEmailIsUnique(context.Background(), "free@example.com", 0))
}

func TestValidationErrorsOrdering(t *testing.T) {
	var errs services.ValidationErrors
	errs.Add("b", "1")
	errs.Add("a", "2")
	errs.Add("b", "3")

	assert.Equal(t, []string{"b", "a"}, errs.Keys())
	assert.Equal(t, map[string]string{"a": "2", "b": "3"}, errs.Map())
	assert.Equal(t, "Validation failed: b: 3; a: 2", services.NewValidationError(errs).Error())
	assert.False(t, errs.OnlyConflicts())
}

func TestValidationErrorsConflicts(t *testing.T) {
	var errs services.ValidationErrors
	assert.False(t, errs.OnlyConflicts())

	errs.AddConflict(services.EmailKey, "taken")
	assert.True(t, errs.OnlyConflicts())

	var merged services.ValidationErrors
	merged.Merge(errs)
	assert.True(t, merged.OnlyConflicts())

	merged.Add(services.EmailKey, "must be a valid email address")
	assert.False(t, merged.OnlyConflicts())

	errs.Add("name", "too short")
	assert.False(t, services.NewValidationError(errs).IsConflict())
}

func TestServiceIsSafeForConcurrentUse(t *testing.T) {
	svc := services.NewUserDomainService(emptyRepo(), baselineRules())
	user := newUser(t, "Ana Souza", "ana@example.com")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			svc.AddValidationRule(services.NewBusinessHoursRule(false, nil, time.UTC))
			svc.RemoveValidationRule(services.BusinessHoursRuleName)
		}
	}()
	for i := 0; i < 100; i++ {
		_, err := svc.CheckBusinessRules(context.Background(), user)
		require.NoError(t, err)
	}
	<-done
}
