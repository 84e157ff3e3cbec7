package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"devplatform/pkg/logger"
)

const (
	methodCreateUserDomainService       = "CreateUserDomainService"
	methodCreateEnterpriseDomainService = "CreateEnterpriseUserDomainService"

	msgEmptyForbiddenWords = "profanity filter enabled but forbidden words list is empty, rule skipped"
	msgDomainServiceBuilt  = "user domain service configured"

	errCtxBuildingProfanityRule = "building profanity rule"
)

// RuleSettings - конфигурация набора правил.
type RuleSettings struct {
	ProfanityFilter   bool
	ForbiddenWords    []string
	AllowedDomains    []string
	BusinessHoursOnly bool
	MaxUsers          int64
}

// DomainServiceFactory собирает UserDomainService из настроек.
type DomainServiceFactory struct {
	settings   RuleSettings
	enterprise RuleSettings
	clock      Clock
	location   *time.Location
}

// FactoryOption настраивает DomainServiceFactory.
type FactoryOption func(*DomainServiceFactory)

// WithClock задает часы для правила рабочего времени.
func WithClock(clock Clock) FactoryOption {
	return func(f *DomainServiceFactory) {
		f.clock = clock
	}
}

// WithLocation задает часовой пояс для правила рабочего времени.
func WithLocation(loc *time.Location) FactoryOption {
	return func(f *DomainServiceFactory) {
		f.location = loc
	}
}

// NewDomainServiceFactory создает фабрику для обычного и корпоративного наборов правил.
func NewDomainServiceFactory(settings, enterprise RuleSettings, opts ...FactoryOption) *DomainServiceFactory {
	f := &DomainServiceFactory{
		settings:   settings,
		enterprise: enterprise,
		clock:      SystemClock,
		location:   time.Local,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Settings возвращает обычные настройки правил.
func (f *DomainServiceFactory) Settings() RuleSettings { return f.settings }

// CreateUserDomainService собирает сервис по обычным настройкам.
// Формат email и содержимое имени проверяются всегда; фильтр слов добавляется,
// если он включен и список не пуст; ограничение доменов - если список не пуст;
// правило рабочего времени присутствует всегда и само проверяет свой флаг.
func (f *DomainServiceFactory) CreateUserDomainService(ctx context.Context, repo UserReader) (*UserDomainService, error) {
	return f.build(ctx, methodCreateUserDomainService, repo, f.settings)
}

// CreateEnterpriseUserDomainService собирает строгий сервис: фильтр слов,
// ограничение доменов и рабочее время включены независимо от флагов.
func (f *DomainServiceFactory) CreateEnterpriseUserDomainService(ctx context.Context, repo UserReader) (*UserDomainService, error) {
	settings := f.enterprise
	settings.ProfanityFilter = true
	settings.BusinessHoursOnly = true
	return f.build(ctx, methodCreateEnterpriseDomainService, repo, settings)
}

// CreateAnalyticsService создает сервис аналитики.
func (f *DomainServiceFactory) CreateAnalyticsService(repo UserRepositoryView) *UserAnalyticsService {
	return NewUserAnalyticsService(repo)
}

func (f *DomainServiceFactory) build(ctx context.Context, method string, repo UserReader, settings RuleSettings) (*UserDomainService, error) {
	log := logger.Log(ctx).With(zap.String("method", method))

	rules, err := f.rules(settings)
	if err != nil {
		return nil, err
	}
	if settings.ProfanityFilter && len(nonEmpty(settings.ForbiddenWords)) == 0 {
		log.Warn(ctx, msgEmptyForbiddenWords)
	}

	svc := NewUserDomainService(repo, rules, WithMaxUsers(settings.MaxUsers))
	log.Debug(ctx, msgDomainServiceBuilt, zap.Strings("rules", svc.RuleNames()))
	return svc, nil
}

func (f *DomainServiceFactory) rules(settings RuleSettings) ([]ValidationRule, error) {
	rules := []ValidationRule{NewEmailFormatRule(), NewNameContentRule()}

	if words := nonEmpty(settings.ForbiddenWords); settings.ProfanityFilter && len(words) > 0 {
		profanity, err := NewForbiddenWordsRule(words)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtxBuildingProfanityRule, err)
		}
		rules = append(rules, profanity)
	}

	if domains := nonEmpty(settings.AllowedDomains); len(domains) > 0 {
		rules = append(rules, NewEmailDomainRule(domains))
	}

	rules = append(rules, NewBusinessHoursRule(settings.BusinessHoursOnly, f.clock, f.location))
	return rules, nil
}

func nonEmpty(items []string) []string {
	return lo.Filter(items, func(s string, _ int) bool { return strings.TrimSpace(s) != "" })
}
