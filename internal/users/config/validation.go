package config

import (
	"fmt"
	"time"

	"devplatform/internal/users/domain/services"
)

// ValidationConfig - настройки бизнес-правил для обычных пользователей.
type ValidationConfig struct {
	ProfanityFilter   bool     `yaml:"profanity_filter" env:"USERS_VALIDATION_PROFANITY_FILTER" env-default:"false"`
	ForbiddenWords    []string `yaml:"forbidden_words" env:"USERS_VALIDATION_FORBIDDEN_WORDS" env-separator:","`
	AllowedDomains    []string `yaml:"allowed_domains" env:"USERS_VALIDATION_ALLOWED_DOMAINS" env-separator:","`
	BusinessHoursOnly bool     `yaml:"business_hours_only" env:"USERS_VALIDATION_BUSINESS_HOURS_ONLY" env-default:"false"`
	MaxUsers          int64    `yaml:"max_users" env:"USERS_VALIDATION_MAX_USERS" env-default:"0"`
	Timezone          string   `yaml:"timezone" env:"USERS_VALIDATION_TIMEZONE" env-default:"Local"`
}

// EnterpriseConfig - более строгий набор правил для корпоративной регистрации.
type EnterpriseConfig struct {
	ForbiddenWords []string `yaml:"forbidden_words" env:"USERS_ENTERPRISE_FORBIDDEN_WORDS" env-separator:"," env-default:"badword1,badword2"`
	AllowedDomains []string `yaml:"allowed_domains" env:"USERS_ENTERPRISE_ALLOWED_DOMAINS" env-separator:"," env-default:"empresa.com,company.com"`
	MaxUsers       int64    `yaml:"max_users" env:"USERS_ENTERPRISE_MAX_USERS" env-default:"0"`
}

// GetLocation возвращает часовой пояс правила рабочего времени.
func (v *ValidationConfig) GetLocation() (*time.Location, error) {
	loc, err := time.LoadLocation(v.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", v.Timezone, err)
	}
	return loc, nil
}

// RuleSettings возвращает настройки правил для обычной регистрации.
func (v *ValidationConfig) RuleSettings() services.RuleSettings {
	return services.RuleSettings{
		ProfanityFilter:   v.ProfanityFilter,
		ForbiddenWords:    v.ForbiddenWords,
		AllowedDomains:    v.AllowedDomains,
		BusinessHoursOnly: v.BusinessHoursOnly,
		MaxUsers:          v.MaxUsers,
	}
}

// RuleSettings возвращает настройки корпоративной регистрации.
// Фильтр слов и рабочее время фабрика включает сама.
func (e *EnterpriseConfig) RuleSettings() services.RuleSettings {
	return services.RuleSettings{
		ForbiddenWords: e.ForbiddenWords,
		AllowedDomains: e.AllowedDomains,
		MaxUsers:       e.MaxUsers,
	}
}
