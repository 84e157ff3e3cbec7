// Package dto описывает входные и выходные структуры сценариев работы с пользователями.
package dto

import (
	"strings"
	"time"

	"github.com/samber/lo"

	"devplatform/internal/users/domain/entities"
	"devplatform/internal/users/domain/services"
)

// CreateUserRequest - запрос на создание пользователя.
type CreateUserRequest struct {
	Name       string `json:"name" validate:"required,min=3,max=100"`
	Email      string `json:"email" validate:"required,email,max=254"`
	Enterprise bool   `json:"enterprise,omitempty"`
}

// Normalize обрезает пробелы и приводит email к нижнему регистру.
func (r CreateUserRequest) Normalize() CreateUserRequest {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	return r
}

// UpdateUserRequest - частичное обновление: nil означает "оставить как есть".
type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=3,max=100"`
	Email *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
}

func (r UpdateUserRequest) Normalize() UpdateUserRequest {
	if r.Name != nil {
		r.Name = lo.ToPtr(strings.TrimSpace(*r.Name))
	}
	if r.Email != nil {
		r.Email = lo.ToPtr(normalizeEmail(*r.Email))
	}
	return r
}

// IsEmpty сообщает, что запрос ничего не меняет.
func (r UpdateUserRequest) IsEmpty() bool {
	return r.Name == nil && r.Email == nil
}

// ListUsersRequest - фильтр списка пользователей.
type ListUsersRequest struct {
	Domain string `json:"domain,omitempty" validate:"omitempty,fqdn"`
}

func (r ListUsersRequest) Normalize() ListUsersRequest {
	r.Domain = strings.ToLower(strings.TrimSpace(r.Domain))
	return r
}

// UserResponse - представление пользователя для клиентов.
type UserResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserListResponse - список пользователей.
type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Total int            `json:"total"`
}

// DomainCount - число пользователей в домене.
type DomainCount struct {
	Domain string `json:"domain"`
	Users  int    `json:"users"`
}

// StatisticsResponse - сводная статистика.
type StatisticsResponse struct {
	TotalUsers int64         `json:"total_users"`
	ByDomain   []DomainCount `json:"by_domain"`
}

// RuleInfo - описание активного правила.
type RuleInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// RulesResponse - активные правила в порядке выполнения.
type RulesResponse struct {
	Rules []RuleInfo `json:"rules"`
}

// FromUser преобразует сущность в ответ.
func FromUser(u entities.User) UserResponse {
	id, _ := u.ID()
	return UserResponse{
		ID:        id,
		Name:      u.Name().String(),
		Email:     u.Email().String(),
		CreatedAt: u.CreatedAt(),
		UpdatedAt: u.UpdatedAt(),
	}
}

// FromUsers преобразует список сущностей в ответ.
func FromUsers(users []entities.User) UserListResponse {
	return UserListResponse{
		Users: lo.Map(users, func(u entities.User, _ int) UserResponse { return FromUser(u) }),
		Total: len(users),
	}
}

// FromStatistics преобразует статистику домена в ответ.
func FromStatistics(stats services.UserStatistics) StatisticsResponse {
	return StatisticsResponse{
		TotalUsers: stats.TotalUsers,
		ByDomain: lo.Map(stats.ByDomain, func(d services.DomainCount, _ int) DomainCount {
			return DomainCount{Domain: d.Domain, Users: d.Users}
		}),
	}
}

// FromRules собирает описания правил в порядке их выполнения.
func FromRules(names []string, summary map[string]string) RulesResponse {
	return RulesResponse{
		Rules: lo.Map(names, func(name string, _ int) RuleInfo {
			return RuleInfo{Name: name, Description: summary[name]}
		}),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
