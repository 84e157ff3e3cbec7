package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"devplatform/internal/users/domain/entities"
)

const (
	errCtxCountingUsers = "failed to get user statistics"
	errCtxListingUsers  = "failed to find users by domain"
)

// UserRepositoryView - хранилище, достаточное для аналитики.
type UserRepositoryView interface {
	UserCounter
	UserLister
}

// DomainCount - число пользователей в одном почтовом домене.
type DomainCount struct {
	Domain string
	Users  int
}

// UserStatistics - сводная статистика по пользователям.
type UserStatistics struct {
	TotalUsers int64
	ByDomain   []DomainCount
}

// UserAnalyticsService строит отчеты по пользователям.
type UserAnalyticsService struct {
	repo UserRepositoryView
}

func NewUserAnalyticsService(repo UserRepositoryView) *UserAnalyticsService {
	return &UserAnalyticsService{repo: repo}
}

// Statistics возвращает общее число пользователей и распределение по доменам.
// Домены упорядочены по убыванию числа пользователей, затем по имени.
func (s *UserAnalyticsService) Statistics(ctx context.Context) (UserStatistics, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return UserStatistics{}, fmt.Errorf("%s: %w", errCtxCountingUsers, err)
	}

	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return UserStatistics{}, fmt.Errorf("%s: %w", errCtxCountingUsers, err)
	}

	counts := lo.CountValuesBy(users, func(u entities.User) string { return u.Email().Domain() })
	byDomain := lo.MapToSlice(counts, func(domain string, n int) DomainCount {
		return DomainCount{Domain: domain, Users: n}
	})
	sort.Slice(byDomain, func(i, j int) bool {
		if byDomain[i].Users != byDomain[j].Users {
			return byDomain[i].Users > byDomain[j].Users
		}
		return byDomain[i].Domain < byDomain[j].Domain
	})

	return UserStatistics{TotalUsers: total, ByDomain: byDomain}, nil
}

// FindUsersByDomain возвращает пользователей с указанным доменом email (без учета регистра).
func (s *UserAnalyticsService) FindUsersByDomain(ctx context.Context, domain string) ([]entities.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtxListingUsers, err)
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	return lo.Filter(users, func(u entities.User, _ int) bool {
		return u.Email().Domain() == domain
	}), nil
}
