package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"devplatform/internal/users/domain/entities"
)

// Имена правил, используемые как ключи агрегата.
const (
	EmailFormatRuleName   = "email_format_advanced_validation"
	NameContentRuleName   = "name_content_validation"
	EmailDomainRuleName   = "email_domain_validation"
	ForbiddenWordRuleName = "name_profanity_validation"
	BusinessHoursRuleName = "business_hours_validation"
)

// Сообщения правил.
const (
	msgEmailFormatInvalid   = "Email format is invalid"
	msgEmailConsecutiveDots = "Email cannot contain consecutive dots"
	msgEmailTooLong         = "Email is too long (max 254 characters)"
	msgEmailLocalTooLong    = "Email local part is too long (max 64 characters)"
	msgEmailDomainTooLong   = "Email domain part is too long (max 253 characters)"

	msgNameEdgeWhitespace = "Name cannot start or end with whitespace"
	msgNameDoubleSpace    = "Name cannot contain consecutive spaces"
	msgNameDigits         = "Name cannot contain numbers"
	msgNameInvalidChars   = "Name contains invalid characters: %s"
	msgNameSingleWord     = "Name must contain at least first and last name"
	msgNamePartTooShort   = "Each name part must be at least 2 characters long"

	msgDomainNotAllowed = "Email domain '%s' is not allowed. Allowed domains: %s"
	msgForbiddenWord    = "Name contains forbidden word: %s"
	msgNotBusinessDay   = "User registration only allowed during business days"
	msgNotBusinessHours = "User registration only allowed during business hours (9 AM - 5 PM)"
)

// Рабочее время для BusinessHoursRule: [09:00, 17:00).
const (
	businessDayStart = 9
	businessDayEnd   = 17
)

// ValidationRule - бизнес-правило над пользователем.
// Пустое сообщение означает, что пользователь прошел проверку.
// Ошибка означает сбой самого правила, а не нарушение.
type ValidationRule interface {
	Name() string
	Evaluate(ctx context.Context, user entities.User) (string, error)
}

// Describer реализуется правилами, которые умеют описать себя.
type Describer interface {
	Description() string
}

// RuleFunc позволяет задать правило функцией.
type RuleFunc struct {
	RuleName string
	Fn       func(ctx context.Context, user entities.User) (string, error)
}

func (r RuleFunc) Name() string { return r.RuleName }

func (r RuleFunc) Evaluate(ctx context.Context, user entities.User) (string, error) {
	return r.Fn(ctx, user)
}

// Clock - источник текущего времени.
type Clock interface {
	Now() time.Time
}

// ClockFunc адаптирует функцию к Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock возвращает системное время.
var SystemClock Clock = ClockFunc(time.Now)

var advancedEmailPattern = regexp.MustCompile(
	`^[a-zA-Z0-9]([a-zA-Z0-9._-]*[a-zA-Z0-9])?@[a-zA-Z0-9]([a-zA-Z0-9.-]*[a-zA-Z0-9])?\.[a-zA-Z]{2,}$`,
)

// EmailFormatRule - строгая проверка формата email поверх value object.
type EmailFormatRule struct{}

func NewEmailFormatRule() EmailFormatRule { return EmailFormatRule{} }

func (EmailFormatRule) Name() string { return EmailFormatRuleName }

func (EmailFormatRule) Description() string {
	return "Advanced email format validation beyond basic regex"
}

func (EmailFormatRule) Evaluate(_ context.Context, user entities.User) (string, error) {
	email := user.Email().String()

	switch {
	case !advancedEmailPattern.MatchString(email):
		return msgEmailFormatInvalid, nil
	case strings.Contains(email, ".."):
		return msgEmailConsecutiveDots, nil
	case len(email) > entities.MaxEmailLength:
		return msgEmailTooLong, nil
	}

	local, domain, _ := strings.Cut(email, "@")
	if len(local) > entities.MaxEmailLocalLength {
		return msgEmailLocalTooLong, nil
	}
	if len(domain) > entities.MaxEmailDomainLength {
		return msgEmailDomainTooLong, nil
	}
	return "", nil
}

const allowedNameAccents = "àáâãèéêìíîòóôõùúûçÀÁÂÃÈÉÊÌÍÎÒÓÔÕÙÚÛÇ"

func isAllowedNameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		return true
	case r == ' ', r == '-', r == '\'':
		return true
	}
	return strings.ContainsRune(allowedNameAccents, r)
}

// NameContentRule требует имя вида "Имя Фамилия" из допустимых символов.
type NameContentRule struct{}

func NewNameContentRule() NameContentRule { return NameContentRule{} }

func (NameContentRule) Name() string { return NameContentRuleName }

func (NameContentRule) Description() string {
	return "Validates name content and format"
}

func (NameContentRule) Evaluate(_ context.Context, user entities.User) (string, error) {
	name := user.Name().String()

	if strings.TrimSpace(name) != name {
		return msgNameEdgeWhitespace, nil
	}
	if strings.Contains(name, "  ") {
		return msgNameDoubleSpace, nil
	}
	if strings.IndexFunc(name, unicode.IsDigit) >= 0 {
		return msgNameDigits, nil
	}

	invalid := lo.Uniq(lo.Filter([]rune(name), func(r rune, _ int) bool {
		return !isAllowedNameRune(r)
	}))
	if len(invalid) > 0 {
		chars := lo.Map(invalid, func(r rune, _ int) string { return string(r) })
		return fmt.Sprintf(msgNameInvalidChars, strings.Join(chars, ", ")), nil
	}

	words := strings.Fields(name)
	if len(words) < 2 {
		return msgNameSingleWord, nil
	}
	for _, w := range words {
		if utf8.RuneCountInString(w) < 2 {
			return msgNamePartTooShort, nil
		}
	}
	return "", nil
}

// EmailDomainRule пропускает только адреса из разрешенных доменов.
type EmailDomainRule struct {
	domains []string
	allowed map[string]struct{}
}

// NewEmailDomainRule создает правило; домены сравниваются без учета регистра.
func NewEmailDomainRule(domains []string) EmailDomainRule {
	normalized := lo.Uniq(lo.FilterMap(domains, func(d string, _ int) (string, bool) {
		d = strings.ToLower(strings.TrimSpace(d))
		return d, d != ""
	}))
	sort.Strings(normalized)

	return EmailDomainRule{
		domains: normalized,
		allowed: lo.SliceToMap(normalized, func(d string) (string, struct{}) { return d, struct{}{} }),
	}
}

func (r EmailDomainRule) Name() string { return EmailDomainRuleName }

func (r EmailDomainRule) Description() string {
	return "Validates that email domain is in allowed list"
}

// AllowedDomains возвращает разрешенные домены в отсортированном виде.
func (r EmailDomainRule) AllowedDomains() []string {
	return append([]string(nil), r.domains...)
}

func (r EmailDomainRule) Evaluate(_ context.Context, user entities.User) (string, error) {
	domain := user.Email().Domain()
	if _, ok := r.allowed[domain]; ok {
		return "", nil
	}
	return fmt.Sprintf(msgDomainNotAllowed, domain, strings.Join(r.domains, ", ")), nil
}

// ForbiddenWordsRule ищет запрещенные слова в имени как подстроки без учета регистра.
// Поиск выполняется автоматом Ахо-Корасик; сообщается первое слово из списка,
// найденное в имени.
type ForbiddenWordsRule struct {
	words   []string
	matcher *goahocorasick.Machine
}

// NewForbiddenWordsRule строит автомат по списку слов.
func NewForbiddenWordsRule(words []string) (*ForbiddenWordsRule, error) {
	normalized := lo.Uniq(lo.FilterMap(words, func(w string, _ int) (string, bool) {
		w = strings.ToLower(strings.TrimSpace(w))
		return w, w != ""
	}))

	rule := &ForbiddenWordsRule{words: normalized}
	if len(normalized) == 0 {
		return rule, nil
	}

	sorted := append([]string(nil), normalized...)
	sort.Strings(sorted)
	patterns := lo.Map(sorted, func(w string, _ int) []rune { return []rune(w) })

	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, fmt.Errorf("build forbidden words matcher: %w", err)
	}
	rule.matcher = m
	return rule, nil
}

func (r *ForbiddenWordsRule) Name() string { return ForbiddenWordRuleName }

func (r *ForbiddenWordsRule) Description() string {
	return "Validates that name doesn't contain profanity"
}

func (r *ForbiddenWordsRule) Evaluate(_ context.Context, user entities.User) (string, error) {
	if r.matcher == nil {
		return "", nil
	}

	content := []rune(strings.ToLower(user.Name().String()))
	terms := r.matcher.MultiPatternSearch(content, false)
	if len(terms) == 0 {
		return "", nil
	}

	found := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		found[string(t.Word)] = struct{}{}
	}
	for _, w := range r.words {
		if _, ok := found[w]; ok {
			return fmt.Sprintf(msgForbiddenWord, w), nil
		}
	}
	return "", nil
}

// BusinessHoursRule разрешает операцию только в будни с 09:00 до 17:00.
// Зависит от часов, а не от пользователя; при enabled=false ничего не проверяет.
type BusinessHoursRule struct {
	enabled  bool
	clock    Clock
	location *time.Location
}

// NewBusinessHoursRule создает правило. nil clock означает SystemClock,
// nil location - time.Local.
func NewBusinessHoursRule(enabled bool, clock Clock, location *time.Location) BusinessHoursRule {
	if clock == nil {
		clock = SystemClock
	}
	if location == nil {
		location = time.Local
	}
	return BusinessHoursRule{enabled: enabled, clock: clock, location: location}
}

func (r BusinessHoursRule) Name() string  { return BusinessHoursRuleName }
func (r BusinessHoursRule) Enabled() bool { return r.enabled }

func (r BusinessHoursRule) Description() string {
	if !r.enabled {
		return "Business hours restriction (disabled)"
	}
	return "Allows registration on weekdays between 9 AM and 5 PM"
}

func (r BusinessHoursRule) Evaluate(_ context.Context, _ entities.User) (string, error) {
	if !r.enabled {
		return "", nil
	}

	now := r.clock.Now().In(r.location)
	if wd := now.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return msgNotBusinessDay, nil
	}
	if h := now.Hour(); h < businessDayStart || h >= businessDayEnd {
		return msgNotBusinessHours, nil
	}
	return "", nil
}
