package entities

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Ограничения длины адреса (RFC 5321).
const (
	MaxEmailLength       = 254
	MaxEmailLocalLength  = 64
	MaxEmailDomainLength = 253

	MinNameLength = 3
	MaxNameLength = 100
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Email - value object адреса электронной почты.
// Двойные точки здесь не проверяются: это делает правило email_format_advanced_validation.
type Email struct {
	value string
}

// NewEmail создает Email или возвращает ошибку ErrInvalidEmailFormat.
func NewEmail(value string) (Email, error) {
	if !emailPattern.MatchString(value) || len(value) > MaxEmailLength {
		return Email{}, fmt.Errorf("%w: %s", ErrInvalidEmailFormat, value)
	}

	local, domain, _ := strings.Cut(value, "@")
	if len(local) > MaxEmailLocalLength || len(domain) > MaxEmailDomainLength {
		return Email{}, fmt.Errorf("%w: %s", ErrInvalidEmailFormat, value)
	}

	return Email{value: value}, nil
}

func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

// LocalPart возвращает часть адреса до '@'.
func (e Email) LocalPart() string {
	local, _, _ := strings.Cut(e.value, "@")
	return local
}

// Domain возвращает домен адреса в нижнем регистре.
func (e Email) Domain() string {
	_, domain, _ := strings.Cut(e.value, "@")
	return strings.ToLower(domain)
}

func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// UserName - value object имени пользователя. Хранит исходную строку,
// длина проверяется по обрезанному значению.
type UserName struct {
	value string
}

// NewUserName создает UserName или возвращает ErrNameTooShort / ErrNameTooLong.
func NewUserName(value string) (UserName, error) {
	length := utf8.RuneCountInString(strings.TrimSpace(value))
	if length < MinNameLength {
		return UserName{}, ErrNameTooShort
	}
	if length > MaxNameLength {
		return UserName{}, ErrNameTooLong
	}
	return UserName{value: value}, nil
}

func (n UserName) String() string { return n.value }
func (n UserName) IsZero() bool   { return n.value == "" }

func (n UserName) Equals(other UserName) bool {
	return n.value == other.value
}
