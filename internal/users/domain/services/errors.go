package services

import (
	"errors"
	"strings"
)

// ErrValidationFailed - ошибка, с которой сопоставляется любой *ValidationError.
var ErrValidationFailed = errors.New("user validation failed")

// Ключи агрегата, не связанные с правилами.
const (
	EmailKey       = "email"
	SystemLimitKey = "system_limit"
	SystemCheckKey = "system_check"
)

// ValidationErrors - упорядоченный набор "ключ -> сообщение".
// Ключи уникальны, повторная запись заменяет сообщение, сохраняя позицию.
type ValidationErrors struct {
	keys      []string
	messages  map[string]string
	conflicts map[string]bool
}

// Add записывает сообщение под ключом.
func (v *ValidationErrors) Add(key, message string) {
	if v.messages == nil {
		v.messages = make(map[string]string)
	}
	if _, ok := v.messages[key]; !ok {
		v.keys = append(v.keys, key)
	}
	v.messages[key] = message
	delete(v.conflicts, key)
}

// AddConflict записывает нарушение, вызванное уже существующими данными
// (например, занятым email).
func (v *ValidationErrors) AddConflict(key, message string) {
	v.Add(key, message)
	if v.conflicts == nil {
		v.conflicts = make(map[string]bool)
	}
	v.conflicts[key] = true
}

// Merge добавляет все записи other в текущий набор.
func (v *ValidationErrors) Merge(other ValidationErrors) {
	for _, k := range other.keys {
		if other.conflicts[k] {
			v.AddConflict(k, other.messages[k])
			continue
		}
		v.Add(k, other.messages[k])
	}
}

// Get возвращает сообщение по ключу.
func (v ValidationErrors) Get(key string) (string, bool) {
	msg, ok := v.messages[key]
	return msg, ok
}

// OnlyConflicts сообщает, что набор не пуст и состоит только из конфликтов.
func (v ValidationErrors) OnlyConflicts() bool {
	if len(v.keys) == 0 {
		return false
	}
	for _, k := range v.keys {
		if !v.conflicts[k] {
			return false
		}
	}
	return true
}

func (v ValidationErrors) Len() int      { return len(v.keys) }
func (v ValidationErrors) IsEmpty() bool { return len(v.keys) == 0 }

// Keys возвращает ключи в порядке добавления.
func (v ValidationErrors) Keys() []string {
	return append([]string(nil), v.keys...)
}

// Map возвращает копию набора в виде map.
func (v ValidationErrors) Map() map[string]string {
	out := make(map[string]string, len(v.keys))
	for _, k := range v.keys {
		out[k] = v.messages[k]
	}
	return out
}

func (v ValidationErrors) String() string {
	parts := make([]string, 0, len(v.keys))
	for _, k := range v.keys {
		parts = append(parts, k+": "+v.messages[k])
	}
	return strings.Join(parts, "; ")
}

// ValidationError несет агрегат нарушений бизнес-правил.
type ValidationError struct {
	Errors ValidationErrors
}

// NewValidationError оборачивает агрегат в ошибку.
func NewValidationError(errs ValidationErrors) *ValidationError {
	return &ValidationError{Errors: errs}
}

func (e *ValidationError) Error() string {
	return "Validation failed: " + e.Errors.String()
}

// IsConflict сообщает, что проверка не прошла только из-за конфликта с существующими данными.
func (e *ValidationError) IsConflict() bool {
	return e.Errors.OnlyConflicts()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
