package config

import "fmt"

// Поддерживаемые хранилища.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// StorageConfig выбирает реализацию репозитория.
type StorageConfig struct {
	Driver string `yaml:"driver" env:"USERS_STORAGE" env-default:"postgres"`
}

// Validate проверяет имя драйвера.
func (s StorageConfig) Validate() error {
	switch s.Driver {
	case StorageMemory, StoragePostgres:
		return nil
	default:
		return fmt.Errorf("unknown storage driver %q", s.Driver)
	}
}

// IsMemory сообщает, что данные хранятся в памяти процесса.
func (s StorageConfig) IsMemory() bool {
	return s.Driver == StorageMemory
}
