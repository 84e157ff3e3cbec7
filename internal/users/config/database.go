package config

import (
	"fmt"
	"net/url"
	"time"

	"devplatform/pkg/db/postgres"
	"devplatform/pkg/resilience"
)

// PostgresConfig содержит настройки подключения к базе данных.
type PostgresConfig struct {
	Host           string        `yaml:"host" env:"USERS_POSTGRES_HOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"USERS_POSTGRES_PORT" env-default:"5432"`
	User           string        `yaml:"user" env:"USERS_POSTGRES_USER" env-default:"postgres"`
	Password       string        `yaml:"password" env:"USERS_POSTGRES_PASSWORD" env-default:"postgres"`
	Database       string        `yaml:"database" env:"USERS_POSTGRES_DB" env-default:"users"`
	SSLMode        string        `yaml:"ssl_mode" env:"USERS_POSTGRES_SSL_MODE" env-default:"disable"`
	MinConn        int           `yaml:"min_conn" env:"USERS_POSTGRES_MIN_CONN" env-default:"1"`
	MaxConn        int           `yaml:"max_conn" env:"USERS_POSTGRES_MAX_CONN" env-default:"10"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"USERS_POSTGRES_CONNECT_TIMEOUT" env-default:"5s"`
	MigrationsDir  string        `yaml:"migrations_dir" env:"USERS_MIGRATIONS_DIR" env-default:"migrations/users"`

	RetryAttempts int           `yaml:"retry_attempts" env:"USERS_POSTGRES_RETRY_ATTEMPTS" env-default:"3"`
	RetryBackoff  time.Duration `yaml:"retry_backoff" env:"USERS_POSTGRES_RETRY_BACKOFF" env-default:"100ms"`
}

// GetDSN возвращает строку подключения к PostgreSQL.
func (p *PostgresConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode)
}

// GetConnectionURL возвращает URL-строку подключения для миграций.
func (p *PostgresConfig) GetConnectionURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

// GetPoolOptions возвращает параметры пула соединений.
func (p *PostgresConfig) GetPoolOptions() postgres.PoolOptions {
	return postgres.PoolOptions{
		MinConns:       p.MinConn,
		MaxConns:       p.MaxConn,
		ConnectTimeout: p.ConnectTimeout,
	}
}

// GetRetryConfig возвращает параметры повтора открытия транзакции.
func (p *PostgresConfig) GetRetryConfig() resilience.Config {
	cfg := resilience.DefaultConfig()
	if p.RetryAttempts > 0 {
		cfg.MaxAttempts = p.RetryAttempts
	}
	if p.RetryBackoff > 0 {
		cfg.InitialBackoff = p.RetryBackoff
		cfg.MaxBackoff = 10 * p.RetryBackoff
	}
	return cfg
}
