package config

import (
	"time"

	"devplatform/pkg/db/redis"
)

// RedisConfig содержит настройки кэша пользователей.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled" env:"USERS_REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"USERS_REDIS_HOST" env-default:"localhost"`
	Port     int           `yaml:"port" env:"USERS_REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"USERS_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"USERS_REDIS_DB" env-default:"0"`
	PoolSize int           `yaml:"pool_size" env:"USERS_REDIS_POOL_SIZE" env-default:"10"`
	Timeout  time.Duration `yaml:"timeout" env:"USERS_REDIS_TIMEOUT" env-default:"3s"`
	TTL      time.Duration `yaml:"ttl" env:"USERS_CACHE_TTL" env-default:"5m"`
}

// GetClientConfig возвращает настройки клиента Redis.
func (r *RedisConfig) GetClientConfig() redis.Config {
	return redis.Config{
		Host:     r.Host,
		Port:     r.Port,
		Password: r.Password,
		DB:       r.DB,
		PoolSize: r.PoolSize,
		Timeout:  r.Timeout,
	}
}
