// Package resilience содержит повтор операций с экспоненциальной задержкой.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"devplatform/pkg/logger"
)

// ErrRetryCanceled возвращается, когда контекст отменен во время ожидания следующей попытки.
var ErrRetryCanceled = errors.New("context was canceled during retry")

const (
	msgRetryAttempt   = "operation failed, retrying"
	msgRetrySucceeded = "operation succeeded after retry"
	msgRetryExhausted = "retry attempts exhausted"
)

// Config - параметры повтора.
type Config struct {
	// MaxAttempts - число попыток, включая первую.
	MaxAttempts int
	// InitialBackoff - задержка перед второй попыткой.
	InitialBackoff time.Duration
	// MaxBackoff - верхняя граница задержки.
	MaxBackoff time.Duration
	// Multiplier - множитель задержки после каждой неудачи.
	Multiplier float64
	// ShouldRetry решает, стоит ли повторять операцию после ошибки.
	ShouldRetry func(error) bool
}

// DefaultConfig возвращает 3 попытки с задержкой от 100мс до 1с.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     time.Second,
		Multiplier:     2,
		ShouldRetry:    NotCanceled,
	}
}

// NotCanceled повторяет все ошибки, кроме отмены и истечения контекста.
func NotCanceled(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Retrier повторяет операции по заданной конфигурации.
type Retrier struct {
	name   string
	config Config
	wait   func(ctx context.Context, d time.Duration) error
}

// New создает Retrier. Неположительное MaxAttempts трактуется как одна попытка.
func New(name string, config Config) *Retrier {
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.Multiplier < 1 {
		config.Multiplier = 1
	}
	if config.ShouldRetry == nil {
		config.ShouldRetry = NotCanceled
	}
	return &Retrier{name: name, config: config, wait: sleep}
}

// WithWait подменяет ожидание между попытками, например в тестах.
func (r *Retrier) WithWait(wait func(ctx context.Context, d time.Duration) error) *Retrier {
	clone := *r
	clone.wait = wait
	return &clone
}

// Do выполняет operation, повторяя ее при ошибках, которые одобряет ShouldRetry.
func (r *Retrier) Do(ctx context.Context, operation func(ctx context.Context) error) error {
	log := logger.Log(ctx).With(zap.String("retry", r.name))
	backoff := r.config.InitialBackoff

	for attempt := 1; ; attempt++ {
		err := operation(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info(ctx, msgRetrySucceeded, zap.Int("attempts", attempt))
			}
			return nil
		}
		if !r.config.ShouldRetry(err) {
			return err
		}
		if attempt >= r.config.MaxAttempts {
			log.Warn(ctx, msgRetryExhausted, zap.Int("attempts", attempt), zap.Error(err))
			return err
		}

		log.Info(ctx, msgRetryAttempt,
			zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))

		if werr := r.wait(ctx, backoff); werr != nil {
			return fmt.Errorf("%w: %w", ErrRetryCanceled, werr)
		}

		backoff = time.Duration(float64(backoff) * r.config.Multiplier)
		if r.config.MaxBackoff > 0 && backoff > r.config.MaxBackoff {
			backoff = r.config.MaxBackoff
		}
	}
}

// DoWithResult - вариант Do для операций, возвращающих значение.
func DoWithResult[T any](ctx context.Context, r *Retrier, operation func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := r.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = operation(ctx)
		return err
	})
	return result, err
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
