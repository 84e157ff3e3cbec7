// Package main реализует консольный клиент сервиса пользователей.
// Команды работают напрямую с хранилищем из конфигурации USERS_*.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"devplatform/internal/users/composition"
	"devplatform/internal/users/config"
	"devplatform/internal/users/domain/services"
	"devplatform/pkg/logger"
)

const (
	envLoggerLevel     = "USERS_LOGGER_LEVEL"
	defaultLoggerLevel = "error"
)

// Коды завершения.
const (
	exitOK         = 0
	exitFailure    = 1
	exitValidation = 2
	exitUsage      = 64
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(args []string, stdout, stderr io.Writer) int {
	level := os.Getenv(envLoggerLevel)
	if level == "" {
		level = defaultLoggerLevel
	}
	log, err := logger.NewLogger(logger.Development, level)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize logger: %v\n", err)
		return exitFailure
	}
	logger.SetGlobalLogger(log)
	defer func() { _ = log.Sync() }()

	ctx := logger.NewRequestIDContext(context.Background(), "")

	cmd, err := parseCommand(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load configuration: %v\n", err)
		return exitFailure
	}

	container, err := composition.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "failed to initialize: %v\n", err)
		return exitFailure
	}
	defer func() { _ = container.Close(ctx) }()

	return report(cmd.run(ctx, container.UserUseCase(), stdout), stderr)
}

// report печатает ошибку команды и выбирает код завершения.
func report(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}

	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		fmt.Fprintln(stderr, "validation failed:")
		for _, key := range validationErr.Errors.Keys() {
			msg, _ := validationErr.Errors.Get(key)
			fmt.Fprintf(stderr, "  %s: %s\n", key, msg)
		}
		return exitValidation
	}

	fmt.Fprintf(stderr, "error: %v\n", err)
	return exitFailure
}

const usage = `usage: userctl <command> [flags]

commands:
  create  -name NAME -email EMAIL [-enterprise]
  list    [-domain DOMAIN]
  get     -id ID
  update  -id ID [-name NAME] [-email EMAIL]
  delete  -id ID
  rules
  stats
`

func commandNames() string {
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		names = append(names, c.name)
	}
	return strings.Join(names, ", ")
}
