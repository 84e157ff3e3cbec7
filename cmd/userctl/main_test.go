package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devplatform/internal/users/adapters/memory"
	"devplatform/internal/users/app"
	"devplatform/internal/users/app/dto"
	"devplatform/internal/users/domain/services"
	"devplatform/internal/users/ports/api"
)

func newUseCase() api.UserUseCase {
	factory := services.NewDomainServiceFactory(services.RuleSettings{}, services.RuleSettings{})
	return app.NewUserUseCase(memory.NewUnitOfWork(memory.NewStore()), factory)
}

func runArgs(t *testing.T, uc api.UserUseCase, args ...string) (string, error) {
	t.Helper()
	cmd, err := parseCommand(args)
	require.NoError(t, err)

	var out bytes.Buffer
	err = cmd.run(context.Background(), uc, &out)
	return out.String(), err
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no command", args: nil, want: "missing command"},
		{name: "unknown command", args: []string{"purge"}, want: `unknown command "purge"`},
		{name: "unknown flag", args: []string{"get", "-uid", "1"}, want: "get:"},
		{name: "bad id", args: []string{"get", "-id", "one"}, want: "get:"},
		{name: "extra args", args: []string{"rules", "now"}, want: "unexpected arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseCommand(tt.args)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCommandsLifecycle(t *testing.T) {
	uc := newUseCase()

	out, err := runArgs(t, uc, "create", "-name", "Ana Souza", "-email", "ana@example.com")
	require.NoError(t, err)
	var created dto.UserResponse
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, int64(1), created.ID)

	out, err = runArgs(t, uc, "update", "-id", "1", "-name", "Ana Maria Souza")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Maria Souza")
	assert.Contains(t, out, "ana@example.com")

	out, err = runArgs(t, uc, "get", "-id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Ana Maria Souza")

	out, err = runArgs(t, uc, "list", "-domain", "example.com")
	require.NoError(t, err)
	var list dto.UserListResponse
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, 1, list.Total)

	out, err = runArgs(t, uc, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, `"example.com"`)

	out, err = runArgs(t, uc, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, services.EmailFormatRuleName)

	out, err = runArgs(t, uc, "delete", "-id", "1")
	require.NoError(t, err)
	assert.Equal(t, "user 1 deleted\n", out)

	_, err = runArgs(t, uc, "get", "-id", "1")
	require.Error(t, err)
}

func TestReport(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, exitOK, report(nil, &stderr))
	assert.Empty(t, stderr.String())

	var errs services.ValidationErrors
	errs.Add("name", "Name cannot contain numbers")
	errs.Add("email", "must be a valid email address")

	stderr.Reset()
	assert.Equal(t, exitValidation, report(services.NewValidationError(errs), &stderr))
	assert.Equal(t, "validation failed:\n  name: Name cannot contain numbers\n  email: must be a valid email address\n", stderr.String())

	stderr.Reset()
	assert.Equal(t, exitFailure, report(errors.New("boom"), &stderr))
	assert.Equal(t, "error: boom\n", stderr.String())
}

func TestRealMainWithMemoryStorage(t *testing.T) {
	t.Setenv("USERS_STORAGE", "memory")

	var stdout, stderr bytes.Buffer
	code := realMain([]string{"create", "-name", "Ana123", "-email", "ana@example.com"}, &stdout, &stderr)

	assert.Equal(t, exitValidation, code)
	assert.Contains(t, stderr.String(), services.NameContentRuleName)
	assert.Empty(t, stdout.String())
}

func TestRealMainUsage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, exitUsage, realMain(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage: userctl")
}
