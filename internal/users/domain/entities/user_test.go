package entities_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devplatform/internal/users/domain/entities"
)

func TestNewUserName(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectedErr error
	}{
		{name: "valid", input: "Ana Souza"},
		{name: "exactly three characters", input: "Ana"},
		{name: "short after trimming", input: "  ab  ", expectedErr: entities.ErrNameTooShort},
		{name: "empty", input: "", expectedErr: entities.ErrNameTooShort},
		{name: "only spaces", input: "     ", expectedErr: entities.ErrNameTooShort},
		{name: "multibyte counted as runes", input: "Çáé"},
		{name: "too long", input: strings.Repeat("a", 101), expectedErr: entities.ErrNameTooLong},
		{name: "hundred characters", input: strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, err := entities.NewUserName(tt.input)
			if tt.expectedErr != nil {
				require.ErrorIs(t, err, tt.expectedErr)
				assert.True(t, name.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, name.String())
		})
	}
}

func TestNewEmail(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "a@b.com"},
		{name: "plus and percent", input: "first.last+tag%x@sub.example.org"},
		{name: "consecutive dots pass the value object", input: "a..b@c.com"},
		{name: "missing at", input: "bad-email", wantErr: true},
		{name: "single letter tld", input: "a@b.c", wantErr: true},
		{name: "numeric tld", input: "a@b.123", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "two at signs", input: "a@b@c.com", wantErr: true},
		{name: "local part too long", input: strings.Repeat("a", 65) + "@example.com", wantErr: true},
		{name: "total too long", input: "a@" + strings.Repeat("b", 250) + ".com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			email, err := entities.NewEmail(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, entities.ErrInvalidEmailFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, email.String())
		})
	}
}

func TestEmailParts(t *testing.T) {
	email, err := entities.NewEmail("John.Doe@Example.COM")
	require.NoError(t, err)

	assert.Equal(t, "John.Doe", email.LocalPart())
	assert.Equal(t, "example.com", email.Domain())

	same, err := entities.NewEmail("John.Doe@Example.COM")
	require.NoError(t, err)
	other, err := entities.NewEmail("john.doe@example.com")
	require.NoError(t, err)

	assert.True(t, email.Equals(same))
	assert.False(t, email.Equals(other))
}

func TestNewUser(t *testing.T) {
	t.Run("valid user has no id", func(t *testing.T) {
		user, err := entities.NewUser("Ana Souza", "ana@example.com")
		require.NoError(t, err)

		id, ok := user.ID()
		assert.False(t, ok)
		assert.Zero(t, id)
		assert.False(t, user.IsPersisted())
		assert.Equal(t, "Ana Souza", user.Name().String())
		assert.Equal(t, "ana@example.com", user.Email().String())
	})

	t.Run("invalid name", func(t *testing.T) {
		_, err := entities.NewUser("A", "ana@example.com")
		require.ErrorIs(t, err, entities.ErrNameTooShort)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := entities.NewUser("Ana Souza", "not-an-email")
		require.ErrorIs(t, err, entities.ErrInvalidEmailFormat)
	})
}

func TestUserCopies(t *testing.T) {
	user, err := entities.NewUser("Ana Souza", "ana@example.com")
	require.NoError(t, err)

	withID := user.WithID(42)
	id, ok := withID.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(42), id)

	_, ok = user.ID()
	assert.False(t, ok, "original value must stay unpersisted")

	now := time.Date(2024, 5, 6, 10, 0, 0, 0, time.UTC)
	stamped := withID.WithTimestamps(now, now.Add(time.Hour))
	assert.Equal(t, now, stamped.CreatedAt())
	assert.Equal(t, now.Add(time.Hour), stamped.UpdatedAt())
	assert.True(t, withID.CreatedAt().IsZero())
}

func TestUserUpdateDetails(t *testing.T) {
	user, err := entities.NewUser("Ana Souza", "ana@example.com")
	require.NoError(t, err)
	user = user.WithID(7)

	t.Run("valid update returns copy", func(t *testing.T) {
		updated, err := user.UpdateDetails("Ana Maria Souza", "ana.maria@example.com")
		require.NoError(t, err)

		assert.Equal(t, "Ana Maria Souza", updated.Name().String())
		assert.Equal(t, "ana.maria@example.com", updated.Email().String())
		id, _ := updated.ID()
		assert.Equal(t, int64(7), id)
		assert.Equal(t, "Ana Souza", user.Name().String())
	})

	t.Run("invalid name keeps original", func(t *testing.T) {
		updated, err := user.UpdateDetails("x", "ana@example.com")
		require.ErrorIs(t, err, entities.ErrNameTooShort)
		assert.Equal(t, user, updated)
	})

	t.Run("invalid email keeps original", func(t *testing.T) {
		updated, err := user.UpdateDetails("Ana Souza", "broken")
		require.ErrorIs(t, err, entities.ErrInvalidEmailFormat)
		assert.Equal(t, user, updated)
	})
}

func TestRestoreUser(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	user, err := entities.RestoreUser(3, "Ana Souza", "ana@example.com", created, created)
	require.NoError(t, err)
	id, ok := user.ID()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, created, user.CreatedAt())

	_, err = entities.RestoreUser(3, "", "ana@example.com", created, created)
	require.ErrorIs(t, err, entities.ErrNameTooShort)
}

func TestTypedErrors(t *testing.T) {
	notFound := entities.NewNotFoundByID(5)
	assert.ErrorIs(t, notFound, entities.ErrUserNotFound)
	assert.Equal(t, "User not found with id: 5", notFound.Error())

	exists := &entities.AlreadyExistsError{Email: "dup@example.com"}
	assert.ErrorIs(t, exists, entities.ErrUserAlreadyExists)
	assert.Equal(t, "User with email 'dup@example.com' already exists", exists.Error())
}
