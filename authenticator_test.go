package authentic_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilopesr/authentic"
)

func newTestAuthenticator(t *testing.T) (*authentic.Auther, authentic.RepositoryManager) {
	t.Helper()
	repo := setupTestRepo(t)
	auther := authentic.NewAuthenticator(repo.Users(), testSettings())
	return auther, repo
}

func TestAuthenticator_Login(t *testing.T) {
	auther, repo := newTestAuthenticator(t)
	ctx := context.Background()

	seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Email:    "login@example.com",
		IsActive: true,
	}, "secret-password@123")

	t.Run("by email", func(t *testing.T) {
		pair, err := auther.Login(ctx, "login@example.com", "secret-password@123")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.Access)
		assert.NotEmpty(t, pair.Refresh)
	})

	t.Run("by username", func(t *testing.T) {
		pair, err := auther.Login(ctx, "login", "secret-password@123")
		require.NoError(t, err)
		assert.NotEmpty(t, pair.Access)
	})

	t.Run("records last login", func(t *testing.T) {
		user, err := repo.Users().GetByEmail(ctx, "login@example.com")
		require.NoError(t, err)
		assert.NotNil(t, user.LastLoginAt)
	})
}

func TestAuthenticator_LoginWrongPassword(t *testing.T) {
	auther, repo := newTestAuthenticator(t)

	seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Email:    "wrongpw@example.com",
		IsActive: true,
	}, "correct-password@123")

	_, err := auther.Login(context.Background(), "wrongpw@example.com", "not-the-password")
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "INVALID_CREDENTIALS", richErr.TextCode)
}

func TestAuthenticator_LoginUnknownIdentifier(t *testing.T) {
	auther, _ := newTestAuthenticator(t)

	_, err := auther.Login(context.Background(), "ghost@example.com", "whatever")
	require.Error(t, err)

	// same error as a bad password, an attacker learns nothing extra
	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "INVALID_CREDENTIALS", richErr.TextCode)
}

func TestAuthenticator_LoginInactiveAccount(t *testing.T) {
	auther, repo := newTestAuthenticator(t)

	seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "inactive@example.com",
	}, "secret-password@123")

	_, err := auther.Login(context.Background(), "inactive@example.com", "secret-password@123")
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "NOT_AUTHORIZED", richErr.TextCode)
}

func TestAuthenticator_VerifyAndRefresh(t *testing.T) {
	auther, repo := newTestAuthenticator(t)
	ctx := context.Background()

	seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Email:    "verify@example.com",
		IsActive: true,
	}, "secret-password@123")

	pair, err := auther.Login(ctx, "verify@example.com", "secret-password@123")
	require.NoError(t, err)

	t.Run("verify accepts the access token", func(t *testing.T) {
		assert.NoError(t, auther.Verify(pair.Access))
	})

	t.Run("verify rejects garbage", func(t *testing.T) {
		assert.Error(t, auther.Verify("garbage"))
	})

	t.Run("refresh mints a new access token", func(t *testing.T) {
		access, err := auther.Refresh(pair.Refresh)
		require.NoError(t, err)
		assert.NoError(t, auther.Verify(access))
	})

	t.Run("refresh rejects an access token", func(t *testing.T) {
		_, err := auther.Refresh(pair.Access)
		assert.Error(t, err)
	})
}

func TestAuthenticator_SessionFromToken(t *testing.T) {
	auther, repo := newTestAuthenticator(t)
	ctx := context.Background()

	created := seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Email:    "session@example.com",
		IsActive: true,
	}, "secret-password@123")

	pair, err := auther.Login(ctx, "session@example.com", "secret-password@123")
	require.NoError(t, err)

	session, err := auther.SessionFromToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, created.ID.String(), session.GetUserID())
	assert.Equal(t, authentic.TokenTypeAccess, session.GetTokenType())

	t.Run("loads the user behind the session", func(t *testing.T) {
		user, err := auther.UserFromSession(ctx, session)
		require.NoError(t, err)
		assert.Equal(t, created.Email, user.Email)
	})

	t.Run("refresh token is not a session", func(t *testing.T) {
		_, err := auther.SessionFromToken(pair.Refresh)
		assert.Error(t, err)
	})
}
