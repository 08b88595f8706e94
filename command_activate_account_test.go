package authentic_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilopesr/authentic"
)

func activationCredentials(tokens *authentic.StateTokenGenerator, user *authentic.User) (string, string) {
	return authentic.EncodeUID(user.ID), tokens.Generate(user)
}

func TestActivateAccount_HappyPath(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	tokens := testStateTokens(settings)
	handler := authentic.NewActivateAccountHandler(repo, tokens, settings)

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "ativar@example.com",
	}, "")
	require.False(t, user.IsActive)

	uid, token := activationCredentials(tokens, user)

	var activated *authentic.User
	err := handler.Execute(context.Background(), authentic.ActivateAccountMessage{
		UID:   uid,
		Token: token,
		OnResponse: func(u *authentic.User) {
			activated = u
		},
	})
	require.NoError(t, err)
	require.NotNil(t, activated)
	assert.True(t, activated.IsActive)

	found, err := repo.Users().GetByEmail(context.Background(), "ativar@example.com")
	require.NoError(t, err)
	assert.True(t, found.IsActive)
}

func TestActivateAccount_IsIdempotent(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	tokens := testStateTokens(settings)
	handler := authentic.NewActivateAccountHandler(repo, tokens, settings)

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "duas-vezes@example.com",
	}, "")

	uid, token := activationCredentials(tokens, user)

	msg := authentic.ActivateAccountMessage{UID: uid, Token: token}
	require.NoError(t, handler.Execute(context.Background(), msg))

	// the token fingerprint ignores the activation flag, so replaying
	// the same link succeeds without changing anything
	require.NoError(t, handler.Execute(context.Background(), msg))
}

func TestActivateAccount_InvalidUID(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewActivateAccountHandler(repo, testStateTokens(settings), settings)

	err := handler.Execute(context.Background(), authentic.ActivateAccountMessage{
		UID:   "!!!not-base64!!!",
		Token: "whatever",
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	assert.Contains(t, fields, "uid")
}

func TestActivateAccount_UnknownAccount(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	tokens := testStateTokens(settings)
	handler := authentic.NewActivateAccountHandler(repo, tokens, settings)

	ghost := &authentic.User{ID: uuid.New()}
	uid, token := activationCredentials(tokens, ghost)

	err := handler.Execute(context.Background(), authentic.ActivateAccountMessage{
		UID:   uid,
		Token: token,
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	assert.Contains(t, fields, "uid")
}

func TestActivateAccount_TokenBoundToState(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	tokens := testStateTokens(settings)
	handler := authentic.NewActivateAccountHandler(repo, tokens, settings)

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "trocou@example.com",
	}, "senha-antiga@123")

	uid, token := activationCredentials(tokens, user)

	// a password change on the live record invalidates the old token
	err := repo.Users().SetPassword(context.Background(), user.ID, "outra-hash", time.Now())
	require.NoError(t, err)

	err = handler.Execute(context.Background(), authentic.ActivateAccountMessage{
		UID:   uid,
		Token: token,
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	assert.Contains(t, fields, "token")
}
