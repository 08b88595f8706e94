package authentic_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilopesr/authentic"
)

func TestRegisterAccount_CreatesActiveUserByDefault(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	var created *authentic.User

	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Email:    "nova@example.com",
		Password: "testando@123",
		OnResponse: func(user *authentic.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "nova", created.Username)
	assert.True(t, created.IsActive)
	assert.NotEmpty(t, created.PasswordHash)
	assert.NotEqual(t, "testando@123", created.PasswordHash)

	found, err := repo.Users().GetByEmail(context.Background(), "nova@example.com")
	require.NoError(t, err)
	assert.True(t, found.IsActive)
}

func TestRegisterAccount_ActivationEmailFlow(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	settings.SendActivationEmail = true

	mailer := &authentic.RecordingMailer{}
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings).
		WithMailer(mailer)

	var created *authentic.User
	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Email:    "pendente@example.com",
		Password: "testando@123",
		OnResponse: func(user *authentic.User) {
			created = user
		},
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// account starts out inactive and receives the activation email
	assert.False(t, created.IsActive)

	sent := mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"pendente@example.com"}, sent[0].To)
	assert.NotEmpty(t, sent[0].Context["uid"])
	assert.NotEmpty(t, sent[0].Context["token"])
}

func TestRegisterAccount_EmailDispatchGatedByToggle(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	settings.SendActivationEmail = true
	settings.EmailActivation = false

	mailer := &authentic.RecordingMailer{}
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings).
		WithMailer(mailer)

	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Email:    "silencio@example.com",
		Password: "testando@123",
	})
	require.NoError(t, err)

	// inactive account, but no email goes out
	found, err := repo.Users().GetByEmail(context.Background(), "silencio@example.com")
	require.NoError(t, err)
	assert.False(t, found.IsActive)
	assert.Empty(t, mailer.Sent())
}

func TestRegisterAccount_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Username: "taken",
		Email:    "taken@example.com",
		IsActive: true,
	}, "")

	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Username: "other",
		Email:    "taken@example.com",
		Password: "testando@123",
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	assert.Contains(t, fields, "email")
}

func TestRegisterAccount_DuplicateUsername(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Username: "repetido",
		Email:    "primeiro@example.com",
		IsActive: true,
	}, "")

	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Username: "repetido",
		Email:    "segundo@example.com",
		Password: "testando@123",
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	assert.Contains(t, fields, "username")
}

func TestRegisterAccount_WeakPasswordAggregatesViolations(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
		Email:    "fraca@example.com",
		Password: "fraca",
	})
	require.Error(t, err)

	fields, ok := authentic.FieldErrorsFrom(err)
	require.True(t, ok)
	require.Contains(t, fields, "password")
	// too short and too similar to the username, both reported at once
	assert.GreaterOrEqual(t, len(fields["password"]), 2)
}

func TestRegisterAccount_RetypeToggle(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	settings.CreatePasswordRetype = true
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	t.Run("mismatch rejected", func(t *testing.T) {
		err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
			Email:      "retype@example.com",
			Password:   "testando@123",
			RePassword: "diferente@123",
		})
		require.Error(t, err)

		fields, ok := authentic.FieldErrorsFrom(err)
		require.True(t, ok)
		assert.Contains(t, fields, "password")
	})

	t.Run("match accepted", func(t *testing.T) {
		err := handler.Execute(context.Background(), authentic.RegisterAccountMessage{
			Email:      "retype@example.com",
			Password:   "testando@123",
			RePassword: "testando@123",
		})
		assert.NoError(t, err)
	})
}

func TestRegisterAccount_CancelledContext(t *testing.T) {
	repo := setupTestRepo(t)
	settings := testSettings()
	handler := authentic.NewRegisterAccountHandler(repo, testStateTokens(settings), settings)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, authentic.RegisterAccountMessage{
		Email:    "cancelada@example.com",
		Password: "testando@123",
	})
	assert.Error(t, err)
}
