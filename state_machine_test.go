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

func TestAccountStateMachine_PendingToActive(t *testing.T) {
	repo, db := setupTestRepoDB(t)
	ctx := context.Background()

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "pending@example.com",
	}, "")
	require.Equal(t, authentic.AccountStatusPending, user.Status())

	sm := authentic.NewAccountStateMachine(repo.Users())

	result, err := sm.Transition(ctx, db, user, authentic.AccountStatusActive)
	require.NoError(t, err)
	assert.True(t, result.IsActive)

	found, err := repo.Users().GetByEmail(ctx, "pending@example.com")
	require.NoError(t, err)
	assert.True(t, found.IsActive)
}

func TestAccountStateMachine_SameStatusIsNoOp(t *testing.T) {
	repo, db := setupTestRepoDB(t)

	user := seedUser(t, repo, &authentic.User{
		ID:       uuid.New(),
		Email:    "active@example.com",
		IsActive: true,
	}, "")

	sm := authentic.NewAccountStateMachine(repo.Users())

	result, err := sm.Transition(context.Background(), db, user, authentic.AccountStatusActive)
	require.NoError(t, err)
	assert.True(t, result.IsActive)
}

func TestAccountStateMachine_RejectsUnknownTarget(t *testing.T) {
	repo, db := setupTestRepoDB(t)

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "stuck@example.com",
	}, "")

	sm := authentic.NewAccountStateMachine(repo.Users())

	_, err := sm.Transition(context.Background(), db, user, "suspended")
	require.Error(t, err)

	var richErr *errors.Error
	require.True(t, errors.As(err, &richErr))
	assert.Equal(t, "INVALID_ACCOUNT_STATE_TRANSITION", richErr.TextCode)
}

func TestAccountStateMachine_RejectsNilUser(t *testing.T) {
	repo, db := setupTestRepoDB(t)
	sm := authentic.NewAccountStateMachine(repo.Users())

	_, err := sm.Transition(context.Background(), db, nil, authentic.AccountStatusActive)
	require.Error(t, err)
}

func TestAccountStateMachine_RunsHooksAfterPersisting(t *testing.T) {
	repo, db := setupTestRepoDB(t)

	user := seedUser(t, repo, &authentic.User{
		ID:    uuid.New(),
		Email: "hooked@example.com",
	}, "")

	sm := authentic.NewAccountStateMachine(repo.Users())

	var fromSeen, toSeen authentic.AccountStatus
	hook := func(ctx context.Context, u *authentic.User, from, to authentic.AccountStatus) error {
		fromSeen = from
		toSeen = to
		return nil
	}

	_, err := sm.Transition(context.Background(), db, user, authentic.AccountStatusActive, hook)
	require.NoError(t, err)
	assert.Equal(t, authentic.AccountStatusPending, fromSeen)
	assert.Equal(t, authentic.AccountStatusActive, toSeen)
}

func TestAccountStateMachine_CurrentStatus(t *testing.T) {
	repo := setupTestRepo(t)
	sm := authentic.NewAccountStateMachine(repo.Users())

	assert.Equal(t, authentic.AccountStatus(""), sm.CurrentStatus(nil))
	assert.Equal(t, authentic.AccountStatusPending, sm.CurrentStatus(&authentic.User{}))
	assert.Equal(t, authentic.AccountStatusActive, sm.CurrentStatus(&authentic.User{IsActive: true}))
}
