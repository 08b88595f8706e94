package authentic

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = errors.New("invalid account state transition", errors.CategoryValidation).
	WithTextCode("INVALID_ACCOUNT_STATE_TRANSITION").
	WithCode(errors.CodeBadRequest)

// TransitionHook is executed after a transition has been persisted,
// still inside the surrounding transaction.
type TransitionHook func(ctx context.Context, user *User, from, to AccountStatus) error

// AccountStateMachine defines lifecycle operations for accounts.
// Status is derived from the activation flag, so a transition persists
// the flag flip rather than a separate status column.
type AccountStateMachine interface {
	Transition(ctx context.Context, tx bun.IDB, user *User, target AccountStatus, hooks ...TransitionHook) (*User, error)
	CurrentStatus(user *User) AccountStatus
}

type accountStateMachine struct {
	users       Users
	transitions map[AccountStatus]map[AccountStatus]struct{}
}

// NewAccountStateMachine returns the default implementation backed by
// the provided repository.
func NewAccountStateMachine(users Users) AccountStateMachine {
	return &accountStateMachine{
		users: users,
		transitions: map[AccountStatus]map[AccountStatus]struct{}{
			AccountStatusPending: {
				AccountStatusActive: {},
			},
		},
	}
}

// Transition moves the account to the target status. A same-status
// transition is a successful no-op, which makes re-activation of an
// already active account idempotent.
func (sm *accountStateMachine) Transition(ctx context.Context, tx bun.IDB, user *User, target AccountStatus, hooks ...TransitionHook) (*User, error) {
	if user == nil {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"target": target,
			"reason": "user is nil",
		})
	}

	if target == "" {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"reason": "target status is empty",
		})
	}

	from := user.Status()
	if from == target {
		return user, nil
	}

	if !sm.canTransition(from, target) {
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	switch target {
	case AccountStatusActive:
		if err := sm.users.ActivateTx(ctx, tx, user.ID); err != nil {
			return nil, err
		}
		user.IsActive = true
	default:
		return nil, ErrInvalidTransition.WithMetadata(map[string]any{
			"from": from,
			"to":   target,
		})
	}

	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, user, from, target); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (sm *accountStateMachine) CurrentStatus(user *User) AccountStatus {
	if user == nil {
		return ""
	}
	return user.Status()
}

func (sm *accountStateMachine) canTransition(from, to AccountStatus) bool {
	targets, ok := sm.transitions[from]
	if !ok {
		return false
	}
	_, allowed := targets[to]
	return allowed
}
