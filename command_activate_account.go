package authentic

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ActivateAccountMessage struct {
	UID        string `json:"uid"`
	Token      string `json:"token"`
	OnResponse func(user *User)
}

func (e ActivateAccountMessage) Type() string { return "account.activate" }

type ActivateAccountHandler struct {
	repo         RepositoryManager
	tokens       *StateTokenGenerator
	stateMachine AccountStateMachine
	settings     Settings
	logger       Logger
}

// NewActivateAccountHandler creates a handler with sane defaults.
func NewActivateAccountHandler(repo RepositoryManager, tokens *StateTokenGenerator, settings Settings) *ActivateAccountHandler {
	return &ActivateAccountHandler{
		repo:         repo,
		tokens:       tokens,
		stateMachine: NewAccountStateMachine(repo.Users()),
		settings:     settings,
		logger:       defLogger{},
	}
}

// WithStateMachine overrides the lifecycle state machine.
func (h *ActivateAccountHandler) WithStateMachine(sm AccountStateMachine) *ActivateAccountHandler {
	if sm != nil {
		h.stateMachine = sm
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ActivateAccountHandler) WithLogger(logger Logger) *ActivateAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ActivateAccountHandler) Execute(ctx context.Context, event ActivateAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account activation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ActivateAccountHandler) execute(ctx context.Context, event ActivateAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := resolveUIDToken(ctx, h.repo.Users(), h.tokens, h.settings.Messages, event.UID, event.Token)
	if err != nil {
		return err
	}

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := h.stateMachine.Transition(ctx, tx, user, AccountStatusActive)
		return err
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account activation transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
