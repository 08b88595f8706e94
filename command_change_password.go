package authentic

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

type ChangePasswordMessage struct {
	UID           string `json:"uid"`
	Token         string `json:"token"`
	NewPassword   string `json:"new_password"`
	ReNewPassword string `json:"re_new_password"`
	OnResponse    func(user *User)
}

func (e ChangePasswordMessage) Type() string { return "account.change_password" }

type ChangePasswordHandler struct {
	repo     RepositoryManager
	tokens   *StateTokenGenerator
	policy   *PasswordPolicy
	settings Settings
	logger   Logger
}

// NewChangePasswordHandler creates a handler with sane defaults.
func NewChangePasswordHandler(repo RepositoryManager, tokens *StateTokenGenerator, settings Settings) *ChangePasswordHandler {
	return &ChangePasswordHandler{
		repo:     repo,
		tokens:   tokens,
		policy:   NewPasswordPolicy(),
		settings: settings,
		logger:   defLogger{},
	}
}

// WithPasswordPolicy overrides the password validation policy.
func (h *ChangePasswordHandler) WithPasswordPolicy(policy *PasswordPolicy) *ChangePasswordHandler {
	if policy != nil {
		h.policy = policy
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ChangePasswordHandler) WithLogger(logger Logger) *ChangePasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ChangePasswordHandler) Execute(ctx context.Context, event ChangePasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password change",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ChangePasswordHandler) execute(ctx context.Context, event ChangePasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := resolveUIDToken(ctx, h.repo.Users(), h.tokens, h.settings.Messages, event.UID, event.Token)
	if err != nil {
		return err
	}

	fields := FieldErrors{}
	fields.Merge(validateNewPassword(h.policy, user, event.NewPassword, "new_password"))

	if !fields.HasErrors() && h.settings.ChangePasswordRetype {
		fields.Merge(validateRetype(event.NewPassword, event.ReNewPassword, "new_password", h.settings.Messages))
	}
	if fields.HasErrors() {
		return NewFieldErrors(fields)
	}

	hash, err := HashPassword(event.NewPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to hash new password")
	}

	// updating the hash invalidates every state token minted before this point
	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().SetPasswordTx(ctx, tx, user.ID, hash, time.Now())
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password change transaction failed")
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}
