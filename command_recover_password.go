package authentic

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type RecoverPasswordMessage struct {
	Email string `json:"email"`
}

func (e RecoverPasswordMessage) Type() string { return "account.recover_password" }

type RecoverPasswordHandler struct {
	repo     RepositoryManager
	emails   *EmailFactory
	mailer   Mailer
	settings Settings
	logger   Logger
}

// NewRecoverPasswordHandler creates a handler with sane defaults.
func NewRecoverPasswordHandler(repo RepositoryManager, tokens *StateTokenGenerator, settings Settings) *RecoverPasswordHandler {
	return &RecoverPasswordHandler{
		repo:     repo,
		emails:   NewEmailFactory(tokens, settings),
		mailer:   &RecordingMailer{},
		settings: settings,
		logger:   defLogger{},
	}
}

// WithMailer sets the delivery channel for recovery emails.
func (h *RecoverPasswordHandler) WithMailer(mailer Mailer) *RecoverPasswordHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RecoverPasswordHandler) WithLogger(logger Logger) *RecoverPasswordHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RecoverPasswordHandler) Execute(ctx context.Context, event RecoverPasswordMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during password recovery request",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RecoverPasswordHandler) execute(ctx context.Context, event RecoverPasswordMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewFieldError("email", h.settings.Messages.UserNotExists, TextCodeWrongEmail)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for password recovery")
	}

	// recovery is available to inactive accounts too
	if h.settings.EmailRecoverPassword {
		msg, err := h.emails.RecoverPassword(user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build recovery email")
		}
		if err := h.mailer.Send(ctx, msg); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to dispatch recovery email")
		}
	}

	return nil
}
