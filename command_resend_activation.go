package authentic

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

type ResendActivationMessage struct {
	Email string `json:"email"`
}

func (e ResendActivationMessage) Type() string { return "account.resend_activation" }

type ResendActivationHandler struct {
	repo     RepositoryManager
	emails   *EmailFactory
	mailer   Mailer
	settings Settings
	logger   Logger
}

// NewResendActivationHandler creates a handler with sane defaults.
func NewResendActivationHandler(repo RepositoryManager, tokens *StateTokenGenerator, settings Settings) *ResendActivationHandler {
	return &ResendActivationHandler{
		repo:     repo,
		emails:   NewEmailFactory(tokens, settings),
		mailer:   &RecordingMailer{},
		settings: settings,
		logger:   defLogger{},
	}
}

// WithMailer sets the delivery channel for activation emails.
func (h *ResendActivationHandler) WithMailer(mailer Mailer) *ResendActivationHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *ResendActivationHandler) WithLogger(logger Logger) *ResendActivationHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *ResendActivationHandler) Execute(ctx context.Context, event ResendActivationMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during activation resend",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *ResendActivationHandler) execute(ctx context.Context, event ResendActivationMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user, err := h.repo.Users().GetByEmail(ctx, event.Email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return NewFieldError("email", h.settings.Messages.UserNotExists, TextCodeWrongEmail)
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user for activation resend")
	}

	if user.IsActive {
		return NewFieldError("email", h.settings.Messages.AlreadyActivated, TextCodeAlreadyActivated)
	}

	// nothing mutated, so previously issued unexpired tokens stay
	// valid alongside the new one
	if h.settings.EmailActivation {
		msg, err := h.emails.Activation(user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build activation email")
		}
		if err := h.mailer.Send(ctx, msg); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to dispatch activation email")
		}
	}

	return nil
}
