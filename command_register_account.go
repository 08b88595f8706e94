package authentic

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

type RegisterAccountMessage struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone_number"`
	Password   string `json:"password"`
	RePassword string `json:"re_password"`
	UseHashid  bool
	OnResponse func(user *User)
}

func (e RegisterAccountMessage) Type() string { return "account.register" }

type RegisterAccountHandler struct {
	repo     RepositoryManager
	policy   *PasswordPolicy
	emails   *EmailFactory
	mailer   Mailer
	settings Settings
	logger   Logger
}

// NewRegisterAccountHandler creates a handler with sane defaults.
func NewRegisterAccountHandler(repo RepositoryManager, tokens *StateTokenGenerator, settings Settings) *RegisterAccountHandler {
	return &RegisterAccountHandler{
		repo:     repo,
		policy:   NewPasswordPolicy(),
		emails:   NewEmailFactory(tokens, settings),
		mailer:   &RecordingMailer{},
		settings: settings,
		logger:   defLogger{},
	}
}

// WithMailer sets the delivery channel for activation emails.
func (h *RegisterAccountHandler) WithMailer(mailer Mailer) *RegisterAccountHandler {
	if mailer != nil {
		h.mailer = mailer
	}
	return h
}

// WithPasswordPolicy overrides the strength rules applied on registration.
func (h *RegisterAccountHandler) WithPasswordPolicy(policy *PasswordPolicy) *RegisterAccountHandler {
	if policy != nil {
		h.policy = policy
	}
	return h
}

// WithLogger overrides the logger used by the handler.
func (h *RegisterAccountHandler) WithLogger(logger Logger) *RegisterAccountHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

func (h *RegisterAccountHandler) Execute(ctx context.Context, event RegisterAccountMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during account registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterAccountHandler) execute(ctx context.Context, event RegisterAccountMessage) error {
	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	user := &User{
		Email:     event.Email,
		Username:  event.Username,
		FirstName: event.FirstName,
		LastName:  event.LastName,
		Phone:     event.Phone,
	}
	prepareUserDefaults(user)

	if fields := h.validate(ctx, user, event); fields.HasErrors() {
		return NewFieldErrors(fields)
	}

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		hash, err := HashPassword(event.Password)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid password provided")
		}

		user.PasswordHash = hash
		user.IsActive = !h.settings.SendActivationEmail
		if event.UseHashid {
			if id, err := hashid.NewUUID(event.Email); err == nil {
				user.ID = id
			}
		}

		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return ErrAccountCreationFailed.WithMetadata(map[string]any{
				fieldErrorsMetadataKey: FieldErrors{
					h.loginField(): {h.settings.Messages.CannotCreateUser},
				},
			})
		}

		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "account registration transaction failed")
	}

	// dispatch only after the row is durably committed
	if h.settings.SendActivationEmail && h.settings.EmailActivation {
		h.sendActivation(ctx, user)
	}

	if event.OnResponse != nil {
		event.OnResponse(user)
	}

	return nil
}

func (h *RegisterAccountHandler) validate(ctx context.Context, user *User, event RegisterAccountMessage) FieldErrors {
	fields := FieldErrors{}

	if existing, err := h.repo.Users().GetByIdentifier(ctx, user.Username); err == nil && existing != nil {
		fields.Add("username", h.settings.Messages.CannotCreateUser)
	} else if err != nil && !repository.IsRecordNotFound(err) {
		h.logger.Error("Register uniqueness check failed", "error", err)
	}

	if _, err := h.repo.Users().GetByEmail(ctx, user.Email); err == nil {
		fields.Add("email", h.settings.Messages.CannotCreateUser)
	}

	fields.Merge(validateNewPassword(h.policy, user, event.Password, "password"))

	if !fields.HasErrors() && h.settings.CreatePasswordRetype {
		fields.Merge(validateRetype(event.Password, event.RePassword, "password", h.settings.Messages))
	}

	return fields
}

func (h *RegisterAccountHandler) sendActivation(ctx context.Context, user *User) {
	msg, err := h.emails.Activation(user)
	if err != nil {
		h.logger.Error("Register activation email build failed", "error", err)
		return
	}

	if err := h.mailer.Send(ctx, msg); err != nil {
		h.logger.Error("Register activation email dispatch failed", "error", err)
	}
}

func (h *RegisterAccountHandler) loginField() string {
	return "username"
}
