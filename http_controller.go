package authentic

import (
	goerrs "errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/nyaruka/phonenumbers"
)

// AccountRoutes holds the mount points for the account API.
type AccountRoutes struct {
	TokenCreate      string
	TokenVerify      string
	TokenRefresh     string
	TokenLogout      string
	Users            string
	Activation       string
	ActivationResend string
	RecoverPassword  string
	ChangePassword   string
}

// AccountController exposes the account lifecycle over HTTP.
type AccountController struct {
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Tokens   TokenService
	States   *StateTokenGenerator
	Mailer   Mailer
	Settings Settings
	Routes   *AccountRoutes
	HTTP     *RouteAuthenticator

	register *RegisterAccountHandler
	activate *ActivateAccountHandler
	resend   *ResendActivationHandler
	recover  *RecoverPasswordHandler
	change   *ChangePasswordHandler
}

type AccountControllerOption func(*AccountController) *AccountController

func WithControllerLogger(logger Logger) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Logger = logger
		return c
	}
}

func WithControllerRepo(repo RepositoryManager) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuthenticator(auther Authenticator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Auther = auther
		return c
	}
}

func WithControllerTokenService(tokens TokenService) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Tokens = tokens
		return c
	}
}

func WithControllerStateTokens(states *StateTokenGenerator) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.States = states
		return c
	}
}

func WithControllerMailer(mailer Mailer) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Mailer = mailer
		return c
	}
}

func WithControllerSettings(settings Settings) AccountControllerOption {
	return func(c *AccountController) *AccountController {
		c.Settings = settings
		return c
	}
}

func NewAccountController(opts ...AccountControllerOption) *AccountController {
	c := &AccountController{
		Logger:   defLogger{},
		Settings: DefaultSettings(),
		Routes: &AccountRoutes{
			TokenCreate:      "/jwt/create",
			TokenVerify:      "/jwt/verify",
			TokenRefresh:     "/jwt/refresh",
			TokenLogout:      "/jwt/logout",
			Users:            "/users",
			Activation:       "/users/activation",
			ActivationResend: "/users/activation/resend",
			RecoverPassword:  "/users/recover-password",
			ChangePassword:   "/users/change-password",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in account controller...")
	}

	if c.Tokens == nil {
		panic("Missing TokenService in account controller...")
	}

	if c.States == nil {
		c.States = NewStateTokenGenerator(
			[]byte(c.Settings.SigningKey),
			WithStateTokenTTL(c.Settings.StateTokenTTL),
		)
	}

	if c.Auther == nil {
		c.Auther = NewAuthenticator(c.Repo.Users(), c.Settings).
			WithTokenService(c.Tokens).
			WithLogger(c.Logger)
	}

	if c.Mailer == nil {
		c.Mailer = &RecordingMailer{}
	}

	c.HTTP = NewHTTPAuthenticator(c.Auther, c.Tokens, c.Settings)

	c.register = NewRegisterAccountHandler(c.Repo, c.States, c.Settings).
		WithMailer(c.Mailer).
		WithLogger(c.Logger)
	c.activate = NewActivateAccountHandler(c.Repo, c.States, c.Settings).
		WithLogger(c.Logger)
	c.resend = NewResendActivationHandler(c.Repo, c.States, c.Settings).
		WithMailer(c.Mailer).
		WithLogger(c.Logger)
	c.recover = NewRecoverPasswordHandler(c.Repo, c.States, c.Settings).
		WithMailer(c.Mailer).
		WithLogger(c.Logger)
	c.change = NewChangePasswordHandler(c.Repo, c.States, c.Settings).
		WithLogger(c.Logger)

	return c
}

// RegisterAccountRoutes mounts the account API on the given router.
func RegisterAccountRoutes(app fiber.Router, opts ...AccountControllerOption) *AccountController {
	c := NewAccountController(opts...)

	app.Post(c.Routes.TokenCreate, c.TokenCreate)
	app.Post(c.Routes.TokenVerify, c.TokenVerify)
	app.Post(c.Routes.TokenRefresh, c.TokenRefresh)
	app.Post(c.Routes.TokenLogout, c.TokenLogout)

	app.Post(c.Routes.Users, c.AccountCreate)
	app.Post(c.Routes.Activation, c.AccountActivate)
	app.Post(c.Routes.ActivationResend, c.ActivationResend)
	app.Post(c.Routes.RecoverPassword, c.RecoverPassword)
	app.Post(c.Routes.ChangePassword, c.ChangePassword)

	protected := c.HTTP.ProtectedRoute()
	app.Get(c.Routes.Users, protected, c.AccountList)
	app.Get(c.Routes.Users+"/:id", protected, c.AccountShow)
	app.Patch(c.Routes.Users+"/:id", protected, c.AccountUpdate)
	app.Delete(c.Routes.Users+"/:id", protected, c.AccountDelete)

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `form:"identifier" json:"identifier"`
	Password   string `form:"password" json:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AccountController) TokenCreate(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	pair, err := a.Auther.Login(c.UserContext(), payload.Identifier, payload.Password)
	if err != nil {
		a.Logger.Error("Login error", "error", err)
		return RenderError(c, err)
	}

	a.HTTP.SetTokenCookie(c, pair.Access)

	return c.Status(fiber.StatusOK).JSON(pair)
}

// TokenVerifyRequest payload
type TokenVerifyRequest struct {
	Token string `form:"token" json:"token"`
}

func (r TokenVerifyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AccountController) TokenVerify(c *fiber.Ctx) error {
	payload := new(TokenVerifyRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	if err := a.Auther.Verify(payload.Token); err != nil {
		return RenderError(c, a.HTTP.authError(err))
	}

	return c.SendStatus(fiber.StatusOK)
}

// TokenRefreshRequest payload
type TokenRefreshRequest struct {
	Refresh string `form:"refresh" json:"refresh"`
}

func (r TokenRefreshRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Refresh, validation.Required),
	)
}

func (a *AccountController) TokenRefresh(c *fiber.Ctx) error {
	payload := new(TokenRefreshRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	access, err := a.Auther.Refresh(payload.Refresh)
	if err != nil {
		return RenderError(c, a.HTTP.authError(err))
	}

	a.HTTP.SetTokenCookie(c, access)

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"access": access})
}

func (a *AccountController) TokenLogout(c *fiber.Ctx) error {
	a.HTTP.ClearTokenCookie(c)
	return c.SendStatus(fiber.StatusNoContent)
}

// CreateAccountRequest is the registration payload
type CreateAccountRequest struct {
	Username   string `form:"username" json:"username"`
	Email      string `form:"email" json:"email"`
	FirstName  string `form:"first_name" json:"first_name"`
	LastName   string `form:"last_name" json:"last_name"`
	Phone      string `form:"phone_number" json:"phone_number"`
	Password   string `form:"password" json:"password"`
	RePassword string `form:"re_password" json:"re_password"`
}

// Validate will validate the payload
func (r CreateAccountRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Length(1, 150)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.FirstName, validation.Length(0, 200)),
		validation.Field(&r.LastName, validation.Length(0, 200)),
		validation.Field(&r.Phone, validation.By(ValidPhoneNumber("BR"))),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
	)
}

func (a *AccountController) AccountCreate(c *fiber.Ctx) error {
	payload := new(CreateAccountRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register payload validation", "error", err)
		return RenderError(c, validationError(err))
	}

	var created *User

	req := RegisterAccountMessage{
		Username:   payload.Username,
		Email:      payload.Email,
		FirstName:  payload.FirstName,
		LastName:   payload.LastName,
		Phone:      payload.Phone,
		Password:   payload.Password,
		RePassword: payload.RePassword,
		OnResponse: func(user *User) {
			created = user
		},
	}

	if err := a.register.Execute(c.UserContext(), req); err != nil {
		a.Logger.Error("register account", "error", err)
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created.Serialize(a.Settings.UserFieldsHidden...))
}

// ActivationRequest carries the uid and token from the activation link.
type ActivationRequest struct {
	UID   string `form:"uid" json:"uid"`
	Token string `form:"token" json:"token"`
}

func (r ActivationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, validation.Required),
		validation.Field(&r.Token, validation.Required),
	)
}

func (a *AccountController) AccountActivate(c *fiber.Ctx) error {
	payload := new(ActivationRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	req := ActivateAccountMessage{
		UID:   payload.UID,
		Token: payload.Token,
	}

	if err := a.activate.Execute(c.UserContext(), req); err != nil {
		a.Logger.Error("account activation", "error", err)
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// EmailRequest is shared by the resend and recover endpoints.
type EmailRequest struct {
	Email string `form:"email" json:"email"`
}

func (r EmailRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AccountController) ActivationResend(c *fiber.Ctx) error {
	payload := new(EmailRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	if err := a.resend.Execute(c.UserContext(), ResendActivationMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("resend activation", "error", err)
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AccountController) RecoverPassword(c *fiber.Ctx) error {
	payload := new(EmailRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	if err := a.recover.Execute(c.UserContext(), RecoverPasswordMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("recover password", "error", err)
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ChangePasswordRequest carries the recovery link credentials plus the
// replacement password.
type ChangePasswordRequest struct {
	UID           string `form:"uid" json:"uid"`
	Token         string `form:"token" json:"token"`
	NewPassword   string `form:"new_password" json:"new_password"`
	ReNewPassword string `form:"re_new_password" json:"re_new_password"`
}

func (r ChangePasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.UID, validation.Required),
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(1, 128)),
	)
}

func (a *AccountController) ChangePassword(c *fiber.Ctx) error {
	payload := new(ChangePasswordRequest)

	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	req := ChangePasswordMessage{
		UID:           payload.UID,
		Token:         payload.Token,
		NewPassword:   payload.NewPassword,
		ReNewPassword: payload.ReNewPassword,
	}

	if err := a.change.Execute(c.UserContext(), req); err != nil {
		a.Logger.Error("change password", "error", err)
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (a *AccountController) AccountList(c *fiber.Ctx) error {
	if _, err := a.requireStaff(c); err != nil {
		return RenderError(c, err)
	}

	page := Pagination{
		PageLimit:  c.QueryInt("limit", a.Settings.PageSize),
		PageOffset: c.QueryInt("offset", 0),
	}

	records, count, err := a.Repo.Users().ListPage(c.UserContext(), page)
	if err != nil {
		a.Logger.Error("list accounts", "error", err)
		return RenderError(c, err)
	}

	results := make([]map[string]any, 0, len(records))
	for _, record := range records {
		results = append(results, record.Serialize(a.Settings.UserFieldsHidden...))
	}

	return c.Status(fiber.StatusOK).JSON(Page[map[string]any]{
		Count:   count,
		Limit:   page.Limit(),
		Offset:  page.Offset(),
		Results: results,
	})
}

func (a *AccountController) AccountShow(c *fiber.Ctx) error {
	target, err := a.requireSelfOrStaff(c)
	if err != nil {
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(target.Serialize(a.Settings.UserFieldsHidden...))
}

// UpdateAccountRequest is the partial update payload. Nil fields are
// left untouched.
type UpdateAccountRequest struct {
	FirstName *string `form:"first_name" json:"first_name"`
	LastName  *string `form:"last_name" json:"last_name"`
	Phone     *string `form:"phone_number" json:"phone_number"`
}

func (r UpdateAccountRequest) Validate() error {
	phone := ""
	if r.Phone != nil {
		phone = *r.Phone
	}
	return validation.Validate(phone, validation.By(ValidPhoneNumber("BR")))
}

func (a *AccountController) AccountUpdate(c *fiber.Ctx) error {
	target, err := a.requireSelfOrStaff(c)
	if err != nil {
		return RenderError(c, err)
	}

	payload := new(UpdateAccountRequest)
	if err := c.BodyParser(payload); err != nil {
		return RenderError(c, badBodyError(err))
	}

	if err := payload.Validate(); err != nil {
		return RenderError(c, validationError(err))
	}

	if payload.FirstName != nil {
		target.FirstName = *payload.FirstName
	}
	if payload.LastName != nil {
		target.LastName = *payload.LastName
	}
	if payload.Phone != nil {
		target.Phone = *payload.Phone
	}

	updated, err := a.Repo.Users().Save(c.UserContext(), target)
	if err != nil {
		a.Logger.Error("update account", "error", err)
		return RenderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(updated.Serialize(a.Settings.UserFieldsHidden...))
}

func (a *AccountController) AccountDelete(c *fiber.Ctx) error {
	target, err := a.requireSelfOrStaff(c)
	if err != nil {
		return RenderError(c, err)
	}

	if err := a.Repo.Users().Remove(c.UserContext(), target.ID); err != nil {
		a.Logger.Error("delete account", "error", err)
		return RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// requireStaff admits only staff or superuser sessions.
func (a *AccountController) requireStaff(c *fiber.Ctx) (*User, error) {
	current, err := a.currentUser(c)
	if err != nil {
		return nil, err
	}

	if !current.IsStaff && !current.IsSuperuser {
		return nil, ErrNotAuthorized
	}

	return current, nil
}

// requireSelfOrStaff resolves the :id param and admits the session when
// it belongs to that account or carries staff privileges. Returns the
// target account.
func (a *AccountController) requireSelfOrStaff(c *fiber.Ctx) (*User, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, ErrInvalidIdentifier
	}

	current, err := a.currentUser(c)
	if err != nil {
		return nil, err
	}

	if current.ID == id {
		return current, nil
	}

	if !current.IsStaff && !current.IsSuperuser {
		return nil, ErrNotAuthorized
	}

	target, err := a.Repo.Users().GetByIdentifier(c.UserContext(), id.String())
	if err != nil {
		return nil, err
	}

	return target, nil
}

func (a *AccountController) currentUser(c *fiber.Ctx) (*User, error) {
	session, err := SessionFromLocals(c, DefaultContextKey)
	if err != nil {
		return nil, err
	}

	user, err := a.Repo.Users().GetByIdentifier(c.UserContext(), session.GetUserID())
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ValidPhoneNumber checks the value parses as a dialable number for the
// given default region. Empty values pass, use Required to reject them.
func ValidPhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("invalid phone number: %w", err)
		}

		if !phonenumbers.IsValidNumber(num) {
			return goerrs.New("invalid phone number")
		}

		return nil
	}
}

func badBodyError(err error) error {
	return errors.Wrap(err, errors.CategoryBadInput, "Failed to parse request body").
		WithCode(errors.CodeBadRequest)
}

// validationError converts ozzo validation output into the field error
// envelope shared with the command handlers.
func validationError(err error) error {
	fields := FieldErrors{}

	var verrs validation.Errors
	if goerrs.As(err, &verrs) {
		for field, ferr := range verrs {
			fields.Add(field, ferr.Error())
		}
	} else {
		fields.Add("non_field_errors", err.Error())
	}

	return NewFieldErrors(fields)
}
