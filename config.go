package authentic

import (
	"sync"
	"time"

	"github.com/caarlos0/env/v10"
)

// Settings is the process wide configuration snapshot. It is built once
// at startup (or per test) and passed by reference into each component;
// reload is an explicit re-construction via Apply, never a hidden
// global mutation.
type Settings struct {
	SigningKey string `env:"AUTHENTIC_SIGNING_KEY"`
	Issuer     string `env:"AUTHENTIC_ISSUER" envDefault:"authentic"`

	AccessTokenTTL  time.Duration `env:"AUTHENTIC_ACCESS_TTL" envDefault:"5m"`
	RefreshTokenTTL time.Duration `env:"AUTHENTIC_REFRESH_TTL" envDefault:"24h"`

	// StateTokenTTL bounds activation/recovery tokens. Zero keeps them
	// valid until the bound user state changes.
	StateTokenTTL time.Duration `env:"AUTHENTIC_STATE_TOKEN_TTL" envDefault:"0"`

	EmailActivation      bool `env:"AUTHENTIC_EMAIL_ACTIVATION" envDefault:"true"`
	SendActivationEmail  bool `env:"AUTHENTIC_SEND_ACTIVATION_EMAIL" envDefault:"false"`
	EmailRecoverPassword bool `env:"AUTHENTIC_EMAIL_RECOVER_PASSWORD" envDefault:"true"`

	CreatePasswordRetype bool `env:"AUTHENTIC_CREATE_PASSWORD_RETYPE" envDefault:"false"`
	ChangePasswordRetype bool `env:"AUTHENTIC_CHANGE_PASSWORD_RETYPE" envDefault:"false"`

	ActivationURL     string `env:"AUTHENTIC_ACTIVATION_URL" envDefault:"/contas/ativacao/{uid}/{token}"`
	ChangePasswordURL string `env:"AUTHENTIC_CHANGE_PASSWORD_URL" envDefault:"/contas/recuperar/senha/trocar/{uid}/{token}"`

	AuthCookieName     string        `env:"AUTHENTIC_AUTH_COOKIE" envDefault:""`
	AuthCookieMaxAge   time.Duration `env:"AUTHENTIC_AUTH_COOKIE_MAX_AGE" envDefault:"720h"`
	AuthCookieSecure   bool          `env:"AUTHENTIC_AUTH_COOKIE_SECURE" envDefault:"true"`
	AuthCookieHTTPOnly bool          `env:"AUTHENTIC_AUTH_COOKIE_HTTP_ONLY" envDefault:"true"`
	AuthCookiePath     string        `env:"AUTHENTIC_AUTH_COOKIE_PATH" envDefault:"/"`
	AuthCookieSameSite string        `env:"AUTHENTIC_AUTH_COOKIE_SAMESITE" envDefault:"None"`

	UserFieldsHidden []string `env:"AUTHENTIC_USER_FIELDS_HIDDEN" envSeparator:","`
	PageSize         int      `env:"AUTHENTIC_PAGE_SIZE" envDefault:"10"`

	Messages Messages `env:"-"`
}

// DefaultSettings returns the built in configuration.
func DefaultSettings() Settings {
	return Settings{
		Issuer:               "authentic",
		AccessTokenTTL:       5 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		EmailActivation:      true,
		EmailRecoverPassword: true,
		ActivationURL:        "/contas/ativacao/{uid}/{token}",
		ChangePasswordURL:    "/contas/recuperar/senha/trocar/{uid}/{token}",
		AuthCookieMaxAge:     720 * time.Hour,
		AuthCookieSecure:     true,
		AuthCookieHTTPOnly:   true,
		AuthCookiePath:       "/",
		AuthCookieSameSite:   "None",
		PageSize:             DefaultPageSize,
		Messages:             DefaultMessages(),
	}
}

// SettingsFromEnv builds Settings from defaults plus AUTHENTIC_*
// environment variables.
func SettingsFromEnv() (Settings, error) {
	s := DefaultSettings()
	if err := env.Parse(&s); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Apply rebuilds the snapshot with the given flat key overrides and
// returns the new copy. Unknown keys are ignored so host applications
// can share one override map across modules.
func (s Settings) Apply(overrides map[string]any) Settings {
	for key, value := range overrides {
		switch key {
		case "SIGNING_KEY":
			setIf(&s.SigningKey, value)
		case "ISSUER":
			setIf(&s.Issuer, value)
		case "ACCESS_TOKEN_TTL":
			setIf(&s.AccessTokenTTL, value)
		case "REFRESH_TOKEN_TTL":
			setIf(&s.RefreshTokenTTL, value)
		case "STATE_TOKEN_TTL":
			setIf(&s.StateTokenTTL, value)
		case "EMAIL_ACTIVATION":
			setIf(&s.EmailActivation, value)
		case "SEND_ACTIVATION_EMAIL":
			setIf(&s.SendActivationEmail, value)
		case "EMAIL_RECOVER_PASSWORD":
			setIf(&s.EmailRecoverPassword, value)
		case "USER_CREATE_PASSWORD_RETYPE":
			setIf(&s.CreatePasswordRetype, value)
		case "CHANGE_PASSWORD_RETYPE":
			setIf(&s.ChangePasswordRetype, value)
		case "EMAIL_ACTIVATION_URL":
			setIf(&s.ActivationURL, value)
		case "CHANGE_PASSWORD_URL":
			setIf(&s.ChangePasswordURL, value)
		case "AUTH_COOKIE":
			setIf(&s.AuthCookieName, value)
		case "AUTH_COOKIE_MAX_AGE":
			setIf(&s.AuthCookieMaxAge, value)
		case "AUTH_COOKIE_SECURE":
			setIf(&s.AuthCookieSecure, value)
		case "AUTH_COOKIE_HTTP_ONLY":
			setIf(&s.AuthCookieHTTPOnly, value)
		case "AUTH_COOKIE_PATH":
			setIf(&s.AuthCookiePath, value)
		case "AUTH_COOKIE_SAMESITE":
			setIf(&s.AuthCookieSameSite, value)
		case "USER_MODEL_FIELDS_HIDDEN":
			setIf(&s.UserFieldsHidden, value)
		case "PAGE_SIZE":
			setIf(&s.PageSize, value)
		case "MESSAGES":
			setIf(&s.Messages, value)
		}
	}
	return s
}

func setIf[T any](dst *T, value any) {
	if v, ok := value.(T); ok {
		*dst = v
	}
}

// Registry resolves named implementations (mailers, password policies,
// serializer overrides) lazily. Entries registered as func() any are
// resolved once on first lookup, mirroring string-reference indirection
// without a hidden import step.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]any
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: map[string]any{}}
}

// Register stores an implementation (or lazy constructor) under name,
// replacing any previous entry. Safe for concurrent use.
func (r *Registry) Register(name string, impl any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = impl
}

// Resolve looks up a name, forcing lazy constructors on first access.
func (r *Registry) Resolve(name string) (any, bool) {
	r.mu.RLock()
	impl, ok := r.entries[name]
	r.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if lazy, isLazy := impl.(func() any); isLazy {
		resolved := lazy()
		r.mu.Lock()
		r.entries[name] = resolved
		r.mu.Unlock()
		return resolved, true
	}

	return impl, true
}
