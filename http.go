package authentic

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/Ilopesr/authentic/middleware/jwtware"
)

// DefaultContextKey is the fiber locals key holding validated claims.
const DefaultContextKey = "user"

// SessionFromLocals recovers the session stored by the JWT middleware.
func SessionFromLocals(c *fiber.Ctx, key string) (*SessionObject, error) {
	value := c.Locals(key)
	if value == nil {
		return nil, ErrUnableToFindSession
	}

	claims, ok := value.(AuthClaims)
	if !ok {
		return nil, ErrUnableToMapClaims
	}

	return sessionFromAuthClaims(claims)
}

// RouteAuthenticator bridges the Authenticator into fiber handlers:
// protected route middleware, token cookies, and error rendering.
type RouteAuthenticator struct {
	auth     Authenticator
	tokens   TokenService
	settings Settings
	Logger   Logger
}

func NewHTTPAuthenticator(auther Authenticator, tokens TokenService, settings Settings) *RouteAuthenticator {
	return &RouteAuthenticator{
		auth:     auther,
		tokens:   tokens,
		settings: settings,
		Logger:   defLogger{},
	}
}

// ProtectedRoute builds middleware that only admits valid access
// tokens. The token is read from the Authorization header and, when an
// auth cookie is configured, from that cookie as a fallback.
func (a *RouteAuthenticator) ProtectedRoute() fiber.Handler {
	lookup := "header:" + fiber.HeaderAuthorization
	if a.settings.AuthCookieName != "" {
		lookup += ",cookie:" + a.settings.AuthCookieName
	}

	return jwtware.New(jwtware.Config{
		TokenValidator: tokenValidatorAdapter{tokens: a.tokens},
		TokenType:      TokenTypeAccess,
		TokenLookup:    lookup,
		ContextKey:     DefaultContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return RenderError(c, a.authError(err))
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			// propagate claims to the standard context for handlers
			// that never touch fiber locals
			if claims, ok := c.Locals(DefaultContextKey).(AuthClaims); ok {
				c.SetUserContext(WithClaimsContext(c.UserContext(), claims))
			}
			return c.Next()
		},
	})
}

// tokenValidatorAdapter narrows TokenService to the middleware's
// validator interface. The claim interfaces carry the same method set,
// but the declared return types differ, so the signatures need bridging.
type tokenValidatorAdapter struct {
	tokens TokenService
}

func (v tokenValidatorAdapter) Validate(tokenString string) (jwtware.AuthClaims, error) {
	return v.tokens.Validate(tokenString)
}

func (v tokenValidatorAdapter) ValidateType(tokenString, tokenType string) (jwtware.AuthClaims, error) {
	return v.tokens.ValidateType(tokenString, tokenType)
}

func (a *RouteAuthenticator) authError(err error) error {
	if IsTokenExpiredError(err) {
		return ErrTokenExpired
	}
	if IsMalformedError(err) {
		return ErrTokenMalformed
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		return richErr
	}

	return errors.Wrap(err, errors.CategoryAuth, "Invalid authentication token").
		WithCode(errors.CodeUnauthorized)
}

// SetTokenCookie stores the access token in the configured cookie. It
// is a no-op when no cookie name is configured.
func (a *RouteAuthenticator) SetTokenCookie(c *fiber.Ctx, token string) {
	if a.settings.AuthCookieName == "" {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.settings.AuthCookieName,
		Value:    token,
		Path:     a.settings.AuthCookiePath,
		Expires:  time.Now().Add(a.settings.AuthCookieMaxAge),
		HTTPOnly: a.settings.AuthCookieHTTPOnly,
		Secure:   a.settings.AuthCookieSecure,
		SameSite: a.settings.AuthCookieSameSite,
	})
}

// ClearTokenCookie expires the configured auth cookie.
func (a *RouteAuthenticator) ClearTokenCookie(c *fiber.Ctx) {
	if a.settings.AuthCookieName == "" {
		return
	}

	c.Cookie(&fiber.Cookie{
		Name:     a.settings.AuthCookieName,
		Value:    "",
		Path:     a.settings.AuthCookiePath,
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: a.settings.AuthCookieHTTPOnly,
		Secure:   a.settings.AuthCookieSecure,
		SameSite: a.settings.AuthCookieSameSite,
	})
}

// RenderError maps an error to an HTTP status and JSON body. Field
// level validation errors are surfaced under "fields".
func RenderError(c *fiber.Ctx, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	body := fiber.Map{
		"error":     richErr.Message,
		"text_code": richErr.TextCode,
	}

	if fields, ok := FieldErrorsFrom(richErr); ok {
		body["fields"] = fields
	}

	return c.Status(status).JSON(body)
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryValidation, errors.CategoryBadInput:
		return fiber.StatusBadRequest
	case errors.CategoryAuth:
		return fiber.StatusUnauthorized
	case errors.CategoryAuthz:
		return fiber.StatusForbidden
	case errors.CategoryNotFound:
		return fiber.StatusNotFound
	case errors.CategoryConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
