package jwtware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ilopesr/authentic/middleware/jwtware"
)

type stubClaims struct {
	subject   string
	tokenType string
}

func (s stubClaims) Subject() string     { return s.subject }
func (s stubClaims) UserID() string      { return s.subject }
func (s stubClaims) TokenType() string   { return s.tokenType }
func (s stubClaims) Expires() time.Time  { return time.Now().Add(time.Minute) }
func (s stubClaims) IssuedAt() time.Time { return time.Now() }

type stubValidator struct {
	accept map[string]stubClaims
}

func (v stubValidator) Validate(token string) (jwtware.AuthClaims, error) {
	claims, ok := v.accept[token]
	if !ok {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func (v stubValidator) ValidateType(token, tokenType string) (jwtware.AuthClaims, error) {
	claims, err := v.Validate(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenType() != tokenType {
		return nil, errors.New("wrong token type")
	}
	return claims, nil
}

func newApp(cfg jwtware.Config) *fiber.App {
	app := fiber.New()
	app.Use(jwtware.New(cfg))
	app.Get("/ok", func(c *fiber.Ctx) error {
		claims, _ := c.Locals("user").(jwtware.AuthClaims)
		if claims == nil {
			return c.SendStatus(fiber.StatusInternalServerError)
		}
		return c.SendString(claims.Subject())
	})
	return app
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{
		"good-token": {subject: "user-1", tokenType: "access"},
	}}

	app := newApp(jwtware.Config{TokenValidator: validator})

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer good-token")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{}}

	app := newApp(jwtware.Config{TokenValidator: validator})

	req := httptest.NewRequest("GET", "/ok", nil)

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestMiddlewareRejectsInvalidToken(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{}}

	app := newApp(jwtware.Config{TokenValidator: validator})

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer bogus")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestMiddlewareEnforcesTokenType(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{
		"refresh-token": {subject: "user-1", tokenType: "refresh"},
	}}

	app := newApp(jwtware.Config{
		TokenValidator: validator,
		TokenType:      "access",
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer refresh-token")

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
}

func TestMiddlewareCookieLookup(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{
		"cookie-token": {subject: "user-2", tokenType: "access"},
	}}

	app := newApp(jwtware.Config{
		TokenValidator: validator,
		TokenLookup:    "cookie:auth",
	})

	req := httptest.NewRequest("GET", "/ok", nil)
	req.AddCookie(&http.Cookie{Name: "auth", Value: "cookie-token"})

	res, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestMiddlewareFilterSkips(t *testing.T) {
	validator := stubValidator{accept: map[string]stubClaims{}}

	app := fiber.New()
	app.Use(jwtware.New(jwtware.Config{
		TokenValidator: validator,
		Filter: func(c *fiber.Ctx) bool {
			return c.Path() == "/public"
		},
	}))
	app.Get("/public", func(c *fiber.Ctx) error {
		return c.SendString("open")
	})

	res, err := app.Test(httptest.NewRequest("GET", "/public", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}
