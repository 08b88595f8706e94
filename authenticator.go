package authentic

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther authenticates credentials against the user store and hands
// out stateless JWT pairs. A revoked pair stays cryptographically valid
// until natural expiry; there is deliberately no blacklist.
type Auther struct {
	users        Users
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(users Users, settings Settings) *Auther {
	tokenService := NewTokenService(
		[]byte(settings.SigningKey),
		settings.AccessTokenTTL,
		settings.RefreshTokenTTL,
		settings.Issuer,
		defLogger{},
	)

	return &Auther{
		users:        users,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithTokenService overrides the token service (useful for tests).
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	if ts != nil {
		s.tokenService = ts
	}
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies credentials and mints a token pair. Accounts pending
// activation cannot authenticate.
func (s *Auther) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		s.logger.Error("Login user lookup error", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		s.logger.Info("Login credential mismatch", "identifier", identifier)
		return nil, ErrMismatchedHashAndPassword
	}

	if !user.IsActive {
		s.logger.Info("Login blocked for inactive account", "identifier", identifier)
		return nil, ErrUserNotActive
	}

	if err := s.users.TrackSuccessfulLogin(ctx, user); err != nil {
		s.logger.Warn("Login failed to track login time", "error", err)
	}

	pair, err := s.tokenService.GeneratePair(user)
	if err != nil {
		s.logger.Error("Login token generation error", "error", err)
		return nil, err
	}

	return pair, nil
}

// Verify checks an access token.
func (s *Auther) Verify(token string) error {
	_, err := s.tokenService.ValidateType(token, TokenTypeAccess)
	return err
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Auther) Refresh(refreshToken string) (string, error) {
	return s.tokenService.Refresh(refreshToken)
}

// SessionFromToken decodes a validated access token into a session.
func (s *Auther) SessionFromToken(raw string) (Session, error) {
	claims, err := s.tokenService.ValidateType(raw, TokenTypeAccess)
	if err != nil {
		s.logger.Error("SessionFromToken validation failed", "error", err)
		return nil, err
	}

	session, err := sessionFromAuthClaims(claims)
	if err != nil {
		s.logger.Error("SessionFromToken failed to create session from claims", "error", err)
		return nil, err
	}

	return session, nil
}

// UserFromSession loads the full user record behind a session.
func (s *Auther) UserFromSession(ctx context.Context, session Session) (*User, error) {
	user, err := s.users.GetByIdentifier(ctx, session.GetUserID())
	if err != nil {
		s.logger.Error("UserFromSession lookup error", "error", err)
		return nil, err
	}
	return user, nil
}

var _ Authenticator = (*Auther)(nil)
