package authentic

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenPair is the access/refresh credential set handed out on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// TokenService mints and validates JWT pairs. All validity is carried
// in the signed token itself; there is no server side session state.
type TokenService interface {
	GeneratePair(user *User) (*TokenPair, error)
	SignClaims(claims *JWTClaims) (string, error)
	Validate(tokenString string) (AuthClaims, error)
	ValidateType(tokenString, tokenType string) (AuthClaims, error)
	Refresh(refreshToken string) (string, error)
}

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, issuer string, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
		logger:     logger,
	}
}

// GeneratePair mints an access/refresh pair for the user.
func (ts *TokenServiceImpl) GeneratePair(user *User) (*TokenPair, error) {
	now := time.Now()

	access, err := ts.SignClaims(ts.newClaims(user.ID.String(), TokenTypeAccess, now, ts.accessTTL))
	if err != nil {
		return nil, err
	}

	refresh, err := ts.SignClaims(ts.newClaims(user.ID.String(), TokenTypeRefresh, now, ts.refreshTTL))
	if err != nil {
		return nil, err
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// SignClaims signs arbitrary JWT claims using the configured signing key.
func (ts *TokenServiceImpl) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims
func (ts *TokenServiceImpl) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 1)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	ts.logger.Error("TokenService validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// ValidateType validates the token and additionally requires the typ
// claim to match, so an access token can never stand in for a refresh
// token or vice versa.
func (ts *TokenServiceImpl) ValidateType(tokenString, tokenType string) (AuthClaims, error) {
	claims, err := ts.Validate(tokenString)
	if err != nil {
		return nil, err
	}

	if claims.TokenType() != tokenType {
		ts.logger.Error("TokenService wrong token type", "want", tokenType, "got", claims.TokenType())
		return nil, ErrTokenMalformed
	}

	return claims, nil
}

// Refresh validates a refresh token and mints a fresh access token for
// the same subject.
func (ts *TokenServiceImpl) Refresh(refreshToken string) (string, error) {
	claims, err := ts.ValidateType(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}

	return ts.SignClaims(ts.newClaims(claims.UserID(), TokenTypeAccess, time.Now(), ts.accessTTL))
}

func (ts *TokenServiceImpl) newClaims(subject, tokenType string, now time.Time, ttl time.Duration) *JWTClaims {
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UID:  subject,
		Type: tokenType,
	}

	ensureTokenID(&claims.RegisteredClaims)

	return claims
}
