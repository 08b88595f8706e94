package authentic

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// StateTokenGenerator produces and checks signed, expiring tokens bound
// to a user's mutable state. A token is a pure function of the user
// record, the server secret, and time; nothing is persisted. Changing
// the password hash or last-login timestamp invalidates every token
// issued before the change.
type StateTokenGenerator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// StateTokenOption customizes generator construction.
type StateTokenOption func(*StateTokenGenerator)

// WithStateTokenTTL sets the validity window. Zero means tokens only
// die when the bound state changes.
func WithStateTokenTTL(ttl time.Duration) StateTokenOption {
	return func(g *StateTokenGenerator) {
		if ttl > 0 {
			g.ttl = ttl
		}
	}
}

// WithStateTokenClock injects a custom clock (useful for tests).
func WithStateTokenClock(clock func() time.Time) StateTokenOption {
	return func(g *StateTokenGenerator) {
		if clock != nil {
			g.now = clock
		}
	}
}

// NewStateTokenGenerator builds a generator keyed with the server wide
// secret.
func NewStateTokenGenerator(secret []byte, opts ...StateTokenOption) *StateTokenGenerator {
	g := &StateTokenGenerator{
		secret: secret,
		now:    time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	return g
}

// Generate issues a token for the user's current state.
func (g *StateTokenGenerator) Generate(user *User) string {
	ts := g.now().Unix()
	return g.tokenForTimestamp(user, ts)
}

// Verify checks a token against the user's current state. It recomputes
// the signature from the live record, so a token minted before any
// relevant mutation fails here. Comparison is constant time.
func (g *StateTokenGenerator) Verify(user *User, token string) bool {
	if user == nil || token == "" {
		return false
	}

	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}

	ts, err := strconv.ParseInt(tsPart, 36, 64)
	if err != nil || ts < 0 {
		return false
	}

	expected := g.tokenForTimestamp(user, ts)
	if !hmac.Equal([]byte(expected), []byte(token)) {
		return false
	}

	if g.ttl > 0 {
		if g.now().Sub(time.Unix(ts, 0)) > g.ttl {
			return false
		}
	}

	return true
}

func (g *StateTokenGenerator) tokenForTimestamp(user *User, ts int64) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(g.stateFingerprint(user)))
	mac.Write([]byte("|"))
	mac.Write([]byte(strconv.FormatInt(ts, 10)))
	sig := hex.EncodeToString(mac.Sum(nil))

	return strconv.FormatInt(ts, 36) + "-" + sig
}

// stateFingerprint hashes the mutable state the token is bound to. The
// password hash and last-login must be part of it so that completing a
// password change consumes all outstanding tokens for the user.
func (g *StateTokenGenerator) stateFingerprint(user *User) string {
	h := sha256.New()
	h.Write([]byte(user.ID.String()))
	h.Write([]byte{0})
	h.Write([]byte(user.PasswordHash))
	h.Write([]byte{0})
	if user.LastLoginAt != nil {
		h.Write([]byte(strconv.FormatInt(user.LastLoginAt.UnixNano(), 10)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
