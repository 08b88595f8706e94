package authentic

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Logger takes a message plus alternating key/value attributes, the
// slog convention. Any *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Session holds attributes that are part of an auth session
type Session interface {
	GetUserID() string
	GetUserUUID() (uuid.UUID, error)
	GetAudience() []string
	GetIssuer() string
	GetIssuedAt() *time.Time
	GetTokenType() string
}

// Authenticator holds methods to deal with authentication
type Authenticator interface {
	Login(ctx context.Context, identifier, password string) (*TokenPair, error)
	Verify(token string) error
	Refresh(refreshToken string) (string, error)
	SessionFromToken(token string) (Session, error)
}

// Mailer delivers templated messages. Retries, queueing, and transport
// concerns belong to the implementation, not this core.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered email ready for delivery.
type Message struct {
	To      []string
	Subject string
	Body    string
	Context map[string]any
}

// MailerFunc adapts a function into a Mailer.
type MailerFunc func(ctx context.Context, msg Message) error

// Send satisfies the Mailer interface.
func (f MailerFunc) Send(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

type defLogger struct{}

func (d defLogger) logger() *slog.Logger {
	return slog.Default().With("component", "auth")
}

func (d defLogger) Error(msg string, args ...any) {
	d.logger().Error(msg, args...)
}

func (d defLogger) Warn(msg string, args ...any) {
	d.logger().Warn(msg, args...)
}

func (d defLogger) Info(msg string, args ...any) {
	d.logger().Info(msg, args...)
}

func (d defLogger) Debug(msg string, args ...any) {
	d.logger().Debug(msg, args...)
}
