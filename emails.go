package authentic

import (
	"context"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
)

const defaultActivationTemplate = `Hi {{ username }},

You're receiving this message because you created an account.
Follow the link below to activate it:

{{ url }}

If you didn't request this, ignore this message.`

const defaultRecoverPasswordTemplate = `Hi {{ username }},

You're receiving this message because you requested a password reset.
Follow the link below to choose a new password:

{{ url }}

If you didn't request this, ignore this message.`

// EmailFactory builds the activation and recovery messages. Each
// message embeds the opaque identifier and a fresh state token in the
// configured URL template.
type EmailFactory struct {
	tokens   *StateTokenGenerator
	settings Settings

	activationTpl *pongo2.Template
	recoverTpl    *pongo2.Template
}

// NewEmailFactory compiles the message templates up front so rendering
// failures surface at construction time, not per email.
func NewEmailFactory(tokens *StateTokenGenerator, settings Settings) *EmailFactory {
	return &EmailFactory{
		tokens:        tokens,
		settings:      settings,
		activationTpl: pongo2.Must(pongo2.FromString(defaultActivationTemplate)),
		recoverTpl:    pongo2.Must(pongo2.FromString(defaultRecoverPasswordTemplate)),
	}
}

// Activation builds the account activation email for the user.
func (f *EmailFactory) Activation(user *User) (Message, error) {
	return f.build(user, f.activationTpl, "Account activation", f.settings.ActivationURL)
}

// RecoverPassword builds the password recovery email for the user.
func (f *EmailFactory) RecoverPassword(user *User) (Message, error) {
	return f.build(user, f.recoverTpl, "Password recovery", f.settings.ChangePasswordURL)
}

func (f *EmailFactory) build(user *User, tpl *pongo2.Template, subject, urlTemplate string) (Message, error) {
	uid := EncodeUID(user.ID)
	token := f.tokens.Generate(user)
	url := formatTokenURL(urlTemplate, uid, token)

	body, err := tpl.Execute(pongo2.Context{
		"username": user.Username,
		"email":    user.Email,
		"uid":      uid,
		"token":    token,
		"url":      url,
	})
	if err != nil {
		return Message{}, err
	}

	return Message{
		To:      []string{user.Email},
		Subject: subject,
		Body:    body,
		Context: map[string]any{
			"uid":   uid,
			"token": token,
			"url":   url,
		},
	}, nil
}

func formatTokenURL(template, uid, token string) string {
	out := strings.ReplaceAll(template, "{uid}", uid)
	return strings.ReplaceAll(out, "{token}", token)
}

// RecordingMailer captures messages instead of delivering them. Useful
// in tests and as a default until a real transport is wired in.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []Message
}

// Send satisfies the Mailer interface.
func (m *RecordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of every captured message.
func (m *RecordingMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.sent))
	copy(out, m.sent)
	return out
}

var _ Mailer = (*RecordingMailer)(nil)
