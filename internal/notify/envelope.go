package notify

import (
	"context"
	"fmt"

	"github.com/wolfman30/careflow/pkg/logging"
)

const defaultFromName = "CareFlow"

// Identity is the From mailbox every provider sends as.
type Identity struct {
	Email string
	Name  string
}

func newIdentity(email, name string) Identity {
	if name == "" {
		name = defaultFromName
	}
	return Identity{Email: email, Name: name}
}

// Mailbox renders the identity as `Name <email>`.
func (id Identity) Mailbox() string {
	return fmt.Sprintf("%s <%s>", id.Name, id.Email)
}

// envelope is a message bound to its sender, ready for a provider.
type envelope struct {
	From    Identity
	To      string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

func (id Identity) wrap(msg EmailMessage) envelope {
	return envelope{
		From:    id,
		To:      msg.To,
		ToName:  msg.ToName,
		Subject: msg.Subject,
		Text:    msg.Body,
		HTML:    msg.HTML,
	}
}

// transport hands an envelope to one provider and returns its message reference.
type transport func(ctx context.Context, env envelope) (string, error)

// deliver runs send and logs the outcome under the provider's name.
func deliver(ctx context.Context, logger *logging.Logger, provider string, send transport, env envelope) error {
	if logger == nil {
		logger = logging.Default()
	}
	ref, err := send(ctx, env)
	if err != nil {
		logger.Error("email send failed", "provider", provider, "error", err, "to", env.To)
		return fmt.Errorf("notify: %s send failed: %w", provider, err)
	}
	logger.Info("email sent", "provider", provider, "to", env.To, "subject", env.Subject, "ref", ref)
	return nil
}
