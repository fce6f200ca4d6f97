package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/wolfman30/careflow/internal/lifecycle"
	"github.com/wolfman30/careflow/pkg/logging"
)

// Addressee is implemented by records that can be e-mailed about.
type Addressee interface {
	Recipient() (email, name string)
	Describe() string
}

type template struct {
	subject string
	body    string
}

type trigger struct {
	kind   lifecycle.Kind
	action lifecycle.Action
}

var templates = map[trigger]template{
	{lifecycle.KindProposal, lifecycle.ActionSend}: {
		subject: "Your care proposal is ready",
		body:    "Your %s is ready for review.",
	},
	{lifecycle.KindBooking, lifecycle.ActionConfirm}: {
		subject: "Your visit is confirmed",
		body:    "Your %s is confirmed.",
	},
	{lifecycle.KindTicket, lifecycle.ActionResolve}: {
		subject: "Your support request was resolved",
		body:    "Your %s has been resolved.",
	},
}

// TransitionNotifier e-mails the person a record concerns after selected
// transitions. It is a lifecycle.Observer.
type TransitionNotifier struct {
	email  EmailSender
	logger *logging.Logger
}

// NewTransitionNotifier creates a notifier. A nil sender logs instead of sending.
func NewTransitionNotifier(email EmailSender, logger *logging.Logger) *TransitionNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if email == nil {
		email = NewLogSender(logger)
	}
	return &TransitionNotifier{email: email, logger: logger}
}

var _ lifecycle.Observer = (*TransitionNotifier)(nil)

// OnTransition sends the e-mail for ev, if one is configured for it.
func (n *TransitionNotifier) OnTransition(ctx context.Context, ev lifecycle.Event) error {
	tpl, ok := templates[trigger{ev.Result.Kind, ev.Result.Action}]
	if !ok {
		return nil
	}
	addr, ok := ev.Record.(Addressee)
	if !ok {
		return nil
	}
	to, name := addr.Recipient()
	if to == "" {
		n.logger.Debug("notify: no recipient, skipping", "kind", ev.Result.Kind, "id", ev.EntityID)
		return nil
	}

	msg := EmailMessage{
		To:      to,
		ToName:  name,
		Subject: tpl.subject,
		Body:    composeBody(name, fmt.Sprintf(tpl.body, addr.Describe()), ev.Result.Notes),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: %s %s: %w", ev.Result.Kind, ev.Result.Action, err)
	}
	return nil
}

func composeBody(name, line, notes string) string {
	var b strings.Builder
	if name != "" {
		fmt.Fprintf(&b, "Hello %s,\n\n", name)
	} else {
		b.WriteString("Hello,\n\n")
	}
	b.WriteString(line)
	b.WriteString("\n")
	if notes = strings.TrimSpace(notes); notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", notes)
	}
	b.WriteString("\nThe CareFlow team\n")
	return b.String()
}
