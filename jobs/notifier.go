package jobs

import (
	"context"
	"fmt"

	"github.com/leadbridge/leadbridge/internal/users"
)

// EmailEnqueuer queues outgoing mail.
type EmailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (string, error)
}

// RegistrationNotifier emails the administrator about new sign-ups. It
// satisfies users.Notifier.
type RegistrationNotifier struct {
	queue EmailEnqueuer
	to    string
}

// NewRegistrationNotifier builds a notifier mailing to. An empty recipient
// disables notifications.
func NewRegistrationNotifier(queue EmailEnqueuer, to string) *RegistrationNotifier {
	return &RegistrationNotifier{queue: queue, to: to}
}

// NotifyRegistration enqueues the notification email.
func (n *RegistrationNotifier) NotifyRegistration(ctx context.Context, u users.User) error {
	if n == nil || n.queue == nil || n.to == "" {
		return nil
	}
	_, err := n.queue.EnqueueSendEmail(ctx, SendEmailPayload{
		To:      n.to,
		Subject: "New user registration pending approval",
		Body: fmt.Sprintf("A new user registered and is waiting for approval.\n\nUsername: %s\nEmail: %s\n",
			u.Username, u.Email),
	})
	if err != nil {
		return fmt.Errorf("jobs: enqueue registration email: %w", err)
	}
	return nil
}
