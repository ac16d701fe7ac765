// Package notify holds the best-effort customer notification senders.
// Failures are logged, never fatal: a broken SMS provider must not block an
// order transition.
package notify

import "context"

type SMSSender interface {
	Send(ctx context.Context, phone, text string) error
}

type EmailSender interface {
	Send(ctx context.Context, to, subject, html string) error
}
