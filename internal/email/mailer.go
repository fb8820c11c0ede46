// Package email delivers transactional mail for the auth flows.
package email

//go:generate mockgen -destination=../mocks/mock_mailer.go -package=mocks github.com/grzegorz-kurc/MyStorage/internal/email Mailer

import "context"

// Mailer sends a single HTML message. Delivery is synchronous; a non-nil
// error means the message was not accepted by the provider.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
