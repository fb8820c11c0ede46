package email

import (
	"context"
	"fmt"

	mailjet "github.com/mailjet/mailjet-apiv3-go/v4"
)

// MailjetMailer sends mail through the Mailjet v3.1 send API.
type MailjetMailer struct {
	client      *mailjet.Client
	senderEmail string
	senderName  string
}

func NewMailjetMailer(apiKey, secretKey, senderEmail, senderName string) *MailjetMailer {
	return &MailjetMailer{
		client:      mailjet.NewMailjetClient(apiKey, secretKey),
		senderEmail: senderEmail,
		senderName:  senderName,
	}
}

func (m *MailjetMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	messages := mailjet.MessagesV31{
		Info: []mailjet.InfoMessagesV31{
			{
				From: &mailjet.RecipientV31{
					Email: m.senderEmail,
					Name:  m.senderName,
				},
				To: &mailjet.RecipientsV31{
					{Email: to},
				},
				Subject:  subject,
				HTMLPart: htmlBody,
			},
		},
	}

	if _, err := m.client.SendMailV31(&messages); err != nil {
		return fmt.Errorf("mailjet send failed: %w", err)
	}

	return nil
}
