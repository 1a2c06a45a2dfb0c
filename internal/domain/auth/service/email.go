package service

import (
	"fmt"
	"html"

	"github.com/resend/resend-go/v2"
)

// EmailSender delivers transactional email.
type EmailSender interface {
	SendWelcomeEmail(email, name string) error
}

// ResendEmailService sends email through Resend.
type ResendEmailService struct {
	client *resend.Client
	from   string
}

// NewResendEmailService returns nil when apiKey is empty so callers can skip email entirely.
func NewResendEmailService(apiKey, from string) *ResendEmailService {
	if apiKey == "" {
		return nil
	}
	return &ResendEmailService{client: resend.NewClient(apiKey), from: from}
}

// starterQuestion is suggested in the welcome email; it must be a question the chat answers for a date range.
const starterQuestion = "how much did I spend this month?"

func welcomeBody(name string) string {
	greeting := "Hi there"
	if name != "" {
		greeting = "Hi " + html.EscapeString(name)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <p>%s,</p>
  <p>Welcome to Pocket Ledger. Log your first expense, upload a receipt, or just ask
  "%s" to get started.</p>
  <p>Set a monthly budget and we'll tell you how much you can spend per day to stay on track.</p>
</body>
</html>`, greeting, starterQuestion)
}

func (s *ResendEmailService) SendWelcomeEmail(email, name string) error {
	body := welcomeBody(name)

	_, err := s.client.Emails.Send(&resend.SendEmailRequest{
		From:    s.from,
		To:      []string{email},
		Subject: "Welcome to Pocket Ledger",
		Html:    body,
	})
	return err
}
