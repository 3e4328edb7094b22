package mailer

import (
	"context"
	"fmt"
	"os"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// Mailer sends member invite notifications. Sends are best effort; callers
// log failures and carry on.
type Mailer interface {
	SendInvite(ctx context.Context, to, caseTitle, role string) error
}

type resendMailer struct {
	client *resend.Client
	from   string
	lg     *zap.SugaredLogger
}

// NewFromEnv returns a resend-backed mailer, or a no-op one when
// RESEND_API_KEY is unset (local development).
func NewFromEnv(lg *zap.SugaredLogger) Mailer {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		lg.Infow("mailer disabled, RESEND_API_KEY not set")
		return noopMailer{lg: lg}
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "casefile <no-reply@casefile.local>"
	}
	return &resendMailer{client: resend.NewClient(apiKey), from: from, lg: lg}
}

func (m *resendMailer) SendInvite(ctx context.Context, to, caseTitle, role string) error {
	subject := fmt.Sprintf("You were added to the case %q", caseTitle)
	body := fmt.Sprintf(
		"You have been added to the case %q as %s.\nSign in to see it.\n", caseTitle, role)
	_, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err == nil {
		m.lg.Infow("invite email sent", "to", to)
	}
	return err
}

type noopMailer struct {
	lg *zap.SugaredLogger
}

func (m noopMailer) SendInvite(ctx context.Context, to, caseTitle, role string) error {
	m.lg.Infow("invite email skipped (mailer disabled)", "to", to, "case", caseTitle, "role", role)
	return nil
}
