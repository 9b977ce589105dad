package email

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/resend/resend-go/v2"
)

type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender logs emails instead of sending them. Used in ENV=local.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger.With("component", "email")}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "login link email (local dev)", "to", to, "subject", subject, "body", body)
	return nil
}

// ResendSender sends emails via the Resend API. Used in staging/production.
type ResendSender struct {
	client *resend.Client
	from   string
}

func (s *ResendSender) Send(ctx context.Context, to, subject, body string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: subject,
		Html:    body,
		Text:    plainText(body),
		Tags:    []resend.Tag{{Name: "category", Value: "login_link"}},
	}
	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

// NewSender returns a LogSender for ENV=local, ResendSender otherwise.
func NewSender(env, apiKey, from string, logger *slog.Logger) Sender {
	if env == "local" {
		return NewLogSender(logger)
	}
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText is a crude HTML to text fallback for clients that block HTML.
func plainText(html string) string {
	html = strings.ReplaceAll(html, "</p>", "\n")
	return strings.TrimSpace(tagPattern.ReplaceAllString(html, ""))
}
