package notifier

import (
	"context"
	"html"
	"strings"
	"time"

	gomail "gopkg.in/mail.v2"

	"sjsage522/housewatch/logger"
	"sjsage522/housewatch/pkg/errors"
)

// EmailConfig holds SMTP configuration for sending emails
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
}

// EmailNotifier delivers messages via SMTP
type EmailNotifier struct {
	cfg  EmailConfig
	send func(*gomail.Message) error
	log  *logger.Logger
}

// NewEmailNotifier creates a notifier; it is disabled without a server or
// recipient
func NewEmailNotifier(cfg EmailConfig, timeout time.Duration) *EmailNotifier {
	dialer := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass)
	dialer.Timeout = timeout

	return &EmailNotifier{
		cfg:  cfg,
		send: func(m *gomail.Message) error { return dialer.DialAndSend(m) },
		log:  logger.ForNotifier("email"),
	}
}

// Enabled reports whether SMTP delivery is configured
func (n *EmailNotifier) Enabled() bool {
	return n.cfg.SMTPServer != "" && n.cfg.ToEmail != ""
}

// Notify mails text; the first line becomes the subject
func (n *EmailNotifier) Notify(ctx context.Context, text string) bool {
	if !n.Enabled() {
		return false
	}
	if ctx.Err() != nil {
		return false
	}

	from := n.cfg.FromEmail
	if from == "" {
		from = n.cfg.SMTPUser
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", n.cfg.ToEmail)
	m.SetHeader("Subject", subjectOf(text))
	m.SetBody("text/html", strings.ReplaceAll(text, "\n", "<br>\n"))

	if err := n.send(m); err != nil {
		n.log.Warn().
			Err(errors.NewNotify("email", "send failed", err)).
			Str("to", n.cfg.ToEmail).
			Msg("Failed to send email")
		return false
	}

	n.log.Debug().Str("to", n.cfg.ToEmail).Msg("Email sent")
	return true
}

// subjectOf returns the first line of text with markup removed
func subjectOf(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	line = strings.NewReplacer("<b>", "", "</b>", "").Replace(line)
	return html.UnescapeString(line)
}
