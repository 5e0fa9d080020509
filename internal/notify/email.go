package notify

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"time"

	mail "github.com/go-mail/mail/v2"
)

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

// EmailNotifier mails the assigned inspector.
type EmailNotifier struct {
	cfg  SMTPConfig
	send func(ctx context.Context, m *mail.Message) error
}

// NewEmailNotifier returns a notifier that sends over SMTP with mandatory STARTTLS.
func NewEmailNotifier(cfg SMTPConfig) (*EmailNotifier, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp not configured (SMTP_HOST/SMTP_FROM)")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	n := &EmailNotifier{cfg: cfg}
	n.send = n.dialAndSend
	return n, nil
}

func (n *EmailNotifier) Channel() string { return "email" }

func (n *EmailNotifier) Notify(ctx context.Context, ev Event) error {
	if ev.InspectorEmail == "" {
		return nil
	}
	m := mail.NewMessage()
	m.SetHeader("From", n.cfg.From)
	m.SetHeader("To", ev.InspectorEmail)
	m.SetHeader("Subject", ev.Subject())
	m.SetBody("text/html", renderEmail(ev))
	return n.send(ctx, m)
}

func (n *EmailNotifier) dialAndSend(ctx context.Context, m *mail.Message) error {
	d := mail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.User, n.cfg.Pass)
	d.StartTLSPolicy = mail.MandatoryStartTLS
	d.TLSConfig = &tls.Config{
		ServerName:         n.cfg.Host,
		InsecureSkipVerify: n.cfg.SkipTLSVerify,
	}
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func renderEmail(ev Event) string {
	body := fmt.Sprintf("<p>Hello %s,</p>", html.EscapeString(ev.InspectorName))
	switch ev.Type {
	case EventDispatched:
		body += fmt.Sprintf("<p>Inspection <b>%s</b> at %s has been assigned to you.</p>",
			html.EscapeString(ev.InternalNumber), html.EscapeString(ev.Address))
	default:
		body += fmt.Sprintf("<p>Inspection <b>%s</b> changed status from %s to <b>%s</b>.</p>",
			html.EscapeString(ev.InternalNumber), ev.OldStatus, ev.NewStatus)
		if ev.Comment != "" {
			body += "<p>Comment: " + html.EscapeString(ev.Comment) + "</p>"
		}
	}
	return body
}
