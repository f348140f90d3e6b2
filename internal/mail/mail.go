// Copyright (c) 2026 Atelier. All rights reserved.

/*
Package mail implements the outbound notification boundary.

It delivers account-activation messages over SMTP. The auth service only
depends on the success/failure signal — delivery failure is surfaced as an
error and downgraded to a warning by the caller, never a fatal condition.

Architecture:

  - Notifier: Concrete SMTP client with explicit dial/IO deadlines.
  - Contract: The domain layer consumes it via the [auth.ActivationMailer] interface.
*/
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Opinionated delivery timeouts. SMTP has no context support in the standard
// library, so deadlines are enforced on the underlying connection.
const (
	dialTimeout = 5 * time.Second
	sendTimeout = 10 * time.Second
)

// Config holds the SMTP delivery settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Notifier sends transactional mail over SMTP.
type Notifier struct {
	cfg  Config
	addr string
}

// NewNotifier constructs a Notifier from SMTP settings.
func NewNotifier(cfg Config) *Notifier {
	return &Notifier{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}
}

// SendActivationMail delivers the account-activation message to the given
// address. The context deadline is respected for the dial; the overall send
// is bounded by a connection deadline.
func (n *Notifier) SendActivationMail(ctx context.Context, email, activationURL string) error {
	message := buildActivationMessage(n.cfg.From, email, activationURL)

	dialer := &net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("mail: failed to connect to %s: %w", n.addr, err)
	}

	// Bound the entire SMTP conversation, not just the dial.
	_ = conn.SetDeadline(time.Now().Add(sendTimeout))

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: smtp handshake failed: %w", err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		// The crypto/tls handshake requires a ServerName for verification.
		if err := client.StartTLS(&tls.Config{ServerName: n.cfg.Host}); err != nil {
			return fmt.Errorf("mail: starttls failed: %w", err)
		}
	}

	if n.cfg.Username != "" {
		auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mail: smtp auth failed: %w", err)
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("mail: MAIL FROM rejected: %w", err)
	}
	if err := client.Rcpt(email); err != nil {
		return fmt.Errorf("mail: RCPT TO rejected: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("mail: DATA rejected: %w", err)
	}
	if _, err := writer.Write([]byte(message)); err != nil {
		return fmt.Errorf("mail: failed to write message body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mail: failed to finalize message: %w", err)
	}

	return client.Quit()
}

// buildActivationMessage renders the RFC 5322 activation message.
func buildActivationMessage(from, to, activationURL string) string {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: Activate your Atelier account\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString("<html><body>")
	b.WriteString("<h1>Welcome to Atelier</h1>")
	b.WriteString(`<p>Follow the link below to activate your account:</p>`)
	b.WriteString(`<a href="` + activationURL + `">` + activationURL + `</a>`)
	b.WriteString("</body></html>\r\n")
	return b.String()
}
