// Package mailer sends transactional notification email over SMTP. The
// only current use is the beta-request confirmation message; delivery is
// always best-effort from the caller's point of view.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer sends a single email message.
type Mailer interface {
	Send(recipient, subject, body string) error
}

// SMTPMailer is an SMTP-backed Mailer. Works with Mailtrap in development
// and any PLAIN-auth relay in production.
type SMTPMailer struct {
	host string
	port string
	user string
	pass string
	from string
}

// NewSMTPMailer creates an SMTPMailer. All parameters are required.
func NewSMTPMailer(host, port, user, pass, from string) (*SMTPMailer, error) {
	if host == "" || port == "" {
		return nil, fmt.Errorf("SMTP host and port must be provided")
	}
	if user == "" || pass == "" {
		return nil, fmt.Errorf("SMTP username and password must be provided")
	}
	if from == "" {
		return nil, fmt.Errorf("sender address must be provided")
	}
	return &SMTPMailer{host: host, port: port, user: user, pass: pass, from: from}, nil
}

// Send delivers one message. The Content-Type is inferred from the body:
// anything that looks like markup goes out as HTML, the rest as plain text.
func (m *SMTPMailer) Send(recipient, subject, body string) error {
	if recipient == "" {
		return fmt.Errorf("recipient email address cannot be empty")
	}
	if subject == "" {
		return fmt.Errorf("email subject cannot be empty")
	}

	contentType := "text/plain; charset=\"UTF-8\""
	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<p>") {
		contentType = "text/html; charset=\"UTF-8\""
	}

	msg := strings.Join([]string{
		"From: " + m.from,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: " + contentType,
		"",
		body,
	}, "\r\n")

	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	if err := smtp.SendMail(addr, auth, m.from, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", recipient, err)
	}
	return nil
}
