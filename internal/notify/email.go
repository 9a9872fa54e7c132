package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strings"
)

// EmailNotifier delivers status reports over SMTP. Credentials come from
// the environment; a missing credential or transport failure produces an
// error whose text is shown to the operator verbatim.
type EmailNotifier struct {
	host     string
	port     string
	from     string
	password string

	// sendMail is swapped out in tests; production uses net/smtp.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmailNotifierFromEnv reads SMTP_EMAIL, SMTP_PASSWORD, SMTP_SERVER and
// SMTP_PORT. Server and port default to smtp.gmail.com:587.
func NewEmailNotifierFromEnv() (*EmailNotifier, error) {
	from := os.Getenv("SMTP_EMAIL")
	password := os.Getenv("SMTP_PASSWORD")
	if from == "" || password == "" {
		return nil, fmt.Errorf("SMTP credentials (SMTP_EMAIL, SMTP_PASSWORD) not found in environment")
	}

	host := os.Getenv("SMTP_SERVER")
	if host == "" {
		host = "smtp.gmail.com"
	}
	port := os.Getenv("SMTP_PORT")
	if port == "" {
		port = "587"
	}
	return &EmailNotifier{
		host:     host,
		port:     port,
		from:     from,
		password: password,
		sendMail: smtp.SendMail,
	}, nil
}

// Send delivers a plain-text report to the recipient.
func (n *EmailNotifier) Send(ctx context.Context, recipient, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildMessage(n.from, recipient, subject, body)
	auth := smtp.PlainAuth("", n.from, n.password, n.host)
	addr := n.host + ":" + n.port
	if err := n.sendMail(addr, auth, n.from, []string{recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %v", err)
	}
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
