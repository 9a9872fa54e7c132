package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
)

func TestNewEmailNotifierFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("SMTP_EMAIL", "")
	t.Setenv("SMTP_PASSWORD", "")

	_, err := NewEmailNotifierFromEnv()
	if err == nil {
		t.Fatal("expected an error without credentials")
	}
	if !strings.Contains(err.Error(), "SMTP_EMAIL, SMTP_PASSWORD") {
		t.Errorf("error does not name the missing variables: %v", err)
	}
}

func TestNewEmailNotifierFromEnv_Defaults(t *testing.T) {
	t.Setenv("SMTP_EMAIL", "alerts@example.com")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_SERVER", "")
	t.Setenv("SMTP_PORT", "")

	n, err := NewEmailNotifierFromEnv()
	if err != nil {
		t.Fatalf("NewEmailNotifierFromEnv: %v", err)
	}
	if n.host != "smtp.gmail.com" || n.port != "587" {
		t.Errorf("host:port = %s:%s, want smtp.gmail.com:587", n.host, n.port)
	}
}

func TestEmailNotifier_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	n := &EmailNotifier{
		host: "smtp.example.com", port: "2525",
		from: "alerts@example.com", password: "secret",
		sendMail: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
			return nil
		},
	}

	err := n.Send(context.Background(), "ops@example.com", "Supply Chain Alert", "Stock-out risk on P-101.")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotAddr != "smtp.example.com:2525" {
		t.Errorf("addr = %q", gotAddr)
	}
	if gotFrom != "alerts@example.com" || len(gotTo) != 1 || gotTo[0] != "ops@example.com" {
		t.Errorf("envelope = %s -> %v", gotFrom, gotTo)
	}

	msg := string(gotMsg)
	for _, want := range []string{
		"From: alerts@example.com\r\n",
		"To: ops@example.com\r\n",
		"Subject: Supply Chain Alert\r\n",
		"Content-Type: text/plain; charset=\"utf-8\"\r\n",
		"\r\n\r\nStock-out risk on P-101.",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestEmailNotifier_SendFailureSurfaced(t *testing.T) {
	n := &EmailNotifier{
		host: "smtp.example.com", port: "587",
		from: "alerts@example.com", password: "secret",
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("535 authentication failed")
		},
	}

	err := n.Send(context.Background(), "ops@example.com", "subject", "body")
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); got != "failed to send email: 535 authentication failed" {
		t.Errorf("err = %q", got)
	}
}

func TestEmailNotifier_SendHonorsContext(t *testing.T) {
	called := false
	n := &EmailNotifier{
		sendMail: func(string, smtp.Auth, string, []string, []byte) error {
			called = true
			return nil
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := n.Send(ctx, "ops@example.com", "subject", "body"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Error("sendMail ran despite a cancelled context")
	}
}
