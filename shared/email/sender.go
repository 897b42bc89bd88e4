// Package email delivers rendered digests over SMTP.
package email

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"creatorpulse/shared/config"

	"github.com/google/uuid"
)

// Sender is the transactional delivery collaborator. Send returns the
// provider message id on success.
type Sender interface {
	Send(to, subject, htmlBody string) (string, error)
}

type SMTPSender struct {
	config *config.EmailConfig
}

func NewSMTPSender(cfg *config.EmailConfig) *SMTPSender {
	return &SMTPSender{config: cfg}
}

// Send delivers one HTML email. The dial is bounded by the configured
// timeout so a wedged provider fails the job instead of hanging a worker.
func (s *SMTPSender) Send(to, subject, htmlBody string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("recipient address is required")
	}

	messageID := fmt.Sprintf("<%s@creatorpulse>", uuid.NewString())
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
Message-ID: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, to, s.config.FromEmail, subject, messageID, htmlBody))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	timeout := time.Duration(s.config.TimeoutSeconds) * time.Second

	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("failed to reach SMTP server: %w", err)
	}
	// Bound the whole SMTP conversation, not just the dial.
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return "", err
	}

	client, err := smtp.NewClient(conn, s.config.SMTPServer)
	if err != nil {
		conn.Close()
		return "", fmt.Errorf("failed to open SMTP session: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: s.config.SMTPServer}); err != nil {
			return "", fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
	if err := client.Auth(auth); err != nil {
		return "", fmt.Errorf("SMTP auth failed: %w", err)
	}

	if err := client.Mail(s.config.FromEmail); err != nil {
		return "", err
	}
	if err := client.Rcpt(to); err != nil {
		return "", err
	}

	w, err := client.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(msg); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	if err := client.Quit(); err != nil {
		return "", err
	}

	return messageID, nil
}
