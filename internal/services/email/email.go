// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers approval codes and reset passwords.
package email

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"github.com/wneessen/go-mail"
)

const (
	// CodeLength is the number of random bytes in an approval code.
	CodeLength = 16
	// PasswordLength is the number of random bytes in a generated password.
	PasswordLength = 8
)

// Sender delivers a single plain text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service composes account mails and hands them to a Sender.
type Service struct {
	sender  Sender
	project string
	baseURL string
}

// NewService creates a mail service for the given sender.
func NewService(sender Sender, project, baseURL string) *Service {
	return &Service{
		sender:  sender,
		project: project,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// NewSenderFromConfig returns an SMTP sender, or a LogSender when no SMTP
// host is configured.
func NewSenderFromConfig(cfg *config.SMTPConfig) (Sender, error) {
	if cfg.Host == "" {
		slog.Warn("SMTP host not configured, mails are written to the log")
		return LogSender{}, nil
	}
	return NewSMTPSender(cfg)
}

// GenerateCode returns a random hex approval code.
func GenerateCode() (string, error) {
	return randomHex(CodeLength)
}

// GeneratePassword returns a random hex password for resets.
func GeneratePassword() (string, error) {
	return randomHex(PasswordLength)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SendApprovalCode mails the code that confirms ownership of address to.
func (s *Service) SendApprovalCode(ctx context.Context, to, code string) error {
	q := url.Values{"email": {to}, "code": {code}}
	subject := fmt.Sprintf("%s: confirm your email address", s.project)
	body := fmt.Sprintf(
		"Please confirm %s by submitting the code below.\n\nCode: %s\n\nOr open: %s/api/me/emails/approve?%s\n",
		to, code, s.baseURL, q.Encode())

	return s.sender.Send(ctx, to, subject, body)
}

// SendPasswordReset mails a newly generated password.
func (s *Service) SendPasswordReset(ctx context.Context, to, raw string) error {
	subject := fmt.Sprintf("%s: your new password", s.project)
	body := fmt.Sprintf(
		"Your password was reset.\n\nNew password: %s\n\nPlease change it after signing in at %s.\n",
		raw, s.baseURL)

	return s.sender.Send(ctx, to, subject, body)
}

// LogSender writes mails to the log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, subject, body string) error {
	slog.InfoContext(ctx, "mail_not_sent", "to", to, "subject", subject, "body", body)
	return nil
}

// SMTPSender delivers mails with go-mail.
type SMTPSender struct {
	cfg *config.SMTPConfig
}

func NewSMTPSender(cfg *config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := s.message(to, subject, body)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(to, subject, body string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("setting from address: %w", err)
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithPort(s.cfg.Port)}

	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// implicit TLS on 465, STARTTLS elsewhere
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}
