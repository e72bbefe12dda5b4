// Package mailer is the outbound mail boundary: an SMTP transport for the
// driver and an IMAP bounce scan feeding its suppression set.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"go.uber.org/zap"

	"outreach-engine/internal/config"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	SenderName  string
	SenderEmail string
}

// SMTPConfigFrom extracts transport settings from the app config. ok is
// false when any required field is missing — the caller then runs without
// a transport and every send degrades to dry_run.
func SMTPConfigFrom(cfg config.Config) (SMTPConfig, bool) {
	out := SMTPConfig{
		Host:        strings.TrimSpace(cfg.SMTP.Host),
		Port:        cfg.SMTP.Port,
		Username:    strings.TrimSpace(cfg.SMTP.Username),
		Password:    cfg.SMTP.Password,
		SenderName:  strings.TrimSpace(cfg.SMTP.SenderName),
		SenderEmail: strings.TrimSpace(cfg.SMTP.SenderEmail),
	}
	if out.Port == 0 {
		out.Port = 587
	}
	if out.Host == "" || out.Username == "" || out.Password == "" || out.SenderName == "" || out.SenderEmail == "" {
		return SMTPConfig{}, false
	}
	return out, true
}

// Sender delivers one message per call over a fresh SMTP session.
type Sender struct {
	cfg    SMTPConfig
	logger *zap.Logger

	// sendMail is swappable in tests; defaults to the real dial.
	sendMail func(addr string, auth sasl.Client, from string, to []string, msg []byte) error
}

func NewSender(cfg SMTPConfig, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sender{cfg: cfg, logger: logger}
	s.sendMail = s.dialAndSend
	return s
}

// Send builds the MIME message and submits it. A missing attachment file
// downgrades to a warning; the mail still goes out without it.
func (s *Sender) Send(_ context.Context, recipient, subject, body, attachmentPath string) error {
	msg, err := buildMessage(s.cfg.SenderName, s.cfg.SenderEmail, recipient, subject, body, attachmentPath, s.logger)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	auth := sasl.NewPlainClient("", s.cfg.Username, s.cfg.Password)
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	if err := s.sendMail(addr, auth, s.cfg.SenderEmail, []string{recipient}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// dialAndSend uses implicit TLS for port 465 and STARTTLS everywhere else,
// matching common submission setups.
func (s *Sender) dialAndSend(addr string, auth sasl.Client, from string, to []string, msg []byte) error {
	if s.cfg.Port == 465 {
		return smtp.SendMailTLS(addr, auth, from, to, bytes.NewReader(msg))
	}
	return smtp.SendMail(addr, auth, from, to, bytes.NewReader(msg))
}
