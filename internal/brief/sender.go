package brief

import (
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"blueduck/internal/config"
	"blueduck/internal/logger"
)

const dialTimeout = 10 * time.Second

// EmailConfig holds SMTP configuration for sending the brief.
type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
}

// EmailConfigFrom combines the brief section of the config with SMTP credentials.
func EmailConfigFrom(cfg config.BriefConfig, creds config.Credentials) EmailConfig {
	return EmailConfig{
		SMTPServer: cfg.SMTPServer,
		SMTPPort:   cfg.SMTPPort,
		SMTPUser:   creds.SMTPUser,
		SMTPPass:   creds.SMTPPass,
		FromEmail:  cfg.FromEmail,
		ToEmail:    cfg.ToEmail,
	}
}

// Complete reports whether every field needed to send is set.
func (c EmailConfig) Complete() bool {
	return c.SMTPServer != "" && c.SMTPPort > 0 && c.FromEmail != "" && c.ToEmail != ""
}

// Sender delivers briefs via SMTP.
type Sender struct {
	cfg    EmailConfig
	logger *logger.Logger
	send   func(m *gomail.Message) error
}

// NewSender creates a sender. A sender with incomplete configuration is
// disabled and Send becomes a no-op.
func NewSender(cfg EmailConfig, log *logger.Logger) *Sender {
	if log == nil {
		log = logger.Discard()
	}

	s := &Sender{cfg: cfg, logger: log}
	s.send = s.dialAndSend

	return s
}

// Enabled reports whether Send will attempt delivery.
func (s *Sender) Enabled() bool {
	return s.cfg.Complete()
}

// Send delivers msg with an HTML body and plain text fallback.
func (s *Sender) Send(msg *Message) error {
	if !s.Enabled() {
		s.logger.Debug("email disabled, skipping send", "subject", msg.Subject)
		return nil
	}

	if err := s.send(s.buildMessage(msg)); err != nil {
		s.logger.Error("failed to send brief", "to", s.cfg.ToEmail, "subject", msg.Subject, "error", err)
		return fmt.Errorf("failed to send brief to %s: %w", s.cfg.ToEmail, err)
	}

	s.logger.Info("brief sent", "to", s.cfg.ToEmail, "subject", msg.Subject)

	return nil
}

func (s *Sender) buildMessage(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.FromEmail)
	m.SetHeader("To", s.cfg.ToEmail)
	m.SetHeader("Subject", msg.Subject)

	switch {
	case msg.HTML != "" && msg.Text != "":
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	case msg.HTML != "":
		m.SetBody("text/html", msg.HTML)
	default:
		m.SetBody("text/plain", msg.Text)
	}

	return m
}

func (s *Sender) dialAndSend(m *gomail.Message) error {
	dialer := gomail.NewDialer(s.cfg.SMTPServer, s.cfg.SMTPPort, s.cfg.SMTPUser, s.cfg.SMTPPass)
	dialer.Timeout = dialTimeout

	return dialer.DialAndSend(m)
}
