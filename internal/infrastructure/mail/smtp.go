// Package mail delivers digests by email, over SMTP or the Gmail API.
package mail

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/mail.v2"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
)

const dialTimeout = 10 * time.Second

// Envelope is the sender and recipient list of every message.
type Envelope struct {
	From string
	To   []string
}

// EnvelopeFromConfig applies the sender and recipient fallbacks.
func EnvelopeFromConfig(cfg config.EmailConfig) Envelope {
	return Envelope{From: cfg.EmailSender(), To: cfg.EmailRecipients()}
}

// SMTPSink delivers digests through an SMTP relay.
type SMTPSink struct {
	envelope Envelope
	renderer *render.HTMLRenderer
	send     func(*gomail.Message) error
}

var _ ports.Sink = (*SMTPSink)(nil)

// NewSMTPSink creates a sink for the given relay.
func NewSMTPSink(cfg config.SMTPConfig, envelope Envelope, renderer *render.HTMLRenderer) *SMTPSink {
	dialer := gomail.NewDialer(cfg.Server, cfg.Port, cfg.User, cfg.Password)
	dialer.Timeout = dialTimeout

	return &SMTPSink{
		envelope: envelope,
		renderer: renderer,
		send:     func(m *gomail.Message) error { return dialer.DialAndSend(m) },
	}
}

// Name identifies the sink in logs and reports.
func (s *SMTPSink) Name() string {
	return "smtp"
}

// Deliver renders the digest and sends it with a plain text alternative.
func (s *SMTPSink) Deliver(ctx context.Context, digest domain.Digest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := s.renderer.Render(digest)
	if err != nil {
		return err
	}
	if err := s.send(buildMessage(s.envelope, msg)); err != nil {
		return fmt.Errorf("smtp send to %v: %w", s.envelope.To, err)
	}
	return nil
}

func buildMessage(env Envelope, msg *render.Message) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", env.From)
	m.SetHeader("To", env.To...)
	m.SetHeader("Subject", msg.Subject)

	if msg.HTML != "" && msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else if msg.HTML != "" {
		m.SetBody("text/html", msg.HTML)
	} else {
		m.SetBody("text/plain", msg.Text)
	}
	return m
}
