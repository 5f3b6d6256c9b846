package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
	"NewsDigest/internal/render"
)

// GmailSink sends digests as the authorized user through the Gmail API.
type GmailSink struct {
	service  *gmail.Service
	envelope Envelope
	renderer *render.HTMLRenderer
}

var _ ports.Sink = (*GmailSink)(nil)

// NewGmailSink loads OAuth client credentials and the cached user token.
// Refreshed tokens are written back to the token file.
func NewGmailSink(ctx context.Context, cfg config.GmailConfig, envelope Envelope, renderer *render.HTMLRenderer) (*GmailSink, error) {
	ts, err := TokenSource(ctx, cfg.CredentialsFile, cfg.TokenFile)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}
	return NewGmailSinkWithService(svc, envelope, renderer), nil
}

// NewGmailSinkWithService wraps an already configured service.
func NewGmailSinkWithService(svc *gmail.Service, envelope Envelope, renderer *render.HTMLRenderer) *GmailSink {
	return &GmailSink{service: svc, envelope: envelope, renderer: renderer}
}

// Name identifies the sink in logs and reports.
func (g *GmailSink) Name() string {
	return "gmail"
}

// Deliver renders the digest to MIME and sends it as the "me" user.
func (g *GmailSink) Deliver(ctx context.Context, digest domain.Digest) error {
	msg, err := g.renderer.Render(digest)
	if err != nil {
		return err
	}

	var raw bytes.Buffer
	if _, err := buildMessage(g.envelope, msg).WriteTo(&raw); err != nil {
		return fmt.Errorf("encode mime message: %w", err)
	}

	sent, err := g.service.Users.Messages.Send("me", &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(raw.Bytes()),
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("gmail send: %w", err)
	}
	if sent.Id == "" {
		return fmt.Errorf("gmail send: empty message id")
	}
	return nil
}
