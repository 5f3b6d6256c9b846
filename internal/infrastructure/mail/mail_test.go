package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	gomail "gopkg.in/mail.v2"

	"NewsDigest/internal/config"
	"NewsDigest/internal/domain"
	"NewsDigest/internal/render"
)

func testDigest() domain.Digest {
	return domain.Digest{
		Subject: "[2024-05-01] 오늘의 AI/주식/머신러닝 뉴스",
		Date:    time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Items: []domain.NewsItem{
			{Title: "LLM 출시", Link: "https://example.com/a", Summary: "요약..."},
		},
	}
}

func TestEnvelopeFromConfigAppliesFallbacks(t *testing.T) {
	t.Parallel()

	env := EnvelopeFromConfig(config.EmailConfig{SMTP: config.SMTPConfig{User: "bot@example.com"}})
	if env.From != "bot@example.com" {
		t.Fatalf("unexpected sender: %s", env.From)
	}
	if len(env.To) != 1 || env.To[0] != config.DefaultRecipient {
		t.Fatalf("unexpected recipients: %v", env.To)
	}
}

func TestSMTPSinkBuildsMultipartMessage(t *testing.T) {
	t.Parallel()

	var captured bytes.Buffer
	sink := NewSMTPSink(config.SMTPConfig{Server: "localhost", Port: 2525},
		Envelope{From: "bot@example.com", To: []string{"a@example.com", "b@example.com"}},
		render.NewHTMLRenderer())
	sink.send = func(m *gomail.Message) error {
		_, err := m.WriteTo(&captured)
		return err
	}

	if err := sink.Deliver(context.Background(), testDigest()); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	raw := captured.String()
	for _, want := range []string{"From: bot@example.com", "a@example.com", "b@example.com", "text/plain", "text/html"} {
		if !strings.Contains(raw, want) {
			t.Fatalf("message missing %q:\n%s", want, raw)
		}
	}
	if sink.Name() != "smtp" {
		t.Fatalf("unexpected name %s", sink.Name())
	}
}

func TestSMTPSinkWrapsSendError(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection refused")
	sink := NewSMTPSink(config.SMTPConfig{Server: "localhost", Port: 2525},
		Envelope{From: "bot@example.com", To: []string{"a@example.com"}}, render.NewHTMLRenderer())
	sink.send = func(*gomail.Message) error { return boom }

	if err := sink.Deliver(context.Background(), testDigest()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped send error, got %v", err)
	}
}

func TestGmailSinkSendsRawMessage(t *testing.T) {
	t.Parallel()

	var raw string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/users/me/messages/send") {
			http.Error(w, "unexpected "+r.URL.Path, http.StatusNotFound)
			return
		}
		var msg gmail.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		raw = msg.Raw
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg-1"}`))
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sink := NewGmailSinkWithService(svc, Envelope{From: "bot@example.com", To: []string{"a@example.com"}}, render.NewHTMLRenderer())

	if err := sink.Deliver(context.Background(), testDigest()); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	decoded, err := base64.URLEncoding.DecodeString(raw)
	if err != nil {
		t.Fatalf("raw must be url-safe base64: %v", err)
	}
	if !strings.Contains(string(decoded), "To: a@example.com") {
		t.Fatalf("unexpected mime message:\n%s", decoded)
	}
}

func TestGmailSinkFailsOnServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	svc, err := gmail.NewService(context.Background(),
		option.WithHTTPClient(srv.Client()), option.WithEndpoint(srv.URL+"/"))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	sink := NewGmailSinkWithService(svc, Envelope{From: "bot@example.com", To: []string{"a@example.com"}}, render.NewHTMLRenderer())

	if err := sink.Deliver(context.Background(), testDigest()); err == nil {
		t.Fatalf("expected error on 403")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}
	if err := SaveToken(path, tok); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != "access" || got.RefreshToken != "refresh" {
		t.Fatalf("unexpected token: %+v", got)
	}

	if _, err := LoadToken(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

type staticSource struct{ tok *oauth2.Token }

func (s staticSource) Token() (*oauth2.Token, error) { return s.tok, nil }

func TestPersistingTokenSourceSavesRefreshedToken(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "token.json")
	ts := &persistingTokenSource{
		base: staticSource{tok: &oauth2.Token{AccessToken: "fresh"}},
		path: path,
		last: "stale",
	}

	if _, err := ts.Token(); err != nil {
		t.Fatalf("token: %v", err)
	}
	got, err := LoadToken(path)
	if err != nil {
		t.Fatalf("refreshed token was not persisted: %v", err)
	}
	if got.AccessToken != "fresh" {
		t.Fatalf("unexpected persisted token: %+v", got)
	}
}
