package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/slack-go/slack"

	"NewsDigest/internal/domain"
)

func digestWithItems(n int) domain.Digest {
	d := domain.Digest{
		Subject:   "오늘의 뉴스",
		Date:      time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Narrative: "반도체 <강세>",
	}
	for i := 0; i < n; i++ {
		d.Items = append(d.Items, domain.NewsItem{
			Title:   fmt.Sprintf("기사 %d", i),
			Link:    fmt.Sprintf("https://example.com/%d", i),
			Summary: "요약...",
			Source:  "zdnet",
			Keyword: "LLM",
		})
	}
	return d
}

func TestBuildBlocksLayout(t *testing.T) {
	t.Parallel()

	d := digestWithItems(2)
	d.Items[0].ImageURL = "https://example.com/a.png"

	blocks := BuildBlocks(d)
	// header, briefing, divider, 2 items, divider, footer
	if len(blocks) != 7 {
		t.Fatalf("expected 7 blocks, got %d", len(blocks))
	}
	if blocks[0].BlockType() != slack.MBTHeader {
		t.Fatalf("first block must be a header")
	}

	briefing, ok := blocks[1].(*slack.SectionBlock)
	if !ok || !strings.Contains(briefing.Text.Text, "&lt;강세&gt;") {
		t.Fatalf("briefing must be escaped: %+v", blocks[1])
	}

	first := blocks[3].(*slack.SectionBlock)
	if first.Accessory == nil || first.Accessory.ImageElement == nil {
		t.Fatalf("item with image must carry an accessory")
	}
	if !strings.Contains(first.Text.Text, "<https://example.com/0|기사 0>") {
		t.Fatalf("unexpected item text: %s", first.Text.Text)
	}
	if second := blocks[4].(*slack.SectionBlock); second.Accessory != nil {
		t.Fatalf("item without image must not carry an accessory")
	}
	if blocks[6].BlockType() != slack.MBTContext {
		t.Fatalf("last block must be the footer context")
	}
}

func TestBuildBlocksCapsAtLimit(t *testing.T) {
	t.Parallel()

	blocks := BuildBlocks(digestWithItems(80))
	if len(blocks) != maxBlocks {
		t.Fatalf("expected %d blocks, got %d", maxBlocks, len(blocks))
	}
	footer := blocks[len(blocks)-1].(*slack.ContextBlock)
	text := footer.ContextElements.Elements[0].(*slack.TextBlockObject).Text
	if !strings.Contains(text, "80건") || !strings.Contains(text, "생략") {
		t.Fatalf("footer must report hidden items: %s", text)
	}
}

func TestSlackSinkPostsWebhook(t *testing.T) {
	t.Parallel()

	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	sink := NewSlackSink(srv.URL, srv.Client())
	if err := sink.Deliver(context.Background(), digestWithItems(1)); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if payload["text"] != "오늘의 뉴스" {
		t.Fatalf("unexpected fallback text: %v", payload["text"])
	}
	if blocks, ok := payload["blocks"].([]any); !ok || len(blocks) == 0 {
		t.Fatalf("expected blocks in payload: %v", payload)
	}
}

func TestSlackSinkFailsOnRejectedPayload(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_blocks", http.StatusBadRequest)
	}))
	defer srv.Close()

	if err := NewSlackSink(srv.URL, srv.Client()).Deliver(context.Background(), digestWithItems(1)); err == nil {
		t.Fatalf("expected error for rejected payload")
	}
}
