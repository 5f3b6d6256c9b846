package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"NewsDigest/internal/keyword"
	"NewsDigest/internal/scanner"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Tech</title>
  <item>
    <title>LLM 기반 검색 서비스 출시</title>
    <link>https://news.example.com/a</link>
    <description><![CDATA[<p>새로운 <b>LLM</b> 서비스 &amp; 도구</p>]]></description>
    <pubDate>Tue, 10 Jun 2025 09:00:00 +0900</pubDate>
    <enclosure url="/images/a.jpg" type="image/jpeg" length="1"/>
  </item>
  <item>
    <title>날씨 소식</title>
    <link>https://news.example.com/b</link>
    <description>맑음</description>
    <pubDate>Tue, 10 Jun 2025 08:00:00 +0900</pubDate>
  </item>
  <item>
    <title>반도체 수출 증가</title>
    <link>https://news.example.com/c</link>
    <description></description>
    <pubDate>Mon, 09 Jun 2025 08:00:00 +0900</pubDate>
  </item>
</channel>
</rss>`

func TestRSSScannerFiltersAndStrips(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	sc := NewRSSScanner(server.Client(), "test-agent")
	items, err := sc.Scan(context.Background(), scanner.Request{
		SiteName:   "feeds",
		Keywords:   keyword.New("LLM", "반도체"),
		Categories: []scanner.Category{{Name: "tech", URL: server.URL + "/rss"}},
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d: %+v", len(items), items)
	}

	first := items[0]
	if first.Link != "https://news.example.com/a" || first.Keyword != "LLM" {
		t.Fatalf("unexpected first item: %+v", first)
	}
	if first.Summary != "새로운 LLM 서비스 & 도구..." {
		t.Fatalf("html not stripped: %q", first.Summary)
	}
	if first.ImageURL != "https://news.example.com/images/a.jpg" {
		t.Fatalf("image not resolved against origin: %q", first.ImageURL)
	}
	if first.Source != "feeds/tech" {
		t.Fatalf("unexpected source: %s", first.Source)
	}
	if items[1].Summary != "요약 없음..." {
		t.Fatalf("expected placeholder summary, got %q", items[1].Summary)
	}
}

func TestRSSScannerWindowKeepsNewest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	items, err := NewRSSScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		SiteName:   "feeds",
		MaxResults: 2,
		Keywords:   keyword.New("LLM", "반도체"),
		Categories: []scanner.Category{{URL: server.URL}},
	})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(items) != 1 || items[0].Link != "https://news.example.com/a" {
		t.Fatalf("expected only the newest matching entry, got %+v", items)
	}
}

func TestRSSScannerBrokenFeedKeepsOthers(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/broken") {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	items, err := NewRSSScanner(server.Client(), "").Scan(context.Background(), scanner.Request{
		SiteName: "feeds",
		Keywords: keyword.New("LLM"),
		Categories: []scanner.Category{
			{Name: "broken", URL: server.URL + "/broken"},
			{Name: "ok", URL: server.URL + "/ok"},
		},
	})
	if err == nil {
		t.Fatalf("expected error for broken feed")
	}
	if len(items) != 1 {
		t.Fatalf("expected items from healthy feed, got %d", len(items))
	}
}
