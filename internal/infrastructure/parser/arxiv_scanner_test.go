package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"NewsDigest/internal/keyword"
	"NewsDigest/internal/scanner"
)

func TestBuildPageURL(t *testing.T) {
	t.Parallel()

	base := "https://export.arxiv.org/list/cs.AI/pastweek"
	u, err := buildPageURL(base, 200, 100)
	if err != nil {
		t.Fatalf("buildPageURL returned error: %v", err)
	}

	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	if parsed.Scheme != "https" || parsed.Host != "export.arxiv.org" {
		t.Fatalf("unexpected host: %s", parsed.Host)
	}

	q := parsed.Query()
	if q.Get("skip") != "200" {
		t.Fatalf("expected skip=200, got %s", q.Get("skip"))
	}
	if q.Get("show") != "100" {
		t.Fatalf("expected show=100, got %s", q.Get("show"))
	}
}

func TestParseEntry(t *testing.T) {
	t.Parallel()

	html := `
	<dl>
	  <dt>
	    <span class="list-identifier"><a href="/abs/1234.56789">arXiv:1234.56789</a></span>
	  </dt>
	  <dd>
	    <div class="list-date">Date: 8 Nov 2025</div>
	    <div class="list-title mathjax">Title: Sample Title</div>
	    <p class="mathjax">Abstract: Sample abstract text.</p>
	  </dd>
	</dl>`

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("new document: %v", err)
	}

	entry, ok := parseEntry(doc.Find("dt").First(), doc.Find("dd").First())
	if !ok {
		t.Fatalf("parseEntry rejected a valid entry")
	}

	if entry.ID != "arXiv:1234.56789" {
		t.Fatalf("unexpected id: %s", entry.ID)
	}
	if entry.Title != "Sample Title" {
		t.Fatalf("unexpected title: %s", entry.Title)
	}
	if entry.Abstract != "Sample abstract text." {
		t.Fatalf("unexpected abstract: %s", entry.Abstract)
	}
	if entry.URL != "https://arxiv.org/abs/1234.56789" {
		t.Fatalf("unexpected url: %s", entry.URL)
	}
	if entry.PublishedAt.Format("2006-01-02") != "2025-11-08" {
		t.Fatalf("unexpected published date: %v", entry.PublishedAt)
	}
}

func TestArxivScannerScan(t *testing.T) {
	t.Parallel()

	since := time.Date(2025, time.November, 8, 6, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`
		<dl>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00001">arXiv:2501.00001</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Fresh LLM Article</div>
		    <p class="mathjax">Abstract: brand new.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00003">arXiv:2501.00003</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 8 Nov 2025</div>
		    <div class="list-title mathjax">Title: Unrelated Topology</div>
		    <p class="mathjax">Abstract: manifolds.</p>
		  </dd>
		  <dt>
		    <span class="list-identifier"><a href="/abs/2501.00002">arXiv:2501.00002</a></span>
		  </dt>
		  <dd>
		    <div class="list-date">Date: 7 Nov 2025</div>
		    <div class="list-title mathjax">Title: Old LLM Article</div>
		    <p class="mathjax">Abstract: older.</p>
		  </dd>
		</dl>`))
	}))
	defer server.Close()

	sc := NewArxivScanner(server.Client(), "")
	sc.pageSize = 10

	req := scanner.Request{
		Since:    since,
		SiteName: "arxiv-ai",
		Keywords: keyword.New("LLM"),
		Categories: []scanner.Category{
			{Name: "cs.AI", URL: server.URL + "/list/cs.AI"},
		},
	}

	items, err := sc.Scan(context.Background(), req)
	if err != nil {
		t.Fatalf("Scan error: %v", err)
	}

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Title != "Fresh LLM Article" {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if items[0].Summary != "brand new...." {
		t.Fatalf("unexpected summary: %s", items[0].Summary)
	}
	if items[0].Source != "arxiv-ai/cs.AI" || items[0].Keyword != "LLM" {
		t.Fatalf("unexpected source/keyword: %+v", items[0])
	}
}
