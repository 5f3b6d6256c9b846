// Package render turns a digest into the documents the sinks send.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"NewsDigest/internal/domain"
)

// DefaultSubjectFormat receives the digest date as its only verb.
const DefaultSubjectFormat = "[%s] 오늘의 AI/주식/머신러닝 뉴스"

// Message is a rendered digest with a plain text alternative.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

// Subject formats the digest subject for date. A format without a verb is
// used as is.
func Subject(format string, date time.Time) string {
	if format == "" {
		format = DefaultSubjectFormat
	}
	label := date.Format("2006-01-02")
	if !strings.Contains(format, "%s") {
		return format
	}
	return fmt.Sprintf(format, label)
}

// HTMLRenderer renders digests as HTML emails with a plain text fallback.
type HTMLRenderer struct {
	tmpl *template.Template
}

// NewHTMLRenderer creates a renderer with the default digest template.
func NewHTMLRenderer() *HTMLRenderer {
	t := template.Must(template.New("digest").Funcs(template.FuncMap{
		"lines": func(s string) []string { return strings.Split(s, "\n") },
	}).Parse(digestHTMLTemplate))
	return &HTMLRenderer{tmpl: t}
}

// Render produces the HTML document and its plain text alternative.
func (r *HTMLRenderer) Render(d domain.Digest) (*Message, error) {
	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, d); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &Message{
		Subject: d.Subject,
		Text:    PlainText(d),
		HTML:    htmlBuf.String(),
	}, nil
}

// PlainText produces a readable version for clients without HTML support.
func PlainText(d domain.Digest) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s\n", d.Subject))
	sb.WriteString(strings.Repeat("=", 50) + "\n\n")

	if d.Narrative != "" {
		sb.WriteString("오늘의 브리핑\n")
		sb.WriteString(strings.Repeat("-", 20) + "\n")
		sb.WriteString(d.Narrative + "\n\n")
	}

	for i, item := range d.Items {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, item.Title))
		sb.WriteString(fmt.Sprintf("   %s\n", item.Link))
		if item.Summary != "" {
			sb.WriteString(fmt.Sprintf("   %s\n", item.Summary))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("%s 기준 %d건\n", d.DateLabel(), len(d.Items)))
	return sb.String()
}

var markdownEscaper = strings.NewReplacer("_", `\_`, "*", `\*`, "[", `\[`, "`", "\\`")

// Markdown renders the digest for Telegram's legacy Markdown parse mode.
func Markdown(d domain.Digest) string {
	var sb strings.Builder
	sb.WriteString("*" + markdownEscaper.Replace(d.Subject) + "*\n\n")
	if d.Narrative != "" {
		sb.WriteString(markdownEscaper.Replace(d.Narrative) + "\n\n")
	}
	for i, item := range d.Items {
		title := strings.NewReplacer("[", "(", "]", ")").Replace(item.Title)
		sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, title, item.Link))
	}
	return sb.String()
}
