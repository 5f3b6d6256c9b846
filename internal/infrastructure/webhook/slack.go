// Package webhook delivers digests to Slack incoming webhooks as Block Kit messages.
package webhook

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

// maxBlocks is the Block Kit limit per message.
const maxBlocks = 50

var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// SlackSink posts digests to an incoming webhook.
type SlackSink struct {
	url    string
	client *http.Client
}

var _ ports.Sink = (*SlackSink)(nil)

// NewSlackSink creates a sink for the webhook URL.
func NewSlackSink(url string, client *http.Client) *SlackSink {
	if client == nil {
		client = http.DefaultClient
	}
	return &SlackSink{url: url, client: client}
}

// Name identifies the sink in logs and reports.
func (s *SlackSink) Name() string {
	return "slack"
}

// Deliver posts the digest; Slack answers non-200 for rejected payloads.
func (s *SlackSink) Deliver(ctx context.Context, digest domain.Digest) error {
	if s.url == "" {
		return fmt.Errorf("slack webhook url is empty")
	}
	msg := &slack.WebhookMessage{
		Text:   digest.Subject,
		Blocks: &slack.Blocks{BlockSet: BuildBlocks(digest)},
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, s.url, s.client, msg); err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	return nil
}

// BuildBlocks lays the digest out as header, optional briefing, one section
// per item and a context footer. Items beyond the block limit are counted
// in the footer instead.
func BuildBlocks(d domain.Digest) []slack.Block {
	blocks := []slack.Block{
		slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, d.Subject, true, false)),
	}
	if d.Narrative != "" {
		blocks = append(blocks,
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, mrkdwnEscaper.Replace(d.Narrative), false, false), nil, nil),
		)
	}
	blocks = append(blocks, slack.NewDividerBlock())

	// header, briefing, divider, items, divider, footer
	room := maxBlocks - len(blocks) - 2
	shown := d.Items
	if len(shown) > room {
		shown = shown[:room]
	}
	for _, item := range shown {
		blocks = append(blocks, itemBlock(item))
	}

	footer := fmt.Sprintf("%s 기준 %d건", d.DateLabel(), len(d.Items))
	if hidden := len(d.Items) - len(shown); hidden > 0 {
		footer += fmt.Sprintf(" (%d건 생략)", hidden)
	}
	blocks = append(blocks,
		slack.NewDividerBlock(),
		slack.NewContextBlock("", slack.NewTextBlockObject(slack.MarkdownType, footer, false, false)),
	)
	return blocks
}

func itemBlock(item domain.NewsItem) slack.Block {
	title := mrkdwnEscaper.Replace(strings.ReplaceAll(item.Title, "|", "¦"))
	text := fmt.Sprintf("*<%s|%s>*", item.Link, title)
	if item.Summary != "" {
		text += "\n" + mrkdwnEscaper.Replace(item.Summary)
	}
	if meta := itemMeta(item); meta != "" {
		text += "\n_" + mrkdwnEscaper.Replace(meta) + "_"
	}

	var accessory *slack.Accessory
	if item.HasImage() {
		accessory = slack.NewAccessory(slack.NewImageBlockElement(item.ImageURL, item.Title))
	}
	return slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, text, false, false), nil, accessory)
}

func itemMeta(item domain.NewsItem) string {
	switch {
	case item.Source != "" && item.Keyword != "":
		return item.Source + " · " + item.Keyword
	case item.Source != "":
		return item.Source
	default:
		return item.Keyword
	}
}
