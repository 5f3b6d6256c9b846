package curation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"NewsDigest/internal/domain"
	"NewsDigest/internal/ports"
)

const rankSystemPrompt = `You are the editor of a daily Korean newsletter about AI, machine learning and the stock market.
You receive a numbered list of candidate articles in the form "[index] title" followed by a summary line.
Pick the most newsworthy, non-redundant articles, best first, and at most the requested number.

Output as JSON only, no other text:
{"indices": [<index>, <index>, ...]}`

const briefSystemPrompt = `You are the editor of a daily Korean newsletter about AI, machine learning and the stock market.
Write a short briefing in Korean over the numbered articles you receive.

Output as JSON only, no other text:
{
  "headline": "one sentence capturing today's main theme",
  "bullets": ["3-5 short bullet points, one per key development"]
}`

// ErrMalformedResponse is returned when a ranking reply cannot be parsed.
var ErrMalformedResponse = errors.New("malformed ranker response")

// LLMRanker implements ports.Ranker on top of a chat completion API.
type LLMRanker struct {
	chat ports.ChatClient
}

var _ ports.Ranker = (*LLMRanker)(nil)

// NewLLMRanker wraps a chat client.
func NewLLMRanker(chat ports.ChatClient) *LLMRanker {
	return &LLMRanker{chat: chat}
}

// Rank asks the model for up to limit indices into items.
func (r *LLMRanker) Rank(ctx context.Context, items []domain.NewsItem, limit int) ([]int, error) {
	prompt := fmt.Sprintf("Select at most %d articles.\n\n%s", limit, formatItems(items))
	reply, err := r.chat.Complete(ctx, rankSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}
	return parseIndices(reply)
}

// Brief asks the model for a headline and bullets. A reply that is not JSON
// is used verbatim.
func (r *LLMRanker) Brief(ctx context.Context, items []domain.NewsItem) (string, error) {
	reply, err := r.chat.Complete(ctx, briefSystemPrompt, formatItems(items))
	if err != nil {
		return "", err
	}

	var b domain.Briefing
	if err := json.Unmarshal([]byte(cleanJSONResponse(reply)), &b); err != nil {
		return strings.TrimSpace(stripFences(reply)), nil
	}
	return b.Text(), nil
}

func formatItems(items []domain.NewsItem) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "[%d] %s\n    %s\n", i, item.Title, item.Summary)
	}
	return sb.String()
}

// parseIndices accepts {"indices":[...]} or a bare array; numbers may be
// quoted.
func parseIndices(reply string) ([]int, error) {
	content := stripFences(reply)

	var raw []json.RawMessage
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	} else {
		var obj struct {
			Indices []json.RawMessage `json:"indices"`
		}
		if err := json.Unmarshal([]byte(cleanJSONResponse(content)), &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		raw = obj.Indices
	}

	indices := make([]int, 0, len(raw))
	for _, r := range raw {
		s := strings.Trim(strings.TrimSpace(string(r)), `"`)
		n, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		indices = append(indices, n)
	}
	return indices, nil
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func cleanJSONResponse(content string) string {
	content = stripFences(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}
