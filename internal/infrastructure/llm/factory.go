// Package llm adapts hosted LLM APIs to ports.ChatClient.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// ErrMissingCredentials is returned when the selected provider has no API key.
var ErrMissingCredentials = errors.New("missing credentials")

// NewChatClient selects the provider named in curation.provider.
func NewChatClient(ctx context.Context, cfg config.Config, httpClient *http.Client) (ports.ChatClient, error) {
	switch provider := strings.ToLower(strings.TrimSpace(cfg.Curation.Provider)); provider {
	case "gemini", "google":
		return NewGeminiClient(ctx, cfg.Gemini, httpClient)
	case "openai", "chatgpt":
		return NewChatGPTClient(cfg.ChatGPT, httpClient)
	case "anthropic", "claude":
		return NewAnthropicClient(cfg.Anthropic, httpClient, "")
	default:
		return nil, fmt.Errorf("unknown chat provider %q", provider)
	}
}
