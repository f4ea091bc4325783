package llm

import (
	"cmp"
	"context"
	"fmt"
	"os"
)

const (
	anthropicAPIURL       = "https://api.anthropic.com/v1/messages"
	anthropicDefaultModel = "claude-sonnet-4-6"
	anthropicAPIVersion   = "2023-06-01"
	anthropicMaxTokens    = 8192
)

// Anthropic calls the Messages API. The Messages API has no JSON mode, so the
// assistant turn is prefilled with the opening brace of the findings object.
type Anthropic struct {
	ep endpoint
}

// NewAnthropic reads the key from ANTHROPIC_API_KEY.
func NewAnthropic() (*Anthropic, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
	}
	return &Anthropic{ep: newEndpoint("anthropic", anthropicAPIURL, map[string]string{
		"X-API-Key":         key,
		"Anthropic-Version": anthropicAPIVersion,
	})}, nil
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	req := messagesRequest{
		Model:       cmp.Or(s.Model, anthropicDefaultModel),
		MaxTokens:   cmp.Or(s.MaxTokens, anthropicMaxTokens),
		Temperature: s.Temperature,
		System:      systemPrompt,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
			{Role: "assistant", Content: jsonPrefill},
		},
	}

	var resp messagesResponse
	if err := a.ep.post(ctx, req, &resp); err != nil {
		return "", err
	}
	if resp.StopReason == "max_tokens" {
		return "", fmt.Errorf("anthropic: %w at %d tokens", ErrTruncated, req.MaxTokens)
	}
	for _, block := range resp.Content {
		if block.Type == "text" {
			return jsonPrefill + block.Text, nil
		}
	}
	return "", fmt.Errorf("anthropic: %w", ErrNoContent)
}

const jsonPrefill = "{"

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}
