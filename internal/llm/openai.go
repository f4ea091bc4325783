package llm

import (
	"cmp"
	"context"
	"fmt"
	"os"
)

const (
	openaiAPIURL       = "https://api.openai.com/v1/chat/completions"
	openaiDefaultModel = "gpt-4o"

	openrouterAPIURL       = "https://openrouter.ai/api/v1/chat/completions"
	openrouterDefaultModel = "openai/gpt-4o-mini"

	chatMaxTokens = 4096
)

// ChatCompletions calls an OpenAI-compatible chat completions API in JSON
// mode. It backs both the OpenAI and OpenRouter providers.
type ChatCompletions struct {
	ep           endpoint
	defaultModel string
	// requireJSON asks a routing gateway to skip backends that ignore
	// response_format.
	requireJSON bool
}

// NewOpenAI reads the key from OPENAI_API_KEY.
func NewOpenAI() (*ChatCompletions, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return &ChatCompletions{
		ep:           newEndpoint("openai", openaiAPIURL, map[string]string{"Authorization": "Bearer " + key}),
		defaultModel: openaiDefaultModel,
	}, nil
}

// NewOpenRouter reads the key from OPENROUTER_API_KEY. Model ids use
// OpenRouter's vendor/model form.
func NewOpenRouter() (*ChatCompletions, error) {
	key := os.Getenv("OPENROUTER_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY environment variable not set")
	}
	return &ChatCompletions{
		ep: newEndpoint("openrouter", openrouterAPIURL, map[string]string{
			"Authorization": "Bearer " + key,
			"X-Title":       "evidentia",
		}),
		defaultModel: openrouterDefaultModel,
		requireJSON:  true,
	}, nil
}

func (c *ChatCompletions) Name() string { return c.ep.name }

func (c *ChatCompletions) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	req := chatRequest{
		Model:       cmp.Or(s.Model, c.defaultModel),
		MaxTokens:   cmp.Or(s.MaxTokens, chatMaxTokens),
		Temperature: s.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: responseFormat{Type: "json_object"},
	}
	if c.requireJSON {
		req.Routing = &routing{RequireParameters: true}
	}

	var resp chatResponse
	if err := c.ep.post(ctx, req, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w", c.ep.name, ErrNoContent)
	}
	choice := resp.Choices[0]
	if choice.FinishReason == "length" {
		return "", fmt.Errorf("%s: %w at %d tokens", c.ep.name, ErrTruncated, req.MaxTokens)
	}
	if choice.Message.Content == "" {
		return "", fmt.Errorf("%s: %w", c.ep.name, ErrNoContent)
	}
	return choice.Message.Content, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type routing struct {
	RequireParameters bool `json:"require_parameters"`
}

type chatRequest struct {
	Model          string         `json:"model"`
	MaxTokens      int            `json:"max_tokens"`
	Temperature    float64        `json:"temperature"`
	Messages       []chatMessage  `json:"messages"`
	ResponseFormat responseFormat `json:"response_format"`
	Routing        *routing       `json:"provider,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
}
