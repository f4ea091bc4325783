// Package llm talks to the hosted models that read a privacy policy and
// report findings as a JSON document.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Settings tunes one Generate call. Zero values select provider defaults.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// Provider returns the model's JSON reply to a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}

var (
	// ErrTruncated means the reply hit the token limit and the JSON is
	// incomplete.
	ErrTruncated = errors.New("response truncated")
	// ErrNoContent means the reply carried no text.
	ErrNoContent = errors.New("no text content in response")
)

// StatusError is a non-200 answer from a provider API.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: API returned %d: %s", e.Provider, e.Code, e.Body)
}

// Temporary reports whether a later attempt may succeed.
func (e *StatusError) Temporary() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// systemPrompt pins the reply format for every provider.
const systemPrompt = "You audit privacy policies. Reply with a single JSON object and no prose."
