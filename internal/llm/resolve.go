package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
)

type constructor func() (Provider, error)

func provider[P Provider](build func() (P, error)) constructor {
	return func() (Provider, error) { return build() }
}

// route maps a model id prefix to a provider. Explicit "vendor:" prefixes
// are stripped before the id reaches the API.
type route struct {
	prefix string
	strip  bool
	build  constructor
}

var routes = []route{
	{"anthropic:", true, provider(NewAnthropic)},
	{"openai:", true, provider(NewOpenAI)},
	{"openrouter:", true, provider(NewOpenRouter)},
	{"claude", false, provider(NewAnthropic)},
	{"gpt", false, provider(NewOpenAI)},
}

// detectOrder is tried when the model id names no provider.
var detectOrder = []struct {
	env   string
	build constructor
}{
	{"ANTHROPIC_API_KEY", provider(NewAnthropic)},
	{"OPENAI_API_KEY", provider(NewOpenAI)},
	{"OPENROUTER_API_KEY", provider(NewOpenRouter)},
}

// ResolveProvider picks a provider for model. A recognised prefix selects the
// provider and pins the model; otherwise the first configured API key wins
// and model passes through unchanged.
func ResolveProvider(model string) (Provider, error) {
	lower := strings.ToLower(model)
	for _, r := range routes {
		if !strings.HasPrefix(lower, r.prefix) {
			continue
		}
		p, err := r.build()
		if err != nil {
			return nil, err
		}
		id := model
		if r.strip {
			id = model[len(r.prefix):]
		}
		return &pinned{Provider: p, model: id}, nil
	}

	for _, d := range detectOrder {
		if os.Getenv(d.env) != "" {
			return d.build()
		}
	}
	return nil, fmt.Errorf("no LLM provider configured: set ANTHROPIC_API_KEY, OPENAI_API_KEY, or OPENROUTER_API_KEY")
}

// pinned fixes the model id regardless of Settings.Model.
type pinned struct {
	Provider
	model string
}

func (p *pinned) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = p.model
	return p.Provider.Generate(ctx, prompt, s)
}
