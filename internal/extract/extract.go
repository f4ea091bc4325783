// Package extract turns policy text into validated findings by prompting a
// model provider and sanitizing what it returns.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/evidentia/internal/llm"
	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/prompt"
	"github.com/dshills/evidentia/internal/redact"
	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/schema"
	"github.com/dshills/evidentia/internal/taxonomy"
)

var (
	// ErrProvider wraps failures to reach or get an answer from the model.
	ErrProvider = errors.New("model provider failed")
	// ErrUnusableOutput means the model answered with something that could
	// not be decoded, even after a repair round.
	ErrUnusableOutput = errors.New("model output unusable")
)

// Extractor runs one extraction per call. Safe for concurrent use when the
// provider is.
type Extractor struct {
	Provider llm.Provider
	Registry *taxonomy.Registry
	Settings llm.Settings
	// Redact scrubs credentials and contact details before prompting.
	Redact bool
	// Strict demotes confirmed findings whose evidence quote is not found
	// in the policy text to unknown.
	Strict         bool
	MaxPolicyChars int
	Logger         *slog.Logger
	// OnDropped, when set, receives the number of records discarded per call.
	OnDropped func(n int)
}

// Extract returns the valid findings the model reported for p. Records that
// reference unknown flags or miss required fields are dropped and logged.
func (e *Extractor) Extract(ctx context.Context, p *policy.Policy) ([]report.Finding, error) {
	if e.Provider == nil {
		return nil, fmt.Errorf("extract: %w: no provider configured", ErrProvider)
	}
	log := e.logger().With("provider", e.Provider.Name(), "hash", p.Hash)

	target := p
	if e.Redact {
		cp := *p
		cp.Text = redact.Redact(p.Text)
		target = &cp
	}

	promptText := prompt.Build(prompt.BuildOpts{
		Policy:         target,
		Registry:       e.Registry,
		MaxPolicyChars: e.MaxPolicyChars,
	})

	log.Debug("calling model", "prompt_bytes", len(promptText))
	out, err := e.Provider.Generate(ctx, promptText, e.Settings)
	if err != nil {
		return nil, fmt.Errorf("extract: %w: %w", ErrProvider, err)
	}
	log.Debug("model responded", "bytes", len(out))

	raw, recordErrs, err := schema.DecodeFindings([]byte(llm.ExtractJSON(out)))
	if err != nil {
		log.Info("model output not decodable, attempting repair", "error", err)
		repairPrompt := prompt.BuildRepair(out, []schema.ValidationError{{Path: "$", Message: err.Error()}})
		out, err = e.Provider.Generate(ctx, repairPrompt, e.Settings)
		if err != nil {
			return nil, fmt.Errorf("extract: repair: %w: %w", ErrProvider, err)
		}
		raw, recordErrs, err = schema.DecodeFindings([]byte(llm.ExtractJSON(out)))
		if err != nil {
			return nil, fmt.Errorf("extract: %w: %w", ErrUnusableOutput, err)
		}
	}

	findings, fieldErrs := schema.Sanitize(e.Registry, raw)
	for _, ve := range append(recordErrs, fieldErrs...) {
		if ve.Kept {
			log.Debug("adjusted finding", "path", ve.Path, "reason", ve.Message)
			continue
		}
		log.Debug("dropped finding", "path", ve.Path, "reason", ve.Message)
	}
	if n := len(raw) + len(recordErrs) - len(findings); n > 0 && e.OnDropped != nil {
		e.OnDropped(n)
	}
	if e.Strict {
		violations := CheckGrounding(target.Text, findings)
		for _, v := range violations {
			log.Info("evidence quote not found in policy, downgrading", "flag", v.Flag)
		}
		ApplyGroundingDowngrades(findings, violations)
	}
	if p.URL != "" {
		for i := range findings {
			if findings[i].URL == "" {
				findings[i].URL = p.URL
			}
		}
	}
	return findings, nil
}

// Variant names the settings that change what Extract returns for the same
// policy. Caches key on it.
func (e *Extractor) Variant() string {
	name := "none"
	if e.Provider != nil {
		name = e.Provider.Name()
	}
	return fmt.Sprintf("%s/%s/redact=%t/strict=%t/max=%d", name, e.Settings.Model, e.Redact, e.Strict, e.MaxPolicyChars)
}

func (e *Extractor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.DiscardHandler)
}
