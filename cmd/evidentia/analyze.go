package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/extract"
	"github.com/dshills/evidentia/internal/llm"
	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/render"
	"github.com/dshills/evidentia/internal/report"
)

type analyzeFlags struct {
	url          string
	findings     string
	format       string
	out          string
	taxonomy     string
	model        string
	maxTokens    int
	temperature  float64
	redact       bool
	strict       bool
	complete     bool
	failAbove    float64
	hasFailAbove bool
	verbose      bool

	// provider overrides model resolution in tests.
	provider llm.Provider
}

func newAnalyzeCmd() *cobra.Command {
	f := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [policy-file|-]",
		Short: "Extract findings from a privacy policy and score it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.hasFailAbove = cmd.Flags().Changed("fail-above")
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runAnalyze(cmd.Context(), path, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.url, "url", "", "Source URL recorded in the report")
	flags.StringVar(&f.findings, "findings", "", "Score findings from this JSON file instead of calling a model")
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.taxonomy, "taxonomy", "reference", "Builtin taxonomy name or YAML file")
	flags.StringVar(&f.model, "model", "", "Model ID (e.g., claude-sonnet-4-6, gpt-4o, openrouter:openai/gpt-4o-mini)")
	flags.IntVar(&f.maxTokens, "max-tokens", 4096, "Max response tokens")
	flags.Float64Var(&f.temperature, "temperature", 0, "Model temperature")
	flags.BoolVar(&f.redact, "redact", true, "Redact credentials and contact details before sending to model")
	flags.BoolVar(&f.strict, "strict", false, "Downgrade findings whose evidence quote is not in the policy to unknown")
	flags.BoolVar(&f.complete, "complete", false, "List every taxonomy flag, marking unreported ones unknown")
	flags.Float64Var(&f.failAbove, "fail-above", 0, "Exit 2 if the risk score is at or above this value")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

func runAnalyze(ctx context.Context, path string, f *analyzeFlags) error {
	verbose := verboseFunc(f.verbose)

	if err := checkFormat(f.format); err != nil {
		return err
	}
	if path == "" && f.findings == "" {
		return exitError(exitInput, "a policy file or --findings is required")
	}

	reg, err := loadRegistry(f.taxonomy)
	if err != nil {
		return exitError(exitInput, "failed to load taxonomy: %v", err)
	}
	verbose("Using taxonomy %s (%d flags)", reg.Name(), reg.Len())

	svc := analysis.New(analysis.Config{Registry: reg, CompleteFindings: f.complete})

	var r *report.Report
	if f.findings != "" {
		verbose("Loading findings: %s", f.findings)
		findings, err := loadFindings(f.findings, reg, verbose)
		if err != nil {
			return exitError(exitInput, "failed to load findings: %v", err)
		}
		r = svc.Score(findings, f.url)
	} else {
		r, err = extractAndScore(ctx, path, f, svc, verbose)
		if err != nil {
			return err
		}
	}

	var output string
	switch f.format {
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.Markdown(reg, r)
	}
	if err := writeOutput(f.out, output, verbose); err != nil {
		return err
	}

	if f.hasFailAbove && r.OverallScore >= f.failAbove {
		return exitError(exitThreshold, "risk score %.2f meets fail threshold %.2f", r.OverallScore, f.failAbove)
	}
	return nil
}

func extractAndScore(ctx context.Context, path string, f *analyzeFlags, svc *analysis.Service, verbose func(string, ...any)) (*report.Report, error) {
	verbose("Loading policy: %s", path)
	p, err := policy.Load(path)
	if err != nil {
		return nil, exitError(exitInput, "failed to load policy: %v", err)
	}
	p.URL = f.url

	verbose("Resolving LLM provider")
	provider, err := resolveProvider(f.provider, f.model)
	if err != nil {
		return nil, exitError(exitProvider, "model provider error: %v", err)
	}
	verbose("Using provider: %s", provider.Name())

	ex := &extract.Extractor{
		Provider: provider,
		Registry: svc.Registry(),
		Settings: llm.Settings{
			Model:       f.model,
			Temperature: f.temperature,
			MaxTokens:   f.maxTokens,
		},
		Redact: f.redact,
		Strict: f.strict,
		Logger: cliLogger(f.verbose),
	}

	verbose("Calling LLM...")
	findings, err := ex.Extract(ctx, p)
	if err != nil {
		return nil, extractError("extraction failed", err)
	}
	verbose("Extracted %d findings", len(findings))

	r := svc.Score(findings, f.url)
	r.Meta.Hash = p.Hash
	r.Meta.Model = modelLabel(provider, f.model)
	return r, nil
}
