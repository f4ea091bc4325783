package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/extract"
	"github.com/dshills/evidentia/internal/llm"
	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/render"
	"github.com/dshills/evidentia/internal/report"
)

type compareFlags struct {
	urlA           string
	urlB           string
	findingsA      string
	findingsB      string
	includeUnknown bool
	format         string
	out            string
	taxonomy       string
	model          string
	maxTokens      int
	redact         bool
	strict         bool
	verbose        bool

	provider llm.Provider
}

// compareSide is one policy to score, from a file or pre-extracted findings.
type compareSide struct {
	name     string
	path     string
	findings string
	url      string
}

func newCompareCmd() *cobra.Command {
	f := &compareFlags{}

	cmd := &cobra.Command{
		Use:   "compare [policy-a] [policy-b]",
		Short: "Score two privacy policies and report which is safer",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd.Context(), args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.urlA, "url-a", "", "Source URL of policy A")
	flags.StringVar(&f.urlB, "url-b", "", "Source URL of policy B")
	flags.StringVar(&f.findingsA, "findings-a", "", "Findings JSON for policy A (skips the model)")
	flags.StringVar(&f.findingsB, "findings-b", "", "Findings JSON for policy B (skips the model)")
	flags.BoolVar(&f.includeUnknown, "include-unknown", false, "Count unknown findings as risks in the comparison lists")
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.taxonomy, "taxonomy", "reference", "Builtin taxonomy name or YAML file")
	flags.StringVar(&f.model, "model", "", "Model ID")
	flags.IntVar(&f.maxTokens, "max-tokens", 4096, "Max response tokens")
	flags.BoolVar(&f.redact, "redact", true, "Redact credentials and contact details before sending to model")
	flags.BoolVar(&f.strict, "strict", false, "Downgrade findings whose evidence quote is not in the policy to unknown")
	flags.BoolVar(&f.verbose, "verbose", false, "Print processing steps to stderr")

	return cmd
}

// compareSides pairs positional policy files with --findings-a/-b. A side
// given by findings does not consume a positional argument.
func compareSides(args []string, f *compareFlags) ([2]compareSide, error) {
	sides := [2]compareSide{
		{name: "A", findings: f.findingsA, url: f.urlA},
		{name: "B", findings: f.findingsB, url: f.urlB},
	}
	rest := args
	for i := range sides {
		if sides[i].findings != "" {
			continue
		}
		if len(rest) == 0 {
			return sides, exitError(exitInput, "policy %s: a policy file or --findings-%s is required", sides[i].name, strings.ToLower(sides[i].name))
		}
		sides[i].path, rest = rest[0], rest[1:]
	}
	if len(rest) > 0 {
		return sides, exitError(exitInput, "unexpected arguments: %v", rest)
	}
	return sides, nil
}

func runCompare(ctx context.Context, args []string, f *compareFlags) error {
	verbose := verboseFunc(f.verbose)

	if err := checkFormat(f.format); err != nil {
		return err
	}
	sides, err := compareSides(args, f)
	if err != nil {
		return err
	}
	reg, err := loadRegistry(f.taxonomy)
	if err != nil {
		return exitError(exitInput, "failed to load taxonomy: %v", err)
	}
	svc := analysis.New(analysis.Config{Registry: reg})

	var ex *extract.Extractor
	if sides[0].findings == "" || sides[1].findings == "" {
		provider, err := resolveProvider(f.provider, f.model)
		if err != nil {
			return exitError(exitProvider, "model provider error: %v", err)
		}
		verbose("Using provider: %s", provider.Name())
		ex = &extract.Extractor{
			Provider: provider,
			Registry: reg,
			Settings: llm.Settings{Model: f.model, MaxTokens: f.maxTokens},
			Redact:   f.redact,
			Strict:   f.strict,
			Logger:   cliLogger(f.verbose),
		}
	}

	var reports [2]*report.Report
	g, gctx := errgroup.WithContext(ctx)
	for i, side := range sides {
		g.Go(func() error {
			r, err := scoreSide(gctx, side, svc, ex, verbose)
			if err != nil {
				return err
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	res := &analysis.CompareResult{
		ReportA:    reports[0],
		ReportB:    reports[1],
		Comparison: report.Compare(reg, *reports[0], *reports[1], report.CompareOptions{IncludeUnknown: f.includeUnknown}),
	}
	verbose("Verdict: %s", res.Comparison.Verdict)

	var output string
	switch f.format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.ComparisonMarkdown(reg, res)
	}
	return writeOutput(f.out, output, verbose)
}

func scoreSide(ctx context.Context, side compareSide, svc *analysis.Service, ex *extract.Extractor, verbose func(string, ...any)) (*report.Report, error) {
	if side.findings != "" {
		verbose("Policy %s: loading findings %s", side.name, side.findings)
		findings, err := loadFindings(side.findings, svc.Registry(), verbose)
		if err != nil {
			return nil, exitError(exitInput, "policy %s: failed to load findings: %v", side.name, err)
		}
		return svc.Score(findings, side.url), nil
	}

	verbose("Policy %s: loading %s", side.name, side.path)
	p, err := policy.Load(side.path)
	if err != nil {
		return nil, exitError(exitInput, "policy %s: failed to load policy: %v", side.name, err)
	}
	p.URL = side.url
	findings, err := ex.Extract(ctx, p)
	if err != nil {
		return nil, extractError("policy "+side.name+": extraction failed", err)
	}
	r := svc.Score(findings, side.url)
	r.Meta.Hash = p.Hash
	r.Meta.Model = modelLabel(ex.Provider, ex.Settings.Model)
	return r, nil
}
