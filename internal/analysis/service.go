// Package analysis orchestrates extraction, scoring, caching, and comparison
// of privacy policies.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/evidentia/internal/cache"
	"github.com/dshills/evidentia/internal/observability"
	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/taxonomy"
)

// ErrEmptyText is returned when a request carries no policy text.
var ErrEmptyText = errors.New("policy text is empty")

// Extractor produces findings for a policy.
type Extractor interface {
	Extract(ctx context.Context, p *policy.Policy) ([]report.Finding, error)
}

// Config wires a Service. Registry is required; without an Extractor only
// Score is usable.
type Config struct {
	Registry  *taxonomy.Registry
	Extractor Extractor
	Cache     cache.Cache
	Metrics   *observability.Metrics
	Logger    *slog.Logger
	// Model is recorded in report metadata.
	Model string
	// CompleteFindings lists every registered flag in the output, filling
	// unreported ones with unknown placeholders. Scores are unaffected.
	CompleteFindings bool
	// LoadTimeout bounds one shared extraction. It outlives the request
	// that started it so concurrent identical requests still get a result.
	LoadTimeout time.Duration
}

// Service is safe for concurrent use.
type Service struct {
	reg      *taxonomy.Registry
	ex       Extractor
	loader   *cache.Loader
	metrics  *observability.Metrics
	logger   *slog.Logger
	model    string
	complete bool
}

type AnalyzeRequest struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

type CompareRequest struct {
	TextA string `json:"textA"`
	TextB string `json:"textB"`
	URLA  string `json:"urlA,omitempty"`
	URLB  string `json:"urlB,omitempty"`
	// IncludeUnknown counts unknown findings as risks in the comparison lists.
	IncludeUnknown bool `json:"includeUnknown,omitempty"`
}

type CompareResult struct {
	ReportA    *report.Report    `json:"reportA"`
	ReportB    *report.Report    `json:"reportB"`
	Comparison report.Comparison `json:"comparison"`
}

// ErrNoExtractor is returned by Analyze and Compare on a scoring-only
// service.
var ErrNoExtractor = errors.New("no extractor configured")

// New builds a service. It panics when Registry is missing.
func New(cfg Config) *Service {
	if cfg.Registry == nil {
		panic("analysis.New: registry is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		reg:      cfg.Registry,
		ex:       cfg.Extractor,
		loader:   cache.NewLoader(cfg.Cache, cfg.LoadTimeout, logger),
		metrics:  cfg.Metrics,
		logger:   logger,
		model:    cfg.Model,
		complete: cfg.CompleteFindings,
	}
}

// Registry returns the taxonomy the service scores against.
func (s *Service) Registry() *taxonomy.Registry { return s.reg }

// Analyze extracts and scores one policy. A failed extraction yields an empty
// report marked degraded rather than an error; only empty input and context
// cancellation are returned as errors.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (*report.Report, error) {
	if strings.TrimSpace(req.Text) == "" {
		return nil, ErrEmptyText
	}
	if s.ex == nil {
		return nil, ErrNoExtractor
	}
	p, err := policy.FromText(req.Text, req.URL)
	if err != nil {
		if errors.Is(err, policy.ErrEmpty) {
			return nil, ErrEmptyText
		}
		return nil, fmt.Errorf("analysis.Analyze: %w", err)
	}

	r, hit, err := s.loader.Load(ctx, s.cacheKey(p), func(ctx context.Context) (*report.Report, bool, error) {
		return s.compute(ctx, p)
	})
	if err != nil {
		s.metrics.ObserveAnalysis(observability.OutcomeError, 0)
		return nil, fmt.Errorf("analysis.Analyze: %w", err)
	}

	r.Meta.URL = req.URL
	r.Meta.Cached = hit
	for i := range r.Findings {
		r.Findings[i].URL = req.URL
	}
	if s.complete {
		r.Findings = report.Normalize(s.reg, r.Findings)
	}

	outcome := observability.OutcomeOK
	switch {
	case r.Meta.Degraded:
		outcome = observability.OutcomeDegraded
	case hit:
		outcome = observability.OutcomeCached
	}
	s.metrics.ObserveAnalysis(outcome, r.OverallScore)
	s.logger.Info("policy analyzed",
		"hash", p.Hash,
		"score", r.OverallScore,
		"findings", len(r.Findings),
		"cached", hit,
		"degraded", r.Meta.Degraded,
	)
	return r, nil
}

// cacheKey separates reports built against different taxonomy content or
// extraction settings, so replicas sharing a cache never serve each other's
// results.
func (s *Service) cacheKey(p *policy.Policy) string {
	variant := s.model
	if v, ok := s.ex.(interface{ Variant() string }); ok {
		variant = v.Variant()
	}
	return s.reg.Digest() + "|" + variant + "|" + p.Hash
}

// compute runs the extractor and scores its findings. The bool result reports
// whether the report may be cached.
func (s *Service) compute(ctx context.Context, p *policy.Policy) (*report.Report, bool, error) {
	start := time.Now()
	findings, err := s.ex.Extract(ctx, p)
	s.metrics.ObserveExtract(time.Since(start))
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.logger.Warn("extraction failed, returning empty report", "hash", p.Hash, "error", err)
		r := report.Score(s.reg, nil)
		r.Meta = report.Meta{Hash: p.Hash, Model: s.model, Degraded: true}
		return &r, false, nil
	}

	r := report.Score(s.reg, findings)
	report.SortByContribution(s.reg, r.Findings)
	r.Meta = report.Meta{Hash: p.Hash, Model: s.model}
	return &r, true, nil
}

// Compare analyzes both policies concurrently and reconciles the results.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*CompareResult, error) {
	if strings.TrimSpace(req.TextA) == "" || strings.TrimSpace(req.TextB) == "" {
		return nil, ErrEmptyText
	}

	var ra, rb *report.Report
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ra, err = s.Analyze(gctx, AnalyzeRequest{Text: req.TextA, URL: req.URLA})
		return err
	})
	g.Go(func() error {
		var err error
		rb, err = s.Analyze(gctx, AnalyzeRequest{Text: req.TextB, URL: req.URLB})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cmp := report.Compare(s.reg, *ra, *rb, report.CompareOptions{IncludeUnknown: req.IncludeUnknown})
	s.metrics.ObserveComparison()
	return &CompareResult{ReportA: ra, ReportB: rb, Comparison: cmp}, nil
}

// Score builds a report from findings that were extracted elsewhere.
func (s *Service) Score(findings []report.Finding, url string) *report.Report {
	r := report.Score(s.reg, slices.Clone(findings))
	report.SortByContribution(s.reg, r.Findings)
	r.Meta = report.Meta{URL: url}
	if s.complete {
		r.Findings = report.Normalize(s.reg, r.Findings)
	}
	return &r
}
