package render

import (
	"strings"
	"testing"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/taxonomy"
)

func sampleReport() *report.Report {
	r := report.Score(taxonomy.Default(), []report.Finding{
		{Flag: "sells_user_data", Label: "Sells user data", Category: "advertising", Status: report.StatusTrue, Confidence: 0.9, EvidenceQuote: "We may sell your information."},
		{Flag: "uses_cookies", Label: "Uses cookies", Category: "data_collection", Status: report.StatusUnknown, Confidence: 0.5},
		{Flag: "waives_rights", Category: "legal", Status: report.StatusFalse, Confidence: 1},
	})
	r.Meta.URL = "https://example.com/privacy"
	return &r
}

func TestMarkdownContainsSections(t *testing.T) {
	md := Markdown(taxonomy.Default(), sampleReport())

	checks := []string{
		"# Privacy Policy Risk Report",
		"**Policy:** https://example.com/privacy",
		"**Findings:** 1 risks, 1 unclear",
		"## Categories",
		"| advertising |",
		"## Risks",
		"### Sells user data [advertising]",
		"> We may sell your information.",
		"## Unclear",
		"### Uses cookies [data_collection]",
	}
	for _, c := range checks {
		if !strings.Contains(md, c) {
			t.Errorf("Markdown output missing: %q", c)
		}
	}
	if strings.Contains(md, "waives_rights") {
		t.Error("false findings should not be rendered")
	}
}

func TestMarkdownCategoryOrder(t *testing.T) {
	md := Markdown(taxonomy.Default(), sampleReport())
	prev := -1
	for _, c := range taxonomy.Default().Categories() {
		idx := strings.Index(md, "| "+c+" |")
		if idx < 0 {
			t.Fatalf("category %s missing", c)
		}
		if idx < prev {
			t.Errorf("category %s out of order", c)
		}
		prev = idx
	}
}

func TestMarkdownEmptyReport(t *testing.T) {
	r := report.Score(taxonomy.Default(), nil)
	md := Markdown(taxonomy.Default(), &r)
	if !strings.Contains(md, "No risks found.") {
		t.Error("expected 'No risks found.' for empty report")
	}
	if !strings.Contains(md, "**Risk score:** 0.00 / 100") {
		t.Error("expected zero score")
	}
}

func TestMarkdownDegraded(t *testing.T) {
	r := report.Score(taxonomy.Default(), nil)
	r.Meta.Degraded = true
	md := Markdown(taxonomy.Default(), &r)
	if !strings.Contains(md, "Extraction failed") {
		t.Error("degraded report should say so")
	}
}

func TestComparisonMarkdown(t *testing.T) {
	reg := taxonomy.Default()
	a := []report.Finding{
		{Flag: "sells_user_data", Label: "Sells user data", Category: "advertising", Status: report.StatusTrue, Confidence: 1},
		{Flag: "uses_cookies", Label: "Uses cookies", Category: "data_collection", Status: report.StatusTrue, Confidence: 1},
	}
	b := []report.Finding{
		{Flag: "uses_cookies", Label: "Uses cookies", Category: "data_collection", Status: report.StatusTrue, Confidence: 1},
	}
	ra, rb, cmp := report.CompareFindings(reg, a, b, report.CompareOptions{})
	md := ComparisonMarkdown(reg, &analysis.CompareResult{ReportA: &ra, ReportB: &rb, Comparison: cmp})

	checks := []string{
		"**Verdict:** Policy B is Safer",
		"## Common Risks\n\n- Uses cookies (data_collection)",
		"## Only in Policy A\n\n- Sells user data (advertising)",
		"## Only in Policy B\n\nNone.",
		"| URL | - | - |",
	}
	for _, c := range checks {
		if !strings.Contains(md, c) {
			t.Errorf("comparison output missing: %q", c)
		}
	}
}

func TestFlagsMarkdown(t *testing.T) {
	md := FlagsMarkdown(taxonomy.Default())
	if !strings.Contains(md, "| sells_user_data | advertising | Sells user data | 7 |") {
		t.Error("flag row missing")
	}
	if !strings.Contains(md, "Total possible score: 209") {
		t.Error("total missing")
	}
}
