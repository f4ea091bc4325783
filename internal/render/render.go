// Package render produces Markdown output from reports and comparisons.
package render

import (
	"fmt"
	"strings"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/taxonomy"
)

// Markdown renders a scored report. Findings are grouped by status, risks
// first, in the order they appear in r.
func Markdown(reg *taxonomy.Registry, r *report.Report) string {
	var b strings.Builder

	b.WriteString("# Privacy Policy Risk Report\n\n")
	if r.Meta.URL != "" {
		fmt.Fprintf(&b, "**Policy:** %s\n", r.Meta.URL)
	}
	fmt.Fprintf(&b, "**Risk score:** %.2f / 100\n", r.OverallScore)
	fmt.Fprintf(&b, "**Findings:** %d risks, %d unclear\n\n",
		countStatus(r.Findings, report.StatusTrue), countStatus(r.Findings, report.StatusUnknown))
	if r.Meta.Degraded {
		b.WriteString("> Extraction failed. This report is empty and the score is not meaningful.\n\n")
	}

	renderCategoryTable(&b, reg, r.CategoryScores)

	risks := filterFindings(r.Findings, report.StatusTrue)
	unknowns := filterFindings(r.Findings, report.StatusUnknown)

	if len(risks) > 0 {
		b.WriteString("## Risks\n\n")
		for _, f := range risks {
			renderFinding(&b, f)
		}
	}

	if len(unknowns) > 0 {
		b.WriteString("## Unclear\n\n")
		for _, f := range unknowns {
			renderFinding(&b, f)
		}
	}

	if len(risks) == 0 && len(unknowns) == 0 {
		b.WriteString("No risks found.\n\n")
	}

	return b.String()
}

// ComparisonMarkdown renders a side-by-side comparison.
func ComparisonMarkdown(reg *taxonomy.Registry, res *analysis.CompareResult) string {
	var b strings.Builder
	cmp := res.Comparison

	b.WriteString("# Privacy Policy Comparison\n\n")
	fmt.Fprintf(&b, "**Verdict:** %s\n", cmp.Verdict)
	fmt.Fprintf(&b, "**Score difference:** %.2f\n\n", cmp.ScoreDiff)

	b.WriteString("| | Policy A | Policy B |\n|---|---|---|\n")
	fmt.Fprintf(&b, "| URL | %s | %s |\n", orDash(res.ReportA.Meta.URL), orDash(res.ReportB.Meta.URL))
	fmt.Fprintf(&b, "| Risk score | %.2f | %.2f |\n", res.ReportA.OverallScore, res.ReportB.OverallScore)
	for _, c := range reg.Categories() {
		fmt.Fprintf(&b, "| %s | %.2f | %.2f |\n", c, res.ReportA.CategoryScores[c], res.ReportB.CategoryScores[c])
	}
	b.WriteString("\n")

	renderList(&b, "Common Risks", cmp.CommonRisks)
	renderList(&b, "Only in Policy A", cmp.UniqueToA)
	renderList(&b, "Only in Policy B", cmp.UniqueToB)

	return b.String()
}

// FlagsMarkdown renders the taxonomy as a table.
func FlagsMarkdown(reg *taxonomy.Registry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Taxonomy: %s\n\n", reg.Name())
	fmt.Fprintf(&b, "Total possible score: %d\n\n", reg.TotalPossibleScore())
	b.WriteString("| Flag | Category | Label | Weight |\n|---|---|---|---|\n")
	for _, f := range reg.Flags() {
		fmt.Fprintf(&b, "| %s | %s | %s | %d |\n", f.ID, f.Category, f.Label, f.Weight)
	}
	return b.String()
}

func renderCategoryTable(b *strings.Builder, reg *taxonomy.Registry, scores map[string]float64) {
	b.WriteString("## Categories\n\n| Category | Score |\n|---|---|\n")
	for _, c := range reg.Categories() {
		fmt.Fprintf(b, "| %s | %.2f |\n", c, scores[c])
	}
	b.WriteString("\n")
}

func renderFinding(b *strings.Builder, f report.Finding) {
	fmt.Fprintf(b, "### %s [%s]\n\n", labelOf(f), f.Category)
	fmt.Fprintf(b, "Confidence: %.2f\n\n", f.Confidence)
	if f.EvidenceQuote != "" {
		fmt.Fprintf(b, "> %s\n\n", f.EvidenceQuote)
	}
}

func renderList(b *strings.Builder, title string, findings []report.Finding) {
	fmt.Fprintf(b, "## %s\n\n", title)
	if len(findings) == 0 {
		b.WriteString("None.\n\n")
		return
	}
	for _, f := range findings {
		fmt.Fprintf(b, "- %s (%s)\n", labelOf(f), f.Category)
	}
	b.WriteString("\n")
}

func filterFindings(findings []report.Finding, st report.Status) []report.Finding {
	var result []report.Finding
	for _, f := range findings {
		if f.Status == st {
			result = append(result, f)
		}
	}
	return result
}

func countStatus(findings []report.Finding, st report.Status) int {
	return len(filterFindings(findings, st))
}

func labelOf(f report.Finding) string {
	if f.Label != "" {
		return f.Label
	}
	return f.Flag
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
