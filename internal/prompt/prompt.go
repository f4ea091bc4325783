// Package prompt builds the model prompt for finding extraction.
package prompt

import (
	"fmt"
	"strings"

	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/schema"
	"github.com/dshills/evidentia/internal/taxonomy"
)

// DefaultMaxPolicyChars caps the policy text embedded in the prompt.
const DefaultMaxPolicyChars = 60000

// BuildOpts configures prompt construction.
type BuildOpts struct {
	Policy   *policy.Policy
	Registry *taxonomy.Registry
	// MaxPolicyChars limits the embedded policy text; 0 uses the default,
	// negative disables the limit.
	MaxPolicyChars int
}

// Build assembles the extraction prompt.
func Build(opts BuildOpts) string {
	var b strings.Builder

	// 1. System preamble
	b.WriteString(`You are a privacy-policy analyst. Your task is to read a privacy policy and report which of the listed risk flags it exhibits.

You MUST output ONLY valid JSON matching the schema below. No markdown, no prose outside JSON.

`)

	// 2. Schema definition
	b.WriteString(schemaDefinition)
	b.WriteString("\n\n")

	// 3. Rules
	b.WriteString(`## Rules

1. Use ONLY flag ids from the taxonomy below. Never invent new flags.
2. Report a flag with status "true" only when the policy text clearly states the practice, and quote the sentence in evidence_quote.
3. Use status "unknown" when the policy is ambiguous or only hints at the practice.
4. Omit flags the policy does not mention. Silence means the practice was not found.
5. Report each flag at most once.
6. confidence is a number between 0 and 1 expressing how certain the evidence is.
7. Do not compute any score. Scoring happens elsewhere.

`)

	// 4. Taxonomy
	if opts.Registry != nil {
		b.WriteString(FormatTaxonomy(opts.Registry))
		b.WriteString("\n")
	}

	// 5. Policy
	if opts.Policy != nil {
		limit := opts.MaxPolicyChars
		if limit == 0 {
			limit = DefaultMaxPolicyChars
		}
		text, truncated := opts.Policy.Excerpt(limit)
		if opts.Policy.URL != "" {
			fmt.Fprintf(&b, "<policy url=%q>\n%s\n</policy>\n", opts.Policy.URL, text)
		} else {
			fmt.Fprintf(&b, "<policy>\n%s\n</policy>\n", text)
		}
		if truncated {
			b.WriteString("\nThe policy was truncated. Judge only the text shown.\n")
		}
	}

	return b.String()
}

// FormatTaxonomy renders every flag grouped by category.
func FormatTaxonomy(reg *taxonomy.Registry) string {
	var b strings.Builder
	b.WriteString("## Taxonomy\n\n")
	for _, cat := range reg.Categories() {
		fmt.Fprintf(&b, "### %s\n", cat)
		for _, f := range reg.FlagsIn(cat) {
			fmt.Fprintf(&b, "- %s: %s\n", f.ID, f.Label)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// BuildRepair constructs a follow-up prompt asking the model to fix output
// that could not be decoded.
func BuildRepair(originalOutput string, errors []schema.ValidationError) string {
	var b strings.Builder
	b.WriteString("The JSON output you returned could not be used. Fix ONLY the errors listed below and return the corrected JSON.\n\n")
	b.WriteString("## Errors\n\n")
	for _, e := range errors {
		fmt.Fprintf(&b, "- %s: %s\n", e.Path, e.Message)
	}
	b.WriteString("\n## Original Output\n\n```json\n")
	b.WriteString(originalOutput)
	b.WriteString("\n```\n\nReturn ONLY the corrected JSON. No prose.\n")
	return b.String()
}

const schemaDefinition = `## Output JSON Schema

{
  "findings": [{
    "flag": string (taxonomy flag id),
    "label": string,
    "category": string (taxonomy category id),
    "status": "true" | "unknown",
    "confidence": number (0-1),
    "evidence_quote": string
  }]
}`
