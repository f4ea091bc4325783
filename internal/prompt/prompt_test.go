package prompt

import (
	"strings"
	"testing"

	"github.com/dshills/evidentia/internal/policy"
	"github.com/dshills/evidentia/internal/schema"
	"github.com/dshills/evidentia/internal/taxonomy"
)

func mustPolicy(t *testing.T, text, url string) *policy.Policy {
	t.Helper()
	p, err := policy.FromText(text, url)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestBuild(t *testing.T) {
	p := mustPolicy(t, "We sell your data to partners.", "https://example.com/privacy")
	text := Build(BuildOpts{Policy: p, Registry: taxonomy.Default()})

	checks := []string{
		"privacy-policy analyst",
		"ONLY valid JSON",
		`"findings"`,
		"## Taxonomy",
		"### advertising",
		"- sells_user_data: Sells user data",
		"- life_control_technology:",
		`<policy url="https://example.com/privacy">`,
		"We sell your data to partners.",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Contains(text, "truncated") {
		t.Error("short policy should not be marked truncated")
	}
}

func TestBuildWithoutURL(t *testing.T) {
	text := Build(BuildOpts{Policy: mustPolicy(t, "text", "")})
	if !strings.Contains(text, "<policy>\ntext\n</policy>") {
		t.Error("policy block missing")
	}
}

func TestBuildTruncates(t *testing.T) {
	long := strings.Repeat("We collect cookies.\n", 100)
	text := Build(BuildOpts{Policy: mustPolicy(t, long, ""), MaxPolicyChars: 50})
	if !strings.Contains(text, "The policy was truncated") {
		t.Error("expected truncation notice")
	}
	if strings.Count(text, "We collect cookies.") > 3 {
		t.Error("policy text not truncated")
	}
}

func TestFormatTaxonomyCoversEveryFlag(t *testing.T) {
	reg := taxonomy.Default()
	text := FormatTaxonomy(reg)
	for _, f := range reg.Flags() {
		if !strings.Contains(text, "- "+f.ID+": ") {
			t.Errorf("taxonomy text missing %s", f.ID)
		}
	}
}

func TestBuildRepair(t *testing.T) {
	errs := []schema.ValidationError{
		{Path: "$", Message: "invalid character 'x'"},
	}
	text := BuildRepair(`{"broken": true`, errs)
	if !strings.Contains(text, "invalid character") {
		t.Error("repair prompt missing error message")
	}
	if !strings.Contains(text, `{"broken": true`) {
		t.Error("repair prompt missing original output")
	}
}
