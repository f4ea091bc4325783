package extract

import (
	"strings"

	"github.com/dshills/evidentia/internal/report"
)

// GroundingViolation records a confirmed finding whose evidence quote does
// not occur in the policy text.
type GroundingViolation struct {
	Flag  string
	Quote string
}

// CheckGrounding returns a violation for every status-true finding whose
// evidence quote is missing or cannot be found in text. Matching ignores
// case and whitespace layout.
func CheckGrounding(text string, findings []report.Finding) []GroundingViolation {
	haystack := squash(text)
	var violations []GroundingViolation
	for _, f := range findings {
		if f.Status != report.StatusTrue {
			continue
		}
		q := squash(f.EvidenceQuote)
		if q == "" || !strings.Contains(haystack, q) {
			violations = append(violations, GroundingViolation{Flag: f.Flag, Quote: f.EvidenceQuote})
		}
	}
	return violations
}

// ApplyGroundingDowngrades demotes the flagged findings from true to
// unknown. Their confidence is left untouched.
func ApplyGroundingDowngrades(findings []report.Finding, violations []GroundingViolation) {
	if len(violations) == 0 {
		return
	}
	bad := make(map[string]bool, len(violations))
	for _, v := range violations {
		bad[v.Flag] = true
	}
	for i := range findings {
		if bad[findings[i].Flag] && findings[i].Status == report.StatusTrue {
			findings[i].Status = report.StatusUnknown
		}
	}
}

// squash lowercases s, collapses whitespace runs, and normalizes curly
// quotes so model paraphrases of punctuation still match.
func squash(s string) string {
	s = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`).Replace(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
