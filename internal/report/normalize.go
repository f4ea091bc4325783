package report

import "github.com/dshills/evidentia/internal/taxonomy"

// DefaultConfidence is assigned to synthesized records for flags the
// extraction step did not report.
const DefaultConfidence = 0.5

// Normalize returns exactly one finding per registered flag, in registry
// order. The first input finding for a flag is kept verbatim; missing flags
// get an unknown record filled from the registry.
func Normalize(reg *taxonomy.Registry, findings []Finding) []Finding {
	if reg == nil {
		panic("report.Normalize: nil registry")
	}

	byFlag := make(map[string]Finding, len(findings))
	for _, f := range findings {
		if _, seen := byFlag[f.Flag]; !seen {
			byFlag[f.Flag] = f
		}
	}

	out := make([]Finding, 0, reg.Len())
	for _, flag := range reg.Flags() {
		if f, ok := byFlag[flag.ID]; ok {
			out = append(out, f)
			continue
		}
		out = append(out, Finding{
			Flag:       flag.ID,
			Label:      flag.Label,
			Category:   flag.Category,
			Status:     StatusUnknown,
			Confidence: DefaultConfidence,
		})
	}
	return out
}
