// Package report defines findings, scored reports, and policy comparisons,
// along with the deterministic scoring, normalization, and diff logic.
package report

// Finding is one observed instance of a taxonomy flag.
type Finding struct {
	Flag          string  `json:"flag"`
	Label         string  `json:"label"`
	Category      string  `json:"category"`
	Status        Status  `json:"status"`
	Confidence    float64 `json:"confidence"`
	EvidenceQuote string  `json:"evidence_quote,omitempty"`
	URL           string  `json:"url,omitempty"`
}

// Report is the scored result for one policy.
type Report struct {
	OverallScore   float64            `json:"overall_score"`
	CategoryScores map[string]float64 `json:"category_scores"`
	Findings       []Finding          `json:"findings"`
	Meta           Meta               `json:"meta"`
}

// Meta records where a report came from.
type Meta struct {
	URL      string `json:"url"`
	Hash     string `json:"hash,omitempty"`
	Model    string `json:"model,omitempty"`
	Degraded bool   `json:"degraded,omitempty"`
	Cached   bool   `json:"cached,omitempty"`
}

// Comparison is the structured delta between two scored policies.
type Comparison struct {
	Verdict     Verdict   `json:"verdict"`
	Winner      Winner    `json:"winner"`
	ScoreDiff   float64   `json:"score_diff"`
	CommonRisks []Finding `json:"common_risks"`
	UniqueToA   []Finding `json:"unique_to_A"`
	UniqueToB   []Finding `json:"unique_to_B"`
}
