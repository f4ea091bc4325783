package report

import (
	"math"

	"github.com/dshills/evidentia/internal/taxonomy"
)

// CompareOptions tunes which findings count as risks.
type CompareOptions struct {
	// IncludeUnknown treats unknown findings as risks for display. Scoring is
	// unaffected.
	IncludeUnknown bool
}

// Compare reconciles two scored reports. Findings are partitioned by flag id
// in registry order; flags outside the registry are ignored. When a side lists
// a flag more than once, its last record wins.
func Compare(reg *taxonomy.Registry, a, b Report, opts CompareOptions) Comparison {
	if reg == nil {
		panic("report.Compare: nil registry")
	}

	byFlagA := indexByFlag(a.Findings)
	byFlagB := indexByFlag(b.Findings)

	cmp := Comparison{
		CommonRisks: []Finding{},
		UniqueToA:   []Finding{},
		UniqueToB:   []Finding{},
	}
	for _, flag := range reg.Flags() {
		fa, okA := byFlagA[flag.ID]
		fb, okB := byFlagB[flag.ID]
		riskA := okA && opts.isRisk(fa)
		riskB := okB && opts.isRisk(fb)

		switch {
		case riskA && riskB:
			cmp.CommonRisks = append(cmp.CommonRisks, fa)
		case riskA:
			cmp.UniqueToA = append(cmp.UniqueToA, fa)
		case riskB:
			cmp.UniqueToB = append(cmp.UniqueToB, fb)
		}
	}

	cmp.Verdict, cmp.Winner = verdict(a.OverallScore, b.OverallScore)
	cmp.ScoreDiff = Round2(math.Abs(a.OverallScore - b.OverallScore))
	return cmp
}

// CompareFindings scores both finding lists and compares the results.
func CompareFindings(reg *taxonomy.Registry, a, b []Finding, opts CompareOptions) (Report, Report, Comparison) {
	ra := Score(reg, a)
	rb := Score(reg, b)
	return ra, rb, Compare(reg, ra, rb, opts)
}

// A higher score means more risk, so the lower-scoring side is safer.
func verdict(scoreA, scoreB float64) (Verdict, Winner) {
	switch {
	case scoreA > scoreB:
		return VerdictBSafer, WinnerB
	case scoreB > scoreA:
		return VerdictASafer, WinnerA
	}
	return VerdictTie, WinnerTie
}

func (o CompareOptions) isRisk(f Finding) bool {
	return f.Status == StatusTrue || (o.IncludeUnknown && f.Status == StatusUnknown)
}

func indexByFlag(findings []Finding) map[string]Finding {
	m := make(map[string]Finding, len(findings))
	for _, f := range findings {
		m[f.Flag] = f
	}
	return m
}
