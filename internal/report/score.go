package report

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/dshills/evidentia/internal/taxonomy"
)

// UnknownPenalty is the fraction of a flag's weight charged for an
// unconfirmed finding.
const UnknownPenalty = 0.25

// MaxScore is the ceiling of the normalized overall score.
const MaxScore = 100.0

// Score converts findings into a report. Unregistered flags and records
// without a flag or status contribute nothing. Category attribution always
// comes from the registry, never from the finding's own category field.
func Score(reg *taxonomy.Registry, findings []Finding) Report {
	if reg == nil {
		panic("report.Score: nil registry")
	}

	categories := make(map[string]float64, len(reg.Categories()))
	for _, c := range reg.Categories() {
		categories[c] = 0
	}

	var total float64
	for _, f := range findings {
		flag, ok := reg.Lookup(f.Flag)
		if !ok || f.Status == "" {
			continue
		}
		weight := float64(flag.Weight)
		switch f.Status {
		case StatusTrue:
			c := weight * clampConfidence(f.Confidence)
			total += c
			categories[flag.Category] += c
		case StatusUnknown:
			total += weight * UnknownPenalty
		}
	}

	var raw float64
	if possible := reg.TotalPossibleScore(); possible > 0 {
		raw = total / float64(possible) * 100
	}
	raw = math.Max(0, math.Min(raw, MaxScore))

	for c, v := range categories {
		categories[c] = Round2(v)
	}

	if findings == nil {
		findings = []Finding{}
	}
	return Report{
		OverallScore:   Round2(raw),
		CategoryScores: categories,
		Findings:       findings,
	}
}

// Contribution returns the unnormalized amount f adds to the overall total.
func Contribution(reg *taxonomy.Registry, f Finding) float64 {
	weight := float64(reg.Weight(f.Flag))
	switch f.Status {
	case StatusTrue:
		return weight * clampConfidence(f.Confidence)
	case StatusUnknown:
		return weight * UnknownPenalty
	}
	return 0
}

// Round2 rounds half away from zero to two decimal places.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func clampConfidence(c float64) float64 {
	switch {
	case math.IsNaN(c), c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}
