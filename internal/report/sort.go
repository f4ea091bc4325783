package report

import (
	"sort"

	"github.com/dshills/evidentia/internal/taxonomy"
)

// SortByContribution orders findings by descending score contribution, then
// by registry order. Unregistered flags sort last.
func SortByContribution(reg *taxonomy.Registry, findings []Finding) {
	pos := make(map[string]int, reg.Len())
	for i, f := range reg.Flags() {
		pos[f.ID] = i
	}
	order := func(id string) int {
		if p, ok := pos[id]; ok {
			return p
		}
		return len(pos)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		ci := Contribution(reg, findings[i])
		cj := Contribution(reg, findings[j])
		if ci != cj {
			return ci > cj
		}
		return order(findings[i].Flag) < order(findings[j].Flag)
	})
}

// Risks returns the findings with status true.
func Risks(findings []Finding) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.Status == StatusTrue {
			out = append(out, f)
		}
	}
	return out
}
