package report

import "strings"

// Status is the tri-state outcome of a finding.
type Status string

const (
	StatusTrue    Status = "true"
	StatusUnknown Status = "unknown"
	StatusFalse   Status = "false"
)

func (s Status) Valid() bool {
	switch s {
	case StatusTrue, StatusUnknown, StatusFalse:
		return true
	}
	return false
}

// ParseStatus normalizes case and surrounding space. The second result is
// false when the value is not a recognized status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	return s, s.Valid()
}

// Verdict is the human-readable comparison outcome.
type Verdict string

const (
	VerdictASafer Verdict = "Policy A is Safer"
	VerdictBSafer Verdict = "Policy B is Safer"
	VerdictTie    Verdict = "Tie"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictASafer, VerdictBSafer, VerdictTie:
		return true
	}
	return false
}

// Winner names the safer side of a comparison.
type Winner string

const (
	WinnerA   Winner = "A"
	WinnerB   Winner = "B"
	WinnerTie Winner = "Tie"
)

func (w Winner) Valid() bool {
	switch w {
	case WinnerA, WinnerB, WinnerTie:
		return true
	}
	return false
}
