// Package schema validates findings that arrive from outside the core
// (model output, request bodies, findings files) before they are scored.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/taxonomy"
)

// ValidationError describes a dropped record, or a kept record whose value
// was corrected when Kept is set.
type ValidationError struct {
	Path    string
	Message string
	Kept    bool
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// RawFinding mirrors the wire shape of a finding with every field optional,
// so missing values can be told apart from zero values.
type RawFinding struct {
	Flag          *string  `json:"flag"`
	Label         *string  `json:"label"`
	Category      *string  `json:"category"`
	Status        *Status  `json:"status"`
	Confidence    *float64 `json:"confidence"`
	EvidenceQuote *string  `json:"evidence_quote"`
	URL           *string  `json:"url"`
}

// Status accepts both "true"/"false"/"unknown" strings and JSON booleans,
// which some models emit despite instructions.
type Status string

func (s *Status) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		if b {
			*s = Status(report.StatusTrue)
		} else {
			*s = Status(report.StatusFalse)
		}
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("status must be a string or boolean")
	}
	*s = Status(str)
	return nil
}

type envelope struct {
	Findings []json.RawMessage `json:"findings"`
}

// DecodeFindings parses either {"findings": [...]} or a bare array. The
// document itself must be valid JSON; individual records that fail to decode
// are reported and skipped.
func DecodeFindings(data []byte) ([]RawFinding, []ValidationError, error) {
	trimmed := bytes.TrimSpace(data)
	var items []json.RawMessage
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, nil, fmt.Errorf("schema.DecodeFindings: %w", err)
		}
	default:
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, nil, fmt.Errorf("schema.DecodeFindings: %w", err)
		}
		items = env.Findings
	}

	var (
		out  []RawFinding
		errs []ValidationError
	)
	for i, item := range items {
		var rf RawFinding
		if err := json.Unmarshal(item, &rf); err != nil {
			errs = append(errs, ValidationError{Path: fmt.Sprintf("findings[%d]", i), Message: err.Error()})
			continue
		}
		out = append(out, rf)
	}
	return out, errs, nil
}

// Sanitize converts raw records into findings, dropping every record that
// references an unregistered flag or is missing a required field. A
// confidence outside [0,1] is clamped and reported with Kept set. Empty
// label and category are filled from the registry for display.
func Sanitize(reg *taxonomy.Registry, raw []RawFinding) ([]report.Finding, []ValidationError) {
	out := make([]report.Finding, 0, len(raw))
	var errs []ValidationError
	for i, rf := range raw {
		f, verrs, note := sanitizeOne(reg, fmt.Sprintf("findings[%d]", i), rf)
		if len(verrs) > 0 {
			errs = append(errs, verrs...)
			continue
		}
		if note != nil {
			errs = append(errs, *note)
		}
		out = append(out, f)
	}
	return out, errs
}

func sanitizeOne(reg *taxonomy.Registry, prefix string, rf RawFinding) (report.Finding, []ValidationError, *ValidationError) {
	var (
		errs []ValidationError
		note *ValidationError
	)

	var flag taxonomy.Flag
	switch id := deref(rf.Flag); {
	case id == "":
		errs = append(errs, ValidationError{Path: prefix + ".flag", Message: "required"})
	default:
		var ok bool
		if flag, ok = reg.Lookup(id); !ok {
			errs = append(errs, ValidationError{Path: prefix + ".flag", Message: fmt.Sprintf("unknown flag: %q", id)})
		}
	}

	var status report.Status
	if rf.Status == nil || strings.TrimSpace(string(*rf.Status)) == "" {
		errs = append(errs, ValidationError{Path: prefix + ".status", Message: "required"})
	} else {
		var ok bool
		if status, ok = report.ParseStatus(string(*rf.Status)); !ok {
			errs = append(errs, ValidationError{Path: prefix + ".status", Message: fmt.Sprintf("invalid: %q", *rf.Status)})
		}
	}

	var confidence float64
	switch {
	case rf.Confidence == nil:
		errs = append(errs, ValidationError{Path: prefix + ".confidence", Message: "required"})
	case math.IsNaN(*rf.Confidence):
		errs = append(errs, ValidationError{Path: prefix + ".confidence", Message: "not a number"})
	case *rf.Confidence < 0 || *rf.Confidence > 1:
		confidence = math.Min(1, math.Max(0, *rf.Confidence))
		note = &ValidationError{
			Path:    prefix + ".confidence",
			Message: fmt.Sprintf("clamped %v to %v", *rf.Confidence, confidence),
			Kept:    true,
		}
	default:
		confidence = *rf.Confidence
	}

	if len(errs) > 0 {
		return report.Finding{}, errs, nil
	}

	f := report.Finding{
		Flag:          flag.ID,
		Label:         deref(rf.Label),
		Category:      deref(rf.Category),
		Status:        status,
		Confidence:    confidence,
		EvidenceQuote: strings.TrimSpace(deref(rf.EvidenceQuote)),
		URL:           deref(rf.URL),
	}
	if f.Label == "" {
		f.Label = flag.Label
	}
	if f.Category == "" {
		f.Category = flag.Category
	}
	return f, nil, note
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
