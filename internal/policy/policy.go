// Package policy handles reading, normalizing, and hashing policy documents.
package policy

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ErrEmpty is returned when a document has no text after normalization.
var ErrEmpty = errors.New("policy text is empty")

// Policy holds one privacy-policy document.
type Policy struct {
	URL  string
	Text string // normalized
	Hash string // sha256 of Text
}

// Load reads a policy file. A path of "-" reads from stdin.
func Load(path string) (*Policy, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("policy.Load: %w", err)
	}
	p, err := FromText(string(data), "")
	if err != nil {
		return nil, fmt.Errorf("policy.Load %s: %w", path, err)
	}
	return p, nil
}

// FromText builds a policy from inline text.
func FromText(raw, url string) (*Policy, error) {
	text := Normalize(raw)
	if text == "" {
		return nil, ErrEmpty
	}
	return &Policy{
		URL:  strings.TrimSpace(url),
		Text: text,
		Hash: Hash(text),
	}, nil
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Normalize converts line endings, strips trailing whitespace on each line,
// collapses runs of blank lines, and trims the document. Two copies of a
// policy that differ only in layout normalize to the same text.
func Normalize(raw string) string {
	if !utf8.ValidString(raw) {
		raw = strings.ToValidUTF8(raw, "\uFFFD")
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\u00a0")
	}
	text := strings.Join(lines, "\n")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Hash returns the content hash used as a cache key.
func Hash(text string) string {
	h := sha256.Sum256([]byte(text))
	return fmt.Sprintf("sha256:%x", h)
}

// Excerpt returns at most maxRunes runes of the normalized text, cut at a
// line boundary when possible. The second result reports whether anything
// was dropped. maxRunes <= 0 means no limit.
func (p *Policy) Excerpt(maxRunes int) (string, bool) {
	if maxRunes <= 0 || utf8.RuneCountInString(p.Text) <= maxRunes {
		return p.Text, false
	}
	runes := []rune(p.Text)
	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, "\n"); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut, true
}
