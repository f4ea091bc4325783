package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.txt")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := "We collect cookies.\nWe sell data.\nContact us."
	path := writeTempFile(t, content)

	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(p.Hash, "sha256:") {
		t.Errorf("expected sha256 prefix, got %s", p.Hash)
	}
	if p.Text != content || p.Hash != Hash(content) {
		t.Error("content mismatch")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/policy.txt"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := writeTempFile(t, " \n\r\n\t")
	if _, err := Load(path); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\nb"},
		{"cr", "a\rb", "a\nb"},
		{"trailing space", "a  \t\nb ", "a\nb"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim", "\n\n  a\n\n", "a"},
		{"keeps single blank", "a\n\nb", "a\n\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHashIgnoresLayout(t *testing.T) {
	a, err := FromText("We sell data.\r\n\r\n\r\nContact us.  ", "https://a.example")
	if err != nil {
		t.Fatal(err)
	}
	b, err := FromText("We sell data.\n\nContact us.", "https://b.example")
	if err != nil {
		t.Fatal(err)
	}
	if a.Hash != b.Hash {
		t.Errorf("hashes differ: %s vs %s", a.Hash, b.Hash)
	}
	c, _ := FromText("We do not sell data.", "")
	if c.Hash == a.Hash {
		t.Error("different text should hash differently")
	}
}

func TestFromTextURL(t *testing.T) {
	p, err := FromText("text", "  https://example.com/privacy ")
	if err != nil {
		t.Fatal(err)
	}
	if p.URL != "https://example.com/privacy" {
		t.Errorf("URL = %q", p.URL)
	}
}

func TestExcerpt(t *testing.T) {
	p, _ := FromText("first line here\nsecond line here\nthird", "")

	got, cut := p.Excerpt(0)
	if cut || got != p.Text {
		t.Error("no limit should return the full text")
	}

	got, cut = p.Excerpt(20)
	if !cut {
		t.Error("expected truncation")
	}
	if got != "first line here" {
		t.Errorf("Excerpt(20) = %q", got)
	}

	got, cut = p.Excerpt(1000)
	if cut || got != p.Text {
		t.Error("large limit should return the full text")
	}
}
