package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultReference(t *testing.T) {
	r := Default()
	if r.Len() != 32 {
		t.Errorf("expected 32 flags, got %d", r.Len())
	}
	wantCats := []string{"data_collection", "advertising", "data_sharing", "sensitive_data", "user_rights", "legal", "extreme_cases"}
	cats := r.Categories()
	if len(cats) != len(wantCats) {
		t.Fatalf("expected %d categories, got %d", len(wantCats), len(cats))
	}
	for i, c := range wantCats {
		if cats[i] != c {
			t.Errorf("category %d: got %s, want %s", i, cats[i], c)
		}
	}
	if r.TotalPossibleScore() != 209 {
		t.Errorf("TotalPossibleScore() = %d, want 209", r.TotalPossibleScore())
	}
}

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default should return the same registry")
	}
}

func TestLookup(t *testing.T) {
	r := Default()
	f, ok := r.Lookup("sells_user_data")
	if !ok {
		t.Fatal("sells_user_data not found")
	}
	if f.Category != "advertising" || f.Weight != 7 || f.Label != "Sells user data" {
		t.Errorf("unexpected flag: %+v", f)
	}
	if _, ok := r.Lookup("not_a_real_flag"); ok {
		t.Error("expected unknown flag lookup to fail")
	}
	if r.Weight("not_a_real_flag") != 0 {
		t.Error("unknown flag should weigh 0")
	}
}

func TestTotalMatchesWeights(t *testing.T) {
	r := Default()
	sum := 0
	for _, f := range r.Flags() {
		sum += f.Weight
	}
	if sum != r.TotalPossibleScore() {
		t.Errorf("sum of weights %d != total %d", sum, r.TotalPossibleScore())
	}
}

func TestFlagsReturnsCopy(t *testing.T) {
	r := Default()
	flags := r.Flags()
	flags[0].Weight = 1000
	if r.Flags()[0].Weight == 1000 {
		t.Error("Flags should not expose internal state")
	}
}

func TestFlagsIn(t *testing.T) {
	r := Default()
	got := r.FlagsIn("extreme_cases")
	if len(got) != 3 {
		t.Fatalf("expected 3 extreme_cases flags, got %d", len(got))
	}
	if got[0].ID != "reidentifies_anonymous_data" {
		t.Errorf("unexpected first flag %s", got[0].ID)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		flags []Flag
		want  error
	}{
		{"empty", nil, ErrNoFlags},
		{"empty id", []Flag{{ID: " ", Category: "a"}}, ErrEmptyID},
		{"empty category", []Flag{{ID: "x"}}, ErrEmptyID},
		{"negative", []Flag{{ID: "x", Category: "a", Weight: -1}}, ErrNegativeWeight},
		{"duplicate", []Flag{{ID: "x", Category: "a"}, {ID: "x", Category: "b"}}, ErrDuplicateFlag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", tt.flags)
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDigest(t *testing.T) {
	flags := []Flag{{ID: "x", Category: "a", Label: "X", Weight: 2}, {ID: "y", Category: "a", Weight: 3}}
	a, err := New("custom", flags)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := New("other", flags)
	if a.Digest() != b.Digest() {
		t.Error("digest should not depend on the name")
	}

	reweighted := []Flag{{ID: "x", Category: "a", Label: "X", Weight: 2}, {ID: "y", Category: "a", Weight: 4}}
	c, _ := New("custom", reweighted)
	if a.Digest() == c.Digest() {
		t.Error("registries with different weights share a digest")
	}
	if Default().Digest() == a.Digest() || len(a.Digest()) != 16 {
		t.Errorf("unexpected digest %q", a.Digest())
	}
}

func TestNewLabelDefaultsToID(t *testing.T) {
	r, err := New("t", []Flag{{ID: "x", Category: "a", Weight: 2}})
	if err != nil {
		t.Fatal(err)
	}
	f, _ := r.Lookup("x")
	if f.Label != "x" {
		t.Errorf("label = %q, want x", f.Label)
	}
}

func TestParseAndLoad(t *testing.T) {
	data := []byte(`
name: small
categories:
  - id: a
    flags:
      - {id: f1, label: One, weight: 3}
      - {id: f2, label: Two, weight: 4}
  - id: b
    flags:
      - {id: f3, label: Three, weight: 5}
`)
	path := filepath.Join(t.TempDir(), "small.yaml")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatal(err)
	}
	r, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if r.Name() != "small" || r.Len() != 3 || r.TotalPossibleScore() != 12 {
		t.Errorf("unexpected registry: name=%s len=%d total=%d", r.Name(), r.Len(), r.TotalPossibleScore())
	}
	if f, _ := r.Lookup("f3"); f.Category != "b" {
		t.Errorf("f3 category = %s, want b", f.Category)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("categories: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestLoadBuiltinNotFound(t *testing.T) {
	_, err := LoadBuiltin("nonexistent")
	if !errors.Is(err, ErrUnknownTaxonomy) {
		t.Errorf("expected ErrUnknownTaxonomy, got %v", err)
	}
}

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, n := range names {
		if n == "reference" {
			found = true
		}
	}
	if !found {
		t.Error("reference taxonomy not listed")
	}
}
