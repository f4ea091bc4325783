// Package taxonomy holds the fixed registry of risk flags, their categories,
// labels, and severity weights.
package taxonomy

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

var (
	ErrDuplicateFlag   = errors.New("duplicate flag id")
	ErrEmptyID         = errors.New("empty id")
	ErrNegativeWeight  = errors.New("negative weight")
	ErrNoFlags         = errors.New("taxonomy defines no flags")
	ErrUnknownTaxonomy = errors.New("unknown builtin taxonomy")
)

// Flag is a named risk indicator.
type Flag struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Label    string `json:"label"`
	Weight   int    `json:"weight"`
}

// Registry is an immutable, ordered set of flags. Safe for concurrent use.
type Registry struct {
	name       string
	flags      []Flag
	index      map[string]int
	categories []string
	total      int
	digest     string
}

type document struct {
	Name        string        `yaml:"name"`
	Version     int           `yaml:"version"`
	Description string        `yaml:"description"`
	Categories  []categoryDoc `yaml:"categories"`
}

type categoryDoc struct {
	ID    string    `yaml:"id"`
	Flags []flagDoc `yaml:"flags"`
}

type flagDoc struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label"`
	Weight int    `yaml:"weight"`
}

// New builds a registry from flags in declaration order. Categories are
// ordered by first appearance.
func New(name string, flags []Flag) (*Registry, error) {
	if len(flags) == 0 {
		return nil, ErrNoFlags
	}
	r := &Registry{
		name:  name,
		flags: make([]Flag, 0, len(flags)),
		index: make(map[string]int, len(flags)),
	}
	seenCat := make(map[string]bool)
	for i, f := range flags {
		f.ID = strings.TrimSpace(f.ID)
		f.Category = strings.TrimSpace(f.Category)
		switch {
		case f.ID == "":
			return nil, fmt.Errorf("taxonomy.New: flags[%d]: %w", i, ErrEmptyID)
		case f.Category == "":
			return nil, fmt.Errorf("taxonomy.New: flag %q category: %w", f.ID, ErrEmptyID)
		case f.Weight < 0:
			return nil, fmt.Errorf("taxonomy.New: flag %q: %w", f.ID, ErrNegativeWeight)
		}
		if _, dup := r.index[f.ID]; dup {
			return nil, fmt.Errorf("taxonomy.New: %w: %q", ErrDuplicateFlag, f.ID)
		}
		if f.Label == "" {
			f.Label = f.ID
		}
		r.index[f.ID] = len(r.flags)
		r.flags = append(r.flags, f)
		r.total += f.Weight
		if !seenCat[f.Category] {
			seenCat[f.Category] = true
			r.categories = append(r.categories, f.Category)
		}
	}
	h := sha256.New()
	for _, f := range r.flags {
		fmt.Fprintf(h, "%s\x00%s\x00%s\x00%d\n", f.ID, f.Category, f.Label, f.Weight)
	}
	r.digest = hex.EncodeToString(h.Sum(nil))[:16]
	return r, nil
}

// Parse decodes a YAML taxonomy document.
func Parse(data []byte) (*Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("taxonomy.Parse: %w", err)
	}
	var flags []Flag
	for _, c := range doc.Categories {
		for _, f := range c.Flags {
			flags = append(flags, Flag{ID: f.ID, Category: c.ID, Label: f.Label, Weight: f.Weight})
		}
	}
	name := doc.Name
	if name == "" {
		name = "custom"
	}
	return New(name, flags)
}

// Load reads a YAML taxonomy from disk.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Load: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy.Load %s: %w", path, err)
	}
	return r, nil
}

// LoadBuiltin loads an embedded taxonomy by name.
func LoadBuiltin(name string) (*Registry, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("taxonomy.LoadBuiltin: %w: %q", ErrUnknownTaxonomy, name)
	}
	return Parse(data)
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	r, err := LoadBuiltin("reference")
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded reference taxonomy is invalid: %v", err))
	}
	return r
})

// Default returns the embedded reference taxonomy.
func Default() *Registry {
	return defaultRegistry()
}

func (r *Registry) Name() string { return r.name }

// Digest identifies the registry's content. Registries with the same flags,
// labels, and weights share a digest regardless of name.
func (r *Registry) Digest() string { return r.digest }

// Len returns the number of flags.
func (r *Registry) Len() int { return len(r.flags) }

// Lookup returns the flag registered under id.
func (r *Registry) Lookup(id string) (Flag, bool) {
	i, ok := r.index[id]
	if !ok {
		return Flag{}, false
	}
	return r.flags[i], true
}

// Weight returns the severity weight of id, or 0 if it is not registered.
func (r *Registry) Weight(id string) int {
	if i, ok := r.index[id]; ok {
		return r.flags[i].Weight
	}
	return 0
}

// TotalPossibleScore is the sum of every registered weight.
func (r *Registry) TotalPossibleScore() int { return r.total }

// Flags returns a copy of the flags in declaration order.
func (r *Registry) Flags() []Flag {
	out := make([]Flag, len(r.flags))
	copy(out, r.flags)
	return out
}

// Categories returns the category ids in declaration order.
func (r *Registry) Categories() []string {
	out := make([]string, len(r.categories))
	copy(out, r.categories)
	return out
}

// FlagsIn returns the flags of one category in declaration order.
func (r *Registry) FlagsIn(category string) []Flag {
	var out []Flag
	for _, f := range r.flags {
		if f.Category == category {
			out = append(out, f)
		}
	}
	return out
}

// List returns the names of the embedded taxonomies.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if n := e.Name(); strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	return names, nil
}
