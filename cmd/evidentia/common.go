package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/dshills/evidentia/internal/extract"
	"github.com/dshills/evidentia/internal/llm"
	"github.com/dshills/evidentia/internal/observability"
	"github.com/dshills/evidentia/internal/report"
	"github.com/dshills/evidentia/internal/schema"
	"github.com/dshills/evidentia/internal/taxonomy"
)

// Exit codes.
const (
	exitThreshold = 2
	exitInput     = 3
	exitProvider  = 4
	exitUnusable  = 5
)

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

func verboseFunc(enabled bool) func(string, ...any) {
	logger := log.New(os.Stderr, "", 0)
	return func(msg string, args ...any) {
		if enabled {
			logger.Printf(msg, args...)
		}
	}
}

// cliLogger writes structured debug records to stderr when verbose is set.
func cliLogger(verbose bool) *slog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(observability.LogConfig{Level: level, Format: "text", Output: os.Stderr})
}

// loadRegistry accepts a builtin taxonomy name or a path to a YAML file.
func loadRegistry(nameOrPath string) (*taxonomy.Registry, error) {
	if nameOrPath == "" {
		return taxonomy.Default(), nil
	}
	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") || strings.ContainsRune(nameOrPath, os.PathSeparator) {
		return taxonomy.Load(nameOrPath)
	}
	return taxonomy.LoadBuiltin(nameOrPath)
}

// loadFindings reads a findings JSON file (envelope or bare array) and keeps
// the valid records.
func loadFindings(path string, reg *taxonomy.Registry, verbose func(string, ...any)) ([]report.Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, recordErrs, err := schema.DecodeFindings(data)
	if err != nil {
		return nil, err
	}
	findings, fieldErrs := schema.Sanitize(reg, raw)
	for _, e := range append(recordErrs, fieldErrs...) {
		if e.Kept {
			verbose("Adjusted %s", e)
			continue
		}
		verbose("Dropped %s", e)
	}
	return findings, nil
}

func resolveProvider(override llm.Provider, model string) (llm.Provider, error) {
	if override != nil {
		return override, nil
	}
	return llm.ResolveProvider(model)
}

// extractError maps extraction failures to exit codes.
func extractError(label string, err error) error {
	if errors.Is(err, extract.ErrUnusableOutput) {
		return exitError(exitUnusable, "%s: %v", label, err)
	}
	return exitError(exitProvider, "%s: %v", label, err)
}

func checkFormat(format string) error {
	switch format {
	case "json", "md":
		return nil
	}
	return exitError(exitInput, "unknown format: %s", format)
}

func writeOutput(path, output string, verbose func(string, ...any)) error {
	if path == "" {
		_, err := io.WriteString(stdout, output)
		return err
	}
	verbose("Writing output to %s", path)
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func modelLabel(p llm.Provider, model string) string {
	if model == "" {
		model = "(default)"
	}
	return p.Name() + "/" + model
}
