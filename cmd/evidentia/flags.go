package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/evidentia/internal/render"
	"github.com/dshills/evidentia/internal/taxonomy"
)

type taxonomyOutput struct {
	Name               string          `json:"name"`
	TotalPossibleScore int             `json:"total_possible_score"`
	Flags              []taxonomy.Flag `json:"flags"`
}

func newFlagsCmd() *cobra.Command {
	var (
		format, name string
		list         bool
	)

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Print the risk flag taxonomy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if list {
				return runListTaxonomies(format)
			}
			return runFlags(name, format)
		},
	}
	cmd.Flags().StringVar(&format, "format", "md", "Output format: json or md")
	cmd.Flags().StringVar(&name, "taxonomy", "reference", "Builtin taxonomy name or YAML file")
	cmd.Flags().BoolVar(&list, "list", false, "List the builtin taxonomies instead")
	return cmd
}

func runListTaxonomies(format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	names, err := taxonomy.List()
	if err != nil {
		return fmt.Errorf("failed to list taxonomies: %w", err)
	}
	if format == "json" {
		data, err := json.Marshal(names)
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		return writeOutput("", string(data)+"\n", verboseFunc(false))
	}
	var b strings.Builder
	for _, n := range names {
		fmt.Fprintf(&b, "- %s\n", n)
	}
	return writeOutput("", b.String(), verboseFunc(false))
}

func runFlags(name, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	reg, err := loadRegistry(name)
	if err != nil {
		return exitError(exitInput, "failed to load taxonomy: %v", err)
	}

	var output string
	switch format {
	case "json":
		data, err := json.MarshalIndent(taxonomyOutput{
			Name:               reg.Name(),
			TotalPossibleScore: reg.TotalPossibleScore(),
			Flags:              reg.Flags(),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal output: %w", err)
		}
		output = string(data) + "\n"
	case "md":
		output = render.FlagsMarkdown(reg)
	}
	return writeOutput("", output, verboseFunc(false))
}
