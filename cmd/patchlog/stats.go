package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/helixml/patchlog/domain/diffstat"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// statsOutput is the printed form of a diff's statistics.
type statsOutput struct {
	diffstat.Stats `yaml:",inline"`
	FileNames      []string `json:"fileNames" yaml:"fileNames"`
}

func statsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print statistics for a unified diff",
		Long: `Print line and file counts for a unified diff read from a file,
or from stdin when no file is given. Output is YAML unless --json is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open diff: %w", err)
				}
				defer func() { _ = f.Close() }()
				in = f
			}
			return runStats(in, cmd.OutOrStdout(), asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of YAML")

	return cmd
}

func runStats(in io.Reader, out io.Writer, asJSON bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read diff: %w", err)
	}

	diff := string(raw)
	result := statsOutput{
		Stats:     diffstat.Parse(diff),
		FileNames: diffstat.FileNames(diff),
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	return enc.Close()
}
