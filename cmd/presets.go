package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/covidmap/internal/preset"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the built-in dashboard presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printPresets(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(presetsCmd)
}

func printPresets(w io.Writer) error {
	fmt.Fprintf(w, "%-6s %-40s %s\n", "Name", "Title", "Metrics")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, name := range preset.Names() {
		p, err := preset.Builtin(name)
		if err != nil {
			return err
		}
		keys := make([]string, len(p.Metrics))
		for i, m := range p.Metrics {
			keys[i] = m.Key
		}
		marker := ""
		if name == preset.Default {
			marker = " (default)"
		}
		fmt.Fprintf(w, "%-6s %-40s %s%s\n", name, p.Title.Text, strings.Join(keys, ", "), marker)
	}
	return nil
}
