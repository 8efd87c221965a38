package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/dashboard"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the dashboard as static files",
	Long: `Builds the dashboard and writes a self-contained HTML page with the county
boundaries inlined. Optionally also writes the Plotly figure JSON and the
rankings page.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		htmlOut, _ := cmd.Flags().GetString("out")
		figureOut, _ := cmd.Flags().GetString("figure")
		rankingsOut, _ := cmd.Flags().GetString("rankings")

		d, err := buildDashboard(commandContext(cmd), cfg, "render", nil)
		if err != nil {
			return err
		}
		return writeArtifacts(d, htmlOut, figureOut, rankingsOut)
	},
}

func init() {
	renderCmd.Flags().StringP("out", "o", "dashboard.html", "HTML output path (empty to skip)")
	renderCmd.Flags().String("figure", "", "also write the figure JSON to this path")
	renderCmd.Flags().String("rankings", "", "also write the rankings page to this path")
	rootCmd.AddCommand(renderCmd)
}

func writeArtifacts(d *dashboard.Dashboard, htmlOut, figureOut, rankingsOut string) error {
	if htmlOut != "" {
		page, err := d.StaticHTML()
		if err != nil {
			return err
		}
		if err := writeOutput(htmlOut, page); err != nil {
			return err
		}
	}
	if figureOut != "" {
		fig, err := d.FigureJSON(true)
		if err != nil {
			return err
		}
		if err := writeOutput(figureOut, fig); err != nil {
			return err
		}
	}
	if rankingsOut != "" {
		if err := writeOutput(rankingsOut, d.RankingsHTML()); err != nil {
			return err
		}
	}
	return nil
}

func writeOutput(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "render: create %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "render: write %s", path)
	}
	zap.L().Info("wrote file", zap.String("path", path), zap.Int("bytes", len(data)))
	fmt.Println(path)
	return nil
}
