package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "covidmap",
	Short: "County COVID-19 and election choropleth dashboard",
	Long: `Builds an interactive choropleth dashboard of county-level COVID-19 cases and
deaths alongside election results, from a CSV, XLSX, Postgres, or SQLite extract
and a county GeoJSON boundary file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlagOverrides(cmd, c)
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("source", "", "tabular extract: CSV/XLSX path or URL, or SQLite file")
	pf.String("database-url", "", "Postgres connection string for the covid/politics database")
	pf.String("preset", "", "built-in dashboard preset (0.9 or 0.7)")
	pf.String("preset-file", "", "custom preset YAML file")
	pf.String("boundaries", "", "county GeoJSON path")
}

// applyFlagOverrides copies explicitly set persistent flags over the loaded
// configuration.
func applyFlagOverrides(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if f := flags.Lookup("source"); f != nil && f.Changed {
		c.Source.Path = f.Value.String()
	}
	if f := flags.Lookup("database-url"); f != nil && f.Changed {
		c.Source.DatabaseURL = f.Value.String()
		if c.Source.Kind == "" {
			c.Source.Kind = "postgres"
		}
	}
	if f := flags.Lookup("preset"); f != nil && f.Changed {
		c.Dashboard.Preset = f.Value.String()
	}
	if f := flags.Lookup("preset-file"); f != nil && f.Changed {
		c.Dashboard.PresetFile = f.Value.String()
	}
	if f := flags.Lookup("boundaries"); f != nil && f.Changed {
		c.Boundaries.Path = f.Value.String()
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
