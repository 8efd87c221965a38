package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/pipeline"
	"github.com/sells-group/covidmap/internal/tiger"
)

var boundariesCmd = &cobra.Command{
	Use:   "boundaries",
	Short: "Prepare county boundary files",
}

var boundariesTigerCmd = &cobra.Command{
	Use:   "tiger",
	Short: "Convert the Census TIGER/Line county shapefile to GeoJSON",
	Long: `Downloads the national TIGER/Line county shapefile for a year, or reads a local
one, and writes a GeoJSON FeatureCollection whose feature ids are the 5-digit
county GEOIDs. Point boundaries.path at the output to use it.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(commandContext(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("boundaries"); err != nil {
			return err
		}

		year, _ := cmd.Flags().GetInt("year")
		out, _ := cmd.Flags().GetString("out")
		shpPath, _ := cmd.Flags().GetString("shapefile")
		workDir, _ := cmd.Flags().GetString("work-dir")

		log := zap.L().With(zap.String("command", "boundaries tiger"))

		if shpPath == "" {
			if workDir == "" {
				workDir = cfg.Boundaries.CacheDir
			}
			if workDir == "" {
				workDir = os.TempDir()
			}
			url := tiger.CountyURL(year)
			log.Info("fetching county shapefile", zap.String("url", url), zap.String("work_dir", workDir))

			p, err := tiger.Download(ctx, pipeline.NewRouter(cfg.Fetch), url, workDir)
			if err != nil {
				return eris.Wrap(err, "boundaries tiger")
			}
			shpPath = p
		}

		fc, err := tiger.ConvertCounties(shpPath)
		if err != nil {
			return eris.Wrap(err, "boundaries tiger")
		}
		data, err := json.Marshal(fc)
		if err != nil {
			return eris.Wrap(err, "boundaries tiger: encode")
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrapf(err, "boundaries tiger: write %s", out)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d counties to %s\n", len(fc.Features), out)
		return nil
	},
}

func init() {
	boundariesTigerCmd.Flags().Int("year", tiger.DefaultYear, "TIGER/Line vintage")
	boundariesTigerCmd.Flags().StringP("out", "o", "counties.geojson", "GeoJSON output path")
	boundariesTigerCmd.Flags().String("shapefile", "", "convert this local .shp instead of downloading")
	boundariesTigerCmd.Flags().String("work-dir", "", "download and extract directory (default: boundaries.cache_dir or the temp dir)")
	boundariesCmd.AddCommand(boundariesTigerCmd)
	rootCmd.AddCommand(boundariesCmd)
}
