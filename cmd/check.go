package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/pipeline"
)

const maxListed = 20

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and normalize the extract, then report rows and boundary coverage",
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")

		res, err := runPipeline(commandContext(cmd), cfg, "check", nil)
		if err != nil {
			return err
		}
		printCheck(cmd.OutOrStdout(), res)

		if strict && (len(res.Report.Rejected) > 0 || !res.Coverage.Complete()) {
			return eris.Errorf("check: %d rejected rows, %d counties without boundaries",
				len(res.Report.Rejected), len(res.Coverage.Missing))
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().Bool("strict", false, "fail when rows are rejected or counties lack boundaries")
	rootCmd.AddCommand(checkCmd)
}

func printCheck(w io.Writer, res *pipeline.Result) {
	r := res.Report
	fmt.Fprintf(w, "Preset:     %s\n", res.Preset.Name)
	fmt.Fprintf(w, "Rows read:  %d\n", r.Total)
	fmt.Fprintf(w, "Kept:       %d\n", r.Kept)
	fmt.Fprintf(w, "Filtered:   %d (county code >= 80000)\n", r.Filtered)
	fmt.Fprintf(w, "Rejected:   %d\n", len(r.Rejected))
	for i, pe := range r.Rejected {
		if i == maxListed {
			fmt.Fprintf(w, "  ... %d more\n", len(r.Rejected)-maxListed)
			break
		}
		fmt.Fprintf(w, "  row %-6d %-12q %v\n", pe.Row, pe.Raw, pe.Err)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s %10s\n", "Metric", "No data")
	fmt.Fprintln(w, strings.Repeat("-", 25))
	keys := make([]model.MetricKey, 0, len(r.Missing))
	for k := range r.Missing {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		fmt.Fprintf(w, "%-14s %10d\n", k, r.Missing[k])
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Boundaries: %d features, %s\n", res.Boundaries.Len(), res.Coverage)
	missing := res.Coverage.Missing
	if len(missing) > maxListed {
		fmt.Fprintf(w, "  missing: %s ... (%d more)\n", strings.Join(missing[:maxListed], ", "), len(missing)-maxListed)
	} else if len(missing) > 0 {
		fmt.Fprintf(w, "  missing: %s\n", strings.Join(missing, ", "))
	}
	fmt.Fprintf(w, "Map center: %.4f, %.4f\n", res.Center.Lat, res.Center.Lon)
}
