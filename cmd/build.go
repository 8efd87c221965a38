package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/covidmap/internal/config"
	"github.com/sells-group/covidmap/internal/dashboard"
	"github.com/sells-group/covidmap/internal/monitoring"
	"github.com/sells-group/covidmap/internal/pipeline"
)

// buildDashboard runs the pipeline for mode and renders the dashboard.
func buildDashboard(ctx context.Context, c *config.Config, mode string, m *monitoring.Metrics) (*dashboard.Dashboard, error) {
	res, err := runPipeline(ctx, c, mode, m)
	if err != nil {
		return nil, err
	}
	d, err := dashboard.New(res, dashboard.Options{MapboxToken: c.Dashboard.MapboxToken})
	if err != nil {
		return nil, eris.Wrap(err, mode)
	}
	return d, nil
}

func runPipeline(ctx context.Context, c *config.Config, mode string, m *monitoring.Metrics) (*pipeline.Result, error) {
	if err := c.Validate(mode); err != nil {
		return nil, err
	}
	var opts []pipeline.Option
	if m != nil {
		opts = append(opts, pipeline.WithMetrics(m))
	}
	res, err := pipeline.New(c, opts...).Run(ctx)
	if err != nil {
		return nil, eris.Wrap(err, mode)
	}
	return res, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
