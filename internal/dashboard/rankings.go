package dashboard

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/preset"
)

const (
	chartWidth  = "900px"
	chartHeight = "420px"
)

// RankingsPage renders one horizontal bar chart per metric with the
// counties of its ranking, largest on top.
func RankingsPage(title string, bars []model.BarLayer, theme preset.Theme) *components.Page {
	page := components.NewPage()
	page.PageTitle = title
	for _, b := range bars {
		page.AddCharts(rankingChart(b, theme))
	}
	return page
}

// WriteRankings renders the rankings page to w.
func WriteRankings(w io.Writer, title string, bars []model.BarLayer, theme preset.Theme) error {
	if err := RankingsPage(title, bars, theme).Render(w); err != nil {
		return eris.Wrap(err, "dashboard: render rankings")
	}
	return nil
}

func rankingChart(b model.BarLayer, theme preset.Theme) *charts.Bar {
	// Entries are ascending, and a reversed category axis draws the first
	// category at the bottom.
	names := b.Names()
	data := make([]opts.BarData, len(b.Entries))
	for i, e := range b.Entries {
		if e.Value.Valid {
			data[i] = opts.BarData{Name: e.Name, Value: e.Value.Float}
		} else {
			data[i] = opts.BarData{Name: e.Name, Value: nil}
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: theme.Background,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    b.Label,
			Subtitle: string(b.Metric),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithGridOpts(opts.Grid{
			Left:   "160",
			Bottom: "40",
		}),
	)

	bar.SetXAxis(names).
		AddSeries(b.Label, data,
			charts.WithItemStyleOpts(opts.ItemStyle{
				Color:       theme.BarColor,
				BorderColor: theme.BarLineColor,
				BorderWidth: float32(theme.BarLineWidth),
			}),
		).
		XYReversal()

	return bar
}
