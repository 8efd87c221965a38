// Package layers builds one choropleth map layer and one ranked bar layer
// per metric from a normalized county table.
package layers

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/selection"
)

// DefaultTopN is the number of counties in each bar layer.
const DefaultTopN = 10

// ErrUnknownMetric is returned when a spec names a metric the table lacks.
var ErrUnknownMetric = eris.New("metric not present in table")

// Options tunes Build.
type Options struct {
	// TopN overrides DefaultTopN when positive.
	TopN int
}

// Build returns parallel map and bar layers, one of each per spec, with the
// first metric visible.
func Build(table *model.Table, specs model.MetricSpecs, opts Options) ([]model.MapLayer, []model.BarLayer, error) {
	if table == nil {
		return nil, nil, eris.New("layers: nil table")
	}
	for _, spec := range specs {
		if !table.HasMetric(spec.Key) {
			return nil, nil, eris.Wrapf(ErrUnknownMetric, "layers: %q", spec.Key)
		}
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	rows := table.Rows()
	visible := selection.InitialVisibility(len(specs))

	maps := make([]model.MapLayer, len(specs))
	bars := make([]model.BarLayer, len(specs))
	for i, spec := range specs {
		maps[i] = buildMap(rows, spec)
		maps[i].Visible = visible[i]
		bars[i] = buildBar(rows, spec, topN)
		bars[i].Visible = visible[i]
	}
	return maps, bars, nil
}

func buildMap(rows []model.Row, spec model.MetricSpec) model.MapLayer {
	layer := model.MapLayer{
		Metric:        spec.Key,
		Label:         spec.Label,
		Locations:     make([]string, len(rows)),
		Values:        make([]model.Value, len(rows)),
		Text:          make([]string, len(rows)),
		ColorScale:    spec.ColorScale,
		HoverTemplate: spec.HoverTemplate,
	}
	for i, r := range rows {
		layer.Locations[i] = r.FIPS
		layer.Values[i] = r.Value(spec.Key)
		layer.Text[i] = r.Name
	}
	return layer
}

// buildBar ranks rows descending by the metric. Ties keep table order and
// rows without data rank after every real value.
func buildBar(rows []model.Row, spec model.MetricSpec, topN int) model.BarLayer {
	order := make([]int, len(rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := rows[order[a]].Value(spec.Key), rows[order[b]].Value(spec.Key)
		if va.Valid != vb.Valid {
			return va.Valid
		}
		return va.Valid && va.Float > vb.Float
	})
	if len(order) > topN {
		order = order[:topN]
	}

	// Stored ascending so a horizontal chart draws rank 1 on top.
	entries := make([]model.BarEntry, len(order))
	for rank, idx := range order {
		r := rows[idx]
		entries[len(order)-1-rank] = model.BarEntry{
			Rank:  rank + 1,
			FIPS:  r.FIPS,
			Name:  r.Name,
			Value: r.Value(spec.Key),
		}
	}

	return model.BarLayer{
		Metric:  spec.Key,
		Label:   spec.Label,
		Entries: entries,
	}
}
