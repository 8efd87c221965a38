package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidmap/internal/config"
	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/geo"
	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/monitoring"
	"github.com/sells-group/covidmap/internal/normalize"
	"github.com/sells-group/covidmap/internal/preset"
	"github.com/sells-group/covidmap/internal/source"
)

const testCSV = `FIPS,County_x,State_x,Cases,Deaths,GOP_2016,GOP_2020
1001.0,autauga,AL,2000,30,0.73,0.71
1003.0,baldwin,AL,8000,80,0.77,0.76
1005.0,barbour,AL,1000,10,0.52,0.54
abc,broken,AL,1,1,0.5,0.5
99999,outside,XX,5,5,0.5,0.5
`

const testGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"01001","properties":{"NAME":"Autauga"},"geometry":{"type":"Polygon","coordinates":[[[-87,32],[-86,32],[-86,33],[-87,33],[-87,32]]]}},
{"type":"Feature","id":"01003","properties":{"NAME":"Baldwin"},"geometry":{"type":"Polygon","coordinates":[[[-88,30],[-87,30],[-87,31],[-88,31],[-88,30]]]}},
{"type":"Feature","id":"06037","properties":{"NAME":"Los Angeles"},"geometry":{"type":"Polygon","coordinates":[[[-119,34],[-118,34],[-118,35],[-119,35],[-119,34]]]}}
]}`

func writeFixtures(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "counties.csv")
	geoPath := filepath.Join(dir, "counties.geojson")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0o644))
	require.NoError(t, os.WriteFile(geoPath, []byte(testGeoJSON), 0o644))

	cfg := &config.Config{}
	cfg.Source.Path = csvPath
	cfg.Source.OnParseError = "skip"
	cfg.Boundaries.Path = geoPath
	cfg.Dashboard.Preset = "0.9"
	cfg.Dashboard.TopN = 2
	return cfg
}

func TestRun(t *testing.T) {
	cfg := writeFixtures(t)
	m := monitoring.NewMetrics(prometheus.NewRegistry())

	res, err := New(cfg, WithMetrics(m)).Run(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, res.BuildID)
	assert.Equal(t, "0.9", res.Preset.Name)
	assert.Equal(t, []string{"01001", "01003", "01005"}, res.Table.FIPSCodes())
	assert.Equal(t, 5, res.Report.Total)
	assert.Equal(t, 3, res.Report.Kept)
	assert.Equal(t, 1, res.Report.Filtered)
	assert.Len(t, res.Report.Rejected, 1)

	require.Len(t, res.Maps, 3)
	require.Len(t, res.Bars, 3)
	assert.Equal(t, []bool{true, false, false}, res.Visibility)
	assert.True(t, res.Maps[0].Visible)
	assert.False(t, res.Bars[1].Visible)

	// Top 2 cases, stored ascending.
	assert.Equal(t, []string{"Autauga", "Baldwin"}, res.Bars[0].Names())

	assert.Equal(t, 2, res.Coverage.Matched)
	assert.Equal(t, []string{"01005"}, res.Coverage.Missing)
	assert.Equal(t, 1, res.Coverage.Unused)

	assert.InDelta(t, 37.0902, res.Center.Lat, 1e-9)
	assert.InDelta(t, -95.7129, res.Center.Lon, 1e-9)

	assert.InDelta(t, 3, testutil.ToFloat64(m.TableRows), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BoundaryMissing), 0)
}

func TestRun_CenterFromBoundaries(t *testing.T) {
	cfg := writeFixtures(t)
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(presetPath, []byte(`
name: custom
columns: {id: FIPS, name: County_x}
color_scales:
  reds:
    - {at: 0, color: white}
    - {at: 1, color: red}
metrics:
  - {key: cases, column: Cases, label: Cases, color_scale: reds}
`), 0o644))
	cfg.Dashboard.PresetFile = presetPath

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)

	// Extent of the fixtures: lon -119..-86, lat 30..35.
	assert.InDelta(t, 32.5, res.Center.Lat, 1e-9)
	assert.InDelta(t, -102.5, res.Center.Lon, 1e-9)
	assert.Len(t, res.Maps, 1)
}

func TestRun_AbortPolicy(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Source.OnParseError = "abort"

	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)

	var pe *normalize.ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "abc", pe.Raw)
}

func TestRun_EmptyAfterFilter(t *testing.T) {
	cfg := writeFixtures(t)
	require.NoError(t, os.WriteFile(cfg.Source.Path, []byte("FIPS,County_x,State_x,Cases,Deaths,GOP_2020\n99999,x,XX,1,1,0.5\n"), 0o644))

	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Table.Len())
	require.Len(t, res.Bars, 3)
	assert.Empty(t, res.Bars[0].Entries)
	assert.Empty(t, res.Maps[0].Locations)
}

func TestRun_MissingColumn(t *testing.T) {
	cfg := writeFixtures(t)
	require.NoError(t, os.WriteFile(cfg.Source.Path, []byte("FIPS,County_x,Cases\n1001,a,1\n"), 0o644))

	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.True(t, normalize.IsLoadError(err))
}

func TestRun_BoundaryError(t *testing.T) {
	cfg := writeFixtures(t)
	cfg.Boundaries.Path = filepath.Join(t.TempDir(), "missing.geojson")

	_, err := New(cfg).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boundaries")
}

type fakeLoader struct {
	raw normalize.RawTable
	err error
}

func (f fakeLoader) Load(context.Context) (normalize.RawTable, error) { return f.raw, f.err }

func TestRun_SourceError(t *testing.T) {
	cfg := writeFixtures(t)
	loader := WithLoader(func(context.Context, source.Config, *fetcher.Router) (source.Loader, error) {
		return fakeLoader{err: errors.New("connection refused")}, nil
	})

	_, err := New(cfg, loader).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestRun_QueryPriority(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		want       func(t *testing.T, got string)
	}{
		{"preset query", "", func(t *testing.T, got string) {
			assert.Contains(t, got, "LEFT JOIN politics")
		}},
		{"configured query", "SELECT * FROM extract WHERE date = $1", func(t *testing.T, got string) {
			assert.Equal(t, "SELECT * FROM extract WHERE date = $1", got)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := writeFixtures(t)
			cfg.Source.Kind = "postgres"
			cfg.Source.DatabaseURL = "postgres://example/covidPolitics"
			cfg.Source.Query = tt.configured
			cfg.Source.SnapshotDate = 11

			var got source.Config
			loader := WithLoader(func(_ context.Context, sc source.Config, _ *fetcher.Router) (source.Loader, error) {
				got = sc
				return fakeLoader{raw: normalize.RawTable{
					Header:  []string{"FIPS", "County_x", "State_x", "Cases", "Deaths", "GOP_2020"},
					Records: [][]string{{"1001", "autauga", "AL", "1", "2", "0.7"}},
				}}, nil
			})

			res, err := New(cfg, loader).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, source.KindPostgres, got.Kind)
			assert.Equal(t, 11, got.SnapshotDate)
			tt.want(t, got.Query)
			assert.Equal(t, 1, res.Table.Len())
		})
	}
}

func TestResolvePreset_Overrides(t *testing.T) {
	p, err := ResolvePreset(config.DashboardConfig{
		Preset: "0.7",
		Title:  "Custom",
		Center: []float64{40, -100},
		Zoom:   4,
	})
	require.NoError(t, err)
	assert.Equal(t, "0.7", p.Name)
	assert.Equal(t, "Custom", p.Title.Text)
	require.NotNil(t, p.Map.Center)
	assert.InDelta(t, 40, p.Map.Center.Lat, 0)
	assert.InDelta(t, -100, p.Map.Center.Lon, 0)
	assert.InDelta(t, 4, p.Map.Zoom, 0)
}

func TestResolvePreset_Unknown(t *testing.T) {
	_, err := ResolvePreset(config.DashboardConfig{Preset: "0.1"})
	assert.Error(t, err)
}

func TestRun_PresetMetricsMatchTable(t *testing.T) {
	cfg := writeFixtures(t)
	res, err := New(cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.MetricKey{model.MetricCases, model.MetricDeaths, model.MetricGOP2020}, res.Specs.Keys())
	assert.Equal(t, res.Specs.Keys(), res.Table.Metrics())
}

func TestCenter_FallsBackToUS(t *testing.T) {
	b, err := geo.Parse([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)

	got := New(&config.Config{}).center(&preset.Preset{}, b)
	assert.Equal(t, usCenter, got)
}
