package preset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidmap/internal/model"
)

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"0.7", "0.9"}, Names())
}

func TestBuiltin_Default(t *testing.T) {
	p, err := Builtin("")
	require.NoError(t, err)

	assert.Equal(t, "0.9", p.Name)
	assert.Equal(t, "National COVID-19 Cases: November, 2020", p.Title.Text)
	assert.Equal(t, 28, p.Title.FontSize)
	require.NotNil(t, p.Map.Center)
	assert.InDelta(t, 37.0902, p.Map.Center.Lat, 1e-9)
	assert.InDelta(t, -95.7129, p.Map.Center.Lon, 1e-9)
	assert.InDelta(t, 2.5, p.Map.Zoom, 1e-9)
	assert.Equal(t, "rgb(227, 235, 240)", p.Theme.Background)
	assert.Len(t, p.Attribution, 2)

	specs, err := p.MetricSpecs()
	require.NoError(t, err)
	assert.Equal(t, []model.MetricKey{model.MetricCases, model.MetricDeaths, model.MetricGOP2020}, specs.Keys())
	assert.Equal(t, "<b>%{text}</b><br><br>Number of Cases=%{z}<br><extra></extra>", specs[0].HoverTemplate)
	assert.Equal(t, "<b>%{text}</b><br><br>Proportion of GOP voters = %{z}<br><extra></extra>", specs[2].HoverTemplate)
	assert.Equal(t, "rgb(3, 1, 140)", specs[2].ColorScale[0].Color)
	assert.Len(t, specs[0].ColorScale, 11)
}

func TestBuiltin_V07(t *testing.T) {
	p, err := Builtin("0.7")
	require.NoError(t, err)

	assert.Equal(t, "National Covid Cases in October 2020", p.Title.Text)
	assert.InDelta(t, 12, p.Map.Zoom, 1e-9)
	assert.Empty(t, p.Columns.State)

	specs, err := p.MetricSpecs()
	require.NoError(t, err)
	assert.Equal(t, []model.MetricKey{model.MetricCases, model.MetricDeaths, model.MetricAffiliation}, specs.Keys())
	assert.Equal(t, "Number of CoVID-19 deaths by county:", specs[1].Label)

	cols := p.NormalizeColumns()
	assert.Equal(t, "fips", cols.ID)
	assert.Equal(t, "county", cols.Name)
	require.Len(t, cols.Metrics, 3)
	assert.Equal(t, "affiliation", cols.Metrics[2].Column)
}

func TestBuiltin_Unknown(t *testing.T) {
	_, err := Builtin("1.0")
	assert.Error(t, err)
}

func TestParse_DefaultsAndErrors(t *testing.T) {
	p, err := Parse([]byte(`
columns: {id: fips, name: county}
color_scales:
  grey: [{at: 0, color: white}, {at: 1, color: black}]
metrics:
  - {key: cases, column: cases, color_scale: grey}
`))
	require.NoError(t, err)
	assert.Equal(t, "Arial", p.Title.FontFamily)
	assert.InDelta(t, 0.7, p.Map.Opacity, 1e-9)
	assert.Equal(t, p.Theme.BarColor, p.Theme.BarLineColor)
	assert.Nil(t, p.Map.Center)

	tests := []struct {
		name string
		doc  string
	}{
		{"bad yaml", "metrics: [:"},
		{"unknown scale", `
columns: {id: fips, name: county}
metrics: [{key: cases, column: cases, color_scale: missing}]`},
		{"unknown metric", `
columns: {id: fips, name: county}
color_scales: {g: [{at: 0, color: w}, {at: 1, color: b}]}
metrics: [{key: hospital, column: h, color_scale: g}]`},
		{"no metrics", `columns: {id: fips, name: county}`},
		{"no id column", `
columns: {name: county}
color_scales: {g: [{at: 0, color: w}, {at: 1, color: b}]}
metrics: [{key: cases, column: cases, color_scale: g}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	file := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
name: custom
columns: {id: FIPS, name: County}
color_scales: {g: [{at: 0, color: w}, {at: 1, color: b}]}
metrics: [{key: deaths, column: Deaths, color_scale: g}]
`), 0o644))

	p, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
