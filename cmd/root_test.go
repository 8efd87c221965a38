package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidmap/internal/config"
	"github.com/sells-group/covidmap/internal/pipeline"
)

const testCSV = `FIPS,County_x,State_x,Cases,Deaths,GOP_2016,GOP_2020
1001.0,autauga,AL,2000,30,0.73,0.71
1003.0,baldwin,AL,8000,,0.77,0.76
x1,broken,AL,1,1,0.5,0.5
`

const testGeoJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"01001","properties":{},"geometry":{"type":"Polygon","coordinates":[[[-87,32],[-86,32],[-86,33],[-87,33],[-87,32]]]}}
]}`

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "counties.csv")
	geoPath := filepath.Join(dir, "counties.geojson")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCSV), 0o644))
	require.NoError(t, os.WriteFile(geoPath, []byte(testGeoJSON), 0o644))

	c := &config.Config{}
	c.Source.Path = csvPath
	c.Source.Delimiter = ","
	c.Source.OnParseError = "skip"
	c.Boundaries.Path = geoPath
	c.Dashboard.Preset = "0.9"
	c.Dashboard.TopN = 10
	c.Server.Port = 8050
	return c
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"serve", "render", "check", "boundaries", "presets"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "covidmap", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestRenderCommand_Flags(t *testing.T) {
	flag := renderCmd.Flags().Lookup("out")
	require.NotNil(t, flag)
	assert.Equal(t, "dashboard.html", flag.DefValue)
	assert.NotNil(t, renderCmd.Flags().Lookup("figure"))
	assert.NotNil(t, renderCmd.Flags().Lookup("rankings"))
}

func TestBoundariesCommand_HasTiger(t *testing.T) {
	var found *cobra.Command
	for _, c := range boundariesCmd.Commands() {
		if c.Name() == "tiger" {
			found = c
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "2024", found.Flags().Lookup("year").DefValue)
	assert.Equal(t, "counties.geojson", found.Flags().Lookup("out").DefValue)
}

func TestApplyFlagOverrides(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.Flags().Parse([]string{
		"--database-url", "postgres://db/covidPolitics",
		"--preset", "0.7",
		"--boundaries", "local.geojson",
	}))

	c := &config.Config{}
	c.Source.Path = "keep.csv"
	applyFlagOverrides(cmd, c)

	assert.Equal(t, "keep.csv", c.Source.Path)
	assert.Equal(t, "postgres://db/covidPolitics", c.Source.DatabaseURL)
	assert.Equal(t, "postgres", c.Source.Kind)
	assert.Equal(t, "0.7", c.Dashboard.Preset)
	assert.Equal(t, "local.geojson", c.Boundaries.Path)
}

func TestPrintPresets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printPresets(&buf))

	out := buf.String()
	assert.Contains(t, out, "0.7")
	assert.Contains(t, out, "0.9")
	assert.Contains(t, out, "(default)")
	assert.Contains(t, out, "cases, deaths, gop_2020")
}

func TestPrintCheck(t *testing.T) {
	res, err := pipeline.New(testConfig(t)).Run(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	printCheck(&buf, res)
	out := buf.String()

	assert.Contains(t, out, "Rows read:  3")
	assert.Contains(t, out, "Kept:       2")
	assert.Contains(t, out, "Rejected:   1")
	assert.Contains(t, out, `"x1"`)
	assert.Contains(t, out, "matched 1, missing 1, unused 0")
	assert.Contains(t, out, "missing: 01003")
	assert.True(t, strings.Contains(out, "deaths") && strings.Contains(out, "gop_2020"))
}

func TestBuildDashboard_ValidatesConfig(t *testing.T) {
	c := testConfig(t)
	c.Source.Path = ""

	_, err := buildDashboard(context.Background(), c, "render", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source.path")
}

func TestWriteArtifacts(t *testing.T) {
	d, err := buildDashboard(context.Background(), testConfig(t), "render", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	htmlOut := filepath.Join(dir, "out", "dashboard.html")
	figOut := filepath.Join(dir, "figure.json")
	rankOut := filepath.Join(dir, "rankings.html")
	require.NoError(t, writeArtifacts(d, htmlOut, figOut, rankOut))

	page, err := os.ReadFile(htmlOut)
	require.NoError(t, err)
	assert.Contains(t, string(page), "Plotly.newPlot")
	assert.Contains(t, string(page), `"type":"FeatureCollection"`)

	fig, err := os.ReadFile(figOut)
	require.NoError(t, err)
	assert.Contains(t, string(fig), `"updatemenus"`)

	rank, err := os.ReadFile(rankOut)
	require.NoError(t, err)
	assert.Contains(t, string(rank), "Baldwin")
}

func TestWriteArtifacts_SkipsEmptyPaths(t *testing.T) {
	d, err := buildDashboard(context.Background(), testConfig(t), "render", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	require.NoError(t, writeArtifacts(d, "", "", ""))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
