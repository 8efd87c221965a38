package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/model"
)

const countiesJSON = `{"type":"FeatureCollection","features":[
{"type":"Feature","id":"01001","properties":{"NAME":"Autauga"},"geometry":{"type":"Polygon","coordinates":[[[-86.9,32.3],[-86.4,32.3],[-86.4,32.7],[-86.9,32.7],[-86.9,32.3]]]}},
{"type":"Feature","properties":{"GEO_ID":"0500000US06037"},"geometry":{"type":"MultiPolygon","coordinates":[[[[-118.9,33.7],[-117.6,33.7],[-117.6,34.8],[-118.9,34.8],[-118.9,33.7]]]]}},
{"type":"Feature","id":36061,"properties":{},"geometry":null}
]}`

func testTable(t *testing.T, codes ...string) *model.Table {
	t.Helper()
	rows := make([]model.Row, len(codes))
	for i, c := range codes {
		rows[i] = model.NewRow(c, c, "", nil)
	}
	tbl, err := model.NewTable(nil, rows)
	require.NoError(t, err)
	return tbl
}

func TestParse(t *testing.T) {
	b, err := Parse([]byte(countiesJSON))
	require.NoError(t, err)

	assert.Equal(t, 3, b.Len())
	assert.Equal(t, []string{"01001", "06037", "36061"}, b.IDs())
	assert.True(t, b.Has("06037"), "GEO_ID fallback")
	assert.True(t, b.Has("36061"), "numeric id")
	assert.False(t, b.Has("99999"))
	assert.JSONEq(t, countiesJSON, string(b.Raw()))

	minLon, minLat, maxLon, maxLat, ok := b.Extent()
	require.True(t, ok)
	assert.InDelta(t, -118.9, minLon, 1e-9)
	assert.InDelta(t, 32.3, minLat, 1e-9)
	assert.InDelta(t, -86.4, maxLon, 1e-9)
	assert.InDelta(t, 34.8, maxLat, 1e-9)

	lat, lon, ok := b.Center()
	require.True(t, ok)
	assert.InDelta(t, 33.55, lat, 1e-9)
	assert.InDelta(t, -102.65, lon, 1e-9)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte(`{"type":"Feature"}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`not json`))
	assert.Error(t, err)
}

func TestParse_EmptyCollection(t *testing.T) {
	b, err := Parse([]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
	_, _, ok := b.Center()
	assert.False(t, ok)
}

func TestCoverage(t *testing.T) {
	b, err := Parse([]byte(countiesJSON))
	require.NoError(t, err)

	c := b.Coverage(testTable(t, "06037", "01001", "72001", "02013"))
	assert.Equal(t, 2, c.Matched)
	assert.Equal(t, []string{"02013", "72001"}, c.Missing)
	assert.Equal(t, 1, c.Unused)
	assert.False(t, c.Complete())
	assert.Equal(t, "matched 2, missing 2, unused 1", c.String())

	assert.True(t, b.Coverage(testTable(t)).Complete())
}

func TestLoad_PathAndURLCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counties.json")
	require.NoError(t, os.WriteFile(path, []byte(countiesJSON), 0o644))

	r := fetcher.NewRouter(fetcher.Options{HTTP: fetcher.HTTPOptions{PerHostRate: 1000}})

	b, err := Load(context.Background(), Config{Path: path, URL: "http://unused.invalid/x.json"}, r)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(countiesJSON))
	}))
	defer srv.Close()

	cache := t.TempDir()
	cfg := Config{URL: srv.URL + "/geojson-counties-fips.json", CacheDir: cache}
	for i := 0; i < 2; i++ {
		b, err = Load(context.Background(), cfg, r)
		require.NoError(t, err)
		assert.Equal(t, 3, b.Len())
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.FileExists(t, filepath.Join(cache, "geojson-counties-fips.json"))

	b, err = Load(context.Background(), Config{URL: srv.URL + "/x.json"}, r)
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, int32(2), hits.Load())
}

func TestLoad_Errors(t *testing.T) {
	r := fetcher.NewRouter(fetcher.Options{})

	_, err := Load(context.Background(), Config{Path: filepath.Join(t.TempDir(), "missing.json")}, r)
	assert.Error(t, err)

	_, err = Load(context.Background(), Config{Shapefile: filepath.Join(t.TempDir(), "missing.shp")}, r)
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("[]"), 0o644))
	_, err = Load(context.Background(), Config{Path: bad}, r)
	assert.Error(t, err)
}

func TestCacheName(t *testing.T) {
	assert.Equal(t, "geojson-counties-fips.json", cacheName(DefaultURL))
	assert.Equal(t, "boundaries.geojson", cacheName("https://example.com/"))
}
