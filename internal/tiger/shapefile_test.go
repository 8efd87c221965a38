package tiger

import (
	"path/filepath"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// square returns a closed clockwise ring (shapefile outer ring order).
func square(x, y, size float64) []shp.Point {
	return []shp.Point{
		{X: x, Y: y},
		{X: x, Y: y + size},
		{X: x + size, Y: y + size},
		{X: x + size, Y: y},
		{X: x, Y: y},
	}
}

// reversed flips ring orientation.
func reversed(pts []shp.Point) []shp.Point {
	out := make([]shp.Point, len(pts))
	for i, p := range pts {
		out[len(pts)-1-i] = p
	}
	return out
}

func writeCountyShapefile(t *testing.T, records []struct {
	geoid, name string
	parts       [][]shp.Point
}) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "counties.shp")

	w, err := shp.Create(path, shp.POLYGON)
	require.NoError(t, err)
	require.NoError(t, w.SetFields([]shp.Field{
		shp.StringField("GEOID", 5),
		shp.StringField("NAME", 40),
	}))
	for _, r := range records {
		poly := shp.Polygon(*shp.NewPolyLine(r.parts))
		row := w.Write(&poly)
		require.NoError(t, w.WriteAttribute(int(row), 0, r.geoid))
		require.NoError(t, w.WriteAttribute(int(row), 1, r.name))
	}
	w.Close()
	return path
}

func TestConvertCounties(t *testing.T) {
	path := writeCountyShapefile(t, []struct {
		geoid, name string
		parts       [][]shp.Point
	}{
		{"01001", "Autauga", [][]shp.Point{square(0, 0, 10), reversed(square(2, 2, 2))}},
		{"06037", "Los Angeles", [][]shp.Point{square(20, 20, 1), square(30, 30, 1)}},
	})

	fc, err := ConvertCounties(path)
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	first := fc.Features[0]
	assert.Equal(t, "01001", first.ID)
	assert.Equal(t, "Autauga", first.Properties["NAME"])
	assert.Equal(t, "AL", first.Properties["STATE"])
	mp, ok := first.Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 2, mp.Polygon(0).NumLinearRings(), "hole attached to outer ring")

	second := fc.Features[1]
	assert.Equal(t, "06037", second.ID)
	assert.Equal(t, "CA", second.Properties["STATE"])
	mp, ok = second.Geometry.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestConvertCounties_MissingFile(t *testing.T) {
	_, err := ConvertCounties(filepath.Join(t.TempDir(), "nope.shp"))
	assert.Error(t, err)
}

func TestPolygonToMultiPolygon_Empty(t *testing.T) {
	assert.Nil(t, polygonToMultiPolygon(nil))
	assert.Nil(t, polygonToMultiPolygon(&shp.Polygon{}))
}
