package tiger

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
)

// ConvertCounties reads a TIGER/Line county shapefile and returns a GeoJSON
// FeatureCollection whose feature ids are the 5-digit county GEOIDs.
// Properties carry NAME, LSAD name, and the state abbreviation.
func ConvertCounties(shpPath string) (*geojson.FeatureCollection, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "tiger: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToUpper(name)] = i
	}

	geoidIdx, ok := fieldIdx[CountyFields.GEOID]
	if !ok {
		return nil, eris.Errorf("tiger: shapefile %s has no %s field", shpPath, CountyFields.GEOID)
	}

	attr := func(name string) string {
		idx, ok := fieldIdx[name]
		if !ok {
			return ""
		}
		return strings.TrimSpace(strings.TrimRight(reader.Attribute(idx), "\x00"))
	}

	fc := &geojson.FeatureCollection{}
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()

		geoid := strings.TrimSpace(strings.TrimRight(reader.Attribute(geoidIdx), "\x00"))
		poly, ok := shape.(*shp.Polygon)
		if geoid == "" || !ok {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		props := map[string]any{
			"NAME":     attr(CountyFields.Name),
			"NAMELSAD": attr(CountyFields.NameLSAD),
		}
		if st, ok := StateOfCounty(geoid); ok {
			props["STATE"] = st
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			ID:         geoid,
			Geometry:   mp,
			Properties: props,
		})
	}

	if err := reader.Err(); err != nil {
		return nil, eris.Wrap(err, "tiger: read shapefile")
	}

	zap.L().Info("tiger: converted county shapefile",
		zap.String("path", shpPath),
		zap.Int("features", len(fc.Features)),
		zap.Int("skipped", skipped),
	)

	return fc, nil
}
