// Package geo loads the county boundary FeatureCollection. The document is
// handed to the renderer byte for byte; only feature ids and the overall
// extent are read from it.
package geo

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/covidmap/internal/model"
)

// Boundaries is a loaded county FeatureCollection.
type Boundaries struct {
	raw    json.RawMessage
	ids    map[string]bool
	order  []string
	bounds *geom.Bounds
}

// Parse indexes a GeoJSON FeatureCollection. A feature without an id falls
// back to its GEOID property or the last five digits of GEO_ID.
func Parse(data []byte) (*Boundaries, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrap(err, "geo: decode feature collection")
	}

	b := &Boundaries{
		raw:    json.RawMessage(data),
		ids:    make(map[string]bool, len(fc.Features)),
		bounds: geom.NewBounds(geom.XY),
	}
	for _, f := range fc.Features {
		if f.Geometry != nil {
			b.bounds.Extend(f.Geometry)
		}
		id := featureID(f)
		if id == "" || b.ids[id] {
			continue
		}
		b.ids[id] = true
		b.order = append(b.order, id)
	}
	return b, nil
}

func featureID(f *geojson.Feature) string {
	if f.ID != "" {
		return f.ID
	}
	if v, ok := f.Properties["GEOID"].(string); ok {
		return v
	}
	if v, ok := f.Properties["GEO_ID"].(string); ok && len(v) >= model.FIPSWidth {
		return v[len(v)-model.FIPSWidth:]
	}
	return ""
}

// Raw returns the document exactly as loaded.
func (b *Boundaries) Raw() json.RawMessage { return b.raw }

// Len returns the number of distinct feature ids.
func (b *Boundaries) Len() int { return len(b.order) }

// Has reports whether a feature with id exists.
func (b *Boundaries) Has(id string) bool { return b.ids[id] }

// IDs returns the feature ids in document order.
func (b *Boundaries) IDs() []string { return append([]string(nil), b.order...) }

// Extent returns the lon/lat bounding box of every geometry.
func (b *Boundaries) Extent() (minLon, minLat, maxLon, maxLat float64, ok bool) {
	if b.bounds == nil || b.bounds.IsEmpty() {
		return 0, 0, 0, 0, false
	}
	return b.bounds.Min(0), b.bounds.Min(1), b.bounds.Max(0), b.bounds.Max(1), true
}

// Center returns the middle of the extent.
func (b *Boundaries) Center() (lat, lon float64, ok bool) {
	minLon, minLat, maxLon, maxLat, ok := b.Extent()
	if !ok {
		return 0, 0, false
	}
	return (minLat + maxLat) / 2, (minLon + maxLon) / 2, true
}

// Coverage compares table identifiers with boundary feature ids.
type Coverage struct {
	Matched int
	// Missing lists table FIPS codes with no boundary, sorted.
	Missing []string
	// Unused counts features with no table row.
	Unused int
}

// Complete reports whether every table row has a boundary.
func (c Coverage) Complete() bool { return len(c.Missing) == 0 }

// String summarizes the coverage for logs and the check command.
func (c Coverage) String() string {
	return fmt.Sprintf("matched %d, missing %d, unused %d", c.Matched, len(c.Missing), c.Unused)
}

// Coverage checks table against the boundaries.
func (b *Boundaries) Coverage(table *model.Table) Coverage {
	var c Coverage
	seen := make(map[string]bool, table.Len())
	for _, fips := range table.FIPSCodes() {
		seen[fips] = true
		if b.ids[fips] {
			c.Matched++
		} else {
			c.Missing = append(c.Missing, fips)
		}
	}
	for _, id := range b.order {
		if !seen[id] {
			c.Unused++
		}
	}
	sort.Strings(c.Missing)
	return c
}
