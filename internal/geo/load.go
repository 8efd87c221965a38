package geo

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/tiger"
)

// DefaultURL is the public county FeatureCollection keyed by 5-digit FIPS.
const DefaultURL = "https://raw.githubusercontent.com/plotly/datasets/master/geojson-counties-fips.json"

// Config selects where boundaries come from. Shapefile wins over Path,
// Path over URL.
type Config struct {
	URL       string
	Path      string
	Shapefile string
	// CacheDir keeps a copy of a downloaded URL between runs.
	CacheDir string
}

// Load reads and indexes the configured boundaries.
func Load(ctx context.Context, cfg Config, f *fetcher.Router) (*Boundaries, error) {
	log := zap.L().With(zap.String("component", "geo.load"))

	data, origin, err := read(ctx, cfg, f)
	if err != nil {
		return nil, err
	}
	b, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "geo: %s", origin)
	}
	log.Info("loaded county boundaries",
		zap.String("origin", origin),
		zap.Int("features", b.Len()),
		zap.Int("bytes", len(data)),
	)
	return b, nil
}

func read(ctx context.Context, cfg Config, f *fetcher.Router) ([]byte, string, error) {
	switch {
	case cfg.Shapefile != "":
		fc, err := tiger.ConvertCounties(cfg.Shapefile)
		if err != nil {
			return nil, cfg.Shapefile, err
		}
		data, err := json.Marshal(fc)
		if err != nil {
			return nil, cfg.Shapefile, eris.Wrap(err, "geo: encode shapefile features")
		}
		return data, cfg.Shapefile, nil

	case cfg.Path != "":
		data, err := os.ReadFile(cfg.Path)
		if err != nil {
			return nil, cfg.Path, eris.Wrapf(err, "geo: read %s", cfg.Path)
		}
		return data, cfg.Path, nil
	}

	u := cfg.URL
	if u == "" {
		u = DefaultURL
	}
	if cfg.CacheDir == "" {
		data, err := f.ReadAll(ctx, u)
		return data, u, err
	}

	cached := filepath.Join(cfg.CacheDir, cacheName(u))
	if data, err := os.ReadFile(cached); err == nil && len(data) > 0 {
		zap.L().Debug("geo: using cached boundaries", zap.String("path", cached))
		return data, cached, nil
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, u, eris.Wrap(err, "geo: create cache dir")
	}
	if _, err := f.DownloadToFile(ctx, u, cached); err != nil {
		_ = os.Remove(cached)
		return nil, u, eris.Wrap(err, "geo: download boundaries")
	}
	data, err := os.ReadFile(cached)
	if err != nil {
		return nil, u, eris.Wrap(err, "geo: read cached boundaries")
	}
	return data, u, nil
}

func cacheName(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "." && base != "/" {
			return base
		}
	}
	return "boundaries.geojson"
}
