// Package pipeline assembles the dashboard data once at startup: it loads the
// county extract and the boundaries in parallel, normalizes the table, and
// builds the metric layers.
package pipeline

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/covidmap/internal/config"
	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/geo"
	"github.com/sells-group/covidmap/internal/layers"
	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/monitoring"
	"github.com/sells-group/covidmap/internal/normalize"
	"github.com/sells-group/covidmap/internal/preset"
	"github.com/sells-group/covidmap/internal/resilience"
	"github.com/sells-group/covidmap/internal/selection"
	"github.com/sells-group/covidmap/internal/source"
)

// Result is the immutable output of one build.
type Result struct {
	BuildID    string
	BuiltAt    time.Time
	Duration   time.Duration
	Preset     *preset.Preset
	Specs      model.MetricSpecs
	Table      *model.Table
	Report     normalize.Report
	Boundaries *geo.Boundaries
	Coverage   geo.Coverage
	Maps       []model.MapLayer
	Bars       []model.BarLayer
	Visibility []bool
	// Center is the configured map center, or the middle of the boundaries
	// when the preset leaves it unset.
	Center preset.LatLon
}

// LoaderFunc opens a tabular source.
type LoaderFunc func(ctx context.Context, cfg source.Config, f *fetcher.Router) (source.Loader, error)

// Pipeline builds dashboard Results from a configuration.
type Pipeline struct {
	cfg       *config.Config
	fetch     *fetcher.Router
	metrics   *monitoring.Metrics
	newLoader LoaderFunc
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMetrics records build metrics.
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLoader replaces source.New.
func WithLoader(fn LoaderFunc) Option {
	return func(p *Pipeline) { p.newLoader = fn }
}

// WithFetcher replaces the fetcher built from cfg.Fetch.
func WithFetcher(f *fetcher.Router) Option {
	return func(p *Pipeline) { p.fetch = f }
}

// New creates a Pipeline.
func New(cfg *config.Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:       cfg,
		newLoader: source.New,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.fetch == nil {
		p.fetch = NewRouter(cfg.Fetch)
	}
	return p
}

// NewRouter builds the fetcher for remote sources and boundaries.
func NewRouter(cfg config.FetchConfig) *fetcher.Router {
	retry := resilience.DefaultPolicy()
	if cfg.RetryAttempts > 0 {
		retry.Attempts = cfg.RetryAttempts
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	return fetcher.NewRouter(fetcher.Options{
		HTTP: fetcher.HTTPOptions{
			UserAgent:   cfg.UserAgent,
			Timeout:     timeout,
			PerHostRate: rate.Limit(cfg.PerHostRate),
			Retry:       retry,
		},
		FTP: fetcher.FTPOptions{
			Timeout: timeout,
			Retry:   retry,
		},
	})
}

// ResolvePreset loads the configured preset and applies the dashboard
// overrides from cfg.
func ResolvePreset(cfg config.DashboardConfig) (*preset.Preset, error) {
	var (
		p   *preset.Preset
		err error
	)
	if cfg.PresetFile != "" {
		p, err = preset.Load(cfg.PresetFile)
	} else {
		p, err = preset.Builtin(cfg.Preset)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Title != "" {
		p.Title.Text = cfg.Title
	}
	if len(cfg.Center) == 2 {
		p.Map.Center = &preset.LatLon{Lat: cfg.Center[0], Lon: cfg.Center[1]}
	}
	if cfg.Zoom > 0 {
		p.Map.Zoom = cfg.Zoom
	}
	return p, nil
}

// Run loads, normalizes, and assembles one Result.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := zap.L().With(zap.String("component", "pipeline"))

	pre, err := ResolvePreset(p.cfg.Dashboard)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: resolve preset")
	}
	specs, err := pre.MetricSpecs()
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: metric specs")
	}
	policy, err := normalize.ParsePolicy(p.cfg.Source.OnParseError)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: parse error policy")
	}

	res := &Result{
		BuildID: uuid.NewString(),
		Preset:  pre,
		Specs:   specs,
	}
	log = log.With(zap.String("build_id", res.BuildID), zap.String("preset", pre.Name))
	log.Info("pipeline: starting build")

	phase := func(name string, fn func() error) error {
		t := time.Now()
		if err := fn(); err != nil {
			log.Error("pipeline: phase failed",
				zap.String("phase", name),
				zap.Duration("duration", time.Since(t)),
				zap.Error(err),
			)
			return err
		}
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Duration("duration", time.Since(t)),
		)
		return nil
	}

	// Phase 1: tabular source and boundaries in parallel.
	var raw normalize.RawTable
	err = phase("load", func() error {
		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			r, loadErr := p.loadSource(gCtx, pre)
			if loadErr != nil {
				return loadErr
			}
			raw = r
			return nil
		})
		g.Go(func() error {
			b, loadErr := geo.Load(gCtx, geo.Config{
				URL:       p.cfg.Boundaries.URL,
				Path:      p.cfg.Boundaries.Path,
				Shapefile: p.cfg.Boundaries.Shapefile,
				CacheDir:  p.cfg.Boundaries.CacheDir,
			}, p.fetch)
			if loadErr != nil {
				return eris.Wrap(loadErr, "pipeline: load boundaries")
			}
			res.Boundaries = b
			return nil
		})
		return g.Wait()
	})
	if err != nil {
		return nil, err
	}

	// Phase 2: normalize.
	err = phase("normalize", func() error {
		table, report, normErr := normalize.Normalize(raw, pre.NormalizeColumns(), normalize.Options{OnParseError: policy})
		res.Report = report
		if normErr != nil {
			return eris.Wrap(normErr, "pipeline: normalize")
		}
		res.Table = table
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Phase 3: layers.
	err = phase("layers", func() error {
		maps, bars, buildErr := layers.Build(res.Table, specs, layers.Options{TopN: p.cfg.Dashboard.TopN})
		if buildErr != nil {
			return eris.Wrap(buildErr, "pipeline: build layers")
		}
		res.Maps, res.Bars = maps, bars
		res.Visibility = selection.InitialVisibility(len(specs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.Coverage = res.Boundaries.Coverage(res.Table)
	if !res.Coverage.Complete() {
		log.Warn("pipeline: counties without boundaries",
			zap.Int("missing", len(res.Coverage.Missing)),
			zap.Strings("sample", sample(res.Coverage.Missing, 10)),
		)
	}
	res.Center = p.center(pre, res.Boundaries)

	res.BuiltAt = time.Now()
	res.Duration = time.Since(start)

	if p.metrics != nil {
		p.metrics.ObserveReport(res.Report)
		p.metrics.ObserveCoverage(res.Coverage)
		p.metrics.ObserveBuild(pre.Name, res.BuildID, res.Duration)
	}

	log.Info("pipeline: build complete",
		zap.Int("counties", res.Table.Len()),
		zap.Int("metrics", len(specs)),
		zap.String("coverage", res.Coverage.String()),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func (p *Pipeline) loadSource(ctx context.Context, pre *preset.Preset) (normalize.RawTable, error) {
	sc := p.cfg.Source
	query := sc.Query
	if query == "" {
		query = pre.Query
	}
	loader, err := p.newLoader(ctx, source.Config{
		Kind:         source.Kind(sc.Kind),
		Path:         sc.Path,
		DatabaseURL:  sc.DatabaseURL,
		Query:        query,
		SnapshotDate: sc.SnapshotDate,
		Sheet:        sc.Sheet,
		Delimiter:    sc.DelimiterRune(),
	}, p.fetch)
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "pipeline: open source")
	}
	if c, ok := loader.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}

	raw, err := loader.Load(ctx)
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "pipeline: load source")
	}
	return raw, nil
}

func (p *Pipeline) center(pre *preset.Preset, b *geo.Boundaries) preset.LatLon {
	if pre.Map.Center != nil {
		return *pre.Map.Center
	}
	if lat, lon, ok := b.Center(); ok {
		return preset.LatLon{Lat: lat, Lon: lon}
	}
	return usCenter
}

// usCenter is the geographic center of the contiguous US, used when neither
// the preset nor the boundaries give one.
var usCenter = preset.LatLon{Lat: 39.8283, Lon: -98.5795}

func sample(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
