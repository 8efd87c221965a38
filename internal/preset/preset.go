// Package preset holds dashboard presets: the column mapping, metrics,
// color scales, theme, and map view of one dashboard version.
package preset

import (
	"embed"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/normalize"
)

// Default is the preset used when none is configured.
const Default = "0.9"

//go:embed presets/*.yaml
var builtinFS embed.FS

// Preset is one dashboard configuration.
type Preset struct {
	Name        string                      `yaml:"name"`
	Title       Title                       `yaml:"title"`
	Columns     ColumnSet                   `yaml:"columns"`
	Query       string                      `yaml:"query"`
	ColorScales map[string]model.ColorScale `yaml:"color_scales"`
	Metrics     []Metric                    `yaml:"metrics"`
	Map         MapView                     `yaml:"map"`
	Theme       Theme                       `yaml:"theme"`
	Attribution []Source                    `yaml:"attribution"`
	Footer      string                      `yaml:"footer"`
}

// Title is the figure title.
type Title struct {
	Text       string `yaml:"text"`
	FontFamily string `yaml:"font_family"`
	FontSize   int    `yaml:"font_size"`
}

// ColumnSet names the identifier, name, and optional state columns.
type ColumnSet struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	State string `yaml:"state"`
}

// Metric is a metric spec as written in a preset file. ColorScale names an
// entry of Preset.ColorScales.
type Metric struct {
	Key        string `yaml:"key"`
	Column     string `yaml:"column"`
	Label      string `yaml:"label"`
	Hover      string `yaml:"hover"`
	ColorScale string `yaml:"color_scale"`
}

// LatLon is a map position.
type LatLon struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lon float64 `yaml:"lon" json:"lon"`
}

// MapView is the initial map viewport. A nil Center means fit to the
// boundaries.
type MapView struct {
	Center  *LatLon `yaml:"center"`
	Zoom    float64 `yaml:"zoom"`
	Style   string  `yaml:"style"`
	Opacity float64 `yaml:"opacity"`
}

// Theme holds page and bar colors.
type Theme struct {
	Background   string  `yaml:"background"`
	BarColor     string  `yaml:"bar_color"`
	BarLineColor string  `yaml:"bar_line_color"`
	BarLineWidth float64 `yaml:"bar_line_width"`
}

// Source is a data-source attribution.
type Source struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Names lists the built-in presets.
func Names() []string {
	entries, err := builtinFS.ReadDir("presets")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names
}

// Builtin returns a built-in preset by name; empty means Default.
func Builtin(name string) (*Preset, error) {
	if name == "" {
		name = Default
	}
	data, err := builtinFS.ReadFile(path.Join("presets", name+".yaml"))
	if err != nil {
		return nil, eris.Errorf("preset: unknown preset %q (have %s)", name, strings.Join(Names(), ", "))
	}
	return Parse(data)
}

// Load reads a preset from a YAML file.
func Load(file string) (*Preset, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, eris.Wrapf(err, "preset: read %s", file)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, eris.Wrapf(err, "preset: %s", file)
	}
	return p, nil
}

// Parse decodes and validates a preset document, filling defaults.
func Parse(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "preset: parse")
	}
	p.applyDefaults()
	if _, err := p.MetricSpecs(); err != nil {
		return nil, err
	}
	if p.Columns.ID == "" || p.Columns.Name == "" {
		return nil, eris.New("preset: columns.id and columns.name are required")
	}
	return &p, nil
}

func (p *Preset) applyDefaults() {
	if p.Title.FontSize == 0 {
		p.Title.FontSize = 28
	}
	if p.Title.FontFamily == "" {
		p.Title.FontFamily = "Arial"
	}
	if p.Map.Zoom == 0 {
		p.Map.Zoom = 3
	}
	if p.Map.Opacity == 0 {
		p.Map.Opacity = 0.7
	}
	if p.Theme.Background == "" {
		p.Theme.Background = "rgb(255, 255, 255)"
	}
	if p.Theme.BarColor == "" {
		p.Theme.BarColor = "rgba(77, 153, 219, 0.5)"
	}
	if p.Theme.BarLineColor == "" {
		p.Theme.BarLineColor = p.Theme.BarColor
	}
	if p.Theme.BarLineWidth == 0 {
		p.Theme.BarLineWidth = 0.5
	}
}

// MetricSpecs resolves color scale names and validates the metric list.
func (p *Preset) MetricSpecs() (model.MetricSpecs, error) {
	specs := make([]model.MetricSpec, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		scale, ok := p.ColorScales[m.ColorScale]
		if !ok {
			return nil, eris.Errorf("preset: metric %q uses unknown color scale %q", m.Key, m.ColorScale)
		}
		specs = append(specs, model.MetricSpec{
			Key:           model.MetricKey(m.Key),
			Column:        m.Column,
			Label:         m.Label,
			HoverTemplate: m.Hover,
			ColorScale:    scale,
		})
	}
	out, err := model.NewMetricSpecs(specs...)
	if err != nil {
		return nil, eris.Wrap(err, "preset: metrics")
	}
	return out, nil
}

// NormalizeColumns maps the preset's columns for normalize.Normalize.
func (p *Preset) NormalizeColumns() normalize.Columns {
	cols := normalize.Columns{
		ID:    p.Columns.ID,
		Name:  p.Columns.Name,
		State: p.Columns.State,
	}
	for _, m := range p.Metrics {
		key, err := model.ParseMetricKey(m.Key)
		if err != nil {
			continue
		}
		cols.Metrics = append(cols.Metrics, normalize.MetricColumn{Key: key, Column: m.Column})
	}
	return cols
}
