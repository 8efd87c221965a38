package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// MetricKey identifies a metric a dashboard can display.
type MetricKey string

// Known metrics.
const (
	MetricCases       MetricKey = "cases"
	MetricDeaths      MetricKey = "deaths"
	MetricGOP2016     MetricKey = "gop_2016"
	MetricGOP2020     MetricKey = "gop_2020"
	MetricAffiliation MetricKey = "affiliation"
)

var knownMetrics = []MetricKey{
	MetricCases,
	MetricDeaths,
	MetricGOP2016,
	MetricGOP2020,
	MetricAffiliation,
}

// KnownMetrics lists every metric key the pipeline understands.
func KnownMetrics() []MetricKey {
	return append([]MetricKey(nil), knownMetrics...)
}

// ParseMetricKey validates s against the known metric keys.
func ParseMetricKey(s string) (MetricKey, error) {
	k := MetricKey(strings.ToLower(strings.TrimSpace(s)))
	for _, m := range knownMetrics {
		if m == k {
			return k, nil
		}
	}
	return "", eris.Errorf("model: unknown metric %q", s)
}

// ColorStop is one stop of a color scale.
type ColorStop struct {
	Fraction float64 `yaml:"at" json:"at"`
	Color    string  `yaml:"color" json:"color"`
}

// ColorScale is an ordered list of stops from 0 to 1.
type ColorScale []ColorStop

// Validate checks the scale starts at 0, ends at 1, and never decreases.
func (s ColorScale) Validate() error {
	if len(s) < 2 {
		return eris.New("color scale needs at least two stops")
	}
	if s[0].Fraction != 0 || s[len(s)-1].Fraction != 1 {
		return eris.New("color scale must start at 0 and end at 1")
	}
	for i, stop := range s {
		if stop.Fraction < 0 || stop.Fraction > 1 {
			return eris.Errorf("color stop %d out of range: %v", i, stop.Fraction)
		}
		if i > 0 && stop.Fraction < s[i-1].Fraction {
			return eris.Errorf("color stop %d decreases", i)
		}
		if strings.TrimSpace(stop.Color) == "" {
			return eris.Errorf("color stop %d has no color", i)
		}
	}
	return nil
}

// MarshalJSON encodes the scale as Plotly's [[fraction, color], ...] form.
func (s ColorScale) MarshalJSON() ([]byte, error) {
	pairs := make([][2]any, len(s))
	for i, stop := range s {
		pairs[i] = [2]any{stop.Fraction, stop.Color}
	}
	return json.Marshal(pairs)
}

// MetricSpec describes how one metric is read and drawn.
type MetricSpec struct {
	Key           MetricKey
	Column        string
	Label         string
	HoverTemplate string
	ColorScale    ColorScale
}

// MetricSpecs is a validated, ordered list of metric specs.
type MetricSpecs []MetricSpec

// NewMetricSpecs validates specs: keys must be known and unique, every spec
// needs a source column and a valid color scale.
func NewMetricSpecs(specs ...MetricSpec) (MetricSpecs, error) {
	if len(specs) == 0 {
		return nil, eris.New("model: at least one metric is required")
	}
	seen := make(map[MetricKey]bool, len(specs))
	out := make(MetricSpecs, 0, len(specs))
	for _, s := range specs {
		key, err := ParseMetricKey(string(s.Key))
		if err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, eris.Errorf("model: duplicate metric %q", key)
		}
		seen[key] = true
		if strings.TrimSpace(s.Column) == "" {
			return nil, eris.Errorf("model: metric %q has no column", key)
		}
		if err := s.ColorScale.Validate(); err != nil {
			return nil, eris.Wrapf(err, "model: metric %q", key)
		}
		s.Key = key
		if s.Label == "" {
			s.Label = s.Column
		}
		if s.HoverTemplate == "" {
			s.HoverTemplate = DefaultHoverTemplate(s.Column)
		}
		out = append(out, s)
	}
	return out, nil
}

// DefaultHoverTemplate renders "<name>" over "Number of <column>=<value>".
func DefaultHoverTemplate(column string) string {
	return fmt.Sprintf("<b>%%{text}</b><br><br>Number of %s=%%{z}<br><extra></extra>", column)
}

// Keys returns the metric keys in order.
func (s MetricSpecs) Keys() []MetricKey {
	keys := make([]MetricKey, len(s))
	for i, spec := range s {
		keys[i] = spec.Key
	}
	return keys
}

// Index returns the position of key.
func (s MetricSpecs) Index(key MetricKey) (int, bool) {
	for i, spec := range s {
		if spec.Key == key {
			return i, true
		}
	}
	return -1, false
}
