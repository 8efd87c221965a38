// Package dashboard turns a built pipeline Result into the Plotly figure,
// the HTML page, the rankings page, and the HTTP handlers that serve them.
package dashboard

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/pipeline"
	"github.com/sells-group/covidmap/internal/preset"
)

// BoundariesPath is where the served page fetches its GeoJSON.
const BoundariesPath = "/boundaries.geojson"

// Options configures a Dashboard.
type Options struct {
	MapboxToken string
}

// Dashboard is the immutable, pre-rendered output of one build.
type Dashboard struct {
	res  *pipeline.Result
	opts Options

	figure   []byte // boundaries referenced by URL
	page     []byte
	rankings []byte
	layers   []byte
	report   []byte
}

// New renders every artifact of res up front.
func New(res *pipeline.Result, opts Options) (*Dashboard, error) {
	if res == nil || res.Preset == nil || res.Boundaries == nil {
		return nil, eris.New("dashboard: incomplete build result")
	}
	d := &Dashboard{res: res, opts: opts}

	fig, err := d.FigureJSON(false)
	if err != nil {
		return nil, err
	}
	d.figure = fig

	if d.page, err = RenderPage(res.Preset, fig, "rankings"); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteRankings(&buf, res.Preset.Title.Text, res.Bars, res.Preset.Theme); err != nil {
		return nil, err
	}
	d.rankings = buf.Bytes()

	if d.layers, err = json.Marshal(layerSummaries(res)); err != nil {
		return nil, eris.Wrap(err, "dashboard: encode layers")
	}
	if d.report, err = json.Marshal(newReport(res)); err != nil {
		return nil, eris.Wrap(err, "dashboard: encode report")
	}
	return d, nil
}

// BuildID identifies the build the dashboard was rendered from.
func (d *Dashboard) BuildID() string { return d.res.BuildID }

// Result returns the underlying build.
func (d *Dashboard) Result() *pipeline.Result { return d.res }

// View returns the figure settings. With inline set the boundaries are
// embedded in every choropleth trace instead of referenced by URL.
func (d *Dashboard) View(inline bool) View {
	p := d.res.Preset
	v := View{
		Title:       p.Title,
		Theme:       p.Theme,
		Center:      d.res.Center,
		Zoom:        p.Map.Zoom,
		Style:       p.Map.Style,
		Opacity:     p.Map.Opacity,
		MapboxToken: d.opts.MapboxToken,
		GeoJSON:     BoundariesPath[1:],
	}
	if inline {
		v.GeoJSON = d.res.Boundaries.Raw()
	}
	return v
}

// FigureJSON encodes the figure.
func (d *Dashboard) FigureJSON(inline bool) ([]byte, error) {
	fig, err := BuildFigure(d.res.Maps, d.res.Bars, d.View(inline))
	if err != nil {
		return nil, err
	}
	return MarshalFigure(fig)
}

// StaticHTML renders a self-contained page with the boundaries inlined.
func (d *Dashboard) StaticHTML() ([]byte, error) {
	fig, err := d.FigureJSON(true)
	if err != nil {
		return nil, err
	}
	return RenderPage(d.res.Preset, fig, "")
}

// RankingsHTML returns the rendered rankings page.
func (d *Dashboard) RankingsHTML() []byte { return d.rankings }

type layerSummary struct {
	Metric     model.MetricKey  `json:"metric"`
	Label      string           `json:"label"`
	Visible    bool             `json:"visible"`
	Counties   int              `json:"counties"`
	ColorScale model.ColorScale `json:"colorscale"`
	Ranking    []rankedCounty   `json:"ranking"`
}

type rankedCounty struct {
	Rank  int         `json:"rank"`
	FIPS  string      `json:"fips"`
	Name  string      `json:"name"`
	Value model.Value `json:"value"`
}

func layerSummaries(res *pipeline.Result) []layerSummary {
	out := make([]layerSummary, len(res.Bars))
	for i, b := range res.Bars {
		out[i] = summarize(res.Maps[i], b)
	}
	return out
}

func summarize(m model.MapLayer, b model.BarLayer) layerSummary {
	ranked := b.Ranked()
	s := layerSummary{
		Metric:     b.Metric,
		Label:      b.Label,
		Visible:    b.Visible,
		Counties:   len(m.Locations),
		ColorScale: m.ColorScale,
		Ranking:    make([]rankedCounty, len(ranked)),
	}
	for i, e := range ranked {
		s.Ranking[i] = rankedCounty{Rank: e.Rank, FIPS: e.FIPS, Name: e.Name, Value: e.Value}
	}
	return s
}

type rejectedRow struct {
	Row    int    `json:"row"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

type buildReport struct {
	BuildID  string                  `json:"build_id"`
	Preset   string                  `json:"preset"`
	BuiltAt  string                  `json:"built_at"`
	Total    int                     `json:"total"`
	Kept     int                     `json:"kept"`
	Filtered int                     `json:"filtered"`
	Rejected []rejectedRow           `json:"rejected"`
	Missing  map[model.MetricKey]int `json:"missing_values"`
	Coverage struct {
		Matched  int      `json:"matched"`
		Missing  []string `json:"missing"`
		Unused   int      `json:"unused"`
		Features int      `json:"features"`
	} `json:"coverage"`
	Center preset.LatLon `json:"center"`
}

func newReport(res *pipeline.Result) buildReport {
	r := buildReport{
		BuildID:  res.BuildID,
		Preset:   res.Preset.Name,
		BuiltAt:  res.BuiltAt.UTC().Format("2006-01-02T15:04:05Z"),
		Total:    res.Report.Total,
		Kept:     res.Report.Kept,
		Filtered: res.Report.Filtered,
		Rejected: make([]rejectedRow, len(res.Report.Rejected)),
		Missing:  res.Report.Missing,
		Center:   res.Center,
	}
	for i, pe := range res.Report.Rejected {
		r.Rejected[i] = rejectedRow{Row: pe.Row, Raw: pe.Raw, Reason: pe.Err.Error()}
	}
	r.Coverage.Matched = res.Coverage.Matched
	r.Coverage.Missing = res.Coverage.Missing
	if r.Coverage.Missing == nil {
		r.Coverage.Missing = []string{}
	}
	r.Coverage.Unused = res.Coverage.Unused
	r.Coverage.Features = res.Boundaries.Len()
	return r
}
