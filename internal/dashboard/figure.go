package dashboard

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/preset"
	"github.com/sells-group/covidmap/internal/selection"
)

// Map styles used when the preset does not name one.
const (
	StyleNoToken   = "carto-positron"
	StyleWithToken = "light"
)

// Figure is a Plotly figure: bar traces first, then choropleth traces.
type Figure struct {
	Data   []any  `json:"data"`
	Layout Layout `json:"layout"`
}

// BarTrace is a horizontal ranking.
type BarTrace struct {
	Type        string        `json:"type"`
	Name        string        `json:"name"`
	Orientation string        `json:"orientation"`
	X           []model.Value `json:"x"`
	Y           []string      `json:"y"`
	XAxis       string        `json:"xaxis"`
	YAxis       string        `json:"yaxis"`
	Visible     bool          `json:"visible"`
	Marker      BarMarker     `json:"marker"`
}

// BarMarker styles the bars.
type BarMarker struct {
	Color string `json:"color"`
	Line  Line   `json:"line"`
}

// Line is a marker outline.
type Line struct {
	Color string  `json:"color,omitempty"`
	Width float64 `json:"width"`
}

// MapTrace is a choroplethmapbox layer.
type MapTrace struct {
	Type          string           `json:"type"`
	Name          string           `json:"name"`
	GeoJSON       any              `json:"geojson"`
	Locations     []string         `json:"locations"`
	Z             []model.Value    `json:"z"`
	Text          []string         `json:"text"`
	ColorScale    model.ColorScale `json:"colorscale"`
	HoverTemplate string           `json:"hovertemplate"`
	Visible       bool             `json:"visible"`
	Marker        MapMarker        `json:"marker"`
	ColorBar      ColorBar         `json:"colorbar"`
}

// MapMarker styles the county polygons.
type MapMarker struct {
	Opacity float64 `json:"opacity"`
	Line    Line    `json:"line"`
}

// ColorBar styles the legend bar of a choropleth.
type ColorBar struct {
	Thickness int `json:"thickness"`
	TickLen   int `json:"ticklen"`
}

// Layout is the figure layout.
type Layout struct {
	Title        LayoutTitle  `json:"title"`
	Mapbox       Mapbox       `json:"mapbox"`
	XAxis2       Axis         `json:"xaxis2"`
	YAxis2       Axis         `json:"yaxis2"`
	UpdateMenus  []UpdateMenu `json:"updatemenus"`
	PaperBGColor string       `json:"paper_bgcolor"`
	PlotBGColor  string       `json:"plot_bgcolor"`
	Margin       Margin       `json:"margin"`
	ShowLegend   bool         `json:"showlegend"`
}

// LayoutTitle is the figure title.
type LayoutTitle struct {
	Text string  `json:"text"`
	Font Font    `json:"font"`
	X    float64 `json:"x"`
}

// Font is a Plotly font.
type Font struct {
	Family string `json:"family,omitempty"`
	Size   int    `json:"size,omitempty"`
}

// Mapbox is the map subplot.
type Mapbox struct {
	Style       string        `json:"style"`
	AccessToken string        `json:"accesstoken,omitempty"`
	Center      preset.LatLon `json:"center"`
	Zoom        float64       `json:"zoom"`
	Domain      Domain        `json:"domain"`
}

// Domain is a subplot position in paper coordinates.
type Domain struct {
	X []float64 `json:"x"`
	Y []float64 `json:"y"`
}

// Axis is a cartesian axis of the bar subplot.
type Axis struct {
	Domain []float64 `json:"domain"`
	Anchor string    `json:"anchor"`
}

// UpdateMenu is the metric dropdown.
type UpdateMenu struct {
	Type       string   `json:"type"`
	Direction  string   `json:"direction"`
	Active     int      `json:"active"`
	ShowActive bool     `json:"showactive"`
	X          float64  `json:"x"`
	XAnchor    string   `json:"xanchor"`
	Y          float64  `json:"y"`
	YAnchor    string   `json:"yanchor"`
	Buttons    []Button `json:"buttons"`
}

// Button toggles trace visibility with a restyle call.
type Button struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Args   []any  `json:"args"`
}

// Margin is the figure margin in pixels.
type Margin struct {
	L int `json:"l"`
	R int `json:"r"`
	T int `json:"t"`
	B int `json:"b"`
}

// View carries the presentation settings of a figure.
type View struct {
	Title       preset.Title
	Theme       preset.Theme
	Center      preset.LatLon
	Zoom        float64
	Style       string
	Opacity     float64
	MapboxToken string
	// GeoJSON is either the boundary URL or the inlined FeatureCollection.
	GeoJSON any
}

// BuildFigure lays out the bar and map layers with one dropdown button per
// metric. maps[i] and bars[i] must describe the same metric.
func BuildFigure(maps []model.MapLayer, bars []model.BarLayer, view View) (*Figure, error) {
	if len(maps) != len(bars) {
		return nil, eris.Errorf("dashboard: %d map layers but %d bar layers", len(maps), len(bars))
	}
	n := len(maps)

	fig := &Figure{Data: make([]any, 0, 2*n)}
	for _, b := range bars {
		fig.Data = append(fig.Data, BarTrace{
			Type:        "bar",
			Name:        b.Label,
			Orientation: "h",
			X:           nonNil(b.Values()),
			Y:           nonNilStrings(b.Names()),
			XAxis:       "x2",
			YAxis:       "y2",
			Visible:     b.Visible,
			Marker: BarMarker{
				Color: view.Theme.BarColor,
				Line:  Line{Color: view.Theme.BarLineColor, Width: view.Theme.BarLineWidth},
			},
		})
	}
	for i, m := range maps {
		if m.Metric != bars[i].Metric {
			return nil, eris.Errorf("dashboard: layer %d mixes metrics %s and %s", i, m.Metric, bars[i].Metric)
		}
		fig.Data = append(fig.Data, MapTrace{
			Type:          "choroplethmapbox",
			Name:          m.Label,
			GeoJSON:       view.GeoJSON,
			Locations:     nonNilStrings(m.Locations),
			Z:             nonNil(m.Values),
			Text:          nonNilStrings(m.Text),
			ColorScale:    m.ColorScale,
			HoverTemplate: m.HoverTemplate,
			Visible:       m.Visible,
			Marker:        MapMarker{Opacity: view.Opacity, Line: Line{Width: 0}},
			ColorBar:      ColorBar{Thickness: 20, TickLen: 3},
		})
	}

	buttons := make([]Button, 0, n)
	active := 0
	for k, m := range maps {
		mask, err := selection.TraceMask(k, n)
		if err != nil {
			return nil, eris.Wrap(err, "dashboard: dropdown mask")
		}
		buttons = append(buttons, Button{
			Label:  m.Label,
			Method: "restyle",
			Args:   []any{map[string]any{"visible": mask}},
		})
		if m.Visible {
			active = k
		}
	}

	fig.Layout = Layout{
		Title: LayoutTitle{
			Text: view.Title.Text,
			Font: Font{Family: view.Title.FontFamily, Size: view.Title.FontSize},
			X:    0.5,
		},
		Mapbox: Mapbox{
			Style:       mapStyle(view.Style, view.MapboxToken),
			AccessToken: view.MapboxToken,
			Center:      view.Center,
			Zoom:        view.Zoom,
			Domain:      Domain{X: []float64{0.3, 1}, Y: []float64{0, 1}},
		},
		XAxis2: Axis{Domain: []float64{0, 0.25}, Anchor: "y2"},
		YAxis2: Axis{Domain: []float64{0.4, 0.9}, Anchor: "x2"},
		UpdateMenus: []UpdateMenu{{
			Type:       "dropdown",
			Direction:  "down",
			Active:     active,
			ShowActive: true,
			X:          0,
			XAnchor:    "left",
			Y:          1,
			YAnchor:    "top",
			Buttons:    buttons,
		}},
		PaperBGColor: view.Theme.Background,
		PlotBGColor:  view.Theme.Background,
		Margin:       Margin{L: 100, R: 20, T: 70, B: 70},
	}
	return fig, nil
}

// MarshalFigure encodes fig as JSON.
func MarshalFigure(fig *Figure) ([]byte, error) {
	data, err := json.Marshal(fig)
	if err != nil {
		return nil, eris.Wrap(err, "dashboard: encode figure")
	}
	return data, nil
}

func mapStyle(style, token string) string {
	switch {
	case style != "":
		return style
	case token != "":
		return StyleWithToken
	default:
		return StyleNoToken
	}
}

// nonNil keeps empty layers encoding as [] rather than null.
func nonNil(v []model.Value) []model.Value {
	if v == nil {
		return []model.Value{}
	}
	return v
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
