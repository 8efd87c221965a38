package dashboard

import (
	"bytes"
	"html/template"

	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/preset"
)

// External assets loaded by the page.
const (
	PlotlyJS   = "https://cdn.plot.ly/plotly-2.35.2.min.js"
	StyleSheet = "https://codepen.io/chriddyp/pen/bWLwgP.css"
)

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="{{.StyleSheet}}">
<script src="{{.PlotlyJS}}"></script>
<style>
body { background-color: {{.Background}}; margin: 0 2em; }
#graph { height: 88vh; }
.footer { font-size: 0.9em; padding: 0.5em 0 1em; }
</style>
</head>
<body>
<div id="graph"></div>
<div class="footer">
{{- if .Footer}}<p>{{.Footer}}</p>{{end}}
{{- if .Attribution}}<p>Data sources:{{range $i, $s := .Attribution}}{{if $i}},{{end}} <a href="{{$s.URL}}">{{$s.Name}}</a>{{end}}</p>{{end}}
{{- if .RankingsURL}}<p><a href="{{.RankingsURL}}">County rankings</a></p>{{end}}
</div>
<script>
var figure = {{.Figure}};
Plotly.newPlot("graph", figure.data, figure.layout, {responsive: true});
</script>
</body>
</html>
`))

type pageData struct {
	Title       string
	StyleSheet  string
	PlotlyJS    string
	Background  template.CSS
	Footer      string
	Attribution []preset.Source
	RankingsURL string
	Figure      template.JS
}

// RenderPage produces the dashboard HTML around an encoded figure.
// rankingsURL may be empty.
func RenderPage(p *preset.Preset, figure []byte, rankingsURL string) ([]byte, error) {
	data := pageData{
		Title:       p.Title.Text,
		StyleSheet:  StyleSheet,
		PlotlyJS:    PlotlyJS,
		Background:  template.CSS(p.Theme.Background),
		Footer:      p.Footer,
		Attribution: p.Attribution,
		RankingsURL: rankingsURL,
		// encoding/json escapes <, >, and & so the figure cannot close the
		// script element.
		Figure: template.JS(figure),
	}
	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return nil, eris.Wrap(err, "dashboard: render page")
	}
	return buf.Bytes(), nil
}
