package model

// MapLayer is a choropleth overlay for one metric.
type MapLayer struct {
	Metric        MetricKey
	Label         string
	Locations     []string
	Values        []Value
	Text          []string
	ColorScale    ColorScale
	HoverTemplate string
	Visible       bool
}

// BarEntry is one county in a ranked bar layer. Rank 1 is the largest value.
type BarEntry struct {
	Rank  int
	FIPS  string
	Name  string
	Value Value
}

// BarLayer is a horizontal top-N ranking for one metric. Entries are stored
// in ascending order so the largest bar renders on top.
type BarLayer struct {
	Metric  MetricKey
	Label   string
	Entries []BarEntry
	Visible bool
}

// Ranked returns the entries from rank 1 downward.
func (b BarLayer) Ranked() []BarEntry {
	out := make([]BarEntry, len(b.Entries))
	for i, e := range b.Entries {
		out[len(b.Entries)-1-i] = e
	}
	return out
}

// Names returns the bar labels in rendering order.
func (b BarLayer) Names() []string {
	out := make([]string, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Name
	}
	return out
}

// Values returns the bar values in rendering order.
func (b BarLayer) Values() []Value {
	out := make([]Value, len(b.Entries))
	for i, e := range b.Entries {
		out[i] = e.Value
	}
	return out
}
