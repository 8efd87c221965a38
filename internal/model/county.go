// Package model defines the county table, metric specs, and chart layers
// shared by the loader, the layer builder, and the dashboard.
package model

import (
	"regexp"
	"strconv"

	"github.com/rotisserie/eris"
)

// FIPSWidth is the fixed width of a county FIPS code.
const FIPSWidth = 5

var fipsPattern = regexp.MustCompile(`^[0-9]{5}$`)

// ValidFIPS reports whether code is a 5-digit, numeric-only county code.
func ValidFIPS(code string) bool {
	return fipsPattern.MatchString(code)
}

// Value is a metric value that may be absent ("no data").
type Value struct {
	Float float64
	Valid bool
}

// Some returns a present value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// NoData is the absent value.
var NoData = Value{}

// MarshalJSON encodes absent values as null so renderers can show gaps.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v.Float, 'f', -1, 64), nil
}

// UnmarshalJSON decodes null as NoData.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NoData
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrap(err, "model: decode value")
	}
	*v = Some(f)
	return nil
}

// Row is one county's record.
type Row struct {
	FIPS   string
	Name   string
	State  string
	values map[MetricKey]Value
}

// NewRow builds a Row. The values map is copied.
func NewRow(fips, name, state string, values map[MetricKey]Value) Row {
	cp := make(map[MetricKey]Value, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return Row{FIPS: fips, Name: name, State: state, values: cp}
}

// Value returns the row's value for key; unknown keys read as NoData.
func (r Row) Value(key MetricKey) Value {
	return r.values[key]
}

// Table is an ordered, immutable set of county rows.
type Table struct {
	metrics []MetricKey
	rows    []Row
	index   map[string]int
}

// NewTable validates rows and builds a Table. Every FIPS must be a
// 5-digit code and appear once.
func NewTable(metrics []MetricKey, rows []Row) (*Table, error) {
	t := &Table{
		metrics: append([]MetricKey(nil), metrics...),
		rows:    make([]Row, 0, len(rows)),
		index:   make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		if !ValidFIPS(r.FIPS) {
			return nil, eris.Errorf("model: invalid fips %q", r.FIPS)
		}
		if _, dup := t.index[r.FIPS]; dup {
			return nil, eris.Errorf("model: duplicate fips %q", r.FIPS)
		}
		t.index[r.FIPS] = len(t.rows)
		t.rows = append(t.rows, r)
	}
	return t, nil
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Row returns the i-th row in load order.
func (t *Table) Row(i int) Row { return t.rows[i] }

// Rows returns a copy of the rows in load order.
func (t *Table) Rows() []Row {
	return append([]Row(nil), t.rows...)
}

// Lookup finds a row by FIPS code.
func (t *Table) Lookup(fips string) (Row, bool) {
	i, ok := t.index[fips]
	if !ok {
		return Row{}, false
	}
	return t.rows[i], true
}

// Metrics returns the metric keys carried by every row.
func (t *Table) Metrics() []MetricKey {
	return append([]MetricKey(nil), t.metrics...)
}

// HasMetric reports whether the table carries key.
func (t *Table) HasMetric(key MetricKey) bool {
	for _, m := range t.metrics {
		if m == key {
			return true
		}
	}
	return false
}

// FIPSCodes returns the identifiers in load order.
func (t *Table) FIPSCodes() []string {
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.FIPS
	}
	return out
}
