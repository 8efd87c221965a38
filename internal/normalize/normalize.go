// Package normalize turns a raw tabular extract into a validated county
// table: 5-digit FIPS codes, title-cased names, and numeric metrics.
package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/covidmap/internal/model"
	"github.com/sells-group/covidmap/internal/tiger"
)

// Policy selects what happens to a record with a bad identifier.
type Policy string

const (
	// PolicySkip drops the record and keeps going.
	PolicySkip Policy = "skip"
	// PolicyAbort fails the whole load.
	PolicyAbort Policy = "abort"
)

// ParsePolicy parses a policy name; empty means skip.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyAbort:
		return PolicyAbort, nil
	default:
		return "", eris.Errorf("normalize: unknown parse error policy %q", s)
	}
}

// MetricColumn binds a metric key to a source column.
type MetricColumn struct {
	Key    model.MetricKey
	Column string
}

// Columns names the source columns read by Normalize.
type Columns struct {
	ID      string
	Name    string
	State   string // optional
	Metrics []MetricColumn
}

// Options tunes Normalize.
type Options struct {
	OnParseError Policy
	// MaxFIPS overrides MaxCountyFIPS when positive.
	MaxFIPS int64
}

// Report summarizes a normalization run.
type Report struct {
	Total    int
	Kept     int
	Filtered int
	Rejected []ParseError
	Missing  map[model.MetricKey]int
}

// Normalize validates raw against cols and builds the county table.
func Normalize(raw RawTable, cols Columns, opts Options) (*model.Table, Report, error) {
	log := zap.L().With(zap.String("component", "normalize"))

	report := Report{Missing: make(map[model.MetricKey]int, len(cols.Metrics))}

	idIdx, err := requireColumn(raw, cols.ID)
	if err != nil {
		return nil, report, err
	}
	nameIdx, err := requireColumn(raw, cols.Name)
	if err != nil {
		return nil, report, err
	}
	stateIdx := -1
	if cols.State != "" {
		if stateIdx, err = requireColumn(raw, cols.State); err != nil {
			return nil, report, err
		}
	}

	keys := make([]model.MetricKey, len(cols.Metrics))
	metricIdx := make([]int, len(cols.Metrics))
	for i, mc := range cols.Metrics {
		if metricIdx[i], err = requireColumn(raw, mc.Column); err != nil {
			return nil, report, err
		}
		keys[i] = mc.Key
		report.Missing[mc.Key] = 0
	}

	limit := opts.MaxFIPS
	if limit <= 0 {
		limit = MaxCountyFIPS
	}
	title := cases.Title(language.English)

	rows := make([]model.Row, 0, len(raw.Records))
	seen := make(map[string]bool, len(raw.Records))

	for i, rec := range raw.Records {
		report.Total++
		rawID := cell(rec, idIdx)

		code, perr := ParseFIPS(rawID)
		if perr == nil && code >= limit {
			report.Filtered++
			continue
		}
		var fips string
		if perr == nil {
			fips = FormatFIPS(code)
			if seen[fips] {
				perr = ErrDuplicate
			}
		}
		if perr != nil {
			pe := ParseError{Row: i + 1, Raw: rawID, Err: perr}
			if opts.OnParseError == PolicyAbort {
				return nil, report, eris.Wrap(&pe, "normalize: aborted")
			}
			report.Rejected = append(report.Rejected, pe)
			continue
		}
		seen[fips] = true

		values := make(map[model.MetricKey]model.Value, len(keys))
		for j, key := range keys {
			v := parseValue(cell(rec, metricIdx[j]))
			if !v.Valid {
				report.Missing[key]++
			}
			values[key] = v
		}

		name := displayName(title, cell(rec, nameIdx))
		rows = append(rows, model.NewRow(fips, name, stateOf(title, rec, stateIdx, fips), values))
	}
	report.Kept = len(rows)

	table, err := model.NewTable(keys, rows)
	if err != nil {
		return nil, report, &LoadError{Err: err}
	}

	if len(report.Rejected) > 0 {
		log.Warn("rejected rows with bad identifiers",
			zap.Int("rejected", len(report.Rejected)),
			zap.Int("first_row", report.Rejected[0].Row),
		)
	}
	log.Info("normalized table",
		zap.Int("total", report.Total),
		zap.Int("kept", report.Kept),
		zap.Int("filtered", report.Filtered),
	)

	return table, report, nil
}

// IsParseError reports whether err carries a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsLoadError reports whether err carries a LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

func requireColumn(raw RawTable, name string) (int, error) {
	if strings.TrimSpace(name) == "" {
		return -1, &LoadError{Err: eris.Wrap(ErrMissingColumn, "no column configured")}
	}
	idx, ok := raw.ColumnIndex(name)
	if !ok {
		return -1, &LoadError{Column: name, Err: ErrMissingColumn}
	}
	return idx, nil
}

func displayName(title cases.Caser, raw string) string {
	return title.String(strings.ToLower(strings.TrimSpace(raw)))
}

// stateOf prefers the state column: postal codes are upper-cased, full
// names title-cased. Without one the state comes from the FIPS prefix.
func stateOf(title cases.Caser, rec []string, idx int, fips string) string {
	if idx >= 0 {
		s := strings.TrimSpace(cell(rec, idx))
		switch {
		case len(s) == 2:
			return strings.ToUpper(s)
		case s != "":
			return displayName(title, s)
		}
	}
	st, _ := tiger.StateOfCounty(fips)
	return st
}

func parseValue(raw string) model.Value {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "nan", "n/a", "null", "none":
		return model.NoData
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return model.NoData
	}
	return model.Some(f)
}
