// Package source loads the raw county extract from a CSV or XLSX file
// (local or remote) or from the covid/politics database, Postgres or SQLite.
package source

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/normalize"
)

// Kind names a source implementation.
type Kind string

// Supported kinds.
const (
	KindCSV      Kind = "csv"
	KindXLSX     Kind = "xlsx"
	KindPostgres Kind = "postgres"
	KindSQLite   Kind = "sqlite"
)

// DefaultSnapshotDate is the covid.date value the dashboards were built from.
const DefaultSnapshotDate = 11

// Config selects and configures a source.
type Config struct {
	Kind         Kind
	Path         string // csv/xlsx path or URL, sqlite file
	DatabaseURL  string // postgres
	Query        string // database query; $1 is the snapshot date
	SnapshotDate int
	Sheet        string
	Delimiter    rune
}

// Loader produces a raw table.
type Loader interface {
	Load(ctx context.Context) (normalize.RawTable, error)
}

// New builds the Loader for cfg. Database loaders own a connection and
// implement io.Closer.
func New(ctx context.Context, cfg Config, f *fetcher.Router) (Loader, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = inferKind(cfg)
	}
	if cfg.SnapshotDate == 0 {
		cfg.SnapshotDate = DefaultSnapshotDate
	}

	switch kind {
	case KindCSV:
		if cfg.Path == "" {
			return nil, eris.New("source: csv requires a path")
		}
		return &CSV{Location: cfg.Path, Fetcher: f, Options: fetcher.CSVOptions{Delimiter: cfg.Delimiter, TrimSpace: true}}, nil
	case KindXLSX:
		if cfg.Path == "" {
			return nil, eris.New("source: xlsx requires a path")
		}
		return &XLSX{Location: cfg.Path, Sheet: cfg.Sheet, Fetcher: f}, nil
	case KindPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("source: postgres requires a database url")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, cfg.Query, cfg.SnapshotDate)
	case KindSQLite:
		if cfg.Path == "" {
			return nil, eris.New("source: sqlite requires a path")
		}
		return NewSQLite(cfg.Path, cfg.Query, cfg.SnapshotDate)
	default:
		return nil, eris.Errorf("source: unknown kind %q", kind)
	}
}

func inferKind(cfg Config) Kind {
	if cfg.DatabaseURL != "" {
		return KindPostgres
	}
	p := strings.ToLower(cfg.Path)
	switch {
	case strings.HasSuffix(p, ".xlsx"):
		return KindXLSX
	case strings.HasSuffix(p, ".db"), strings.HasSuffix(p, ".sqlite"), strings.HasSuffix(p, ".sqlite3"):
		return KindSQLite
	}
	return KindCSV
}

// cellString renders a database value as the text a CSV export would hold.
func cellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.Itoa(x)
	case int16:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.Format(time.DateOnly)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return ""
		}
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
