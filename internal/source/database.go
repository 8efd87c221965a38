package source

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/sells-group/covidmap/internal/normalize"
)

// DefaultQuery joins one snapshot of the covid table to the politics table
// and aliases the columns to the merged extract's names.
const DefaultQuery = `SELECT c.fips AS "FIPS", c.county AS "County_x", c.state AS "State_x",
       c.cases AS "Cases", c.deaths AS "Deaths",
       p.gop_2016 AS "GOP_2016", p.gop_2020 AS "GOP_2020"
FROM covid c
LEFT JOIN politics p ON p.fips = c.fips
WHERE c.date = $1`

// Querier is the subset of pgxpool.Pool used by Postgres.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Postgres runs the snapshot query against the covidPolitics database.
type Postgres struct {
	db    Querier
	query string
	date  int
	close func()
}

// NewPostgres connects a small pool to connString.
func NewPostgres(ctx context.Context, connString, query string, date int) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	p := NewPostgresWithQuerier(pool, query, date)
	p.close = pool.Close
	return p, nil
}

// NewPostgresWithQuerier wraps an existing pool or test double.
func NewPostgresWithQuerier(db Querier, query string, date int) *Postgres {
	if query == "" {
		query = DefaultQuery
	}
	if date == 0 {
		date = DefaultSnapshotDate
	}
	return &Postgres{db: db, query: query, date: date}
}

// Load implements Loader.
func (p *Postgres) Load(ctx context.Context) (normalize.RawTable, error) {
	rows, err := p.db.Query(ctx, p.query, p.date)
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "postgres: query snapshot")
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	header := make([]string, len(fields))
	for i, fd := range fields {
		header[i] = fd.Name
	}

	var records [][]string
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return normalize.RawTable{}, eris.Wrap(err, "postgres: read row")
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "postgres: iterate rows")
	}

	zap.L().Info("source: loaded postgres snapshot",
		zap.Int("date", p.date),
		zap.Int("records", len(records)),
	)
	return normalize.RawTable{Header: header, Records: records}, nil
}

// Close releases the pool when Postgres opened it.
func (p *Postgres) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}

// SQLite runs the snapshot query against a local SQLite extract.
type SQLite struct {
	db    *sql.DB
	query string
	date  int
}

// NewSQLite opens path read-only.
func NewSQLite(path, query string, date int) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA query_only=ON"); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "sqlite: exec PRAGMA query_only")
	}
	if query == "" {
		query = DefaultQuery
	}
	if date == 0 {
		date = DefaultSnapshotDate
	}
	return &SQLite{db: db, query: sqlitePlaceholders(query), date: date}, nil
}

// sqlitePlaceholders rewrites the Postgres-style $1 placeholder.
func sqlitePlaceholders(q string) string {
	return strings.ReplaceAll(q, "$1", "?")
}

// Load implements Loader.
func (s *SQLite) Load(ctx context.Context) (normalize.RawTable, error) {
	rows, err := s.db.QueryContext(ctx, s.query, s.date)
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "sqlite: query snapshot")
	}
	defer rows.Close() //nolint:errcheck

	header, err := rows.Columns()
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "sqlite: columns")
	}

	var records [][]string
	vals := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return normalize.RawTable{}, eris.Wrap(err, "sqlite: scan row")
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = cellString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "sqlite: iterate rows")
	}

	zap.L().Info("source: loaded sqlite snapshot",
		zap.Int("date", s.date),
		zap.Int("records", len(records)),
	)
	return normalize.RawTable{Header: header, Records: records}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
