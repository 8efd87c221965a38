package source

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/covidmap/internal/fetcher"
	"github.com/sells-group/covidmap/internal/normalize"
)

// CSV reads a delimited extract from a path or URL.
type CSV struct {
	Location string
	Fetcher  *fetcher.Router
	Options  fetcher.CSVOptions
}

// Load implements Loader.
func (s *CSV) Load(ctx context.Context) (normalize.RawTable, error) {
	rc, err := s.Fetcher.Download(ctx, s.Location)
	if err != nil {
		return normalize.RawTable{}, eris.Wrap(err, "source: csv")
	}
	defer rc.Close() //nolint:errcheck

	header, records, err := fetcher.ReadCSV(rc, s.Options)
	if err != nil {
		return normalize.RawTable{}, eris.Wrapf(err, "source: csv %s", s.Location)
	}

	zap.L().Info("source: loaded csv",
		zap.String("location", s.Location),
		zap.Int("records", len(records)),
	)
	return normalize.RawTable{Header: header, Records: records}, nil
}

// XLSX reads one worksheet of a workbook from a path or URL.
type XLSX struct {
	Location string
	Sheet    string
	Fetcher  *fetcher.Router
}

// Load implements Loader.
func (s *XLSX) Load(ctx context.Context) (normalize.RawTable, error) {
	opts := fetcher.XLSXOptions{SheetName: s.Sheet}

	var (
		header  []string
		records [][]string
		err     error
	)
	if fetcher.IsRemote(s.Location) {
		var data []byte
		if data, err = s.Fetcher.ReadAll(ctx, s.Location); err != nil {
			return normalize.RawTable{}, eris.Wrap(err, "source: xlsx")
		}
		header, records, err = fetcher.ReadXLSXBytes(data, opts)
	} else {
		header, records, err = fetcher.ReadXLSX(s.Location, opts)
	}
	if err != nil {
		return normalize.RawTable{}, eris.Wrapf(err, "source: xlsx %s", s.Location)
	}

	zap.L().Info("source: loaded xlsx",
		zap.String("location", s.Location),
		zap.Int("records", len(records)),
	)
	return normalize.RawTable{Header: header, Records: records}, nil
}
