package normalize

import "strings"

// RawTable is a loaded but unvalidated table: a header row plus string
// records. Short records read as blank cells.
type RawTable struct {
	Header  []string
	Records [][]string
}

// ColumnIndex finds a header by exact name first, then case-insensitively.
func (r RawTable) ColumnIndex(name string) (int, bool) {
	for i, h := range r.Header {
		if h == name {
			return i, true
		}
	}
	for i, h := range r.Header {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(name)) {
			return i, true
		}
	}
	return -1, false
}

func cell(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}
