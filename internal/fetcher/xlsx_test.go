package fetcher

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

func createTestXLSX(t *testing.T, sheets map[string][][]string, order ...string) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, name := range order {
		sheet, err := f.AddSheet(name)
		require.NoError(t, err)
		for _, rowData := range sheets[name] {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_FirstSheet(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"covid": {
			{"fips", "county", "cases"},
			{"1001", "autauga", "10"},
			{"6037", "los angeles", "99"},
		},
		"other": {{"x"}},
	}, "covid", "other")

	header, records, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fips", "county", "cases"}, header)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"6037", "los angeles", "99"}, records[1])
}

func TestReadXLSX_ByName(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"covid":    {{"a"}},
		"politics": {{"fips", "gop_2020"}, {"1001", "0.72"}},
	}, "covid", "politics")

	header, records, err := ReadXLSX(path, XLSXOptions{SheetName: "politics"})
	require.NoError(t, err)
	assert.Equal(t, []string{"fips", "gop_2020"}, header)
	assert.Equal(t, [][]string{{"1001", "0.72"}}, records)

	_, _, err = ReadXLSX(path, XLSXOptions{SheetName: "missing"})
	assert.Error(t, err)

	_, _, err = ReadXLSX(path, XLSXOptions{SheetIndex: 5})
	assert.Error(t, err)
}

func TestReadXLSXBytes(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"s": {{"fips"}, {"1001"}},
	}, "s")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	header, records, err := ReadXLSXBytes(data, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fips"}, header)
	assert.Equal(t, [][]string{{"1001"}}, records)

	_, _, err = ReadXLSXBytes([]byte("not a workbook"), XLSXOptions{})
	assert.Error(t, err)
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, _, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), XLSXOptions{})
	assert.Error(t, err)
}
