package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV_Basic(t *testing.T) {
	input := "FIPS,County_x,Cases\n1001.0,Autauga,2500\n6037.0,Los Angeles,350000\n"

	header, records, err := ReadCSV(strings.NewReader(input), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"FIPS", "County_x", "Cases"}, header)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"6037.0", "Los Angeles", "350000"}, records[1])
}

func TestReadCSV_StripsBOMAndTrims(t *testing.T) {
	input := "\xEF\xBB\xBF fips , county \n 1001 , autauga \n"

	header, records, err := ReadCSV(strings.NewReader(input), CSVOptions{TrimSpace: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"fips", "county"}, header)
	assert.Equal(t, [][]string{{"1001", "autauga"}}, records)
}

func TestReadCSV_VariableFieldsAndDelimiter(t *testing.T) {
	input := "# comment\nfips;county;cases\n1001;a\n1003;b;7;extra\n"

	header, records, err := ReadCSV(strings.NewReader(input), CSVOptions{Delimiter: ';', Comment: '#'})
	require.NoError(t, err)
	assert.Len(t, header, 3)
	assert.Equal(t, []string{"1001", "a"}, records[0])
	assert.Len(t, records[1], 4)
}

func TestReadCSV_Errors(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader(""), CSVOptions{})
	assert.Error(t, err)

	_, _, err = ReadCSV(strings.NewReader("a,b\n\"unterminated,1\n"), CSVOptions{})
	assert.Error(t, err)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	header, records, err := ReadCSV(strings.NewReader("fips,county\n"), CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"fips", "county"}, header)
	assert.Empty(t, records)
}
