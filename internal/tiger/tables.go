// Package tiger downloads Census TIGER/Line county shapefiles and converts
// them into GeoJSON boundaries keyed by county FIPS.
package tiger

import "fmt"

// DefaultYear is the TIGER/Line vintage used when none is configured.
const DefaultYear = 2024

// CountyFields are the DBF attributes read from the county shapefile.
var CountyFields = struct {
	GEOID    string
	Name     string
	NameLSAD string
	StateFP  string
}{
	GEOID:    "GEOID",
	Name:     "NAME",
	NameLSAD: "NAMELSAD",
	StateFP:  "STATEFP",
}

// FIPSCodes maps state and territory abbreviation to 2-digit FIPS code.
var FIPSCodes = map[string]string{
	"AL": "01", "AK": "02", "AZ": "04", "AR": "05", "CA": "06",
	"CO": "08", "CT": "09", "DE": "10", "DC": "11", "FL": "12",
	"GA": "13", "HI": "15", "ID": "16", "IL": "17", "IN": "18",
	"IA": "19", "KS": "20", "KY": "21", "LA": "22", "ME": "23",
	"MD": "24", "MA": "25", "MI": "26", "MN": "27", "MS": "28",
	"MO": "29", "MT": "30", "NE": "31", "NV": "32", "NH": "33",
	"NJ": "34", "NM": "35", "NY": "36", "NC": "37", "ND": "38",
	"OH": "39", "OK": "40", "OR": "41", "PA": "42", "RI": "44",
	"SC": "45", "SD": "46", "TN": "47", "TX": "48", "UT": "49",
	"VT": "50", "VA": "51", "WA": "53", "WV": "54", "WI": "55",
	"WY": "56",
	"AS": "60", "GU": "66", "MP": "69", "PR": "72", "VI": "78",
}

var abbrByFIPS map[string]string

func init() {
	abbrByFIPS = make(map[string]string, len(FIPSCodes))
	for abbr, fips := range FIPSCodes {
		abbrByFIPS[fips] = abbr
	}
}

// AbbrFromFIPS returns the state abbreviation for a 2-digit state FIPS code.
func AbbrFromFIPS(fips string) (string, bool) {
	abbr, ok := abbrByFIPS[fips]
	return abbr, ok
}

// StateOfCounty returns the state abbreviation for a 5-digit county code.
func StateOfCounty(countyFIPS string) (string, bool) {
	if len(countyFIPS) < 2 {
		return "", false
	}
	return AbbrFromFIPS(countyFIPS[:2])
}

// CountyURL builds the Census Bureau download URL for the national county
// shapefile of the given year.
func CountyURL(year int) string {
	if year == 0 {
		year = DefaultYear
	}
	return fmt.Sprintf("https://www2.census.gov/geo/tiger/TIGER%d/COUNTY/tl_%d_us_county.zip", year, year)
}
