package normalize

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sells-group/covidmap/internal/model"
)

// MaxCountyFIPS is the exclusive upper bound of kept identifiers. Codes at or
// above it belong to territories and unassigned buckets.
const MaxCountyFIPS = 80000

// maxParsedFIPS bounds float-typed identifiers so the int64 conversion cannot
// overflow.
const maxParsedFIPS = 1e18

// ParseFIPS parses a raw identifier cell. Integer-valued decimal text such
// as "1001.0" or "1e3" is accepted because float-typed CSV exports produce
// it. Hex, NaN and Inf forms are not numeric.
func ParseFIPS(raw string) (int64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrBlankID
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < 0 {
			return 0, ErrNegative
		}
		return n, nil
	}
	if !isDecimal(s) {
		return 0, ErrNotNumeric
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, ErrNotNumeric
	}
	if f < 0 {
		return 0, ErrNegative
	}
	if math.IsInf(f, 0) || f >= maxParsedFIPS {
		return 0, ErrOutOfRange
	}
	if f != math.Trunc(f) {
		return 0, ErrFractional
	}
	return int64(f), nil
}

// isDecimal reports whether s only holds characters of plain decimal or
// exponent notation.
func isDecimal(s string) bool {
	digits := false
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '+' || c == '-' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return digits
}

// FormatFIPS formats a numeric county code with zero-padding to 5 digits.
func FormatFIPS(code int64) string {
	return fmt.Sprintf("%0*d", model.FIPSWidth, code)
}
