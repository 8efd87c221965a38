// Package selection computes which metric is visible. Exactly one map layer
// and one bar layer are visible at any time.
package selection

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/covidmap/internal/model"
)

// ErrOutOfRange is returned for a selected index outside [0, n).
var ErrOutOfRange = eris.New("selection index out of range")

// InitialVisibility shows the first metric.
func InitialVisibility(n int) []bool {
	if n <= 0 {
		return []bool{}
	}
	mask := make([]bool, n)
	mask[0] = true
	return mask
}

// ToggleMask returns a mask of length n with only index k set.
func ToggleMask(k, n int) ([]bool, error) {
	if k < 0 || k >= n {
		return nil, eris.Wrapf(ErrOutOfRange, "index %d of %d", k, n)
	}
	mask := make([]bool, n)
	mask[k] = true
	return mask, nil
}

// TraceMask is the restyle mask for a figure whose traces are the n bar
// layers followed by the n map layers.
func TraceMask(k, n int) ([]bool, error) {
	mask, err := ToggleMask(k, n)
	if err != nil {
		return nil, err
	}
	return append(append(make([]bool, 0, 2*n), mask...), mask...), nil
}

// Apply returns copies of maps and bars with Visible set from mask.
func Apply(maps []model.MapLayer, bars []model.BarLayer, mask []bool) ([]model.MapLayer, []model.BarLayer, error) {
	if len(maps) != len(mask) || len(bars) != len(mask) {
		return nil, nil, eris.Errorf("selection: mask length %d does not match %d map and %d bar layers",
			len(mask), len(maps), len(bars))
	}
	outMaps := append([]model.MapLayer(nil), maps...)
	outBars := append([]model.BarLayer(nil), bars...)
	for i, v := range mask {
		outMaps[i].Visible = v
		outBars[i].Visible = v
	}
	return outMaps, outBars, nil
}
