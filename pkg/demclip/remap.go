package demclip

import (
	"math"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// Remap resamples the reference DEM into a width x height grid in SAR
// image coordinates, pulling each output sample through the forward
// polynomial mapping with bilinear interpolation. Output samples that
// land outside the DEM, or whose neighborhood contains the DEM's
// no-data value, get noData.
func (m *Mapping)Remap(dem *raster.Grid, width, height int, noData float64) *raster.Grid {
	out := raster.NewGrid(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			demX := m.FwX.Eval(float64(x), float64(y))
			demY := m.FwY.Eval(float64(x), float64(y))

			if demX < 0 || demY < 0 || demX > float64(dem.Dx()-1) || demY > float64(dem.Dy()-1) {
				out.Set(x, y, noData)
				continue
			}

			ix := int(demX)
			iy := int(demY)
			if ix > dem.Dx()-2 { ix = dem.Dx() - 2 }
			if iy > dem.Dy()-2 { iy = dem.Dy() - 2 }
			if nearNoData(dem, ix, iy, noData) {
				out.Set(x, y, noData)
				continue
			}

			out.Set(x, y, dem.Bilinear(demX, demY))
		}
	}
	return out
}

func nearNoData(dem *raster.Grid, ix, iy int, noData float64) bool {
	const eps = 0.0001
	return math.Abs(dem.Get(ix, iy)-noData) < eps ||
		math.Abs(dem.Get(ix+1, iy)-noData) < eps ||
		math.Abs(dem.Get(ix, iy+1)-noData) < eps ||
		math.Abs(dem.Get(ix+1, iy+1)-noData) < eps
}
