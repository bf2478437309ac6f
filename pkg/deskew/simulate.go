package deskew

import (
	"math"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// SimulateScene converts a ground range DEM into the slant range
// geometry of the scene, producing both the slant range DEM that
// terrain correction consumes and a simulated amplitude image.
//
// The amplitude model is plain diffuse reflectance: the brightness of
// each terrain facet is the cosine between its normal and the radar
// incidence vector. Ground columns whose returns collapse into the
// same slant range column add up, so layover comes out bright, just
// like in the real image. That is what makes the simulation usable
// for coregistration against the real SAR amplitude.
func (g *Geometry)SimulateScene(grDEM *raster.Grid) (*raster.Grid, *raster.Grid) {
	ns := grDEM.Dx()
	nl := grDEM.Dy()
	demSlant := raster.NewGrid(ns, nl)
	simAmp := raster.NewGrid(ns, nl)

	ampLine := make([]float64, ns)

	for y := 0; y < nl; y++ {
		grLine := grDEM.Row(y)
		g.Reskew(grLine, demSlant.Row(y), true)

		for x := range ampLine {
			ampLine[x] = 0
		}
		for grX := 1; grX < ns; grX++ {
			height := grLine[grX]
			if badHeight(height) || badHeight(grLine[grX-1]) {
				continue
			}
			amp := g.facetBrightness(grX, grLine[grX-1], height)
			srX := g.GroundToSlant(float64(grX), height)
			if srX >= 0 && srX < float64(ns-1) {
				ampLine[int(srX+0.5)] += amp
			}
		}
		copy(simAmp.Row(y), ampLine)
	}
	return demSlant, simAmp
}

// facetBrightness is the diffuse return of the facet between columns
// grX-1 and grX: the cosine of the local incidence angle, clipped to
// zero for terrain facing away from the radar.
func (g *Geometry)facetBrightness(grX int, hLeft, h float64) float64 {
	dx := (h - hLeft) / g.grPixelSize
	cosAng := (dx*g.sinIncidAng[grX] + g.cosIncidAng[grX]) / math.Sqrt(dx*dx+1)
	if cosAng < 0 {
		return 0
	}
	return cosAng
}
