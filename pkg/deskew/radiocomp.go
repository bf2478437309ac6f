package deskew

import (
	"fmt"
	"math"
)

// Formula selects the radiometric terrain correction formula. Only
// the Kellndorfer formula is supported; the legacy ids from earlier
// toolchains are recognized so that selecting one fails with a
// configuration error instead of silently running untested math.
type Formula int

const (
	FormulaNone          Formula = 0 // radiometric correction off
	FormulaTanRatio      Formula = 1 // legacy, unsupported
	FormulaGroundOblique Formula = 2 // legacy, unsupported
	FormulaSquareRoot    Formula = 3 // legacy, unsupported
	FormulaVexcel        Formula = 4 // legacy, unsupported
	FormulaKellndorfer   Formula = 5 // Kellndorfer, IEEE TGRS 1998, 1396-1411
	FormulaDiffuse       Formula = 6 // legacy, unsupported
)

func (f Formula)Validate() error {
	switch f {
	case FormulaNone, FormulaKellndorfer:
		return nil
	case FormulaTanRatio, FormulaGroundOblique, FormulaSquareRoot, FormulaVexcel, FormulaDiffuse:
		return fmt.Errorf("use of an untested radiometric terrain correction formula: #%d", f)
	default:
		return fmt.Errorf("unknown radiometric terrain correction formula: #%d", f)
	}
}

// RadioCompensate normalizes the intensity of an already
// geometrically corrected line for local terrain slope. The slope is
// estimated from finite differences against the left neighbor and the
// previous ground range DEM line, which is why the orchestrator keeps
// two DEM lines around and why line 0 is never corrected.
//
// Where the terrain faces away from the radar the intensity is left
// alone: self-shadow is handled by the mask, not here.
func (g *Geometry)RadioCompensate(grDEM, grDEMprev, inout, mask []float64) {
	ns := g.numSamples
	for x := 1; x < ns; x++ {
		if mask[x] == MaskUserMasked {
			continue
		}
		// SRTM holes or no DEM data: leave the pixel alone
		if badHeight(grDEM[x]) || badHeight(grDEMprev[x]) || badHeight(grDEM[x-1]) {
			continue
		}

		// Terrain normal in the range direction, per pixel spacing.
		dx := (grDEM[x] - grDEM[x-1]) / g.grPixelSize

		// Cosine of the angle between the terrain normal and the
		// incidence vector, using the precomputed sin/cos tables.
		vecLen := math.Sqrt(dx*dx + 1)
		cosAng := (dx*g.sinIncidAng[x] + g.cosIncidAng[x]) / vecLen

		if cosAng >= 0 {
			// sin(acos(cosAng))/sin(incid), with the pythagorean
			// identity in place of sin(acos(x))
			inout[x] *= math.Sqrt(1.-cosAng*cosAng) / g.sinIncidAng[x]
		}
	}
}
