package deskew

import (
	"math"
)

// Gaps narrower than this many output columns are always interpolated
// across, even when hole filling is off.
const maxBreakLen = 5

// ResampleDEM converts one full line of slant range elevations into
// ground range elevations. The output is pre-initialized to the bad
// height sentinel; valid input samples are projected to their ground
// range column and the spans between consecutive placements are
// either interpolated, filled with NoDEMData (when either endpoint is
// a coverage gap), or left as holes, depending on the fill policy.
func (g *Geometry)ResampleDEM(in, out []float64, fillHoles bool) {
	ns := len(in)
	lastOutX := -1
	lastOutValue := BadDEMHeight

	for outX := 0; outX < ns; outX++ {
		out[outX] = BadDEMHeight
	}

	for inX := 0; inX < ns; inX++ {
		height := in[inX]
		outX := int(g.SlantToGround(float64(inX), height))

		if height > BadDEMHeight && outX >= 0 && outX < ns {
			if isNoData(lastOutValue) || isNoData(height) {
				// Coverage gaps are not interpolated across.
				for x := lastOutX + 1; x <= outX; x++ {
					out[x] = NoDEMData
				}
			} else if lastOutValue != BadDEMHeight && (fillHoles || outX-lastOutX < maxBreakLen) {
				curr := lastOutValue
				delt := (height - lastOutValue) / float64(outX-lastOutX)
				curr += delt
				for x := lastOutX + 1; x <= outX; x++ {
					out[x] = curr
					curr += delt
				}
			}
			lastOutValue = height
			lastOutX = outX
		}
	}
}

// ShiftGround re-projects an original ground range DEM line into the
// scene's ground range indexing. This is a position lookup only; no
// elevation-aware warping is applied, so the result is interchangeable
// with a backconverted line as input to the compensators.
func (g *Geometry)ShiftGround(in, out []float64) {
	ns := g.numSamples
	for x := 0; x < ns; x++ {
		newX := int(math.Floor(g.slantGR[x]))
		switch {
		case newX < 0:
			out[x] = in[0]
		case newX > ns-2:
			out[x] = in[ns-1]
		default:
			frac := g.slantGR[x] - float64(newX)
			out[x] = in[newX]*(1.-frac) + in[newX+1]*frac
		}
	}
}

// Reskew is the inverse of ResampleDEM: it converts a ground range
// elevation line back into slant range, with the same hole fill
// policy. The simulated amplitude step uses it to build the slant
// range DEM that coregistration and terrain correction consume.
func (g *Geometry)Reskew(in, out []float64, fillHoles bool) {
	ns := len(in)
	lastOutX := -1
	lastOutValue := BadDEMHeight

	for outX := 0; outX < ns; outX++ {
		out[outX] = BadDEMHeight
	}

	for inX := 0; inX < ns; inX++ {
		height := in[inX]
		outX := int(g.GroundToSlant(float64(inX), height))

		if height > BadDEMHeight && outX >= 0 && outX < ns {
			if isNoData(lastOutValue) || isNoData(height) {
				for x := lastOutX + 1; x <= outX; x++ {
					out[x] = NoDEMData
				}
			} else if lastOutValue != BadDEMHeight && (fillHoles || outX-lastOutX < maxBreakLen) {
				curr := lastOutValue
				delt := (height - lastOutValue) / float64(outX-lastOutX)
				curr += delt
				for x := lastOutX + 1; x <= outX; x++ {
					out[x] = curr
					curr += delt
				}
			}
			lastOutValue = height
			lastOutX = outX
		}
	}
}
