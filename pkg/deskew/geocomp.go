package deskew

import (
	"math"
)

// A slant range column is layover once this many distinct ground
// range columns map into it.
const hitsForLayover = 2

// GeoCompensate resamples one full-scene source line (SAR amplitude,
// or an intermediate such as the mask itself) from slant range into
// ground range, driven by the ground range DEM line. While doing so
// it classifies pixels into the mask, when one is supplied: layover
// where multiple ground columns collapse into one slant column,
// shadow where the terrain is occluded, invalid data beyond the
// extreme reachable source positions.
//
// The pass is local to a single line; the only cross-line state is
// the stats accumulator.
func (g *Geometry)GeoCompensate(grDEM, in, out []float64, doInterp bool, mask []float64, stats *MaskStats) {
	ns := g.numSamples
	validDataYet := false
	lastGoodHeight := 0.0
	maxValidSrX := -1.0
	maxValidSrXHeight := 0.0

	// srHits tracks which ground range columns have mapped into each
	// slant range column, for layover detection.
	var srHits []int
	if mask != nil {
		srHits = make([]int, ns*hitsForLayover)
		for grX := 0; grX < ns; grX++ {
			if mask[grX] != MaskUserMasked && mask[grX] != MaskInvalidData {
				mask[grX] = MaskNormal
			}
			for i := 0; i < hitsForLayover; i++ {
				srHits[i*ns+grX] = -1
			}
		}
	}

	satHt := g.satHeight

	// Shadow tracker: the cosine of the biggest look angle seen so
	// far. Scanning across the line this should only grow; where it
	// shrinks, the pixel is behind a more extreme terrain point.
	biggestLook := -2.0

	for grX := 0; grX < ns; grX++ {
		height := grDEM[grX]
		if height < -900 {
			height = BadDEMHeight
		}

		if height != BadDEMHeight {
			srX := g.GroundToSlant(float64(grX), height)
			lastGoodHeight = height

			if srX >= 1 && srX < float64(ns-1) {
				x := int(math.Floor(srX))
				dx := srX - float64(x)
				if doInterp {
					out[grX] = (1-dx)*in[x] + dx*in[x+1]
				} else {
					// nearest neighbor; on a tie take the higher index
					if dx < 0.5 {
						out[grX] = in[x]
					} else {
						out[grX] = in[x+1]
					}
				}
				validDataYet = true

				if srX > maxValidSrX {
					maxValidSrX = srX
					maxValidSrXHeight = height
				}

				if mask != nil {
					// Layover
					isLayover := true
					for i := 0; i < hitsForLayover; i++ {
						if srHits[i*ns+x] == -1 {
							srHits[i*ns+x] = grX
							isLayover = false
							break
						}
					}
					if isLayover {
						// mark every ground range column that landed here
						for i := 0; i < hitsForLayover; i++ {
							if mask[srHits[i*ns+x]] == MaskNormal {
								stats.Layover++
								mask[srHits[i*ns+x]] = MaskLayover
							}
						}
						if mask[grX] == MaskNormal {
							mask[grX] = MaskLayover
							stats.Layover++
						}
					}

					// Shadow. Solve the look triangle at sea level for
					// this column's slant range, then re-solve with the
					// Earth radius raised by the local elevation.
					h := satHt
					sr := g.slantRange[grX]
					er := g.earthRadius
					phiCosX2 := (h*h + er*er - sr*sr) / (h * er)
					er += grDEM[grX]
					sr = math.Sqrt(h*h + er*er - h*er*phiCosX2)
					curLook := -(sr*sr + h*h - er*er) / (2 * sr * h)

					if curLook >= biggestLook {
						biggestLook = curLook
					} else if mask[grX] == MaskNormal {
						mask[grX] = MaskShadow
						stats.Shadow++
					}
				}
			} else {
				// source position for this pixel is outside the image
				out[grX] = 0
			}
		} else {
			// Bad DEM height. Carry data across small DEM gaps by
			// reusing the last known good elevation and copying the
			// nearest source sample. The mask lets the user drop
			// these pixels later if that's not wanted.
			srX := g.GroundToSlant(float64(grX), lastGoodHeight)

			if validDataYet && srX >= 0 && srX < float64(ns-1) {
				out[grX] = in[int(srX+0.5)]

				if out[grX] != 0.0 && srX > maxValidSrX {
					maxValidSrX = srX
					maxValidSrXHeight = lastGoodHeight
				}
			} else {
				out[grX] = 0
			}
		}
	}

	// Close single-pixel holes in the mask.
	if mask != nil {
		for grX := 2; grX < ns-2; grX++ {
			if mask[grX] == MaskNormal {
				if mask[grX-1] == MaskLayover && mask[grX+1] == MaskLayover {
					stats.Layover++
					mask[grX] = MaskLayover
				} else if mask[grX-1] == MaskShadow && mask[grX+1] == MaskShadow {
					stats.Shadow++
					mask[grX] = MaskShadow
				}
			}
		}
	}

	// Find the extreme valid source positions reachable from each end
	// of the line, then mark everything beyond them as invalid data.
	minValidSrX := float64(ns - 1)
	minValidSrXHeight := 0.0
	lastGoodHeight = 0
	for grX := ns - 1; grX >= 0; grX-- {
		height := grDEM[grX]
		if height > -900 && height != BadDEMHeight {
			lastGoodHeight = height
			srX := g.GroundToSlant(float64(grX), height)
			if srX >= 0 && srX < minValidSrX {
				minValidSrX = srX
				minValidSrXHeight = height
			}
		} else {
			srX := g.GroundToSlant(float64(grX), lastGoodHeight)
			if srX >= 0 && srX < minValidSrX {
				minValidSrX = srX
				minValidSrXHeight = lastGoodHeight
				if out[grX] == 0.0 {
					out[grX] = in[int(srX+0.5)]
				}
			}
		}
	}

	if mask != nil {
		maxValidGrX := int(math.Floor(g.SlantToGround(maxValidSrX, maxValidSrXHeight)))
		minValidGrX := int(math.Ceil(g.SlantToGround(minValidSrX, minValidSrXHeight)))

		if maxValidGrX < ns-1 && maxValidGrX >= 0 {
			for i := maxValidGrX; i < ns; i++ {
				mask[i] = MaskInvalidData
			}
		}
		if minValidGrX < ns-1 && minValidGrX >= 0 {
			for i := minValidGrX; i >= 0; i-- {
				if out[i] == 0.0 {
					mask[i] = MaskInvalidData
				}
			}
		}
	}
}
