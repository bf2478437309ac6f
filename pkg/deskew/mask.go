package deskew

import (
	"fmt"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// Elevation sentinels. The two mean different things and are kept
// distinct: BadDEMHeight marks a sample inside DEM coverage whose
// elevation is unknown (e.g. an SRTM void), NoDEMData marks a sample
// outside the DEM's footprint entirely. Gaps bounded by NoDEMData are
// never interpolated across; BadDEMHeight gaps may be. During
// compensation any elevation below -900 is treated as a bad height.
const (
	BadDEMHeight = -100000.0
	NoDEMData    = -999.0
)

func badHeight(h float64) bool {
	return h < -900 || h == BadDEMHeight
}

func isNoData(h float64) bool {
	return math.Abs(h-NoDEMData) < 0.0001
}

// Per-pixel classification codes, stored as a float raster line
// parallel to the data line.
const (
	MaskNormal      = 1.0
	MaskUserMasked  = 2.0
	MaskShadow      = 3.0
	MaskLayover     = 4.0
	MaskInvalidData = 5.0
)

// LeaveFill is the fill value meaning "leave masked data untouched".
const LeaveFill = -1.0

// MaskStats accumulates pixel classification counts over one run.
// It is owned by the orchestrator and passed into the geometric
// compensator, never global.
type MaskStats struct {
	Layover    int
	Shadow     int
	UserMasked int
}

func (s MaskStats)Report(totalPixels int) string {
	pct := func(n int) float64 {
		if totalPixels == 0 {
			return 0
		}
		return 100.0 * float64(n) / float64(totalPixels)
	}
	return fmt.Sprintf("Mask Statistics:\n"+
		"    Layover Pixels: %9d/%d (%f%%)\n"+
		"     Shadow Pixels: %9d/%d (%f%%)\n"+
		"User Masked Pixels: %9d/%d (%f%%)\n",
		s.Layover, totalPixels, pct(s.Layover),
		s.Shadow, totalPixels, pct(s.Shadow),
		s.UserMasked, totalPixels, pct(s.UserMasked))
}

// normalizeInputMask converts an externally supplied mask line to the
// classification codes: 2 means invalid data, any other nonzero value
// is a user mask, zero is unmasked.
func normalizeInputMask(maskLine []float64) {
	for x, v := range maskLine {
		switch {
		case v == 2.0:
			maskLine[x] = MaskInvalidData
		case v != 0:
			maskLine[x] = MaskUserMasked
		default:
			maskLine[x] = MaskNormal
		}
	}
}

// applyMask fills user-masked pixels with the fill value (unless it
// is LeaveFill), zeroes pixels with no DEM coverage, and optionally
// zeroes layover/shadow pixels.
func applyMask(line, maskLine, grDEM []float64, fill float64, zeroShadowLayover bool, stats *MaskStats) {
	for x := range line {
		if maskLine[x] == MaskUserMasked {
			stats.UserMasked++
			if fill != LeaveFill {
				line[x] = fill
			}
		}

		if isNoData(grDEM[x]) {
			line[x] = 0.0
		}

		if zeroShadowLayover && (maskLine[x] == MaskLayover || maskLine[x] == MaskShadow) {
			line[x] = 0.0
		}
	}
}

// MaskPalette is the quicklook palette for mask rasters, indexed by
// classification code.
func MaskPalette() []colorful.Color {
	return []colorful.Color{
		{R: 0, G: 0, B: 0},             // unused
		{R: 0.25, G: 0.25, B: 0.25},    // normal
		{R: 0.1, G: 0.3, B: 0.9},       // user masked
		{R: 0.05, G: 0.05, B: 0.35},    // shadow
		{R: 0.95, G: 0.75, B: 0.1},     // layover
		{R: 0.8, G: 0.1, B: 0.1},       // invalid data
	}
}

// MaskQuicklook renders a mask raster as a colored PNG.
func MaskQuicklook(maskPath, pngPath string) error {
	im, err := raster.OpenImage(maskPath)
	if err != nil {
		return err
	}
	defer im.Close()
	g, err := raster.ReadGrid(im, 0)
	if err != nil {
		return err
	}
	return g.ToPalettePNG(pngPath, MaskPalette())
}
