package raster

import (
	"fmt"
)

// Trim copies a width x height window of a raster into a new raster,
// offset by (offX, offY) in the source. Samples pulled from outside
// the source are set to the fill value. The coregistration step uses
// this to apply a whole-pixel offset to the slant range DEM and the
// simulated amplitude image before terrain correction.
func Trim(inPath, outPath string, offX, offY, width, height int, fill float64) error {
	in, err := OpenImage(inPath)
	if err != nil {
		return err
	}
	defer in.Close()

	outMeta := in.Meta
	outMeta.Samples = width
	outMeta.Lines = height
	out, err := CreateImage(outPath, outMeta)
	if err != nil {
		return err
	}
	defer out.Close()

	inLine := make([]float64, in.Meta.Samples)
	outLine := make([]float64, width)

	for b := 0; b < in.Meta.BandCount; b++ {
		for y := 0; y < height; y++ {
			srcY := y + offY
			if srcY < 0 || srcY >= in.Meta.Lines {
				for x := range outLine {
					outLine[x] = fill
				}
			} else {
				if err := in.ReadLine(b, srcY, inLine); err != nil {
					return fmt.Errorf("trim %s: %v", inPath, err)
				}
				for x := 0; x < width; x++ {
					srcX := x + offX
					if srcX < 0 || srcX >= in.Meta.Samples {
						outLine[x] = fill
					} else {
						outLine[x] = inLine[srcX]
					}
				}
			}
			if err := out.WriteLine(b, y, outLine); err != nil {
				return fmt.Errorf("trim %s: %v", outPath, err)
			}
		}
	}
	return nil
}
