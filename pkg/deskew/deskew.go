package deskew

import (
	"fmt"
	"log"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// GroundDEM selects which ground range DEM variant drives geometric
// compensation: the line backconverted from the slant range DEM
// (always available), or the original ground range DEM re-projected
// into the same indexing (when one is supplied).
type GroundDEM int

const (
	BackconvertedGroundDEM GroundDEM = iota
	OriginalGroundDEM
)

// Config describes one terrain correction run.
type Config struct {
	SlantDEM  string // input slant range DEM (required)
	GroundDEM string // input ground range DEM (optional)
	Output    string // output raster
	SAR       string // input SAR image; empty means DEM-only correction

	Formula   Formula // FormulaNone disables radiometric correction
	InMask    string  // optional user mask, same dimensions as the SAR
	OutMask   string  // optional layover/shadow mask output
	FillHoles bool
	FillValue float64 // value for user-masked regions; LeaveFill keeps data
	GeoDEM    GroundDEM
}

// Run streams the scene through the terrain correction passes, one
// output line at a time, and reports the classification statistics.
// Fatal preconditions are checked before any line is processed; on a
// mid-run failure, output written so far is left on disk.
func Run(cfg Config) (*RunStats, error) {
	if err := cfg.Formula.Validate(); err != nil {
		return nil, err
	}

	demSlant, err := raster.OpenImage(cfg.SlantDEM)
	if err != nil {
		return nil, err
	}
	defer demSlant.Close()
	if demSlant.Meta.ImageType == raster.ImageTypeMapProjected {
		return nil, fmt.Errorf("DEM %s cannot be map projected for terrain correction", cfg.SlantDEM)
	}

	ns := demSlant.Meta.Samples
	numLines := demSlant.Meta.Lines

	sarFlag := cfg.SAR != ""
	var sar *raster.Image
	bandCount := 1
	if sarFlag {
		if sar, err = raster.OpenImage(cfg.SAR); err != nil {
			return nil, err
		}
		defer sar.Close()
		if sar.Meta.ImageType == raster.ImageTypeMapProjected {
			return nil, fmt.Errorf("SAR image %s cannot be map projected for terrain correction", cfg.SAR)
		}
		bandCount = sar.Meta.BandCount
	}

	var demGround *raster.Image
	if cfg.GroundDEM != "" {
		if demGround, err = raster.OpenImage(cfg.GroundDEM); err != nil {
			return nil, err
		}
		defer demGround.Close()
		if demGround.Meta.Samples != ns {
			return nil, fmt.Errorf("slant/ground DEM sample mismatch: %d vs %d", ns, demGround.Meta.Samples)
		}
	}

	var inMask *raster.Image
	if cfg.InMask != "" {
		if !sarFlag {
			return nil, fmt.Errorf("cannot apply a mask without a SAR image")
		}
		if inMask, err = raster.OpenImage(cfg.InMask); err != nil {
			return nil, err
		}
		defer inMask.Close()
		if inMask.Meta.Lines != sar.Meta.Lines || inMask.Meta.Samples != sar.Meta.Samples {
			return nil, fmt.Errorf("the mask (%dx%d) and the SAR image (%dx%d) must be the same size",
				inMask.Meta.Lines, inMask.Meta.Samples, sar.Meta.Lines, sar.Meta.Samples)
		}
	}

	geom, err := NewGeometry(demSlant.Meta)
	if err != nil {
		return nil, err
	}

	// Radiometric correction only applies when correcting an image.
	doRadiometric := sarFlag && cfg.Formula != FormulaNone

	outMeta := demSlant.Meta
	outMeta.ImageType = raster.ImageTypeGround
	outMeta.XPixelSize = geom.GroundPixelSize()
	outMeta.NoData = 0.0 // the edges get filled with 0
	if sarFlag {
		outMeta.DataType = sar.Meta.DataType
		outMeta.BandCount = sar.Meta.BandCount
		outMeta.Bands = append([]string(nil), sar.Meta.Bands...)
	}

	out, err := raster.CreateImage(cfg.Output, outMeta)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	var outMask *raster.Image
	if cfg.OutMask != "" {
		maskMeta := outMeta
		maskMeta.BandCount = 1
		maskMeta.Bands = []string{"LAYOVER_MASK"}
		maskMeta.Radiometry = "AMPLITUDE"
		if outMask, err = raster.CreateImage(cfg.OutMask, maskMeta); err != nil {
			return nil, err
		}
		defer outMask.Close()
	}

	if demGround != nil {
		log.Printf("DEM is in ground range.")
	} else {
		log.Printf("DEM is in slant range, but will be corrected.")
	}
	what, how := "DEM", "geometrically"
	if sarFlag {
		what = "image"
	}
	if doRadiometric {
		how = "geometrically and radiometrically"
	}
	log.Printf("Correcting %s %s.", what, how)

	srDEMline := make([]float64, ns)
	grDEMline := make([]float64, ns)
	grDEMlast := make([]float64, ns)
	grDEMconv := make([]float64, ns)
	outLine := make([]float64, ns)
	maskLine := make([]float64, ns)
	var inSarLine []float64
	if sarFlag {
		inSarLine = make([]float64, ns)
	}
	for x := range maskLine {
		maskLine[x] = MaskNormal
	}

	stats := newRunStats(geom, ns*numLines)

	for y := 0; y < numLines; y++ {
		// keep the previous ground range DEM line for slope estimation
		grDEMline, grDEMlast = grDEMlast, grDEMline

		if err := demSlant.ReadLine(0, y, srDEMline); err != nil {
			return nil, err
		}
		geom.ResampleDEM(srDEMline, grDEMconv, true)

		if demGround != nil {
			if err := demGround.ReadLine(0, y, outLine); err != nil {
				return nil, err
			}
			geom.ShiftGround(outLine, grDEMline)
		} else {
			copy(grDEMline, grDEMconv)
		}

		grDEMgeo := grDEMconv
		if cfg.GeoDEM == OriginalGroundDEM {
			grDEMgeo = grDEMline
		}

		if inMask != nil {
			if err := inMask.ReadLine(0, y, maskLine); err != nil {
				return nil, err
			}
			normalizeInputMask(maskLine)

			// warp the mask itself into ground range, nearest neighbor
			geom.GeoCompensate(grDEMgeo, maskLine, outLine, false, nil, &stats.Mask)
			copy(maskLine, outLine)
		}

		for b := 0; b < bandCount; b++ {
			if sarFlag {
				if err := sar.ReadLine(b, y, inSarLine); err != nil {
					return nil, err
				}
				geom.GeoCompensate(grDEMgeo, inSarLine, outLine, true, maskLine, &stats.Mask)
			} else {
				copy(outLine, grDEMconv)
			}

			if y > 0 && doRadiometric {
				geom.RadioCompensate(grDEMline, grDEMlast, outLine, maskLine)
			}

			applyMask(outLine, maskLine, grDEMconv, cfg.FillValue, !cfg.FillHoles, &stats.Mask)

			if sarFlag {
				stats.recordAmplitudes(outLine)
			}
			if err := out.WriteLine(b, y, outLine); err != nil {
				return nil, err
			}
		}

		if outMask != nil {
			if err := outMask.WriteLine(0, y, maskLine); err != nil {
				return nil, err
			}
		}
	}

	if outMask != nil {
		log.Printf("%s", stats.Mask.Report(stats.TotalPixels))
	}
	return stats, nil
}
