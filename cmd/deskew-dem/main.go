package main

import (
	"flag"
	"log"

	"github.com/etrochim/ASF-MapReady/pkg/deskew"
)

var (
	fSar         string
	fGroundDEM   string
	fRadiometric bool
	fFormula     int
	fInMask      string
	fOutMask     string
	fFillHoles   bool
	fFillValue   float64
	fGrDEM       string
	fQuicklook   string
)

func init() {
	flag.StringVar(&fSar, "sar", "", "input SAR image; omit to correct the DEM itself")
	flag.StringVar(&fGroundDEM, "ground-dem", "", "original ground range DEM, if one exists")
	flag.BoolVar(&fRadiometric, "radiometric", false, "also normalize intensity for terrain slope")
	flag.IntVar(&fFormula, "formula", int(deskew.FormulaKellndorfer), "radiometric correction formula id")
	flag.StringVar(&fInMask, "in-mask", "", "user mask image, same size as the SAR")
	flag.StringVar(&fOutMask, "out-mask", "", "write the layover/shadow mask here")
	flag.BoolVar(&fFillHoles, "fill-holes", false, "interpolate across DEM holes of any size")
	flag.Float64Var(&fFillValue, "fill-value", deskew.LeaveFill, "value for user-masked pixels (-1 leaves data untouched)")
	flag.StringVar(&fGrDEM, "gr-dem", "backconverted", "which ground DEM drives geometric compensation: backconverted or original")
	flag.StringVar(&fQuicklook, "quicklook", "", "prefix for quicklook images (PNG/TIFF/HDR) of the output")
	flag.Parse()

	log.Printf("deskew-dem starting\n")
}

func main() {
	if flag.NArg() != 2 {
		log.Fatalf("usage: deskew-dem [options] <inSlantDEM> <outFile>")
	}

	cfg := deskew.Config{
		SlantDEM:  flag.Arg(0),
		Output:    flag.Arg(1),
		SAR:       fSar,
		GroundDEM: fGroundDEM,
		InMask:    fInMask,
		OutMask:   fOutMask,
		FillHoles: fFillHoles,
		FillValue: fFillValue,
	}

	if fRadiometric {
		cfg.Formula = deskew.Formula(fFormula)
	}

	switch fGrDEM {
	case "backconverted":
		cfg.GeoDEM = deskew.BackconvertedGroundDEM
	case "original":
		cfg.GeoDEM = deskew.OriginalGroundDEM
	default:
		log.Fatalf("no ground DEM variant named '%s'", fGrDEM)
	}

	stats, err := deskew.Run(cfg)
	if err != nil {
		log.Fatalf("deskew-dem: %v", err)
	}

	log.Printf("%s", stats.Mask.Report(stats.TotalPixels))
	if cfg.SAR != "" {
		log.Printf("%s", stats.AmplitudeReport())
	}
	log.Printf("Ground range pixel size: %f m\n", stats.GroundPixelSize)

	if fQuicklook != "" {
		if err := writeQuicklooks(cfg, fQuicklook); err != nil {
			log.Fatalf("quicklook: %v", err)
		}
	}
}
