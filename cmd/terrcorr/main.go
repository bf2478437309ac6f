package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/etrochim/ASF-MapReady/pkg/coreg"
	"github.com/etrochim/ASF-MapReady/pkg/demclip"
	"github.com/etrochim/ASF-MapReady/pkg/deskew"
	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

var (
	fDemGrid     string
	fPolyOrder   int
	fRadiometric bool
	fFillHoles   bool
	fOutMask     string
	fKeep        bool
	fNoVerify    bool
)

func init() {
	flag.StringVar(&fDemGrid, "dem-grid", "", "correspondence grid file for clipping the DEM to the SAR footprint")
	flag.IntVar(&fPolyOrder, "poly-order", 5, "order of the polynomial fit to the DEM grid")
	flag.BoolVar(&fRadiometric, "radiometric", false, "also normalize intensity for terrain slope")
	flag.BoolVar(&fFillHoles, "fill-holes", false, "interpolate across DEM holes of any size")
	flag.StringVar(&fOutMask, "out-mask", "", "write the layover/shadow mask here")
	flag.BoolVar(&fKeep, "keep", false, "keep intermediate files")
	flag.BoolVar(&fNoVerify, "no-verify-match", false, "skip the post-shift coregistration check")
	flag.Parse()

	log.Printf("terrcorr starting\n")
}

func intRnd(x float64) int {
	return int(math.Floor(x + 0.5))
}

// tmpName builds an intermediate file name next to the input.
func tmpName(file, suffix string) string {
	ext := filepath.Ext(file)
	return strings.TrimSuffix(file, ext) + "_" + suffix + ".img"
}

func clean(files []string) {
	for _, f := range files {
		os.Remove(f)
		os.Remove(raster.MetaPath(f))
	}
}

func main() {
	if flag.NArg() != 3 {
		log.Fatalf("usage: terrcorr [options] <inSAR> <demFile> <outFile>")
	}
	sarFile := flag.Arg(0)
	demFile := flag.Arg(1)
	outFile := flag.Arg(2)

	var intermediates []string

	sar, err := raster.OpenImage(sarFile)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	log.Printf("SAR Image is %dx%d, %gm pixels.\n",
		sar.Meta.Lines, sar.Meta.Samples, sar.Meta.XPixelSize)
	if sar.Meta.ImageType != raster.ImageTypeSlant {
		log.Fatalf("terrcorr: SAR image must be in slant range geometry")
	}

	dem, err := raster.OpenImage(demFile)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	log.Printf("DEM Image is %dx%d, %gm pixels.\n",
		dem.Meta.Lines, dem.Meta.Samples, dem.Meta.XPixelSize)

	// Clip/remap the reference DEM into the SAR footprint, when a
	// correspondence grid supplies the mapping. Otherwise the DEM is
	// taken to be pre-clipped.
	var grDEM *raster.Grid
	if fDemGrid != "" {
		grid, err := demclip.ReadGridFile(fDemGrid)
		if err != nil {
			log.Fatalf("terrcorr: %v", err)
		}
		log.Printf("Fitting order %d polynomial to %d DEM grid points...\n", fPolyOrder, len(grid))
		mapping, err := demclip.FitMapping(fPolyOrder, grid)
		if err != nil {
			log.Fatalf("terrcorr: %v", err)
		}
		log.Printf("Maximum error in polynomial fit: %g.\n", mapping.MaxErr)

		full, err := raster.ReadGrid(dem, 0)
		if err != nil {
			log.Fatalf("terrcorr: %v", err)
		}
		log.Printf("Clipping DEM to %dx%d LxS using polynomial fit...\n", sar.Meta.Lines, sar.Meta.Samples)
		grDEM = mapping.Remap(full, sar.Meta.Samples, sar.Meta.Lines, deskew.NoDEMData)
	} else {
		if dem.Meta.Lines != sar.Meta.Lines || dem.Meta.Samples != sar.Meta.Samples {
			log.Fatalf("terrcorr: without -dem-grid the DEM must already match the SAR size")
		}
		if grDEM, err = raster.ReadGrid(dem, 0); err != nil {
			log.Fatalf("terrcorr: %v", err)
		}
	}
	dem.Close()

	// Generate the slant range DEM and a simulated amplitude image.
	geom, err := deskew.NewGeometry(sar.Meta)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	log.Printf("Generating slant range DEM and simulated sar image...\n")
	demSlant, simAmp := geom.SimulateScene(grDEM)

	slantMeta := sar.Meta
	slantMeta.BandCount = 1
	slantMeta.Bands = []string{"HEIGHT"}
	slantMeta.DataType = "REAL32"
	demSlantFile := tmpName(demFile, "slant")
	if err := raster.WriteGrid(demSlantFile, demSlant, slantMeta); err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	intermediates = append(intermediates, demSlantFile)

	// Match the real and simulated SAR images to find the offset.
	log.Printf("Determining image offsets...\n")
	sarAmp, err := raster.ReadGrid(sar, 0)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	sar.Close()
	dx, dy, err := coreg.EstimateOffset(sarAmp, simAmp)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	log.Printf("Correlation: dx=%g dy=%g\n", dx, dy)
	idx := -intRnd(dx)
	idy := -intRnd(dy)

	// Apply the offset to the slant range DEM.
	log.Printf("Applying offsets to slant range DEM...\n")
	demTrimSlant := tmpName(demFile, "slant_trim")
	if err := raster.Trim(demSlantFile, demTrimSlant, idx, idy,
		slantMeta.Samples, slantMeta.Lines, deskew.NoDEMData); err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	intermediates = append(intermediates, demTrimSlant)

	// Verify that the applied offset did the trick.
	if !fNoVerify {
		if err := verifyOffset(sarAmp, simAmp, idx, idy); err != nil {
			log.Fatalf("terrcorr: %v", err)
		}
	}

	// Terrain correct the SAR image back into ground range.
	log.Printf("Terrain correcting slant range image...\n")
	cfg := deskew.Config{
		SlantDEM:  demTrimSlant,
		Output:    outFile,
		SAR:       sarFile,
		OutMask:   fOutMask,
		FillHoles: fFillHoles,
		FillValue: deskew.LeaveFill,
	}
	if fRadiometric {
		cfg.Formula = deskew.FormulaKellndorfer
	}

	stats, err := deskew.Run(cfg)
	if err != nil {
		log.Fatalf("terrcorr: %v", err)
	}
	log.Printf("%s", stats.Mask.Report(stats.TotalPixels))
	log.Printf("%s", stats.AmplitudeReport())

	if !fKeep {
		log.Printf("Removing intermediate files...\n")
		clean(intermediates)
	}

	log.Printf("Terrain Correction Complete!\n")
}

// verifyOffset shifts the simulated amplitude by the whole-pixel
// offset and re-correlates; the residual must be within a pixel.
func verifyOffset(sarAmp, simAmp *raster.Grid, idx, idy int) error {
	log.Printf("Verifying offsets are now close to zero...\n")

	shifted := raster.NewGrid(simAmp.Dx(), simAmp.Dy())
	for y := 0; y < simAmp.Dy(); y++ {
		for x := 0; x < simAmp.Dx(); x++ {
			sx := x + idx
			sy := y + idy
			if sx >= 0 && sx < simAmp.Dx() && sy >= 0 && sy < simAmp.Dy() {
				shifted.Set(x, y, simAmp.Get(sx, sy))
			}
		}
	}

	dx2, dy2, err := coreg.EstimateOffset(sarAmp, shifted)
	if err != nil {
		return err
	}
	log.Printf("Correlation after shift: dx=%g dy=%g\n", dx2, dy2)

	const matchTolerance = 1.0
	if math.Sqrt(dx2*dx2+dy2*dy2) > matchTolerance {
		return fmt.Errorf("correlated images failed to match: residual offset (%g,%g)", dx2, dy2)
	}
	return nil
}
