package deskew

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// writeScene writes a single band raster whose every line is produced
// by lineFn(y).
func writeScene(t *testing.T, path string, m raster.Meta, lineFn func(y int) []float64) {
	t.Helper()
	im, err := raster.CreateImage(path, m)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < m.Lines; y++ {
		if err := im.WriteLine(0, y, lineFn(y)); err != nil {
			t.Fatal(err)
		}
	}
	if err := im.Close(); err != nil {
		t.Fatal(err)
	}
}

func readScene(t *testing.T, path string) (*raster.Grid, raster.Meta) {
	t.Helper()
	im, err := raster.OpenImage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer im.Close()
	g, err := raster.ReadGrid(im, 0)
	if err != nil {
		t.Fatal(err)
	}
	return g, im.Meta
}

func TestRunFlatScene(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_slant.img")
	sarPath := filepath.Join(dir, "sar.img")
	outPath := filepath.Join(dir, "out.img")
	maskPath := filepath.Join(dir, "mask.img")

	writeScene(t, demPath, m, func(int) []float64 { return constLine(ns, 0) })
	writeScene(t, sarPath, m, func(int) []float64 { return constLine(ns, 100) })

	stats, err := Run(Config{
		SlantDEM:  demPath,
		SAR:       sarPath,
		Output:    outPath,
		OutMask:   maskPath,
		Formula:   FormulaKellndorfer,
		FillValue: LeaveFill,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Sea level terrain: geometric resampling is a no-op spatially and
	// the slope correction factor is 1, so the amplitude must come
	// through unchanged away from the image edges.
	out, outMeta := readScene(t, outPath)
	for y := 0; y < m.Lines; y++ {
		for x := 4; x < ns-4; x++ {
			if math.Abs(out.Get(x, y)-100) > 0.01 {
				t.Fatalf("out(%d,%d) = %f, want 100", x, y, out.Get(x, y))
			}
		}
	}
	if outMeta.ImageType != raster.ImageTypeGround {
		t.Errorf("output image type = %q, want ground range", outMeta.ImageType)
	}

	if stats.Mask.Layover != 0 || stats.Mask.Shadow != 0 {
		t.Errorf("flat scene classified layover=%d shadow=%d, want none",
			stats.Mask.Layover, stats.Mask.Shadow)
	}

	mask, _ := readScene(t, maskPath)
	for y := 0; y < m.Lines; y++ {
		for x := 4; x < ns-4; x++ {
			if mask.Get(x, y) != MaskNormal {
				t.Fatalf("mask(%d,%d) = %v, want normal", x, y, mask.Get(x, y))
			}
		}
	}
}

func TestRunDEMOnly(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_slant.img")
	outPath := filepath.Join(dir, "out.img")
	writeScene(t, demPath, m, func(int) []float64 { return constLine(ns, 200) })

	if _, err := Run(Config{SlantDEM: demPath, Output: outPath}); err != nil {
		t.Fatal(err)
	}

	// Without a SAR image the output is the terrain corrected DEM.
	out, _ := readScene(t, outPath)
	for x := 20; x < ns-20; x++ {
		if math.Abs(out.Get(x, 3)-200) > 0.01 {
			t.Errorf("out(%d,3) = %f, want 200", x, out.Get(x, 3))
		}
	}
}

func TestRunIsolatedDEMVoid(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_slant.img")
	sarPath := filepath.Join(dir, "sar.img")
	outPath := filepath.Join(dir, "out.img")

	writeScene(t, demPath, m, func(y int) []float64 {
		l := constLine(ns, 0)
		if y == 5 {
			l[200] = BadDEMHeight
		}
		return l
	})
	writeScene(t, sarPath, m, func(int) []float64 { return constLine(ns, 100) })

	stats, err := Run(Config{
		SlantDEM:  demPath,
		SAR:       sarPath,
		Output:    outPath,
		Formula:   FormulaKellndorfer,
		FillValue: LeaveFill,
	})
	if err != nil {
		t.Fatal(err)
	}

	// A single unknown elevation sample is bridged, not propagated:
	// the output around it stays valid and finite.
	out, _ := readScene(t, outPath)
	for x := 195; x < 206; x++ {
		v := out.Get(x, 5)
		if math.IsNaN(v) || math.IsInf(v, 0) || v == 0 {
			t.Errorf("out(%d,5) = %v, want valid data around DEM void", x, v)
		}
	}
	if stats.Mask.UserMasked != 0 {
		t.Errorf("user masked count = %d, want 0 with no input mask", stats.Mask.UserMasked)
	}
}

func TestRunMaskSizeMismatch(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_slant.img")
	sarPath := filepath.Join(dir, "sar.img")
	maskPath := filepath.Join(dir, "user_mask.img")
	outPath := filepath.Join(dir, "out.img")

	writeScene(t, demPath, m, func(int) []float64 { return constLine(ns, 0) })
	writeScene(t, sarPath, m, func(int) []float64 { return constLine(ns, 100) })
	mShort := m
	mShort.Lines = m.Lines - 1
	writeScene(t, maskPath, mShort, func(int) []float64 { return constLine(ns, 0) })

	_, err := Run(Config{
		SlantDEM: demPath,
		SAR:      sarPath,
		InMask:   maskPath,
		Output:   outPath,
	})
	if err == nil {
		t.Fatal("mismatched mask accepted, want error")
	}
	if _, statErr := os.Stat(outPath); statErr == nil {
		t.Errorf("output file created despite precondition failure")
	}
}

func TestRunRejectsMapProjected(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	m.ImageType = raster.ImageTypeMapProjected
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_proj.img")
	writeScene(t, demPath, m, func(int) []float64 { return constLine(ns, 0) })

	_, err := Run(Config{SlantDEM: demPath, Output: filepath.Join(dir, "out.img")})
	if err == nil {
		t.Fatal("map projected DEM accepted, want error")
	}
}

func TestRunUserMaskFill(t *testing.T) {
	dir := t.TempDir()
	m := testMeta()
	ns := m.Samples

	demPath := filepath.Join(dir, "dem_slant.img")
	sarPath := filepath.Join(dir, "sar.img")
	maskPath := filepath.Join(dir, "user_mask.img")
	outPath := filepath.Join(dir, "out.img")

	writeScene(t, demPath, m, func(int) []float64 { return constLine(ns, 0) })
	writeScene(t, sarPath, m, func(int) []float64 { return constLine(ns, 100) })
	writeScene(t, maskPath, m, func(int) []float64 {
		l := constLine(ns, 0)
		for x := 100; x < 110; x++ {
			l[x] = 1
		}
		return l
	})

	stats, err := Run(Config{
		SlantDEM:  demPath,
		SAR:       sarPath,
		InMask:    maskPath,
		Output:    outPath,
		FillValue: -42,
	})
	if err != nil {
		t.Fatal(err)
	}

	out, _ := readScene(t, outPath)
	// Flat terrain, so the mask warp keeps the masked block in place.
	if out.Get(105, 3) != -42 {
		t.Errorf("out(105,3) = %v, want fill value -42 under user mask", out.Get(105, 3))
	}
	if math.Abs(out.Get(50, 3)-100) > 0.01 {
		t.Errorf("out(50,3) = %v, want 100 outside user mask", out.Get(50, 3))
	}
	if stats.Mask.UserMasked == 0 {
		t.Errorf("user masked count = 0, want > 0")
	}
}
