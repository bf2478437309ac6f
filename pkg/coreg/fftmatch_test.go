package coreg

import (
	"math"
	"math/rand"
	"testing"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// texturedGrid builds a deterministic scene with enough structure for
// the correlation peak to stand out.
func texturedGrid(w, h int) *raster.Grid {
	rng := rand.New(rand.NewSource(7))
	g := raster.NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := 50 +
				20*math.Sin(float64(x)/3.1) +
				15*math.Cos(float64(y)/2.3) +
				10*math.Sin(float64(x+2*y)/5.7) +
				5*rng.Float64()
			g.Set(x, y, v)
		}
	}
	return g
}

// circularShift builds b(x,y) = a(x-sx, y-sy), wrapping around the
// edges.
func circularShift(a *raster.Grid, sx, sy int) *raster.Grid {
	w := a.Dx()
	h := a.Dy()
	b := raster.NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			b.Set(x, y, a.Get(((x-sx)%w+w)%w, ((y-sy)%h+h)%h))
		}
	}
	return b
}

func TestEstimateOffsetRecoversShift(t *testing.T) {
	a := texturedGrid(64, 48)

	cases := []struct{ sx, sy int }{
		{0, 0},
		{5, 3},
		{-7, 2},
		{3, -11},
		{-4, -6},
	}
	for _, c := range cases {
		b := circularShift(a, c.sx, c.sy)
		dx, dy, err := EstimateOffset(a, b)
		if err != nil {
			t.Fatalf("shift (%d,%d): %v", c.sx, c.sy, err)
		}
		if math.Abs(dx-float64(c.sx)) > 0.25 || math.Abs(dy-float64(c.sy)) > 0.25 {
			t.Errorf("shift (%d,%d): estimated (%f,%f)", c.sx, c.sy, dx, dy)
		}
	}
}

func TestEstimateOffsetIgnoresBias(t *testing.T) {
	// A constant brightness difference between the two images must not
	// move the correlation peak.
	a := texturedGrid(32, 32)
	b := circularShift(a, 4, 1)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			b.Set(x, y, b.Get(x, y)+250)
		}
	}
	dx, dy, err := EstimateOffset(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dx-4) > 0.25 || math.Abs(dy-1) > 0.25 {
		t.Errorf("estimated (%f,%f), want (4,1)", dx, dy)
	}
}

func TestEstimateOffsetRejectsBadInput(t *testing.T) {
	a := texturedGrid(16, 16)
	b := texturedGrid(16, 8)
	if _, _, err := EstimateOffset(a, b); err == nil {
		t.Error("mismatched sizes accepted")
	}
	small := raster.NewGrid(2, 1)
	if _, _, err := EstimateOffset(small, small); err == nil {
		t.Error("degenerate size accepted")
	}
}
