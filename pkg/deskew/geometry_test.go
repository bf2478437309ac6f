package deskew

import (
	"math"
	"testing"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// testMeta is a plausible steep-incidence scene: a satellite 790 km
// up looking far off nadir, 512 samples of 8 m slant range spacing.
func testMeta() raster.Meta {
	return raster.Meta{
		Lines:           10,
		Samples:         512,
		EarthRadius:     6371000,
		SatHeight:       7161000,
		SlantFirst:      2000000,
		SlantPer:        8,
		SampleIncrement: 1,
		ImageType:       raster.ImageTypeSlant,
		BandCount:       1,
	}
}

func testGeometry(t *testing.T) *Geometry {
	t.Helper()
	g, err := NewGeometry(testMeta())
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}
	return g
}

func TestGeometryTables(t *testing.T) {
	g := testGeometry(t)

	if g.GroundPixelSize() <= 0 {
		t.Errorf("ground pixel size = %f, want > 0", g.GroundPixelSize())
	}

	for x := 1; x < g.NumSamples(); x++ {
		if g.slantRange[x] < g.slantRange[x-1] {
			t.Fatalf("slant range not monotonic at column %d: %f < %f", x, g.slantRange[x], g.slantRange[x-1])
		}
		if g.groundSR[x] < g.groundSR[x-1] {
			t.Fatalf("ground position not monotonic at column %d", x)
		}
	}

	for x := 0; x < g.NumSamples(); x++ {
		if g.incidAng[x] <= 0 || g.incidAng[x] >= math.Pi {
			t.Fatalf("incidence angle out of range at column %d: %f", x, g.incidAng[x])
		}
		if g.sinIncidAng[x] <= 0 {
			t.Fatalf("sin(incidence) not positive at column %d", x)
		}
	}

	// The table endpoints map onto themselves.
	if math.Abs(g.groundSR[0]) > 1e-6 {
		t.Errorf("groundSR[0] = %g, want 0", g.groundSR[0])
	}
	last := float64(g.NumSamples() - 1)
	if math.Abs(g.groundSR[g.NumSamples()-1]-last) > 1e-6 {
		t.Errorf("groundSR[N-1] = %g, want %g", g.groundSR[g.NumSamples()-1], last)
	}
}

func TestCoordinateMapsAreInverses(t *testing.T) {
	g := testGeometry(t)

	for _, height := range []float64{0, 120, 500, 1500} {
		for srX := 5.0; srX < 505; srX += 7.25 {
			grX := g.SlantToGround(srX, height)
			if grX < 1 || grX > 510 {
				continue // clamped at the scene edge, nothing to verify
			}
			back := g.GroundToSlant(grX, height)
			if math.Abs(back-srX) > 1.0 {
				t.Errorf("height %f: slant %f -> ground %f -> slant %f, off by %f columns",
					height, srX, grX, back, math.Abs(back-srX))
			}
		}
	}
}

func TestMapperClampsOutOfRange(t *testing.T) {
	g := testGeometry(t)

	// Out-of-range requests clamp to the valid interior instead of
	// failing; slight overflows at scene edges are expected.
	for _, srX := range []float64{-50, -0.1, 511.5, 2000} {
		grX := g.SlantToGround(srX, 0)
		if math.IsNaN(grX) || math.IsInf(grX, 0) {
			t.Errorf("SlantToGround(%f, 0) = %f, want finite", srX, grX)
		}
		if grX < -2 || grX > float64(g.NumSamples()+1) {
			t.Errorf("SlantToGround(%f, 0) = %f, outside plausible clamped range", srX, grX)
		}
	}

	// A huge elevation pushes the sea-level position far negative;
	// still clamped, still finite.
	if v := g.GroundToSlant(5, 1e9); math.IsNaN(v) || math.IsInf(v, 0) {
		t.Errorf("GroundToSlant with extreme elevation = %f, want finite", v)
	}
}

func TestInvalidGeometryRejected(t *testing.T) {
	m := testMeta()
	m.SatHeight = m.EarthRadius - 1
	if _, err := NewGeometry(m); err == nil {
		t.Errorf("satellite below earth radius accepted, want error")
	}

	m = testMeta()
	m.Samples = 1
	if _, err := NewGeometry(m); err == nil {
		t.Errorf("single-sample scene accepted, want error")
	}

	m = testMeta()
	m.SlantPer = 0
	if _, err := NewGeometry(m); err == nil {
		t.Errorf("zero slant range spacing accepted, want error")
	}
}

func TestStartSampleShiftsSlantRange(t *testing.T) {
	m := testMeta()
	g0, _ := NewGeometry(m)
	m.StartSample = 100
	g1, err := NewGeometry(m)
	if err != nil {
		t.Fatalf("NewGeometry: %v", err)
	}

	want := g0.SlantRange(0) + 100*m.SlantPer
	if math.Abs(g1.SlantRange(0)-want) > 1e-6 {
		t.Errorf("start sample 100: first slant range %f, want %f", g1.SlantRange(0), want)
	}
}
