package deskew

import (
	"math"
	"testing"
)

func TestFormulaValidate(t *testing.T) {
	if err := FormulaNone.Validate(); err != nil {
		t.Errorf("FormulaNone: %v", err)
	}
	if err := FormulaKellndorfer.Validate(); err != nil {
		t.Errorf("FormulaKellndorfer: %v", err)
	}
	for _, f := range []Formula{FormulaTanRatio, FormulaGroundOblique, FormulaSquareRoot, FormulaVexcel, FormulaDiffuse} {
		if err := f.Validate(); err == nil {
			t.Errorf("formula #%d accepted, want untested-formula error", f)
		}
	}
	if err := Formula(42).Validate(); err == nil {
		t.Errorf("formula #42 accepted, want unknown-formula error")
	}
}

func TestRadioCompensateFlatIsIdentity(t *testing.T) {
	g := testGeometry(t)
	ns := g.NumSamples()

	dem := constLine(ns, 150)
	line := make([]float64, ns)
	for x := range line {
		line[x] = 100 + float64(x)
	}
	mask := constLine(ns, MaskNormal)

	// Zero slope: the correction factor collapses to
	// sin(incid)/sin(incid).
	g.RadioCompensate(dem, dem, line, mask)

	for x := 1; x < ns; x++ {
		want := 100 + float64(x)
		if math.Abs(line[x]-want) > 1e-9 {
			t.Errorf("line[%d] = %v, want %v on flat terrain", x, line[x], want)
		}
	}
}

func TestRadioCompensateSlopeBrightens(t *testing.T) {
	g := testGeometry(t)
	ns := g.NumSamples()

	// Terrain rising across range tilts toward the radar and scatters
	// more energy back, so the correction must dim it. A gentle
	// descent faces away and gets brightened; it has to stay gentle
	// enough that the local incidence angle stays under 90 degrees,
	// past which the pixel is left alone.
	toward := make([]float64, ns)
	away := make([]float64, ns)
	for x := 0; x < ns; x++ {
		toward[x] = 3 * float64(x)
		away[x] = -1.5 * float64(x)
	}

	lineT := constLine(ns, 100)
	lineA := constLine(ns, 100)
	mask := constLine(ns, MaskNormal)
	g.RadioCompensate(toward, toward, lineT, mask)
	g.RadioCompensate(away, away, lineA, mask)

	for x := 1; x < ns; x++ {
		if lineT[x] >= 100 {
			t.Errorf("radar-facing slope: line[%d] = %v, want < 100", x, lineT[x])
		}
		if lineA[x] <= 100 {
			t.Errorf("away-facing slope: line[%d] = %v, want > 100", x, lineA[x])
		}
	}
}

func TestRadioCompensateSkips(t *testing.T) {
	g := testGeometry(t)
	ns := g.NumSamples()

	dem := make([]float64, ns)
	for x := range dem {
		dem[x] = 10 * float64(x)
	}
	dem[40] = BadDEMHeight

	line := constLine(ns, 100)
	mask := constLine(ns, MaskNormal)
	mask[20] = MaskUserMasked

	g.RadioCompensate(dem, dem, line, mask)

	// Column 0 has no left neighbor for the slope estimate.
	if line[0] != 100 {
		t.Errorf("line[0] = %v, want untouched", line[0])
	}
	// User masked pixels are left alone.
	if line[20] != 100 {
		t.Errorf("line[20] = %v, want untouched under user mask", line[20])
	}
	// A height sentinel poisons its own column and the right neighbor.
	if line[40] != 100 {
		t.Errorf("line[40] = %v, want untouched at bad height", line[40])
	}
	if line[41] != 100 {
		t.Errorf("line[41] = %v, want untouched right of bad height", line[41])
	}
	// Two columns away the slope estimate is clean again.
	if line[42] == 100 {
		t.Errorf("line[42] untouched, want corrected")
	}
}
