// Package demclip fits a low-order 2-D polynomial mapping between
// reference DEM coordinates and SAR image coordinates from a sparse
// grid of correspondences, and uses it to clip/remap the DEM into the
// SAR footprint before terrain correction runs.
package demclip

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Poly2D is a polynomial in two variables with all terms x^i y^j for
// i+j <= Order.
type Poly2D struct {
	Order  int
	Coeffs []float64
}

func termCount(order int) int {
	return (order + 1) * (order + 2) / 2
}

// terms evaluates the monomial basis at (x, y), in a fixed order:
// 1, x, y, x^2, xy, y^2, ...
func terms(order int, x, y float64, dst []float64) {
	k := 0
	for deg := 0; deg <= order; deg++ {
		for i := deg; i >= 0; i-- {
			dst[k] = math.Pow(x, float64(i)) * math.Pow(y, float64(deg-i))
			k++
		}
	}
}

func (p *Poly2D)Eval(x, y float64) float64 {
	t := make([]float64, len(p.Coeffs))
	terms(p.Order, x, y, t)
	v := 0.0
	for i, c := range p.Coeffs {
		v += c * t[i]
	}
	return v
}

// FitPoly2D least-squares fits a Poly2D of the given order through
// the sample points (xs[i], ys[i]) -> vals[i].
func FitPoly2D(order int, xs, ys, vals []float64) (*Poly2D, error) {
	n := len(xs)
	nc := termCount(order)
	if len(ys) != n || len(vals) != n {
		return nil, fmt.Errorf("poly fit: mismatched sample slices %d/%d/%d", n, len(ys), len(vals))
	}
	if n < nc {
		return nil, fmt.Errorf("poly fit: %d samples cannot constrain %d coefficients", n, nc)
	}

	a := mat.NewDense(n, nc, nil)
	row := make([]float64, nc)
	for i := 0; i < n; i++ {
		terms(order, xs[i], ys[i], row)
		a.SetRow(i, row)
	}
	b := mat.NewVecDense(n, append([]float64(nil), vals...))

	var qr mat.QR
	qr.Factorize(a)
	var coeffs mat.VecDense
	if err := qr.SolveVecTo(&coeffs, false, b); err != nil {
		return nil, fmt.Errorf("poly fit: %v", err)
	}

	return &Poly2D{Order: order, Coeffs: append([]float64(nil), coeffs.RawVector().Data...)}, nil
}

// A Correspondence ties a SAR image coordinate to the matching
// reference DEM coordinate. The sparse grid of these is produced by
// the geocoding collaborator.
type Correspondence struct {
	SarX, SarY float64
	DemX, DemY float64
}

// ReadGridFile parses a correspondence grid file: one "sarX sarY
// demX demY" quadruple per line, '#' comments allowed.
func ReadGridFile(path string) ([]Correspondence, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("grid file %s: %v", path, err)
	}
	defer f.Close()

	var grid []Correspondence
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var c Correspondence
		if _, err := fmt.Sscan(line, &c.SarX, &c.SarY, &c.DemX, &c.DemY); err != nil {
			return nil, fmt.Errorf("grid file %s line %d: %v", path, lineNo, err)
		}
		grid = append(grid, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("grid file %s: %v", path, err)
	}
	return grid, nil
}

// A Mapping holds the fitted forward (SAR -> DEM) and backward
// (DEM -> SAR) polynomial pairs, and the worst forward residual.
type Mapping struct {
	FwX, FwY *Poly2D
	BwX, BwY *Poly2D
	MaxErr   float64
}

// FitMapping fits both directions of the coordinate mapping from the
// correspondence grid.
func FitMapping(order int, grid []Correspondence) (*Mapping, error) {
	n := len(grid)
	sarX := make([]float64, n)
	sarY := make([]float64, n)
	demX := make([]float64, n)
	demY := make([]float64, n)
	for i, c := range grid {
		sarX[i], sarY[i] = c.SarX, c.SarY
		demX[i], demY[i] = c.DemX, c.DemY
	}

	fwX, err := FitPoly2D(order, sarX, sarY, demX)
	if err != nil {
		return nil, err
	}
	fwY, err := FitPoly2D(order, sarX, sarY, demY)
	if err != nil {
		return nil, err
	}
	bwX, err := FitPoly2D(order, demX, demY, sarX)
	if err != nil {
		return nil, err
	}
	bwY, err := FitPoly2D(order, demX, demY, sarY)
	if err != nil {
		return nil, err
	}

	m := &Mapping{FwX: fwX, FwY: fwY, BwX: bwX, BwY: bwY}
	for i := range grid {
		ex := fwX.Eval(sarX[i], sarY[i]) - demX[i]
		ey := fwY.Eval(sarX[i], sarY[i]) - demY[i]
		if e := math.Sqrt(ex*ex + ey*ey); e > m.MaxErr {
			m.MaxErr = e
		}
	}
	return m, nil
}
