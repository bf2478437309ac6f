// Package coreg estimates the translation offset between two images
// of the same scene by phase correlation, e.g. a simulated amplitude
// image derived from a DEM against the real SAR amplitude. The
// offset is used to align the DEM extraction window before terrain
// correction.
package coreg

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// EstimateOffset computes the (dx, dy) by which b is displaced from
// a, so b(x, y) ~ a(x-dx, y-dy). The estimate is sub-pixel, from a
// parabolic fit around the correlation peak; callers that need whole
// pixels round it.
func EstimateOffset(a, b *raster.Grid) (float64, float64, error) {
	w := a.Dx()
	h := a.Dy()
	if b.Dx() != w || b.Dy() != h {
		return 0, 0, fmt.Errorf("coreg: image sizes differ, %dx%d vs %dx%d", w, h, b.Dx(), b.Dy())
	}
	if w < 4 || h < 2 {
		return 0, 0, fmt.Errorf("coreg: image %dx%d too small to correlate", w, h)
	}

	fa := toComplex(a)
	fb := toComplex(b)

	fft2(fa, w, h, false)
	fft2(fb, w, h, false)

	// cross power spectrum
	for i := range fa {
		fa[i] *= cmplx.Conj(fb[i])
	}

	fft2(fa, w, h, true)

	// The correlation surface peaks at the negated offset, modulo the
	// image size.
	peak := 0
	best := 0.0
	for i, v := range fa {
		if m := cmplx.Abs(v); m > best {
			best = m
			peak = i
		}
	}
	px := peak % w
	py := peak / w

	subX := peakRefine(
		cmplx.Abs(fa[py*w+(px+w-1)%w]),
		best,
		cmplx.Abs(fa[py*w+(px+1)%w]))
	subY := peakRefine(
		cmplx.Abs(fa[((py+h-1)%h)*w+px]),
		best,
		cmplx.Abs(fa[((py+1)%h)*w+px]))

	dx := -(wrap(px, w) + subX)
	dy := -(wrap(py, h) + subY)
	return dx, dy, nil
}

// wrap folds a peak index into a signed offset.
func wrap(i, n int) float64 {
	if i > n/2 {
		return float64(i - n)
	}
	return float64(i)
}

// peakRefine fits a parabola through the three correlation values
// around the peak and returns the fractional adjustment in [-0.5,0.5].
func peakRefine(cm, c0, cp float64) float64 {
	denom := cm - 2*c0 + cp
	if denom == 0 {
		return 0
	}
	d := 0.5 * (cm - cp) / denom
	if d < -0.5 { d = -0.5 }
	if d > 0.5 { d = 0.5 }
	return d
}

// toComplex lifts a zero-meaned copy of the grid into a flat complex
// buffer. Removing the mean keeps the DC term from swamping the
// correlation peak.
func toComplex(g *raster.Grid) []complex128 {
	w := g.Dx()
	h := g.Dy()
	mean := 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mean += g.Get(x, y)
		}
	}
	mean /= float64(w * h)

	out := make([]complex128, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out[y*w+x] = complex(g.Get(x, y)-mean, 0)
		}
	}
	return out
}

// fft2 runs an in-place 2-D FFT (or its inverse) over a row-major
// w x h complex buffer, as a row pass followed by a column pass.
func fft2(data []complex128, w, h int, inverse bool) {
	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		copy(row, data[y*w:(y+1)*w])
		if inverse {
			rowFFT.Sequence(data[y*w:(y+1)*w], row)
		} else {
			rowFFT.Coefficients(data[y*w:(y+1)*w], row)
		}
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	tmp := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		if inverse {
			colFFT.Sequence(tmp, col)
		} else {
			colFFT.Coefficients(tmp, col)
		}
		for y := 0; y < h; y++ {
			data[y*w+x] = tmp[y]
		}
	}

	if inverse {
		n := complex(float64(w*h), 0)
		for i := range data {
			data[i] /= n
		}
	}
}
