package raster

import (
	"fmt"
	"math"
)

// A Grid is an in-memory grid of floats. Whole-scene work (DEM
// clipping, coregistration, simulated amplitude) runs on Grids; the
// streaming terrain corrector itself only ever holds a few lines.
type Grid struct {
	stride int
	values []float64
}

func NewGrid(w, h int) *Grid {
	return &Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g *Grid)Set(x, y int, v float64) { g.values[g.stride*y+x] = v }
func (g *Grid)Get(x, y int) float64    { return g.values[g.stride*y+x] }
func (g *Grid)Dx() int                 { return g.stride }
func (g *Grid)Dy() int                 { return len(g.values) / g.stride }
func (g *Grid)Row(y int) []float64     { return g.values[g.stride*y : g.stride*(y+1)] }

func (g1 *Grid)Copy() *Grid {
	g2 := &Grid{stride: g1.stride, values: make([]float64, len(g1.values))}
	copy(g2.values, g1.values)
	return g2
}

func (g *Grid)Fill(v float64) {
	for i := range g.values {
		g.values[i] = v
	}
}

func (g *Grid)MinMax() (float64, float64) {
	min := math.MaxFloat64
	max := -1.0 * min
	for i := 0; i < len(g.values); i++ {
		if g.values[i] > max { max = g.values[i] }
		if g.values[i] < min { min = g.values[i] }
	}
	return min, max
}

// Bilinear samples the grid at a fractional position, clamping to the
// edges. Used when remapping a DEM through a polynomial warp.
func (g *Grid)Bilinear(fx, fy float64) float64 {
	if fx < 0 { fx = 0 }
	if fy < 0 { fy = 0 }
	if fx > float64(g.Dx()-1) { fx = float64(g.Dx() - 1) }
	if fy > float64(g.Dy()-1) { fy = float64(g.Dy() - 1) }

	x := int(fx)
	y := int(fy)
	if x > g.Dx()-2 { x = g.Dx() - 2 }
	if y > g.Dy()-2 { y = g.Dy() - 2 }
	dx := fx - float64(x)
	dy := fy - float64(y)

	top := g.Get(x, y)*(1-dx) + g.Get(x+1, y)*dx
	bot := g.Get(x, y+1)*(1-dx) + g.Get(x+1, y+1)*dx
	return top*(1-dy) + bot*dy
}

func (g *Grid)Stats() string {
	min, max := g.MinMax()
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Dx(), g.Dy(), min, max)
}

// ReadGrid loads a whole band of an on-disk raster into memory.
func ReadGrid(im *Image, band int) (*Grid, error) {
	g := NewGrid(im.Meta.Samples, im.Meta.Lines)
	for y := 0; y < im.Meta.Lines; y++ {
		if err := im.ReadLine(band, y, g.Row(y)); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// WriteGrid writes a whole grid out as a single-band raster.
func WriteGrid(path string, g *Grid, m Meta) error {
	m.Samples = g.Dx()
	m.Lines = g.Dy()
	m.BandCount = 1
	im, err := CreateImage(path, m)
	if err != nil {
		return err
	}
	defer im.Close()
	for y := 0; y < g.Dy(); y++ {
		if err := im.WriteLine(0, y, g.Row(y)); err != nil {
			return err
		}
	}
	return nil
}
