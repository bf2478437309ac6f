package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mdouchement/hdr/codec/rgbe"
	"github.com/mdouchement/hdr/hdrcolor"
	"golang.org/x/image/tiff"
)

// Quicklook exports. SAR products are float rasters that most image
// tools won't open; these render a grid into something a human can
// eyeball: an annotated gamma-scaled PNG, a 16-bit TIFF, or a
// Radiance HDR file that keeps the full dynamic range.

func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}

// ToPNG saves a simple grayscale based on the range of values in the
// grid, gamma scaled to look normal for human vision, with a title
// drawn in the corner.
func (g *Grid)ToPNG(title, filename string) error {
	min, max := g.MinMax()
	if max <= min {
		max = min + 1
	}

	img := image.NewRGBA64(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for x := 0; x < g.Dx(); x++ {
		for y := 0; y < g.Dy(); y++ {
			gray := gammaExpand((g.Get(x, y) - min) / (max - min))
			col := color.RGBA64{uint16(gray * 65535.0), uint16(gray * 65535.0), uint16(gray * 65535.0), 0xFFFF}
			img.Set(x, y, col)
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 50, 50)
	return dc.SavePNG(filename)
}

// ToPalettePNG renders a classification-valued grid (e.g. a layover/
// shadow mask) with one palette color per class code.
func (g *Grid)ToPalettePNG(filename string, palette []colorful.Color) error {
	img := image.NewRGBA(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for x := 0; x < g.Dx(); x++ {
		for y := 0; y < g.Dy(); y++ {
			i := int(g.Get(x, y) + 0.5)
			if i < 0 { i = 0 }
			if i >= len(palette) { i = len(palette) - 1 }
			cr, cg, cb := palette[i].RGB255()
			img.Set(x, y, color.RGBA{cr, cg, cb, 0xFF})
		}
	}

	dc := gg.NewContextForImage(img)
	return dc.SavePNG(filename)
}

// ToTIFF writes the grid as a 16-bit grayscale TIFF, scaled to the
// grid's value range.
func (g *Grid)ToTIFF(filename string) error {
	min, max := g.MinMax()
	if max <= min {
		max = min + 1
	}

	img := image.NewGray16(image.Rectangle{Max: image.Point{g.Dx(), g.Dy()}})
	for x := 0; x < g.Dx(); x++ {
		for y := 0; y < g.Dy(); y++ {
			v := (g.Get(x, y) - min) / (max - min)
			img.SetGray16(x, y, color.Gray16{uint16(v * 65535.0)})
		}
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("quicklook tiff %s: %v", filename, err)
	}
	defer f.Close()
	return tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate})
}

// hdrGrid adapts a Grid to the hdr.Image interface, replicating the
// float value into the three channels.
type hdrGrid struct {
	g *Grid
}

func (h hdrGrid)ColorModel() color.Model { return hdrcolor.RGBModel }
func (h hdrGrid)Bounds() image.Rectangle { return image.Rectangle{Max: image.Point{h.g.Dx(), h.g.Dy()}} }
func (h hdrGrid)At(x, y int) color.Color { return h.HDRAt(x, y) }
func (h hdrGrid)Size() int               { return h.g.Dx() * h.g.Dy() }

func (h hdrGrid)HDRAt(x, y int) hdrcolor.Color {
	v := h.g.Get(x, y)
	return hdrcolor.RGB{R: v, G: v, B: v}
}

// ToHDR writes the grid's raw float values as a Radiance HDR file.
// Unlike the PNG/TIFF quicklooks nothing is rescaled, so HDR tooling
// sees the actual amplitudes.
func (g *Grid)ToHDR(filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("quicklook hdr, open+w '%s': %v", filename, err)
	}
	defer writer.Close()
	return rgbe.Encode(writer, hdrGrid{g})
}
