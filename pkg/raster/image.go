package raster

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// An Image is a float raster on disk: a flat band-sequential run of
// big-endian float32 samples in a .img file, described by a Meta
// sidecar. Lines are read and written one at a time, by index, so a
// whole scene never has to fit in memory.
type Image struct {
	Meta Meta
	Path string

	f   *os.File
	buf []byte
}

// OpenImage opens an existing raster read-only, loading its sidecar.
func OpenImage(path string) (*Image, error) {
	m, err := ReadMeta(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("raster open %s: %v", path, err)
	}
	return &Image{Meta: m, Path: path, f: f, buf: make([]byte, 4*m.Samples)}, nil
}

// CreateImage creates (or truncates) a raster for writing, and writes
// its sidecar immediately. The caller may rewrite the sidecar later,
// e.g. once mask statistics or a recomputed pixel size are known.
func CreateImage(path string, m Meta) (*Image, error) {
	if err := WriteMeta(path, m); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("raster create %s: %v", path, err)
	}
	return &Image{Meta: m, Path: path, f: f, buf: make([]byte, 4*m.Samples)}, nil
}

func (im *Image)Close() error {
	return im.f.Close()
}

func (im *Image)lineOffset(band, y int) (int64, error) {
	if band < 0 || band >= im.Meta.BandCount {
		return 0, fmt.Errorf("raster %s: band %d out of range [0,%d)", im.Path, band, im.Meta.BandCount)
	}
	if y < 0 || y >= im.Meta.Lines {
		return 0, fmt.Errorf("raster %s: line %d out of range [0,%d)", im.Path, y, im.Meta.Lines)
	}
	return int64(band*im.Meta.Lines+y) * int64(4*im.Meta.Samples), nil
}

// ReadLine reads one line of one band into dst, which must have
// length Meta.Samples.
func (im *Image)ReadLine(band, y int, dst []float64) error {
	off, err := im.lineOffset(band, y)
	if err != nil {
		return err
	}
	if len(dst) != im.Meta.Samples {
		return fmt.Errorf("raster %s: line buffer is %d, want %d", im.Path, len(dst), im.Meta.Samples)
	}
	if _, err := im.f.ReadAt(im.buf, off); err != nil {
		return fmt.Errorf("raster read %s line %d band %d: %v", im.Path, y, band, err)
	}
	for x := 0; x < im.Meta.Samples; x++ {
		dst[x] = float64(math.Float32frombits(binary.BigEndian.Uint32(im.buf[4*x:])))
	}
	return nil
}

// WriteLine writes one line of one band from src.
func (im *Image)WriteLine(band, y int, src []float64) error {
	off, err := im.lineOffset(band, y)
	if err != nil {
		return err
	}
	if len(src) != im.Meta.Samples {
		return fmt.Errorf("raster %s: line buffer is %d, want %d", im.Path, len(src), im.Meta.Samples)
	}
	for x := 0; x < im.Meta.Samples; x++ {
		binary.BigEndian.PutUint32(im.buf[4*x:], math.Float32bits(float32(src[x])))
	}
	if _, err := im.f.WriteAt(im.buf, off); err != nil {
		return fmt.Errorf("raster write %s line %d band %d: %v", im.Path, y, band, err)
	}
	return nil
}
