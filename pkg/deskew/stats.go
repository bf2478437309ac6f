package deskew

import (
	"fmt"

	"github.com/codahale/hdrhistogram"
)

// amplitudes are recorded in fixed point so the histogram can hold
// sub-unit backscatter values
const ampScale = 100

// RunStats collects everything a run reports at completion: the mask
// classification counters and a histogram of the corrected output
// amplitudes.
type RunStats struct {
	Mask        MaskStats
	TotalPixels int

	GroundPixelSize float64
	amplitudes      *hdrhistogram.Histogram
}

func newRunStats(g *Geometry, totalPixels int) *RunStats {
	return &RunStats{
		TotalPixels:     totalPixels,
		GroundPixelSize: g.GroundPixelSize(),
		amplitudes:      hdrhistogram.New(1, 1_000_000_000, 3),
	}
}

func (rs *RunStats)recordAmplitudes(line []float64) {
	for _, v := range line {
		if v <= 0 {
			continue // edge fill and masked pixels
		}
		sv := int64(v * ampScale)
		if sv < 1 {
			sv = 1
		}
		if sv > 1_000_000_000 {
			sv = 1_000_000_000
		}
		rs.amplitudes.RecordValue(sv)
	}
}

// AmplitudeReport summarizes the corrected output amplitudes.
func (rs *RunStats)AmplitudeReport() string {
	h := rs.amplitudes
	if h.TotalCount() == 0 {
		return "Amplitude Statistics: no valid output pixels\n"
	}
	return fmt.Sprintf("Amplitude Statistics:\n"+
		"      valid pixels: %d\n"+
		"              mean: %.2f\n"+
		"            median: %.2f\n"+
		"    95th percentile: %.2f\n"+
		"               max: %.2f\n",
		h.TotalCount(),
		h.Mean()/ampScale,
		float64(h.ValueAtQuantile(50))/ampScale,
		float64(h.ValueAtQuantile(95))/ampScale,
		float64(h.Max())/ampScale)
}
