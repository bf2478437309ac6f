package deskew

import (
	"fmt"
	"math"

	"github.com/etrochim/ASF-MapReady/pkg/raster"
)

// probeHeight is the fixed elevation increment used to finite-
// difference the sensitivity of the slant<->ground position maps to
// terrain height. It must be the same in both directions or the
// forward and inverse maps drift apart to first order.
const probeHeight = 1000.0

// Geometry holds the per-scene lookup tables relating slant range
// pixel index, ground range pixel index, incidence angle, and the
// elevation-dependent horizontal shift, under a spherical Earth and a
// satellite at fixed height from the Earth's center. Built once per
// scene, read-only afterwards.
type Geometry struct {
	numSamples  int
	earthRadius float64 // at scene center, from Earth center, m
	satHeight   float64 // from Earth center, m
	slantFirst  float64 // slant range to sample 0, m
	slantPer    float64 // slant range per sample, m
	grPixelSize float64 // derived ground range sample spacing, m

	minPhi, maxPhi, phiMul float64

	// Indexed by slant range pixel.
	slantRange    []float64
	slantRangeSqr []float64
	incidAng      []float64
	sinIncidAng   []float64
	cosIncidAng   []float64
	groundSR      []float64 // ground range pixel position of SR pixel x, at sea level
	heightShiftSR []float64 // d(position)/d(elevation) at SR pixel x

	// Indexed by ground range pixel.
	slantGR       []float64 // slant range pixel position of GR pixel x, at sea level
	heightShiftGR []float64
}

// NewGeometry computes the scene geometry from raster metadata. The
// scene's slant range sampling is adjusted for the sensor's start
// sample and sample increment before the tables are built.
func NewGeometry(m raster.Meta) (*Geometry, error) {
	if m.Samples < 2 {
		return nil, fmt.Errorf("geometry: need at least 2 samples, have %d", m.Samples)
	}
	if m.SatHeight <= m.EarthRadius {
		return nil, fmt.Errorf("geometry: satellite height %f not above earth radius %f", m.SatHeight, m.EarthRadius)
	}
	if m.SlantPer <= 0 {
		return nil, fmt.Errorf("geometry: non-positive slant range spacing %f", m.SlantPer)
	}

	ns := m.Samples
	g := &Geometry{
		numSamples:  ns,
		earthRadius: m.EarthRadius,
		satHeight:   m.SatHeight,
		slantFirst:  m.SlantFirst + m.SlantPer*float64(m.StartSample) + 1,
		slantPer:    m.SlantPer * float64(m.SampleIncrement),

		slantRange:    make([]float64, ns),
		slantRangeSqr: make([]float64, ns),
		incidAng:      make([]float64, ns),
		sinIncidAng:   make([]float64, ns),
		cosIncidAng:   make([]float64, ns),
		groundSR:      make([]float64, ns),
		heightShiftSR: make([]float64, ns),
		slantGR:       make([]float64, ns),
		heightShiftGR: make([]float64, ns),
	}

	er := g.earthRadius
	satHt := g.satHeight
	er2her2 := er*er - satHt*satHt

	// Tables indexed by slant range pixel: slant range and incidence.
	for x := 0; x < ns; x++ {
		g.slantRange[x] = g.slantFirst + float64(x)*g.slantPer
		g.slantRangeSqr[x] = g.slantRange[x] * g.slantRange[x]
		g.incidAng[x] = math.Pi - math.Acos((g.slantRangeSqr[x]+er2her2)/(2.0*er*g.slantRange[x]))
		g.sinIncidAng[x] = math.Sin(g.incidAng[x])
		g.cosIncidAng[x] = math.Cos(g.incidAng[x])
	}

	// The central angle subtended between the satellite nadir and the
	// first/last slant range samples defines a uniform ground range
	// sampling of the same pixel count.
	g.minPhi = math.Acos((satHt*satHt + er*er - g.slantFirst*g.slantFirst) / (2.0 * satHt * er))
	g.maxPhi = math.Acos((satHt*satHt + er*er - g.slantRangeSqr[ns-1]) / (2.0 * satHt * er))
	g.phiMul = float64(ns-1) / (g.maxPhi - g.minPhi)

	// Tables indexed by ground range pixel: slantGR and heightShiftGR.
	// The height shift re-solves the same spherical triangle with the
	// Earth radius raised by the probe height, then finite-differences.
	for x := 0; x < ns; x++ {
		phiAtSeaLevel := g.grX2phi(float64(x))
		slantRng := math.Sqrt(satHt*satHt + er*er - 2.0*satHt*er*math.Cos(phiAtSeaLevel))
		g.slantGR[x] = (slantRng - g.slantFirst) / g.slantPer

		erProbe := er + probeHeight
		phi := math.Acos((satHt*satHt + erProbe*erProbe - slantRng*slantRng) / (2 * satHt * erProbe))
		g.heightShiftGR[x] = (g.phi2grX(phi) - float64(x)) / probeHeight
	}

	// Tables indexed by slant range pixel: groundSR and heightShiftSR.
	for x := 0; x < ns; x++ {
		phiAtSeaLevel := math.Acos((satHt*satHt + er*er - g.slantRangeSqr[x]) / (2 * satHt * er))
		g.groundSR[x] = g.phi2grX(phiAtSeaLevel)

		erProbe := er + probeHeight
		slantRng := math.Sqrt(satHt*satHt + erProbe*erProbe - 2.0*satHt*erProbe*math.Cos(phiAtSeaLevel))
		g.heightShiftSR[x] = ((slantRng-g.slantFirst)/g.slantPer - float64(x)) / probeHeight
	}

	g.grPixelSize = er / g.phiMul
	return g, nil
}

func (g *Geometry)phi2grX(phi float64) float64 { return (phi - g.minPhi) * g.phiMul }
func (g *Geometry)grX2phi(grX float64) float64 { return g.minPhi + grX/g.phiMul }

func (g *Geometry)NumSamples() int          { return g.numSamples }
func (g *Geometry)GroundPixelSize() float64 { return g.grPixelSize }
func (g *Geometry)SlantRange(x int) float64 { return g.slantRange[x] }
func (g *Geometry)IncidAngle(x int) float64 { return g.incidAng[x] }

// clampIndex limits a fractional pixel position so that both it and
// its right neighbor stay inside the tables. Slight overflows at the
// scene edges are expected and must not abort the run.
func (g *Geometry)clampIndex(fx float64) (int, float64) {
	if fx < 0 {
		fx = 0
	}
	if fx >= float64(g.numSamples-1) {
		fx = float64(g.numSamples - 2)
	}
	ix := int(fx)
	return ix, fx - float64(ix)
}

// SlantToGround maps a slant range pixel position to the ground range
// pixel position of the terrain point at the given elevation.
func (g *Geometry)SlantToGround(srX, height float64) float64 {
	sx, _ := g.clampIndex(srX)
	ix, dx := g.clampIndex(srX - height*g.heightShiftSR[sx])
	return g.groundSR[ix] + dx*(g.groundSR[ix+1]-g.groundSR[ix])
}

// GroundToSlant is the inverse map: ground range pixel position to
// slant range pixel position, at the given elevation.
func (g *Geometry)GroundToSlant(grX, height float64) float64 {
	gx, _ := g.clampIndex(grX)
	ix, dx := g.clampIndex(grX - height*g.heightShiftGR[gx])
	return g.slantGR[ix] + dx*(g.slantGR[ix+1]-g.slantGR[ix])
}
