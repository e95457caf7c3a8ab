// Package vbap computes per-loudspeaker gains for a direction by vector-base amplitude
// panning over a hull.Mesh, with optional source spread.
package vbap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/hull"
)

// Mode selects the spread algorithm. It is fixed for the lifetime of a Panner.
type Mode int

const (
	// ModeLegacy spreads over 19 vectors around the source with a parabolic weight.
	ModeLegacy Mode = iota
	// ModeEnhanced spreads over a 62-point virtual source grid with independent width, height
	// and radial depth.
	ModeEnhanced
)

func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeEnhanced:
		return "enhanced"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Config configures a Panner.
type Config struct {
	Mode Mode
}

// Object is the subset of object metadata that drives panning.
type Object struct {
	Azimuth   float64
	Elevation float64
	// Gain is the linear gain applied after normalisation.
	Gain float64
	// Spread is the spread width in degrees; in legacy mode the cone angle.
	Spread float64
	// SpreadHeight is the vertical extent in degrees (enhanced mode only).
	SpreadHeight float64
	// SpreadDepth is the radial extent in meters (enhanced mode only).
	SpreadDepth float64
	// Radius is the object distance in meters; values <= 0 mean the reference distance.
	Radius float64
}

// Panner is immutable after construction and safe for concurrent use.
type Panner struct {
	mesh     *hull.Mesh
	triplets []Triplet
	mode     Mode
}

// NewPanner precomputes the triplet inverses of mesh.
func NewPanner(mesh *hull.Mesh, cfg Config) (*Panner, error) {
	if mesh == nil {
		return nil, ErrNoMesh
	}

	p := &Panner{mesh: mesh, mode: cfg.Mode, triplets: make([]Triplet, 0, len(mesh.Triangles))}

	for _, tri := range mesh.Triangles {
		t, err := newTriplet(mesh, tri)
		if err != nil {
			return nil, err
		}

		p.triplets = append(p.triplets, t)
	}

	return p, nil
}

// Outputs returns the number of output channels.
func (p *Panner) Outputs() int { return p.mesh.Outputs() }

// Mode returns the spread mode.
func (p *Panner) Mode() Mode { return p.mode }

// Triplets returns the precomputed triplets. The slice must not be modified.
func (p *Panner) Triplets() []Triplet { return p.triplets }

// PointGains writes the unit-power gains of a point source in direction dir to dst.
func (p *Panner) PointGains(dir r3.Vec, dst []float64) error {
	if len(dst) != p.Outputs() {
		return fmt.Errorf("%w: got %d, want %d", ErrOutputSize, len(dst), p.Outputs())
	}

	p.point(dir, dst, make([]float64, len(p.mesh.Vertices)))

	return nil
}

// Gains writes the gains of obj to dst: unit power scaled by obj.Gain.
func (p *Panner) Gains(obj Object, dst []float64) error {
	if len(dst) != p.Outputs() {
		return fmt.Errorf("%w: got %d, want %d", ErrOutputSize, len(dst), p.Outputs())
	}

	switch p.mode {
	case ModeEnhanced:
		p.enhanced(obj, dst)
	default:
		p.legacy(obj, dst)
	}

	for i := range dst {
		dst[i] *= obj.Gain
	}

	return nil
}

// point computes unit-power output gains for dir; scratch holds one value per vertex.
func (p *Panner) point(dir r3.Vec, dst, scratch []float64) {
	clear(scratch)

	best, bestMin := -1, math.Inf(-1)

	var bestGains [3]float64

	for i := range p.triplets {
		g := p.triplets[i].gains(dir)
		if m := min(g[0], g[1], g[2]); m > bestMin {
			best, bestMin, bestGains = i, m, g
		}
	}

	for k, v := range p.triplets[best].Vertices {
		scratch[v] = max(0, bestGains[k])
	}

	for o, row := range p.mesh.Downmix {
		var acc float64
		for v, g := range scratch {
			acc += row[v] * g
		}

		dst[o] = acc
	}

	normalize(dst)
}

func normalize(g []float64) {
	var power float64
	for _, v := range g {
		power += v * v
	}

	if power == 0 {
		return
	}

	inv := 1 / math.Sqrt(power)
	for i := range g {
		g[i] *= inv
	}
}

// frame returns an orthonormal basis around the source: front, left and up.
func frame(az, el float64) (r3.Vec, r3.Vec, r3.Vec) {
	u := mpegh3da.Direction(az, el)
	v := mpegh3da.Direction(az+90, 0)

	return u, v, r3.Cross(u, v)
}

// offset returns the direction at local azimuth a and elevation e (degrees) in frame (u, v, w).
func offset(u, v, w r3.Vec, a, e float64) r3.Vec {
	ar, er := a*math.Pi/180, e*math.Pi/180

	return r3.Add(r3.Add(
		r3.Scale(math.Cos(er)*math.Cos(ar), u),
		r3.Scale(math.Cos(er)*math.Sin(ar), v)),
		r3.Scale(math.Sin(er), w))
}
