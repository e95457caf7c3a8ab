package vbap

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const (
	// minSpread is the spread angle in degrees below which a source is a point.
	minSpread = 0.1
	maxSpread = 180.0

	// Legacy spread vector rings: 6 vectors at half the spread angle, 12 at the full angle.
	innerRing = 6
	outerRing = 12
	// edgeWeight is the parabolic weight of the outer ring relative to the centre.
	edgeWeight = 0.25

	// Enhanced spread grid: azimuth columns by elevation rows, plus two poles.
	gridColumns = 12
	gridRows    = 5

	// pointShare and gridShare are the power shares of the point source and of the grid.
	pointShare = 0.11
	gridShare  = 0.89

	// Height mapping H(a) = heightLinear*a - heightQuadratic*a^2 for a in [0, heightLimit].
	heightLinear    = 1.25
	heightQuadratic = 0.0069
	heightLimit     = 90.0

	// minDepth is the radial extent in meters below which a source has a single layer.
	minDepth = 1e-3
	// referenceRadius replaces a missing object distance, in meters.
	referenceRadius = 1.0
)

// legacyWeight is the parabolic spread-gain law at angle theta within a cone of half-angle alpha.
func legacyWeight(theta, alpha float64) float64 {
	r := theta / alpha

	return 1 - (1-edgeWeight)*r*r
}

func (p *Panner) legacy(obj Object, dst []float64) {
	scratch := make([]float64, len(p.mesh.Vertices))

	u, v, w := frame(obj.Azimuth, obj.Elevation)

	alpha := min(maxSpread, obj.Spread)
	if alpha < minSpread {
		p.point(u, dst, scratch)

		return
	}

	clear(dst)

	tmp := make([]float64, len(dst))

	add := func(dir r3.Vec, weight float64) {
		p.point(dir, tmp, scratch)

		for i := range dst {
			dst[i] += weight * tmp[i]
		}
	}

	add(u, 1)

	for _, ring := range []struct {
		count int
		theta float64
	}{{innerRing, alpha / 2}, {outerRing, alpha}} {
		weight := legacyWeight(ring.theta, alpha)

		for k := range ring.count {
			phi := 360 * float64(k) / float64(ring.count)
			add(cone(u, v, w, ring.theta, phi), weight)
		}
	}

	normalize(dst)
}

// cone returns the direction at angle theta from u, rotated by phi around u (degrees).
func cone(u, v, w r3.Vec, theta, phi float64) r3.Vec {
	t, f := theta*math.Pi/180, phi*math.Pi/180
	st := math.Sin(t)

	return r3.Add(r3.Scale(math.Cos(t), u),
		r3.Add(r3.Scale(st*math.Cos(f), v), r3.Scale(st*math.Sin(f), w)))
}

// mapHeight converts an authored vertical extent to the rendered one.
func mapHeight(a float64) float64 {
	a = max(0, min(heightLimit, a))

	return heightLinear*a - heightQuadratic*a*a
}

// gridPoints returns the 62 local (azimuth, elevation) offsets of the virtual sources.
func gridPoints(width, height float64) [][2]float64 {
	pts := make([][2]float64, 0, gridColumns*gridRows+2)

	for j := range gridRows {
		e := height / 2 * (-1 + float64(2*j+1)/gridRows)

		for i := range gridColumns {
			a := width / 2 * (-1 + float64(2*i+1)/gridColumns)
			pts = append(pts, [2]float64{a, e})
		}
	}

	return append(pts, [2]float64{0, height / 2}, [2]float64{0, -height / 2})
}

// depthLayers returns the (width, height) of each radial layer of the source. A deep source
// gets a near layer widened and a far layer narrowed by the angle its depth subtends at
// the object distance.
func depthLayers(width, height, depth, radius float64) [][2]float64 {
	if depth < minDepth {
		return [][2]float64{{width, height}}
	}

	if radius <= 0 {
		radius = referenceRadius
	}

	angle := 2 * math.Atan(depth/(2*radius)) * 180 / math.Pi

	return [][2]float64{
		{min(maxSpread*2, width+angle), min(maxSpread, height+angle)},
		{width, height},
		{max(0, width-angle), max(0, height-angle)},
	}
}

func (p *Panner) enhanced(obj Object, dst []float64) {
	scratch := make([]float64, len(p.mesh.Vertices))

	u, v, w := frame(obj.Azimuth, obj.Elevation)

	width := min(maxSpread*2, max(0, obj.Spread))
	height := mapHeight(obj.SpreadHeight)
	layers := depthLayers(width, height, obj.SpreadDepth, obj.Radius)

	if len(layers) == 1 && width < minSpread && height < minSpread {
		p.point(u, dst, scratch)

		return
	}

	pt := make([]float64, len(dst))
	p.point(u, pt, scratch)

	clear(dst)

	tmp := make([]float64, len(dst))

	for _, layer := range layers {
		for _, o := range gridPoints(layer[0], layer[1]) {
			p.point(offset(u, v, w, o[0], o[1]), tmp, scratch)

			for i := range dst {
				dst[i] += tmp[i] * tmp[i]
			}
		}
	}

	for i := range dst {
		dst[i] = math.Sqrt(dst[i])
	}

	normalize(dst)

	for i := range dst {
		dst[i] = math.Sqrt(gridShare*dst[i]*dst[i] + pointShare*pt[i]*pt[i])
	}
}
