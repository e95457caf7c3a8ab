// Package hull builds the triangulated loudspeaker mesh used for vector-base amplitude
// panning: a convex hull over the unit-sphere speaker directions, closed with imaginary
// ("ghost") speakers where the real layout leaves angular gaps.
package hull

import (
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mycophonic/mpegh3da"
)

const (
	// planeEpsilon is the signed-distance tolerance of the visibility test.
	planeEpsilon = 1e-7
	// minSpacing is the smallest angle in degrees allowed between two vertices.
	minSpacing = 1.0
	// elevationBucket and azimuthBucket quantize the insertion order, in degrees.
	elevationBucket = 5.0
	azimuthBucket   = 1.0
)

// Vertex is one point of the mesh.
type Vertex struct {
	Pos       r3.Vec
	Azimuth   float64
	Elevation float64
	Ghost     bool
	sortKey   int
}

// Triangle holds three vertex indices, ordered so that the normal (b-a)x(c-a) points out
// of the hull.
type Triangle [3]int

// Mesh is the closed triangulation. Vertices [0, NumReal) are the real speakers in input
// order; ghosts follow.
type Mesh struct {
	Vertices  []Vertex
	Triangles []Triangle
	NumReal   int
	// Downmix maps gains over all vertices to output channel gains; it has one row per output
	// and len(Vertices) columns.
	Downmix [][]float64
}

// Build triangulates the given non-LFE speakers. logger may be nil.
func Build(speakers []mpegh3da.Speaker, logger *slog.Logger) (*Mesh, error) {
	if len(speakers) == 0 {
		return nil, ErrTooFewSpeakers
	}

	if slices.ContainsFunc(speakers, func(s mpegh3da.Speaker) bool { return s.LFE }) {
		return nil, ErrLFE
	}

	if logger == nil {
		logger = slog.Default()
	}

	ghosts := ghostSpeakers(speakers)
	all := append(slices.Clone(speakers), ghosts...)

	if err := checkSpacing(all); err != nil {
		return nil, err
	}

	mesh := &Mesh{NumReal: len(speakers)}
	for i, s := range all {
		mesh.Vertices = append(mesh.Vertices, newVertex(s, i >= len(speakers)))
	}

	tris, err := triangulate(mesh.Vertices)
	if err != nil {
		return nil, err
	}

	mesh.Triangles = tris

	if mesh.Downmix, err = ghostDownmix(mesh); err != nil {
		return nil, err
	}

	logger.Debug("loudspeaker mesh built",
		"real", mesh.NumReal,
		"ghosts", len(ghosts),
		"triangles", len(mesh.Triangles))

	return mesh, nil
}

func newVertex(s mpegh3da.Speaker, ghost bool) Vertex {
	az := mpegh3da.WrapAzimuth(s.Azimuth)
	el := max(-90, min(90, s.Elevation))

	elKey := int(math.Round((90 - el) / elevationBucket))
	azKey := int(math.Round((az + 180) / azimuthBucket))

	return Vertex{
		Pos:       mpegh3da.Direction(az, el),
		Azimuth:   az,
		Elevation: el,
		Ghost:     ghost,
		sortKey:   elKey*1000 + azKey,
	}
}

func checkSpacing(all []mpegh3da.Speaker) error {
	limit := math.Cos(minSpacing * math.Pi / 180)

	for i := range all {
		for j := i + 1; j < len(all); j++ {
			if r3.Dot(all[i].Vector(), all[j].Vector()) > limit {
				return fmt.Errorf("%w: (%.1f, %.1f) and (%.1f, %.1f)", ErrSpeakersTooClose,
					all[i].Azimuth, all[i].Elevation, all[j].Azimuth, all[j].Elevation)
			}
		}
	}

	return nil
}

// insertionOrder sorts vertex indices by their quantized elevation/azimuth bucket, which
// makes the triangulation independent of the input channel order.
func insertionOrder(verts []Vertex) []int {
	order := make([]int, len(verts))
	for i := range order {
		order[i] = i
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(verts[a].sortKey, verts[b].sortKey)
	})

	return order
}

func triangulate(verts []Vertex) ([]Triangle, error) {
	order := insertionOrder(verts)

	seed, interior, rest, err := seedTetrahedron(verts, order)
	if err != nil {
		return nil, err
	}

	tris := seed
	for _, v := range rest {
		if tris, err = addVertex(verts, tris, v, interior); err != nil {
			return nil, err
		}
	}

	// Every face must be a proper triplet: a plane through the origin cannot span the
	// directions it covers.
	for _, t := range tris {
		n := r3.Unit(normal(verts, t))
		if math.Abs(r3.Dot(n, verts[t[0]].Pos)) < planeEpsilon {
			return nil, fmt.Errorf("%w: face %v contains the listener", ErrDegenerate, t)
		}
	}

	return tris, nil
}

// seedTetrahedron picks the first four non-coplanar vertices in insertion order. It also
// returns their centroid, which stays strictly inside every later hull.
func seedTetrahedron(verts []Vertex, order []int) ([]Triangle, r3.Vec, []int, error) {
	if len(order) < 4 {
		return nil, r3.Vec{}, nil, ErrDegenerate
	}

	a, b := order[0], order[1]
	ab := r3.Sub(verts[b].Pos, verts[a].Pos)

	c := -1

	for _, i := range order[2:] {
		if r3.Norm(r3.Cross(ab, r3.Sub(verts[i].Pos, verts[a].Pos))) > planeEpsilon {
			c = i

			break
		}
	}

	if c < 0 {
		return nil, r3.Vec{}, nil, ErrDegenerate
	}

	d := -1
	n := r3.Cross(ab, r3.Sub(verts[c].Pos, verts[a].Pos))

	for _, i := range order[2:] {
		if i == c {
			continue
		}

		if math.Abs(r3.Dot(n, r3.Sub(verts[i].Pos, verts[a].Pos))) > planeEpsilon {
			d = i

			break
		}
	}

	if d < 0 {
		return nil, r3.Vec{}, nil, ErrDegenerate
	}

	var interior r3.Vec
	for _, i := range []int{a, b, c, d} {
		interior = r3.Add(interior, verts[i].Pos)
	}

	interior = r3.Scale(0.25, interior)

	tris := []Triangle{{a, b, c}, {a, b, d}, {a, c, d}, {b, c, d}}
	for i, t := range tris {
		tris[i] = orient(verts, t, interior)
	}

	rest := slices.DeleteFunc(slices.Clone(order), func(i int) bool {
		return i == a || i == b || i == c || i == d
	})

	return tris, interior, rest, nil
}

type edge struct{ from, to int }

// addVertex inserts vertex v: every triangle whose plane v lies strictly above is removed
// and the horizon of the removed region is connected to v. Faces coplanar with v are kept.
func addVertex(verts []Vertex, tris []Triangle, v int, interior r3.Vec) ([]Triangle, error) {
	p := verts[v].Pos

	kept := make([]Triangle, 0, len(tris)+2)
	visibleEdges := map[edge]bool{}

	var visible []Triangle

	for _, t := range tris {
		n := r3.Unit(normal(verts, t))
		if r3.Dot(n, r3.Sub(p, verts[t[0]].Pos)) > planeEpsilon {
			visible = append(visible, t)

			for k := range 3 {
				visibleEdges[edge{t[k], t[(k+1)%3]}] = true
			}

			continue
		}

		kept = append(kept, t)
	}

	if len(visible) == 0 {
		return nil, fmt.Errorf("%w: vertex (%.1f, %.1f) lies inside the hull",
			ErrDegenerate, verts[v].Azimuth, verts[v].Elevation)
	}

	for _, t := range visible {
		for k := range 3 {
			e := edge{t[k], t[(k+1)%3]}
			if visibleEdges[edge{e.to, e.from}] {
				continue
			}

			kept = append(kept, orient(verts, Triangle{e.from, e.to, v}, interior))
		}
	}

	return kept, nil
}

// orient orders t so that its normal points away from interior.
func orient(verts []Vertex, t Triangle, interior r3.Vec) Triangle {
	if r3.Dot(normal(verts, t), r3.Sub(verts[t[0]].Pos, interior)) < 0 {
		return Triangle{t[0], t[2], t[1]}
	}

	return t
}

func normal(verts []Vertex, t Triangle) r3.Vec {
	a, b, c := verts[t[0]].Pos, verts[t[1]].Pos, verts[t[2]].Pos

	return r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
}
