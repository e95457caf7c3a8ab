package vbap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mycophonic/mpegh3da/hull"
)

// minDeterminant is the smallest accepted |det| of a triplet basis. Speakers respecting the
// mesh builder's minimum spacing stay well above it.
const minDeterminant = 1e-9

// Triplet is one mesh triangle with its loudspeaker basis and the rows of the transposed
// inverse used to solve gains: g[i] = Solve[i] . d.
type Triplet struct {
	Vertices hull.Triangle
	Basis    [3]r3.Vec
	Solve    [3]r3.Vec
}

func newTriplet(mesh *hull.Mesh, tri hull.Triangle) (Triplet, error) {
	t := Triplet{Vertices: tri}

	basis := mat.NewDense(3, 3, nil)

	for r, v := range tri {
		b := mesh.Vertices[v].Pos
		t.Basis[r] = b
		basis.SetRow(r, []float64{b.X, b.Y, b.Z})
	}

	if det := mat.Det(basis); math.Abs(det) < minDeterminant {
		return t, fmt.Errorf("%w: vertices %v, det %g", ErrDegenerateTriplet, tri, det)
	}

	var inv mat.Dense
	if err := inv.Inverse(basis); err != nil {
		return t, fmt.Errorf("%w: %w", ErrDegenerateTriplet, err)
	}

	// p = Basis^T g, hence g = (Basis^-1)^T p.
	for i := range 3 {
		t.Solve[i] = r3.Vec{X: inv.At(0, i), Y: inv.At(1, i), Z: inv.At(2, i)}
	}

	return t, nil
}

// gains returns the unclamped barycentric-like gains of direction d on the triplet.
func (t *Triplet) gains(d r3.Vec) [3]float64 {
	return [3]float64{r3.Dot(t.Solve[0], d), r3.Dot(t.Solve[1], d), r3.Dot(t.Solve[2], d)}
}
