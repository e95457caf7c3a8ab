package hull_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/hull"
)

func nonLFE(t *testing.T, index int) []mpegh3da.Speaker {
	t.Helper()

	geo, _, _, err := cicp.Geometry(index)
	assert.NilError(t, err)

	var out []mpegh3da.Speaker

	for _, s := range geo {
		if !s.LFE {
			out = append(out, s)
		}
	}

	return out
}

func det(a, b, c r3.Vec) float64 { return r3.Dot(a, r3.Cross(b, c)) }

// coefficients solves d = c0*a + c1*b + c2*c with Cramer's rule.
func coefficients(a, b, c, d r3.Vec) [3]float64 {
	den := det(a, b, c)

	return [3]float64{det(d, b, c) / den, det(a, d, c) / den, det(a, b, d) / den}
}

func covered(mesh *hull.Mesh, d r3.Vec) bool {
	for _, tri := range mesh.Triangles {
		c := coefficients(mesh.Vertices[tri[0]].Pos, mesh.Vertices[tri[1]].Pos, mesh.Vertices[tri[2]].Pos, d)
		if c[0] >= -1e-9 && c[1] >= -1e-9 && c[2] >= -1e-9 {
			return true
		}
	}

	return false
}

// assertClosed checks that mesh is a closed triangulation of the sphere made of proper
// triplets: every vertex used, no face plane through the listener, full coverage.
func assertClosed(t *testing.T, mesh *hull.Mesh) {
	t.Helper()

	v := len(mesh.Vertices)
	assert.Equal(t, len(mesh.Triangles), 2*v-4, "vertices=%d", v)

	used := make([]bool, v)

	for _, tri := range mesh.Triangles {
		a, b, c := mesh.Vertices[tri[0]].Pos, mesh.Vertices[tri[1]].Pos, mesh.Vertices[tri[2]].Pos

		n := r3.Unit(r3.Cross(r3.Sub(b, a), r3.Sub(c, a)))
		assert.Assert(t, r3.Dot(n, a) > 1e-7, "face %v: plane offset %g", tri, r3.Dot(n, a))
		assert.Assert(t, det(a, b, c) > 1e-9, "face %v: det %g", tri, det(a, b, c))

		for _, i := range tri {
			used[i] = true
		}
	}

	for i, u := range used {
		assert.Assert(t, u, "vertex %d unused", i)
	}

	for az := -180.0; az < 180; az += 7.5 {
		for el := -90.0; el <= 90; el += 7.5 {
			assert.Assert(t, covered(mesh, mpegh3da.Direction(az, el)), "az=%v el=%v", az, el)
		}
	}
}

func TestHullClosureForEveryLayout(t *testing.T) {
	t.Parallel()

	for _, idx := range cicp.Indices() {
		t.Run(cicp.Name(idx), func(t *testing.T) {
			t.Parallel()

			mesh, err := hull.Build(nonLFE(t, idx), nil)
			assert.NilError(t, err)

			assertClosed(t, mesh)
		})
	}
}

// randomLayout draws n directions at least spacing degrees apart.
func randomLayout(r *rand.Rand, n int, spacing float64) []mpegh3da.Speaker {
	limit := math.Cos(spacing * math.Pi / 180)

	var out []mpegh3da.Speaker

	for len(out) < n {
		s := mpegh3da.Speaker{
			Azimuth:   math.Round((r.Float64()*360-180)*10) / 10,
			Elevation: math.Round((math.Asin(2*r.Float64()-1)*180/math.Pi)*10) / 10,
		}

		tooClose := false

		for _, o := range out {
			if r3.Dot(s.Vector(), o.Vector()) > limit {
				tooClose = true

				break
			}
		}

		if !tooClose {
			out = append(out, s)
		}
	}

	return out
}

func TestHullClosureForRandomLayouts(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(0x3da, 2015))

	for run := range 200 {
		speakers := randomLayout(r, 1+r.IntN(24), 3)

		mesh, err := hull.Build(speakers, nil)
		assert.NilError(t, err, "run %d: %v", run, speakers)

		assertClosed(t, mesh)
	}
}

func TestGhostsFor51(t *testing.T) {
	t.Parallel()

	mesh, err := hull.Build(nonLFE(t, 6), nil)
	assert.NilError(t, err)

	// Voice of god and voice of hell only: the horizontal ring has no gap above 160 degrees.
	assert.Equal(t, mesh.NumReal, 5)
	assert.Equal(t, len(mesh.Vertices), 7)
	assert.Assert(t, mesh.Vertices[5].Ghost)
	assert.Equal(t, mesh.Vertices[5].Elevation, 90.0)
	assert.Equal(t, mesh.Vertices[6].Elevation, -90.0)
}

func TestGhostsForStereo(t *testing.T) {
	t.Parallel()

	mesh, err := hull.Build(nonLFE(t, 2), nil)
	assert.NilError(t, err)

	// Poles plus one ghost bisecting the 300 degree rear gap.
	assert.Equal(t, len(mesh.Vertices), 5)
	assert.Equal(t, mesh.Vertices[4].Azimuth, 180.0)
	assert.Equal(t, len(mesh.Triangles), 6)
}

func TestGhostsForFrontHeights(t *testing.T) {
	t.Parallel()

	mesh, err := hull.Build(nonLFE(t, 14), nil)
	assert.NilError(t, err)

	var rearUpper bool

	for _, v := range mesh.Vertices[mesh.NumReal:] {
		if v.Azimuth == 180 && v.Elevation == 40 {
			rearUpper = true
		}
	}

	assert.Assert(t, rearUpper, "missing rear-upper ghost")
}

func TestGhostDownmixPreservesPower(t *testing.T) {
	t.Parallel()

	for _, idx := range []int{1, 2, 6, 14, 19} {
		mesh, err := hull.Build(nonLFE(t, idx), nil)
		assert.NilError(t, err)
		assert.Equal(t, mesh.Outputs(), mesh.NumReal)

		for j := range mesh.Vertices {
			var power float64
			for i := range mesh.NumReal {
				power += mesh.Downmix[i][j] * mesh.Downmix[i][j]
			}

			assert.Assert(t, math.Abs(power-1) < 1e-3, "layout %d column %d power %v", idx, j, power)
		}

		for i := range mesh.NumReal {
			for j := range mesh.NumReal {
				want := 0.0
				if i == j {
					want = 1
				}

				assert.Equal(t, mesh.Downmix[i][j], want)
			}
		}
	}
}

func TestComposeSuperset(t *testing.T) {
	t.Parallel()

	mesh, err := hull.Build(nonLFE(t, 2), nil)
	assert.NilError(t, err)

	// Fold stereo to mono.
	assert.NilError(t, mesh.ComposeSuperset([][]float64{{0.5, 0.5}}))
	assert.Equal(t, mesh.Outputs(), 1)
	assert.Equal(t, mesh.Downmix[0][0], 0.5)

	assert.ErrorIs(t, mesh.ComposeSuperset([][]float64{{1, 2, 3}}), hull.ErrDimension)
}

func TestRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	_, err := hull.Build(nil, nil)
	assert.ErrorIs(t, err, hull.ErrTooFewSpeakers)

	_, err = hull.Build([]mpegh3da.Speaker{{Azimuth: 30}, {Azimuth: 30.5}}, nil)
	assert.ErrorIs(t, err, hull.ErrSpeakersTooClose)

	_, err = hull.Build([]mpegh3da.Speaker{{Azimuth: 45, Elevation: -15, LFE: true}}, nil)
	assert.ErrorIs(t, err, hull.ErrLFE)
}
