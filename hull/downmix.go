package hull

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/mat"
)

const (
	// convergenceThreshold bounds the gain left on ghost vertices after redistribution.
	convergenceThreshold = 1e-4
	// maxIterations bounds the number of matrix squarings.
	maxIterations = 20
)

// Neighbors returns, for every vertex, the sorted-by-discovery list of vertices sharing a
// triangle edge with it.
func (m *Mesh) Neighbors() [][]int {
	nbrs := make([][]int, len(m.Vertices))

	for _, t := range m.Triangles {
		for k := range 3 {
			a, b := t[k], t[(k+1)%3]
			nbrs[a] = append(nbrs[a], b)
			nbrs[b] = append(nbrs[b], a)
		}
	}

	for i := range nbrs {
		nbrs[i] = lo.Uniq(nbrs[i])
	}

	return nbrs
}

// ghostDownmix computes the power-preserving matrix that folds ghost vertex gains onto the
// real speakers. Each ghost spreads its power evenly over its neighbours; ghost-to-ghost
// transfers are resolved by raising the transfer matrix to a power.
func ghostDownmix(m *Mesh) ([][]float64, error) {
	n := len(m.Vertices)

	transfer := mat.NewDense(n, n, nil)
	for i := range m.NumReal {
		transfer.Set(i, i, 1)
	}

	for g, nb := range m.Neighbors() {
		if g < m.NumReal {
			continue
		}

		for _, i := range nb {
			transfer.Set(i, g, 1/float64(len(nb)))
		}
	}

	converged := ghostResidual(transfer, m.NumReal) < convergenceThreshold
	for iter := 0; iter < maxIterations && !converged; iter++ {
		next := mat.NewDense(n, n, nil)
		next.Mul(transfer, transfer)
		transfer = next
		converged = ghostResidual(transfer, m.NumReal) < convergenceThreshold
	}

	if !converged {
		return nil, fmt.Errorf("%w: residual %g after %d iterations",
			ErrNoConvergence, ghostResidual(transfer, m.NumReal), maxIterations)
	}

	out := make([][]float64, m.NumReal)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range n {
			out[i][j] = math.Sqrt(max(0, transfer.At(i, j)))
		}
	}

	return out, nil
}

// ghostResidual is the largest share of power still held by a ghost vertex.
func ghostResidual(transfer *mat.Dense, numReal int) float64 {
	n, _ := transfer.Dims()

	var worst float64

	for i := numReal; i < n; i++ {
		for j := range n {
			worst = max(worst, math.Abs(transfer.At(i, j)))
		}
	}

	return worst
}

// ComposeSuperset re-targets the mesh onto a subset layout: superset has one row per subset
// output channel and one column per current output channel.
func (m *Mesh) ComposeSuperset(superset [][]float64) error {
	if len(superset) == 0 {
		return fmt.Errorf("%w: empty superset matrix", ErrDimension)
	}

	rows, cols := len(superset), len(m.Downmix)
	left := mat.NewDense(rows, cols, nil)

	for i, row := range superset {
		if len(row) != cols {
			return fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimension, i, len(row), cols)
		}

		left.SetRow(i, row)
	}

	right := mat.NewDense(cols, len(m.Vertices), nil)
	for i, row := range m.Downmix {
		right.SetRow(i, row)
	}

	var prod mat.Dense
	prod.Mul(left, right)

	m.Downmix = make([][]float64, rows)
	for i := range rows {
		m.Downmix[i] = mat.Row(nil, i, &prod)
	}

	return nil
}

// Outputs returns the number of output channels the mesh renders to.
func (m *Mesh) Outputs() int {
	return len(m.Downmix)
}
