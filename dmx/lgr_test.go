package dmx

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

func TestLimitedGolombRice(t *testing.T) {
	t.Parallel()

	for k := range maxLGRParam + 1 {
		for _, limit := range []int{0, 1, 5, 13, 64, 200} {
			w := bitstream.NewWriter()

			for v := range limit + 1 {
				assert.NilError(t, writeLGR(w, v, k, limit))
			}

			n := w.Len()

			data, err := w.Bytes()
			assert.NilError(t, err)

			s := &syntax{r: bitstream.NewReader(data)}

			expected := 0
			for v := range limit + 1 {
				assert.Equal(t, s.lgr(k, limit), v, "k=%d limit=%d", k, limit)
				expected += lgrLen(v, k, limit)
			}

			assert.NilError(t, s.err)
			assert.Equal(t, n, expected)
		}
	}
}

func TestLGRRejectsValueAboveLimit(t *testing.T) {
	t.Parallel()

	// k=2, limit 5: quotient 1 reaches the maximum, remainder 3 gives 7.
	s := &syntax{r: bitstream.NewReader([]byte{0b1110_0000})}
	s.lgr(2, 5)
	assert.ErrorIs(t, s.err, ErrInvalidValue)
}

func TestGainTableOrder(t *testing.T) {
	t.Parallel()

	table := gainTable(-6, 6, 0)
	want := []float64{0, 3, -3, 6, -6, 1, -1, 2, -2, 4, -4, 5, -5}

	assert.DeepEqual(t, table[:len(want)], want)
	assert.Equal(t, len(table), len(want)+1)
	assert.Assert(t, math.IsInf(table[len(table)-1], -1))

	fine := gainTable(-2, 1, 2)
	assert.DeepEqual(t, fine[:len(fine)-1], []float64{0, 1, -1, -2, 0.5, -0.5, -1.5, 0.25, -0.25, 0.75, -0.75, -1.25, -1.75})
}

func TestNearestGain(t *testing.T) {
	t.Parallel()

	table := gainTable(-12, 3, 1)
	assert.Equal(t, table[nearest(table, decibels(0))], math.Inf(-1))
	assert.Equal(t, table[nearest(table, -3.0103)], -3.0)
	assert.Equal(t, table[nearest(table, -1.3)], -1.5)
	assert.Equal(t, table[nearest(table, 9)], 3.0)
}
