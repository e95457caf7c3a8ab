package dmx

import (
	"fmt"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// maxLGRParam is the largest Golomb-Rice parameter, coded on three bits.
const maxLGRParam = 7

// lgr reads a limited Golomb-Rice value in [0, limit]: a unary quotient, whose terminating
// zero is omitted once the quotient reaches its maximum, followed by k remainder bits.
func (s *syntax) lgr(k, limit int) int {
	qmax := limit >> k

	q := 0
	for q < qmax && s.flag() {
		q++
	}

	v := q<<k | int(s.bits(k))
	if s.err == nil && v > limit {
		s.err = fmt.Errorf("%w: code %d above %d", ErrInvalidValue, v, limit)
	}

	return v
}

func writeLGR(w *bitstream.Writer, v, k, limit int) error {
	qmax := limit >> k
	q := v >> k

	for range q {
		if err := w.WriteBit(true); err != nil {
			return err
		}
	}

	if q < qmax {
		if err := w.WriteBit(false); err != nil {
			return err
		}
	}

	return w.WriteBits(uint32(v&(1<<k-1)), k) //nolint:gosec // masked to k bits
}

// lgrLen returns the coded length of v.
func lgrLen(v, k, limit int) int {
	q := v >> k

	n := q + k
	if q < limit>>k {
		n++
	}

	return n
}

// bestLGRParam returns the parameter that codes values in the fewest bits; limits[i] bounds
// values[i].
func bestLGRParam(values, limits []int) int {
	best, bestLen := 0, -1

	for k := range maxLGRParam + 1 {
		n := 0
		for i, v := range values {
			n += lgrLen(v, k, limits[i])
		}

		if bestLen < 0 || n < bestLen {
			best, bestLen = k, n
		}
	}

	return best
}
