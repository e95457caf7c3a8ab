package converter

import (
	"math"

	"github.com/mycophonic/mpegh3da/cicp"
)

// Rows of the virtual elevation tables, one per left or centre upper source.
const (
	rowU000 = iota
	rowUL030
	rowUL045
	rowUL090
	rowUL110
	rowUL135

	virtualRows
)

// virtualColumns are the horizontal loudspeakers a virtual elevation source can feed.
//
//nolint:gochecknoglobals
var virtualColumns = [...]cicp.Label{
	cicp.M000,
	cicp.ML030, cicp.MR030,
	cicp.ML045, cicp.MR045,
	cicp.ML060, cicp.MR060,
	cicp.ML090, cicp.MR090,
	cicp.ML110, cicp.MR110,
	cicp.ML135, cicp.MR135,
}

// crossover is the frequency in Hz below which the low-band virtual gains apply.
const crossover = 2800.0

// gvh holds the high-band virtual elevation gains, columns in virtualColumns order.
//
//nolint:gochecknoglobals
var gvh = [virtualRows][len(virtualColumns)]float64{
	rowU000:  {0.60, 0.40, 0.40, 0.25, 0.25, 0.15, 0.15, 0.10, 0.10, 0.25, 0.25, 0.20, 0.20},
	rowUL030: {0.20, 0.65, 0.15, 0.35, 0.05, 0.20, 0.00, 0.15, 0.00, 0.30, 0.10, 0.20, 0.05},
	rowUL045: {0.10, 0.45, 0.10, 0.60, 0.05, 0.35, 0.00, 0.20, 0.00, 0.30, 0.10, 0.20, 0.05},
	rowUL090: {0.00, 0.20, 0.00, 0.30, 0.00, 0.40, 0.00, 0.65, 0.05, 0.40, 0.05, 0.25, 0.05},
	rowUL110: {0.00, 0.20, 0.05, 0.20, 0.00, 0.30, 0.00, 0.45, 0.00, 0.65, 0.10, 0.40, 0.05},
	rowUL135: {0.00, 0.15, 0.05, 0.15, 0.00, 0.20, 0.00, 0.35, 0.00, 0.50, 0.10, 0.65, 0.15},
}

// gvl holds the low-band virtual elevation gains.
//
//nolint:gochecknoglobals
var gvl = [virtualRows][len(virtualColumns)]float64{
	rowU000:  {0.70, 0.45, 0.45, 0.20, 0.20, 0.10, 0.10, 0.05, 0.05, 0.15, 0.15, 0.10, 0.10},
	rowUL030: {0.30, 0.75, 0.20, 0.30, 0.05, 0.15, 0.00, 0.10, 0.00, 0.20, 0.05, 0.10, 0.00},
	rowUL045: {0.20, 0.60, 0.15, 0.65, 0.05, 0.30, 0.00, 0.15, 0.00, 0.20, 0.05, 0.10, 0.00},
	rowUL090: {0.05, 0.35, 0.05, 0.40, 0.00, 0.45, 0.00, 0.70, 0.00, 0.35, 0.05, 0.15, 0.00},
	rowUL110: {0.00, 0.30, 0.05, 0.25, 0.00, 0.30, 0.00, 0.45, 0.00, 0.70, 0.10, 0.35, 0.05},
	rowUL135: {0.00, 0.25, 0.05, 0.20, 0.00, 0.20, 0.00, 0.35, 0.00, 0.55, 0.10, 0.70, 0.10},
}

// mirrorColumn returns the column of the left/right mirrored loudspeaker.
func mirrorColumn(c int) int {
	if c == 0 {
		return 0
	}

	// Pairs are stored left then right.
	if c%2 == 1 {
		return c + 1
	}

	return c - 1
}

// virtualGains returns, for each column present in out, the high- and low-band gains of a
// virtual elevation row, each renormalised to unit power over the present columns. A right
// source uses the mirrored row. ok is false when no column is present.
func virtualGains(row int, right bool, present func(cicp.Label) bool) (high, low map[cicp.Label]float64, ok bool) {
	high = map[cicp.Label]float64{}
	low = map[cicp.Label]float64{}

	var ph, pl float64

	for c, lbl := range virtualColumns {
		if !present(lbl) {
			continue
		}

		src := c
		if right {
			src = mirrorColumn(c)
		}

		h, l := gvh[row][src], gvl[row][src]
		if h == 0 && l == 0 {
			continue
		}

		high[lbl], low[lbl] = h, l
		ph += h * h
		pl += l * l
	}

	if ph == 0 || pl == 0 {
		return nil, nil, false
	}

	nh, nl := 1/math.Sqrt(ph), 1/math.Sqrt(pl)
	for lbl := range high {
		high[lbl] *= nh
		low[lbl] *= nl
	}

	return high, low, true
}
