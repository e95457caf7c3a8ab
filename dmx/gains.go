package dmx

import (
	"math"
)

// Gain range limits of the coded syntax.
const (
	maxPrecision = 2
	maxGainDB    = 22
	minGainDB    = -47
)

// gainTable lists the coded gains in dB in index order: 0 dB, then multiples of 3 dB, then
// the remaining whole decibels, then the finer steps of each precision level, all growing
// outwards from 0 dB with the positive value first. The last entry is minus infinity.
func gainTable(minDB, maxDB, precision int) []float64 {
	// Keys are in quarter decibels, the finest precision.
	seen := map[int]bool{0: true}
	table := []float64{0}

	add := func(v float64) {
		key := int(math.Round(v * 4))
		if seen[key] || v > float64(maxDB) || v < float64(minDB) {
			return
		}

		seen[key] = true
		table = append(table, v)
	}

	span := float64(max(maxDB, -minDB))

	for v := 3.0; v <= span; v += 3 {
		add(v)
		add(-v)
	}

	for level := range precision + 1 {
		step := 1 / float64(int(1)<<level)

		for k := 1; float64(k)*step <= span; k++ {
			add(float64(k) * step)
			add(-float64(k) * step)
		}
	}

	return append(table, math.Inf(-1))
}

// linear converts a table value to a linear gain.
func linear(db float64) float64 {
	if math.IsInf(db, -1) {
		return 0
	}

	return math.Pow(10, db/20)
}

// decibels converts a linear gain to dB; zero maps to minus infinity.
func decibels(g float64) float64 {
	if g <= 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(g)
}

// nearest returns the table index closest to db.
func nearest(table []float64, db float64) int {
	if math.IsInf(db, -1) {
		return len(table) - 1
	}

	best, dist := 0, math.Inf(1)

	for i, v := range table[:len(table)-1] {
		if d := math.Abs(v - db); d < dist {
			best, dist = i, d
		}
	}

	return best
}
