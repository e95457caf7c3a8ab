package converter

import (
	"fmt"
	"math"
)

// EQ tags a rule with one of the built-in equalizers.
type EQ int

// Built-in equalizers.
const (
	NoEQ EQ = iota
	// EQ1 compensates rear sources folded onto front loudspeakers.
	EQ1
	// EQ2 compensates rear upper sources moved to the horizontal layer.
	EQ2
	// EQ3 compensates the top source spread over the horizontal layer.
	EQ3
	// EQ4 keeps an elevation cue for front upper sources moved to the horizontal layer.
	EQ4
	// EQ5 compensates lower-layer sources moved to the horizontal layer.
	EQ5

	numEQ
)

func (e EQ) String() string {
	if e == NoEQ {
		return "NONE"
	}

	if e > NoEQ && e < numEQ {
		return fmt.Sprintf("EQ%d", int(e))
	}

	return fmt.Sprintf("EQ(%d)", int(e))
}

// Peak is one peaking filter section.
type Peak struct {
	// Freq is the centre frequency in Hz.
	Freq float64
	// Q is the quality factor.
	Q float64
	// GainDB is the gain at Freq; negative values cut.
	GainDB float64
}

// Equalizer is a cascade of peak filters followed by a global gain.
type Equalizer struct {
	Peaks        []Peak
	GlobalGainDB float64
}

// Response returns the linear magnitude response at freq Hz.
func (e *Equalizer) Response(freq float64) float64 {
	if e == nil {
		return 1
	}

	mag := math.Pow(10, e.GlobalGainDB/20)
	for _, p := range e.Peaks {
		mag *= p.response(freq)
	}

	return mag
}

func (p Peak) response(f float64) float64 {
	if p.Freq <= 0 || p.Q <= 0 || p.GainDB == 0 {
		return 1
	}

	v := math.Pow(10, math.Abs(p.GainDB)/20)
	d := p.Freq*p.Freq - f*f
	bw := p.Freq * f / p.Q

	num := d*d + v*v*bw*bw
	den := d*d + bw*bw

	if den == 0 {
		return 1
	}

	h := math.Sqrt(num / den)
	if p.GainDB < 0 {
		return 1 / h
	}

	return h
}

//nolint:gochecknoglobals
var builtinEQ = [numEQ]*Equalizer{
	NoEQ: nil,
	EQ1:  {Peaks: []Peak{{Freq: 12000, Q: 0.3, GainDB: -2}}, GlobalGainDB: 1},
	EQ2:  {Peaks: []Peak{{Freq: 12000, Q: 0.3, GainDB: -3.5}}, GlobalGainDB: 1},
	EQ3: {
		Peaks:        []Peak{{Freq: 200, Q: 0.3, GainDB: -6.5}, {Freq: 1300, Q: 0.5, GainDB: 1.8}, {Freq: 600, Q: 1, GainDB: 2}},
		GlobalGainDB: 0.7,
	},
	EQ4: {Peaks: []Peak{{Freq: 5000, Q: 1, GainDB: 4.5}, {Freq: 1100, Q: 0.8, GainDB: 1.8}}, GlobalGainDB: -3.1},
	EQ5: {Peaks: []Peak{{Freq: 35, Q: 0.25, GainDB: -1.3}}, GlobalGainDB: 1},
}

// Equalizer returns the definition of a built-in equalizer, nil for NoEQ.
func (e EQ) Equalizer() *Equalizer {
	if e <= NoEQ || e >= numEQ {
		return nil
	}

	return builtinEQ[e]
}
