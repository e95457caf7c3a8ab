package dmx

import (
	"math"

	"github.com/mycophonic/mpegh3da/converter"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// Equalizer configuration field widths and limits.
const (
	numEQBits      = 3
	numSectionBits = 2
	freqExpBits    = 2
	freqMantBits   = 7
	qBits          = 5
	gainBits       = 6
	globalGainBits = 5

	maxEqualizers = 1 << numEQBits
	maxSections   = 1 << numSectionBits
	qSteps        = 19
)

func qOf(idx int) float64 {
	if idx <= qSteps {
		return 0.05 * float64(idx+1)
	}

	return 1 + 0.5*float64(idx-qSteps)
}

func qIndex(q float64) int {
	if q <= 1 {
		return clampInt(int(math.Round(q/0.05))-1, 0, qSteps)
	}

	return clampInt(qSteps+int(math.Round((q-1)/0.5)), qSteps, 1<<qBits-1)
}

func sectionGainOf(idx int) float64 { return -16 + 0.5*float64(idx) }

func globalGainOf(idx int) float64 { return -8 + 0.5*float64(idx) }

func clampInt(v, lo, hi int) int { return max(lo, min(hi, v)) }

// equalizerConfig reads the equalizer definitions and their assignment to numInputs input
// channels.
func (s *syntax) equalizerConfig(numInputs int) []*converter.Equalizer {
	eqs := make([]*converter.Equalizer, s.bits(numEQBits)+1)

	for i := range eqs {
		eq := &converter.Equalizer{Peaks: make([]converter.Peak, s.bits(numSectionBits)+1)}

		for k := range eq.Peaks {
			exp := s.bits(freqExpBits)

			mant := s.bits(freqMantBits)
			if mant == 0 {
				s.fail("equalizer %d section %d has zero frequency", i, k)
			}

			eq.Peaks[k] = converter.Peak{
				Freq:   float64(mant) * math.Pow(10, float64(exp)),
				Q:      qOf(int(s.bits(qBits))),
				GainDB: sectionGainOf(int(s.bits(gainBits))),
			}
		}

		eq.GlobalGainDB = globalGainOf(int(s.bits(globalGainBits)))
		eqs[i] = eq
	}

	out := make([]*converter.Equalizer, numInputs)

	for ch := range out {
		if !s.flag() {
			continue
		}

		idx := int(s.bits(width(len(eqs))))
		if idx >= len(eqs) {
			s.fail("channel %d uses equalizer %d of %d", ch, idx, len(eqs))

			return nil
		}

		out[ch] = eqs[idx]
	}

	return out
}

// writeEqualizerConfig writes the distinct equalizers of perInput, identified by pointer.
func writeEqualizerConfig(w *bitstream.Writer, perInput []*converter.Equalizer) error {
	var (
		eqs   []*converter.Equalizer
		index = map[*converter.Equalizer]int{}
	)

	for _, eq := range perInput {
		if _, ok := index[eq]; eq == nil || ok {
			continue
		}

		if len(eq.Peaks) == 0 || len(eq.Peaks) > maxSections {
			return errConfigf("equalizer with %d sections", len(eq.Peaks))
		}

		index[eq] = len(eqs)
		eqs = append(eqs, eq)
	}

	if len(eqs) == 0 || len(eqs) > maxEqualizers {
		return errConfigf("%d equalizers", len(eqs))
	}

	fields := []field{{uint32(len(eqs) - 1), numEQBits}} //nolint:gosec // bounded above

	for _, eq := range eqs {
		fields = append(fields, field{uint32(len(eq.Peaks) - 1), numSectionBits}) //nolint:gosec // bounded above

		for _, p := range eq.Peaks {
			exp, mant := frequencyCode(p.Freq)
			fields = append(fields,
				field{exp, freqExpBits},
				field{mant, freqMantBits},
				field{uint32(qIndex(p.Q)), qBits}, //nolint:gosec // clamped
				field{uint32(clampInt(int(math.Round((p.GainDB+16)/0.5)), 0, 1<<gainBits-1)), gainBits}, //nolint:gosec // clamped
			)
		}

		fields = append(fields,
			field{uint32(clampInt(int(math.Round((eq.GlobalGainDB+8)/0.5)), 0, 1<<globalGainBits-1)), globalGainBits}) //nolint:gosec // clamped
	}

	for _, eq := range perInput {
		if eq == nil {
			fields = append(fields, field{0, 1})

			continue
		}

		fields = append(fields, field{1, 1}, field{uint32(index[eq]), width(len(eqs))}) //nolint:gosec // bounded above
	}

	return writeFields(w, fields)
}

// frequencyCode returns the smallest exponent whose mantissa fits, and that mantissa.
func frequencyCode(freq float64) (uint32, uint32) {
	for exp := range 1 << freqExpBits {
		mant := math.Round(freq / math.Pow(10, float64(exp)))
		if mant < 1<<freqMantBits {
			return uint32(exp), uint32(max(1, mant)) //nolint:gosec // bounded above
		}
	}

	return 1<<freqExpBits - 1, 1<<freqMantBits - 1
}
