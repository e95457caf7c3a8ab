package converter

// DRC supplies dynamic range control gains applied to the input channels before the downmix.
type DRC interface {
	// Gains writes one linear gain per STFT bin of input channel ch to dst. In time-domain mode
	// the mean of the bins is applied as a broadband gain.
	Gains(ch int, dst []float64)
}

// StaticDRC applies a constant linear gain to every input channel.
type StaticDRC float64

// Gains implements DRC.
func (s StaticDRC) Gains(_ int, dst []float64) {
	for i := range dst {
		dst[i] = float64(s)
	}
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 1
	}

	var sum float64
	for _, x := range v {
		sum += x
	}

	return sum / float64(len(v))
}
