package converter

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mycophonic/mpegh3da/internal/stft"
)

// Active processing constants.
const (
	// smoothing is the one-pole coefficient of the energy and phase estimators.
	smoothing = 0.8
	// minAES and maxAES bound the energy preservation gain to +-6 dB.
	minAES = 0.5
	maxAES = 2.0
)

// term is one input contribution to an output channel.
type term struct {
	in   int
	gain float64
	// bins holds per-bin gains in frequency-domain modes.
	bins []float64
	// cross is the smoothed cross spectrum against the output, used by phase alignment.
	cross []complex128
}

// graph holds the contributions of every output channel.
type graph struct {
	outputs [][]term
	// used flags the input channels that feed at least one output.
	used []bool
}

// filterbank holds the STFT state of a frequency-domain session.
type filterbank struct {
	hop      int
	bins     int
	analyze  []*stft.Analyzer
	synth    []*stft.Synthesizer
	spectra  [][]complex128
	mix      []complex128
	ref      []complex128
	target   [][]float64
	actual   [][]float64
	drcGains []float64
}

// binFrequency returns the centre frequency of bin k in Hz.
func (c *Converter) binFrequency(k int) float64 {
	return float64(k) * float64(c.cfg.SampleRate) / float64(stft.DefaultFFTSize)
}

func (c *Converter) inputEQ(in int) *Equalizer {
	if c.explicitEQ == nil {
		return nil
	}

	return c.explicitEQ[in]
}

// build turns the chosen downmix into the processing graph and, in frequency-domain modes,
// the filterbanks.
func (c *Converter) build() error {
	freq := c.cfg.Mode != ModePassiveTimeDomain
	bins := stft.Bins(stft.DefaultFFTSize)

	g := &graph{outputs: make([][]term, len(c.cfg.Output)), used: make([]bool, c.numIn)}

	add := func(out int, t term) {
		g.outputs[out] = append(g.outputs[out], t)
		g.used[t.in] = true
	}

	if c.strategy == StrategyRules {
		for _, a := range c.assignments {
			t := term{in: a.Src, gain: a.Gain}

			if freq {
				eq := a.EQ.Equalizer()
				t.bins = make([]float64, bins)

				for k := range t.bins {
					f := c.binFrequency(k)

					gain := a.Gain
					if f < crossover {
						gain = a.GainLow
					}

					t.bins[k] = gain * eq.Response(f)
				}
			}

			add(a.Dst, t)
		}
	} else {
		for o, row := range c.matrix {
			for i, gain := range row {
				if gain == 0 {
					continue
				}

				t := term{in: i, gain: gain}

				if freq {
					eq := c.inputEQ(i)
					t.bins = make([]float64, bins)

					for k := range t.bins {
						t.bins[k] = gain * eq.Response(c.binFrequency(k))
					}
				}

				add(o, t)
			}
		}
	}

	c.graph = g

	if !freq {
		c.fb = &filterbank{drcGains: make([]float64, bins)}

		return nil
	}

	return c.buildFilterbank(bins)
}

func (c *Converter) buildFilterbank(bins int) error {
	cfg := stft.Config{}

	fb := &filterbank{
		hop:      stft.DefaultHop,
		bins:     bins,
		analyze:  make([]*stft.Analyzer, c.numIn),
		synth:    make([]*stft.Synthesizer, len(c.cfg.Output)),
		spectra:  make([][]complex128, c.numIn),
		mix:      make([]complex128, bins),
		ref:      make([]complex128, bins),
		target:   make([][]float64, len(c.cfg.Output)),
		actual:   make([][]float64, len(c.cfg.Output)),
		drcGains: make([]float64, bins),
	}

	for i, used := range c.graph.used {
		if !used {
			continue
		}

		a, err := stft.NewAnalyzer(cfg)
		if err != nil {
			return err
		}

		fb.analyze[i] = a
		fb.spectra[i] = make([]complex128, bins)
	}

	for o := range fb.synth {
		s, err := stft.NewSynthesizer(cfg)
		if err != nil {
			return err
		}

		fb.synth[o] = s
	}

	if c.cfg.Mode == ModeActiveFrequencyDomain {
		for o := range c.graph.outputs {
			fb.target[o] = make([]float64, bins)
			fb.actual[o] = make([]float64, bins)

			if !c.pas {
				continue
			}

			for t := range c.graph.outputs[o] {
				c.graph.outputs[o][t].cross = make([]complex128, bins)
			}
		}
	}

	c.fb = fb

	return nil
}

// Process converts one frame. in holds Inputs() channels and out one channel per output
// loudspeaker, each of at least FrameSize samples. out is overwritten. drc may be nil.
func (c *Converter) Process(drc DRC, in, out [][]float64) error {
	if c.state != stateOpen {
		return fmt.Errorf("%w: not open", ErrState)
	}

	n := c.cfg.FrameSize

	if len(in) < c.numIn || len(out) < len(c.cfg.Output) {
		return fmt.Errorf("%w: %d inputs and %d outputs, want %d and %d",
			ErrBufferSize, len(in), len(out), c.numIn, len(c.cfg.Output))
	}

	for i, used := range c.graph.used {
		if used && len(in[i]) < n {
			return fmt.Errorf("%w: input %d has %d samples, want %d", ErrBufferSize, i, len(in[i]), n)
		}
	}

	for o := range c.cfg.Output {
		if len(out[o]) < n {
			return fmt.Errorf("%w: output %d has %d samples, want %d", ErrBufferSize, o, len(out[o]), n)
		}
	}

	if c.cfg.Mode == ModePassiveTimeDomain {
		c.processTime(drc, in, out)

		return nil
	}

	return c.processFrequency(drc, in, out)
}

func (c *Converter) processTime(drc DRC, in, out [][]float64) {
	n := c.cfg.FrameSize

	broadband := make([]float64, c.numIn)
	for i := range broadband {
		broadband[i] = 1

		if drc != nil && c.graph.used[i] {
			drc.Gains(i, c.fb.drcGains)
			broadband[i] = mean(c.fb.drcGains)
		}
	}

	for o, terms := range c.graph.outputs {
		dst := out[o][:n]
		clear(dst)

		for _, t := range terms {
			g := t.gain * broadband[t.in]
			src := in[t.in][:n]

			for s := range dst {
				dst[s] += g * src[s]
			}
		}
	}
}

func (c *Converter) processFrequency(drc DRC, in, out [][]float64) error {
	fb := c.fb

	for off := 0; off < c.cfg.FrameSize; off += fb.hop {
		for i, a := range fb.analyze {
			if a == nil {
				continue
			}

			if err := a.Analyze(in[i][off:off+fb.hop], fb.spectra[i]); err != nil {
				return err
			}

			if drc == nil {
				continue
			}

			drc.Gains(i, fb.drcGains)

			for k, g := range fb.drcGains {
				fb.spectra[i][k] *= complex(g, 0)
			}
		}

		for o, terms := range c.graph.outputs {
			c.mixOutput(o, terms)

			dst := out[o][off : off+fb.hop]
			clear(dst)

			if err := fb.synth[o].Synthesize(fb.mix, dst); err != nil {
				return err
			}
		}
	}

	return nil
}

// mixOutput writes the spectrum of output o to fb.mix.
func (c *Converter) mixOutput(o int, terms []term) {
	fb := c.fb
	active := c.cfg.Mode == ModeActiveFrequencyDomain

	clear(fb.mix)

	for _, t := range terms {
		x := fb.spectra[t.in]
		for k := range fb.mix {
			fb.mix[k] += complex(t.bins[k], 0) * x[k]
		}
	}

	if !active {
		return
	}

	if c.pas && len(terms) > 1 {
		copy(fb.ref, fb.mix)
		clear(fb.mix)

		for _, t := range terms {
			x := fb.spectra[t.in]

			for k := range fb.mix {
				v := complex(t.bins[k], 0) * x[k]
				t.cross[k] = complex(smoothing, 0)*t.cross[k] + complex(1-smoothing, 0)*v*cmplx.Conj(fb.ref[k])

				if m := cmplx.Abs(t.cross[k]); m > 0 {
					v *= cmplx.Conj(t.cross[k]) / complex(m, 0)
				}

				fb.mix[k] += v
			}
		}
	}

	if !c.aes {
		return
	}

	target, actual := fb.target[o], fb.actual[o]

	for k := range fb.mix {
		var e float64

		for _, t := range terms {
			v := t.bins[k] * cmplx.Abs(fb.spectra[t.in][k])
			e += v * v
		}

		a := cmplx.Abs(fb.mix[k])

		target[k] = smoothing*target[k] + (1-smoothing)*e
		actual[k] = smoothing*actual[k] + (1-smoothing)*a*a

		g := 1.0
		if actual[k] > 0 {
			g = max(minAES, min(maxAES, math.Sqrt(target[k]/actual[k])))
		}

		fb.mix[k] *= complex(g, 0)
	}
}
