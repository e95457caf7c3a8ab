// Package stft is a sine-windowed short-time Fourier filterbank with 50% overlap. Analysis
// followed by synthesis reconstructs the input delayed by one hop.
package stft

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Default hop and transform sizes.
const (
	DefaultHop     = 256
	DefaultFFTSize = 512
)

var (
	// ErrConfig is returned for an invalid hop or transform size.
	ErrConfig = errors.New("stft: invalid configuration")
	// ErrFrameSize is returned when a block does not match the configured sizes.
	ErrFrameSize = errors.New("stft: frame size mismatch")
)

// Config configures a filterbank. FFTSize must be twice Hop.
type Config struct {
	Hop     int
	FFTSize int
}

func (c Config) withDefaults() (Config, error) {
	if c.Hop == 0 && c.FFTSize == 0 {
		c.Hop, c.FFTSize = DefaultHop, DefaultFFTSize
	}

	if c.Hop <= 0 || c.FFTSize != 2*c.Hop {
		return c, fmt.Errorf("%w: hop %d, fft %d", ErrConfig, c.Hop, c.FFTSize)
	}

	return c, nil
}

// Bins returns the number of spectral bins of a transform of size fftSize.
func Bins(fftSize int) int { return fftSize/2 + 1 }

func sineWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = math.Sin(math.Pi * (float64(i) + 0.5) / float64(n))
	}

	return w
}

// Analyzer turns hop-sized blocks of one channel into spectra.
type Analyzer struct {
	cfg     Config
	fft     *fourier.FFT
	window  []float64
	history []float64
	work    []float64
}

// NewAnalyzer returns an analysis filterbank.
func NewAnalyzer(cfg Config) (*Analyzer, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Analyzer{
		cfg:     cfg,
		fft:     fourier.NewFFT(cfg.FFTSize),
		window:  sineWindow(cfg.FFTSize),
		history: make([]float64, cfg.FFTSize),
		work:    make([]float64, cfg.FFTSize),
	}, nil
}

// Analyze consumes one hop of samples and writes Bins(FFTSize) coefficients to dst.
func (a *Analyzer) Analyze(block []float64, dst []complex128) error {
	if len(block) != a.cfg.Hop || len(dst) != Bins(a.cfg.FFTSize) {
		return fmt.Errorf("%w: block %d, spectrum %d", ErrFrameSize, len(block), len(dst))
	}

	copy(a.history, a.history[a.cfg.Hop:])
	copy(a.history[a.cfg.FFTSize-a.cfg.Hop:], block)

	for i, v := range a.history {
		a.work[i] = v * a.window[i]
	}

	a.fft.Coefficients(dst, a.work)

	return nil
}

// Synthesizer turns spectra back into hop-sized blocks of one channel.
type Synthesizer struct {
	cfg     Config
	fft     *fourier.FFT
	window  []float64
	overlap []float64
	work    []float64
}

// NewSynthesizer returns a synthesis filterbank.
func NewSynthesizer(cfg Config) (*Synthesizer, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Synthesizer{
		cfg:     cfg,
		fft:     fourier.NewFFT(cfg.FFTSize),
		window:  sineWindow(cfg.FFTSize),
		overlap: make([]float64, cfg.FFTSize-cfg.Hop),
		work:    make([]float64, cfg.FFTSize),
	}, nil
}

// Synthesize adds one hop of output samples, reconstructed from spec, to dst.
func (s *Synthesizer) Synthesize(spec []complex128, dst []float64) error {
	if len(dst) != s.cfg.Hop || len(spec) != Bins(s.cfg.FFTSize) {
		return fmt.Errorf("%w: block %d, spectrum %d", ErrFrameSize, len(dst), len(spec))
	}

	s.fft.Sequence(s.work, spec)

	norm := 1 / float64(s.cfg.FFTSize)
	for i := range s.work {
		s.work[i] *= s.window[i] * norm
	}

	for i := range dst {
		dst[i] += s.overlap[i] + s.work[i]
	}

	copy(s.overlap, s.work[s.cfg.Hop:])

	return nil
}

// Delay returns the latency of an analysis/synthesis pair in samples.
func (c Config) Delay() int {
	cfg, err := c.withDefaults()
	if err != nil {
		return 0
	}

	return cfg.Hop
}
