package stft_test

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/internal/stft"
)

func TestPerfectReconstruction(t *testing.T) {
	t.Parallel()

	cfg := stft.Config{}

	an, err := stft.NewAnalyzer(cfg)
	assert.NilError(t, err)

	syn, err := stft.NewSynthesizer(cfg)
	assert.NilError(t, err)

	const blocks = 8

	hop := stft.DefaultHop

	in := make([]float64, blocks*hop)
	for i := range in {
		in[i] = math.Sin(float64(i)*0.05) + 0.3*math.Cos(float64(i)*0.71)
	}

	out := make([]float64, blocks*hop)
	spec := make([]complex128, stft.Bins(stft.DefaultFFTSize))

	for b := range blocks {
		assert.NilError(t, an.Analyze(in[b*hop:(b+1)*hop], spec))
		assert.NilError(t, syn.Synthesize(spec, out[b*hop:(b+1)*hop]))
	}

	delay := cfg.Delay()
	assert.Equal(t, delay, hop)

	for i := delay; i < len(out); i++ {
		assert.Assert(t, math.Abs(out[i]-in[i-delay]) < 1e-9, "sample %d: %v vs %v", i, out[i], in[i-delay])
	}
}

func TestSynthesisAccumulates(t *testing.T) {
	t.Parallel()

	syn, err := stft.NewSynthesizer(stft.Config{Hop: 4, FFTSize: 8})
	assert.NilError(t, err)

	dst := []float64{1, 2, 3, 4}
	assert.NilError(t, syn.Synthesize(make([]complex128, stft.Bins(8)), dst))
	assert.DeepEqual(t, dst, []float64{1, 2, 3, 4})
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	_, err := stft.NewAnalyzer(stft.Config{Hop: 256, FFTSize: 1024})
	assert.ErrorIs(t, err, stft.ErrConfig)

	an, err := stft.NewAnalyzer(stft.Config{})
	assert.NilError(t, err)
	assert.ErrorIs(t, an.Analyze(make([]float64, 10), make([]complex128, 257)), stft.ErrFrameSize)
}
