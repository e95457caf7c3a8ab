package oam_test

import (
	"math"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
	"github.com/mycophonic/mpegh3da/oam"
)

func approx(t *testing.T, got, want, tol float64, msg string) {
	t.Helper()
	assert.Assert(t, math.Abs(got-want) <= tol, "%s: got %v, want %v", msg, got, want)
}

func TestFrameRoundTrip(t *testing.T) {
	t.Parallel()

	for _, uniform := range []bool{true, false} {
		cfg := oam.FrameConfig{NumObjects: 2, SubFrames: 2, UniformSpread: uniform}
		frames := [][]oam.Sample{
			{
				{Azimuth: 30, Elevation: 15, Radius: 2, Gain: 0.5, Spread: 45, SpreadHeight: 12, SpreadDepth: 1},
				{Azimuth: -110, Elevation: -9, Radius: 1, Gain: 1, Spread: 0},
			},
			{
				{Azimuth: 180, Elevation: 90, Radius: 0.5, Gain: 0, Spread: 180, SpreadHeight: 90, SpreadDepth: 7.5},
				{Azimuth: -180, Elevation: -90, Radius: 16, Gain: 2, Spread: 1.5},
			},
		}

		w := bitstream.NewWriter()
		assert.NilError(t, oam.EncodeFrame(w, cfg, frames))

		data, err := w.Bytes()
		assert.NilError(t, err)

		got, err := oam.DecodeFrame(bitstream.NewReader(data), cfg, nil)
		assert.NilError(t, err)

		for sf := range frames {
			for o := range frames[sf] {
				want := oam.Quantize(frames[sf][o], uniform)
				g := got[sf][o]

				approx(t, g.Azimuth, want.Azimuth, 0, "azimuth")
				approx(t, g.Elevation, want.Elevation, 0, "elevation")
				approx(t, g.Radius, want.Radius, 1e-12, "radius")
				approx(t, g.Gain, want.Gain, 1e-12, "gain")
				approx(t, g.Spread, want.Spread, 0, "spread")
				approx(t, g.SpreadHeight, want.SpreadHeight, 0, "height")
				approx(t, g.SpreadDepth, want.SpreadDepth, 0, "depth")
			}
		}

		assert.Equal(t, got[1][0].Gain, 0.0)
		approx(t, got[0][0].Gain, 0.5, 0.03, "gain precision")
		approx(t, got[0][1].Azimuth, -110, 0.75, "azimuth precision")
	}
}

func TestFrameRepeatsUnchangedObjects(t *testing.T) {
	t.Parallel()

	cfg := oam.FrameConfig{NumObjects: 2, SubFrames: 1, UniformSpread: true}
	prev := []oam.Sample{{Azimuth: 60, Gain: 0.25}}

	// Both update flags clear.
	got, err := oam.DecodeFrame(bitstream.NewReader([]byte{0x00}), cfg, prev)
	assert.NilError(t, err)
	assert.DeepEqual(t, got[0][0], prev[0])
	assert.DeepEqual(t, got[0][1], oam.Default())
}

func TestFrameTruncated(t *testing.T) {
	t.Parallel()

	cfg := oam.FrameConfig{NumObjects: 1, SubFrames: 1}

	_, err := oam.DecodeFrame(bitstream.NewReader([]byte{0x80, 0x00}), cfg, nil)
	assert.ErrorIs(t, err, oam.ErrTruncated)
}

func TestFrameInvalidAzimuth(t *testing.T) {
	t.Parallel()

	cfg := oam.FrameConfig{NumObjects: 1, SubFrames: 1, UniformSpread: true}

	w := bitstream.NewWriter()
	assert.NilError(t, w.WriteBit(true))
	// Azimuth code 127 is 190.5 degrees.
	assert.NilError(t, w.WriteBits(127, 8))
	assert.NilError(t, w.WriteBits(0, 6+4+7+7))

	data, err := w.Bytes()
	assert.NilError(t, err)

	_, err = oam.DecodeFrame(bitstream.NewReader(data), cfg, nil)
	assert.ErrorIs(t, err, oam.ErrInvalidValue)
}

func TestFrameConfig(t *testing.T) {
	t.Parallel()

	_, err := oam.DecodeFrame(bitstream.NewReader(nil), oam.FrameConfig{}, nil)
	assert.ErrorIs(t, err, oam.ErrConfig)

	err = oam.EncodeFrame(bitstream.NewWriter(), oam.FrameConfig{NumObjects: 1, SubFrames: 2}, nil)
	assert.ErrorIs(t, err, oam.ErrConfig)
}

func TestProdMetadata(t *testing.T) {
	t.Parallel()

	pm := &oam.ProdMetadata{ReferenceDistance: 2, ObjectDistance: []float64{0, 4, 1, 100}}

	w := bitstream.NewWriter()
	assert.NilError(t, oam.EncodeProdMetadata(w, pm))

	data, err := w.Bytes()
	assert.NilError(t, err)

	got, err := oam.DecodeProdMetadata(bitstream.NewReader(data), 4)
	assert.NilError(t, err)

	approx(t, got.ReferenceDistance, 2, 1e-12, "reference")
	assert.Equal(t, got.DistanceGain(0), 1.0)
	approx(t, got.DistanceGain(1), 0.5, 1e-12, "half")
	assert.Equal(t, got.DistanceGain(2), 1.0)
	assert.Equal(t, got.DistanceGain(3), 0.1)

	var none *oam.ProdMetadata
	assert.Equal(t, none.DistanceGain(0), 1.0)

	got, err = oam.DecodeProdMetadata(bitstream.NewReader([]byte{0x00}), 2)
	assert.NilError(t, err)
	assert.Equal(t, got.ReferenceDistance, oam.DefaultReferenceDistance)

	_, err = oam.DecodeProdMetadata(bitstream.NewReader([]byte{0x80}), 1)
	assert.ErrorIs(t, err, oam.ErrTruncated)
}
