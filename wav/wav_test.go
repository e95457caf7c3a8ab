package wav_test

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/wav"
)

func tone(channels, frames int) mpegh3da.Buffer {
	buf := mpegh3da.NewBuffer(channels, frames)
	for ch := range buf {
		for i := range buf[ch] {
			buf[ch][i] = 0.5 * math.Sin(2*math.Pi*float64((ch+1)*i)/64)
		}
	}

	return buf
}

func roundTrip(t *testing.T, buf mpegh3da.Buffer, format mpegh3da.PCMFormat) (mpegh3da.Buffer, mpegh3da.PCMFormat) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "out.wav")

	out, err := os.Create(path)
	assert.NilError(t, err)
	assert.NilError(t, wav.Encode(out, buf, format))
	assert.NilError(t, out.Close())

	in, err := os.Open(path)
	assert.NilError(t, err)

	defer in.Close()

	got, gotFormat, err := wav.Decode(in)
	assert.NilError(t, err)

	return got, gotFormat
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	for _, depth := range []mpegh3da.BitDepth{mpegh3da.Depth8, mpegh3da.Depth16, mpegh3da.Depth24, mpegh3da.Depth32} {
		t.Run(fmt.Sprintf("%d-bit", depth), func(t *testing.T) {
			t.Parallel()

			format := mpegh3da.PCMFormat{SampleRate: 48000, BitDepth: depth, Channels: 6}
			buf := tone(6, 300)

			got, gotFormat := roundTrip(t, buf, format)
			assert.Equal(t, gotFormat, format)
			assert.Equal(t, len(got), 6)
			assert.Equal(t, got.Frames(), 300)

			step := 1 / depth.Scale()
			for ch := range buf {
				for i := range buf[ch] {
					assert.Assert(t, math.Abs(got[ch][i]-buf[ch][i]) <= step,
						"ch %d frame %d: %f, want %f", ch, i, got[ch][i], buf[ch][i])
				}
			}
		})
	}
}

func TestClipping(t *testing.T) {
	t.Parallel()

	buf := mpegh3da.Buffer{{2, -2, 1, -1}}
	got, _ := roundTrip(t, buf, mpegh3da.PCMFormat{SampleRate: 44100, BitDepth: mpegh3da.Depth16, Channels: 1})

	assert.Equal(t, got[0][0], 32767.0/32768)
	assert.Equal(t, got[0][1], -1.0)
	assert.Equal(t, got[0][2], 32767.0/32768)
	assert.Equal(t, got[0][3], -1.0)
}

func TestEncodeRejects(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.wav")

	out, err := os.Create(path)
	assert.NilError(t, err)

	defer out.Close()

	err = wav.Encode(out, tone(2, 10), mpegh3da.PCMFormat{SampleRate: 48000, BitDepth: 12, Channels: 2})
	assert.ErrorIs(t, err, wav.ErrInvalidBitDepth)

	err = wav.Encode(out, tone(2, 10), mpegh3da.PCMFormat{SampleRate: 48000, BitDepth: mpegh3da.Depth16, Channels: 6})
	assert.ErrorIs(t, err, wav.ErrChannelCount)
}

func TestDecodeRejectsNonWAV(t *testing.T) {
	t.Parallel()

	_, _, err := wav.Decode(bytes.NewReader([]byte("fLaC\x00\x00\x00\x22 not a riff stream at all")))
	assert.ErrorIs(t, err, wav.ErrNotWAV)
}
