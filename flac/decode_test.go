package flac

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mewkiz/flac/frame"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/mpegh3da"
)

func TestContainerDepth(t *testing.T) {
	t.Parallel()

	cases := map[uint8]mpegh3da.BitDepth{
		4: mpegh3da.Depth8, 8: mpegh3da.Depth8,
		12: mpegh3da.Depth16, 16: mpegh3da.Depth16,
		20: mpegh3da.Depth24, 24: mpegh3da.Depth24,
		32: mpegh3da.Depth32,
	}

	for bps, want := range cases {
		got, err := containerDepth(bps)
		assert.NilError(t, err)
		assert.Equal(t, got, want, "%d bits", bps)
	}

	_, err := containerDepth(33)
	assert.ErrorIs(t, err, ErrBitDepth)
}

func TestAppendFrameScalesByNativeDepth(t *testing.T) {
	t.Parallel()

	buf := make(mpegh3da.Buffer, 2)
	scale := float64(1 << 11)

	left := []int32{-2048, 0, 1024, 99}
	right := []int32{2047, -1024, 0, 99}

	appendFrame(buf, subframes(left, right), 3, scale)
	appendFrame(buf, subframes(left, right), 1, scale)

	assert.DeepEqual(t, buf[0], []float64{-1, 0, 0.5, -1})
	assert.DeepEqual(t, buf[1], []float64{2047.0 / 2048, -0.5, 0, 2047.0 / 2048})
}

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := Decode(bytes.NewReader([]byte("RIFF....WAVEfmt ")))
	assert.ErrorIs(t, err, fault.ErrReadFailure)
}

func subframes(channels ...[]int32) []*frame.Subframe {
	out := make([]*frame.Subframe, len(channels))
	for i, samples := range channels {
		out[i] = &frame.Subframe{Samples: samples}
	}

	return out
}
