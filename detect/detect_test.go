package detect_test

import (
	"bytes"
	"io"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/detect"
)

func TestIdentify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   detect.Codec
	}{
		{"RIFF\x24\x00\x00\x00WAVEfmt ", detect.WAV},
		{"RIFF\x24\x00\x00\x00AVI LIST", detect.Unknown},
		{"fLaC\x00\x00\x00\x22\x10\x00\x10\x00", detect.FLAC},
		{"OggS\x00\x02\x00\x00\x00\x00\x00\x00", detect.Vorbis},
		{"ID3\x04\x00\x00\x00\x00\x00\x00\x00\x00", detect.Unknown},
	}

	for _, tc := range cases {
		r := bytes.NewReader([]byte(tc.header))

		got, err := detect.Identify(r)
		assert.NilError(t, err)
		assert.Equal(t, got, tc.want, "%q", tc.header)

		pos, err := r.Seek(0, io.SeekCurrent)
		assert.NilError(t, err)
		assert.Equal(t, pos, int64(0))
	}

	_, err := detect.Identify(bytes.NewReader([]byte("RIFF")))
	assert.ErrorContains(t, err, "reading header")
}

func TestDefaultLayoutChannelCounts(t *testing.T) {
	t.Parallel()

	for _, channels := range []uint{1, 2, 3, 4, 5, 6, 7, 8, 10, 12, 14, 24} {
		idx, err := detect.DefaultLayout(channels)
		assert.NilError(t, err)

		_, n, _, err := cicp.Geometry(idx)
		assert.NilError(t, err)
		assert.Equal(t, uint(n), channels) //nolint:gosec // small
	}

	_, err := detect.DefaultLayout(9)
	assert.ErrorIs(t, err, detect.ErrNoDefaultLayout)
}
