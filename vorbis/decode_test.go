package vorbis_test

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/mpegh3da/vorbis"
)

func TestDecodeRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, _, err := vorbis.Decode(bytes.NewReader([]byte("OggS but nothing after the capture pattern")))
	assert.ErrorIs(t, err, fault.ErrReadFailure)
}
