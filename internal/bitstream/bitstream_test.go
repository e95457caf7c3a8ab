package bitstream_test

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

func TestReadWriteRoundTrip(t *testing.T) {
	t.Parallel()

	w := bitstream.NewWriter()
	assert.NilError(t, w.WriteBits(5, 3))
	assert.NilError(t, w.WriteBit(true))
	assert.NilError(t, w.WriteBits(0xABCD, 16))
	assert.NilError(t, w.EscapedValue(40, 3, 4, 5))
	assert.Equal(t, w.Len(), 3+1+16+3+4+5)

	data, err := w.Bytes()
	assert.NilError(t, err)

	r := bitstream.NewReader(data)

	v, err := r.ReadBits(3)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(5))

	b, err := r.ReadBit()
	assert.NilError(t, err)
	assert.Assert(t, b)

	v, err = r.ReadBits(16)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(0xABCD))

	v, err = r.EscapedValue(3, 4, 5)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(40))
}

func TestPushBack(t *testing.T) {
	t.Parallel()

	r := bitstream.NewReader([]byte{0b1011_0011, 0b0101_0101})

	v, err := r.ReadBits(5)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(0b10110))
	assert.Equal(t, r.ValidBitsRemaining(), 11)

	assert.NilError(t, r.PushBack(3))
	assert.Equal(t, r.Position(), 2)

	v, err = r.ReadBits(6)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(0b110011))

	assert.NilError(t, r.Skip(2))

	v, err = r.ReadBits(6)
	assert.NilError(t, err)
	assert.Equal(t, v, uint32(0b010101))

	assert.ErrorIs(t, r.PushBack(100), bitstream.ErrPushBack)
}

func TestOverrun(t *testing.T) {
	t.Parallel()

	r := bitstream.NewReader([]byte{0xFF})

	_, err := r.ReadBits(9)
	assert.ErrorIs(t, err, bitstream.ErrOverrun)

	_, err = r.ReadBits(8)
	assert.NilError(t, err)

	_, err = r.ReadBit()
	assert.ErrorIs(t, err, bitstream.ErrOverrun)
}
