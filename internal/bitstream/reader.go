// Package bitstream provides MSB-first bit reading and writing over in-memory payloads.
package bitstream

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/icza/bitio"
)

var (
	// ErrOverrun is returned when a read goes past the end of the payload.
	ErrOverrun = errors.New("bitstream: read past end of payload")
	// ErrPushBack is returned when pushing back more bits than were read.
	ErrPushBack = errors.New("bitstream: push back before start of payload")
	// ErrWidth is returned for reads wider than 32 bits.
	ErrWidth = errors.New("bitstream: invalid read width")
)

// Reader reads bits from a byte buffer and tracks its absolute bit position,
// which allows rewinding with PushBack.
type Reader struct {
	data []byte
	br   *bitio.Reader
	pos  int // bits consumed
}

// NewReader creates a Reader over data.
func NewReader(data []byte) *Reader {
	return &Reader{
		data: data,
		br:   bitio.NewReader(bytes.NewReader(data)),
	}
}

// ReadBits reads n bits (0-32) MSB first.
func (r *Reader) ReadBits(n int) (uint32, error) {
	if n == 0 {
		return 0, nil
	}

	if n < 0 || n > 32 {
		return 0, fmt.Errorf("%w: %d", ErrWidth, n)
	}

	if n > r.ValidBitsRemaining() {
		return 0, ErrOverrun
	}

	v, err := r.br.ReadBits(uint8(n))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOverrun, err)
	}

	r.pos += n

	return uint32(v), nil //nolint:gosec // n <= 32
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (bool, error) {
	if r.ValidBitsRemaining() < 1 {
		return false, ErrOverrun
	}

	b, err := r.br.ReadBool()
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrOverrun, err)
	}

	r.pos++

	return b, nil
}

// ValidBitsRemaining returns the number of unread bits.
func (r *Reader) ValidBitsRemaining() int {
	return len(r.data)*8 - r.pos
}

// Position returns the number of bits consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// PushBack rewinds the reader by n bits. A negative n skips forward.
func (r *Reader) PushBack(n int) error {
	target := r.pos - n
	if target < 0 {
		return ErrPushBack
	}

	if target > len(r.data)*8 {
		return ErrOverrun
	}

	return r.seek(target)
}

// Skip discards n bits.
func (r *Reader) Skip(n int) error {
	return r.PushBack(-n)
}

// ByteAlign advances to the next byte boundary.
func (r *Reader) ByteAlign() error {
	if rem := r.pos % 8; rem != 0 {
		return r.Skip(8 - rem)
	}

	return nil
}

func (r *Reader) seek(bit int) error {
	r.br = bitio.NewReader(bytes.NewReader(r.data[bit/8:]))
	r.pos = bit - bit%8

	if frac := bit % 8; frac != 0 {
		if _, err := r.ReadBits(frac); err != nil {
			return err
		}
	}

	return nil
}

// EscapedValue reads an MPEG-H escapedValue(n1, n2, n3).
func (r *Reader) EscapedValue(n1, n2, n3 int) (uint32, error) {
	v, err := r.ReadBits(n1)
	if err != nil {
		return 0, err
	}

	if v != 1<<n1-1 {
		return v, nil
	}

	add, err := r.ReadBits(n2)
	if err != nil {
		return 0, err
	}

	v += add
	if add != 1<<n2-1 || n3 == 0 {
		return v, nil
	}

	add, err = r.ReadBits(n3)
	if err != nil {
		return 0, err
	}

	return v + add, nil
}
