package bitstream

import (
	"bytes"
	"fmt"

	"github.com/icza/bitio"
)

// Writer accumulates bits MSB first into an in-memory payload.
type Writer struct {
	buf bytes.Buffer
	bw  *bitio.Writer
	n   int
}

// NewWriter creates an empty Writer.
func NewWriter() *Writer {
	w := &Writer{}
	w.bw = bitio.NewWriter(&w.buf)

	return w
}

// WriteBits writes the low n bits (0-32) of v.
func (w *Writer) WriteBits(v uint32, n int) error {
	if n == 0 {
		return nil
	}

	if n < 0 || n > 32 {
		return fmt.Errorf("%w: %d", ErrWidth, n)
	}

	if err := w.bw.WriteBits(uint64(v), uint8(n)); err != nil {
		return fmt.Errorf("bitstream: write: %w", err)
	}

	w.n += n

	return nil
}

// WriteBit writes a single bit.
func (w *Writer) WriteBit(b bool) error {
	if err := w.bw.WriteBool(b); err != nil {
		return fmt.Errorf("bitstream: write: %w", err)
	}

	w.n++

	return nil
}

// EscapedValue writes v as an MPEG-H escapedValue(n1, n2, n3).
func (w *Writer) EscapedValue(v uint32, n1, n2, n3 int) error {
	lim1 := uint32(1)<<n1 - 1
	if v < lim1 {
		return w.WriteBits(v, n1)
	}

	if err := w.WriteBits(lim1, n1); err != nil {
		return err
	}

	v -= lim1

	lim2 := uint32(1)<<n2 - 1
	if v < lim2 || n3 == 0 {
		return w.WriteBits(v, n2)
	}

	if err := w.WriteBits(lim2, n2); err != nil {
		return err
	}

	return w.WriteBits(v-lim2, n3)
}

// Len returns the number of bits written.
func (w *Writer) Len() int {
	return w.n
}

// Bytes flushes pending bits (zero padded to a byte) and returns the payload.
// The Writer must not be used afterwards.
func (w *Writer) Bytes() ([]byte, error) {
	if err := w.bw.Close(); err != nil {
		return nil, fmt.Errorf("bitstream: flush: %w", err)
	}

	return w.buf.Bytes(), nil
}
