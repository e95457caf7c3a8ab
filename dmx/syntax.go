package dmx

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// syntax reads syntax elements and keeps the first error.
type syntax struct {
	r   *bitstream.Reader
	err error
}

func (s *syntax) bits(n int) uint32 {
	if s.err != nil {
		return 0
	}

	v, err := s.r.ReadBits(n)
	if err != nil {
		s.err = err
	}

	return v
}

func (s *syntax) flag() bool { return s.bits(1) == 1 }

func (s *syntax) escaped(n1, n2, n3 int) int {
	if s.err != nil {
		return 0
	}

	v, err := s.r.EscapedValue(n1, n2, n3)
	if err != nil {
		s.err = err
	}

	return int(v)
}

func (s *syntax) fail(format string, args ...any) {
	if s.err == nil {
		s.err = fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...)
	}
}

// result maps a reader overrun onto ErrTruncated.
func (s *syntax) result() error {
	if s.err != nil && errors.Is(s.err, bitstream.ErrOverrun) {
		return fmt.Errorf("%w: %w", ErrTruncated, s.err)
	}

	return s.err
}

// width returns the number of bits needed to code values in [0, n).
func width(n int) int {
	if n <= 1 {
		return 0
	}

	return bits.Len(uint(n - 1))
}
