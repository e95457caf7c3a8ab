package dmx

import (
	"fmt"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// Set syntax field widths.
const (
	numGroupsBits = 5
	groupIDBits   = 5
)

// Group is one downmix matrix of a set, tied to a signal group.
type Group struct {
	ID     int
	Matrix *Matrix
}

// SetParams gives the layouts of every expected group id.
type SetParams map[int]Params

// DecodeSet reads a set of downmix matrices. Each group declares its payload length in bits;
// the reader is realigned on that length after the matrix, so padding or trailing extension
// bits are skipped.
func DecodeSet(r *bitstream.Reader, params SetParams) ([]Group, error) {
	s := &syntax{r: r}

	n := int(s.bits(numGroupsBits))
	if s.err != nil {
		return nil, s.result()
	}

	groups := make([]Group, 0, n)
	seen := map[int]bool{}

	for range n {
		id := int(s.bits(groupIDBits))
		length := s.escaped(8, 8, 16)

		if s.err != nil {
			return nil, s.result()
		}

		p, ok := params[id]
		if !ok || seen[id] {
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedGroup, id)
		}

		seen[id] = true

		if length > r.ValidBitsRemaining() {
			return nil, fmt.Errorf("%w: group %d declares %d bits, %d left",
				ErrTruncated, id, length, r.ValidBitsRemaining())
		}

		start := r.Position()

		m, err := Decode(r, p)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", id, err)
		}

		consumed := r.Position() - start
		if consumed > length {
			return nil, fmt.Errorf("%w: group %d used %d bits of %d", ErrInvalidValue, id, consumed, length)
		}

		if err := r.PushBack(consumed - length); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTruncated, err)
		}

		groups = append(groups, Group{ID: id, Matrix: m})
	}

	return groups, nil
}

// EncodeSet writes groups, each with its payload length.
func EncodeSet(w *bitstream.Writer, groups []Group, params SetParams, opts EncodeOptions) error {
	if len(groups) >= 1<<numGroupsBits {
		return fmt.Errorf("%w: %d groups", ErrMatrixTooLarge, len(groups))
	}

	if err := w.WriteBits(uint32(len(groups)), numGroupsBits); err != nil { //nolint:gosec // bounded above
		return err
	}

	for _, g := range groups {
		p, ok := params[g.ID]
		if !ok || g.ID < 0 || g.ID >= 1<<groupIDBits {
			return fmt.Errorf("%w: %d", ErrUnexpectedGroup, g.ID)
		}

		payload := bitstream.NewWriter()
		if err := Encode(payload, g.Matrix, p, opts); err != nil {
			return fmt.Errorf("group %d: %w", g.ID, err)
		}

		length := payload.Len()

		data, err := payload.Bytes()
		if err != nil {
			return err
		}

		if err := w.WriteBits(uint32(g.ID), groupIDBits); err != nil { //nolint:gosec // bounded above
			return err
		}

		if err := w.EscapedValue(uint32(length), 8, 8, 16); err != nil { //nolint:gosec // payload length
			return err
		}

		if err := copyBits(w, data, length); err != nil {
			return err
		}
	}

	return nil
}

// copyBits appends the first n bits of data to w.
func copyBits(w *bitstream.Writer, data []byte, n int) error {
	r := bitstream.NewReader(data)

	for n > 0 {
		chunk := min(n, 32)

		v, err := r.ReadBits(chunk)
		if err != nil {
			return err
		}

		if err := w.WriteBits(v, chunk); err != nil {
			return err
		}

		n -= chunk
	}

	return nil
}
