// Package detect identifies PCM container formats and guesses loudspeaker layouts.
package detect

import (
	"errors"
	"fmt"
	"io"
)

// ErrNoDefaultLayout is returned when no CICP layout is commonly used for a channel count.
var ErrNoDefaultLayout = errors.New("detect: no default layout for channel count")

// Codec represents a recognized audio container.
type Codec uint8

const (
	// Unknown indicates the file format was not recognized.
	Unknown Codec = iota
	// WAV is a RIFF/WAVE file.
	WAV
	// FLAC is the Free Lossless Audio Codec.
	FLAC
	// Vorbis is Ogg Vorbis.
	Vorbis
)

// String returns the human-readable name of the codec.
func (c Codec) String() string {
	switch c {
	case Unknown:
		return "unknown"
	case WAV:
		return "WAV"
	case FLAC:
		return "FLAC"
	case Vorbis:
		return "Vorbis"
	}

	return "unknown"
}

// headerSize is the minimum number of bytes needed to identify any supported container.
// RIFF: "RIFF" at offset 0 and "WAVE" at offset 8.
// FLAC: "fLaC" at offset 0.
// OGG:  "OggS" at offset 0.
const headerSize = 12

// Identify reads the header from reader and returns the detected container.
// The reader position is reset to the start before returning.
func Identify(reader io.ReadSeeker) (Codec, error) {
	var header [headerSize]byte

	if _, err := io.ReadFull(reader, header[:]); err != nil {
		return Unknown, fmt.Errorf("reading header: %w", err)
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return Unknown, fmt.Errorf("seeking to start: %w", err)
	}

	switch string(header[:4]) {
	case "fLaC":
		return FLAC, nil
	case "OggS":
		return Vorbis, nil
	case "RIFF":
		if string(header[8:12]) == "WAVE" {
			return WAV, nil
		}
	}

	return Unknown, nil
}

// defaultLayouts picks, per channel count, the CICP layout most channel-based content uses.
//
//nolint:gochecknoglobals
var defaultLayouts = map[uint]int{
	1:  1,
	2:  2,
	3:  3,
	4:  4,
	5:  5,
	6:  6,
	7:  11,
	8:  12,
	10: 16,
	12: 19,
	14: 20,
	24: 13,
}

// DefaultLayout returns the CICP index assumed for an untagged PCM stream.
func DefaultLayout(channels uint) (int, error) {
	idx, ok := defaultLayouts[channels]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrNoDefaultLayout, channels)
	}

	return idx, nil
}
