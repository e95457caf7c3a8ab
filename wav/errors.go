package wav

import "errors"

var (
	// ErrNotWAV is returned when the stream is not a RIFF/WAVE file.
	ErrNotWAV = errors.New("wav: not a WAV file")
	// ErrUnsupportedFmt is returned for non integer PCM payloads.
	ErrUnsupportedFmt = errors.New("wav: unsupported format")
	// ErrInvalidBitDepth is returned when the requested output depth cannot be written.
	ErrInvalidBitDepth = errors.New("wav: invalid bit depth")
	// ErrChannelCount is returned when a buffer does not match the declared channel count.
	ErrChannelCount = errors.New("wav: channel count mismatch")
)
