// Package vorbis decodes Ogg Vorbis streams into planar float buffers.
package vorbis

import (
	"errors"
	"fmt"
	"io"

	"github.com/jfreymuth/oggvorbis"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/mpegh3da"
)

// ErrNoChannels is returned when the stream declares no channels.
var ErrNoChannels = errors.New("vorbis: no channels")

// Decode reads an Ogg Vorbis stream. The format reports 16-bit as the nominal output depth.
func Decode(rs io.ReadSeeker) (mpegh3da.Buffer, mpegh3da.PCMFormat, error) {
	samples, format, err := oggvorbis.ReadAll(rs)
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	if format.Channels < 1 {
		return nil, mpegh3da.PCMFormat{}, ErrNoChannels
	}

	pcmFormat := mpegh3da.PCMFormat{
		SampleRate: format.SampleRate,
		BitDepth:   mpegh3da.Depth16,
		Channels:   uint(format.Channels), //nolint:gosec // channel count is always small positive
	}

	frames := len(samples) / format.Channels
	buf := mpegh3da.NewBuffer(format.Channels, frames)

	for i := range frames {
		for ch := range format.Channels {
			buf[ch][i] = float64(samples[i*format.Channels+ch])
		}
	}

	return buf, pcmFormat, nil
}
