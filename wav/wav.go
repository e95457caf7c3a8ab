// Package wav reads and writes integer PCM WAV files as planar float buffers.
package wav

import (
	"fmt"
	"io"
	"math"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/mpegh3da"
)

// WAV format tags accepted on input.
const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
)

// Decode reads an integer PCM WAV stream. Samples are scaled to [-1, 1).
func Decode(rs io.ReadSeeker) (mpegh3da.Buffer, mpegh3da.PCMFormat, error) {
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		if err := dec.Err(); err != nil {
			return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", ErrNotWAV, err)
		}

		return nil, mpegh3da.PCMFormat{}, ErrNotWAV
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: format tag %#x", ErrUnsupportedFmt, dec.WavAudioFormat)
	}

	depth, err := mpegh3da.ToBitDepth(uint8(dec.BitDepth)) //nolint:gosec // validated by ToBitDepth
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", ErrUnsupportedFmt, err)
	}

	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}

	format := mpegh3da.PCMFormat{
		SampleRate: int(dec.SampleRate),
		BitDepth:   depth,
		Channels:   uint(dec.NumChans),
	}

	return deinterleave(pcm.Data, int(dec.NumChans), depth), format, nil
}

func deinterleave(data []int, channels int, depth mpegh3da.BitDepth) mpegh3da.Buffer {
	frames := len(data) / channels
	buf := mpegh3da.NewBuffer(channels, frames)
	scale := depth.Scale()

	// 8-bit WAV samples are unsigned.
	offset := 0
	if depth == mpegh3da.Depth8 {
		offset = 128
	}

	for i := range frames {
		for ch := range channels {
			buf[ch][i] = float64(data[i*channels+ch]-offset) / scale
		}
	}

	return buf
}

// Encode writes buf as integer PCM at format.SampleRate and format.BitDepth.
// Samples are clipped to full scale.
func Encode(ws io.WriteSeeker, buf mpegh3da.Buffer, format mpegh3da.PCMFormat) error {
	if _, err := mpegh3da.ToBitDepth(uint8(format.BitDepth)); err != nil { //nolint:gosec // validated by ToBitDepth
		return fmt.Errorf("%w: %w", ErrInvalidBitDepth, err)
	}

	if int(format.Channels) != len(buf) || len(buf) == 0 { //nolint:gosec // channel counts are small
		return fmt.Errorf("%w: %d buffers for %d channels", ErrChannelCount, len(buf), format.Channels)
	}

	channels := len(buf)
	frames := buf.Frames()

	pcm := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: format.SampleRate},
		Data:           make([]int, frames*channels),
		SourceBitDepth: int(format.BitDepth),
	}

	interleave(pcm.Data, buf, format.BitDepth)

	enc := wav.NewEncoder(ws, format.SampleRate, int(format.BitDepth), channels, formatPCM)
	if err := enc.Write(pcm); err != nil {
		return fmt.Errorf("writing wav: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalizing wav: %w", err)
	}

	return nil
}

func interleave(dst []int, buf mpegh3da.Buffer, depth mpegh3da.BitDepth) {
	channels := len(buf)
	peak := float64(audio.IntMaxSignedValue(int(depth)))
	scale := depth.Scale()

	offset := 0
	if depth == mpegh3da.Depth8 {
		offset = 128
	}

	for ch, samples := range buf {
		for i, s := range samples {
			v := math.Round(s * scale)
			v = max(-scale, min(peak, v))
			dst[i*channels+ch] = int(v) + offset
		}
	}
}
