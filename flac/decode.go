// Package flac decodes FLAC streams into planar float buffers.
package flac

import (
	"errors"
	"fmt"
	"io"

	goflac "github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"

	"github.com/mycophonic/primordium/fault"

	"github.com/mycophonic/mpegh3da"
)

// ErrBitDepth is returned when a FLAC stream has an unsupported bit depth.
var ErrBitDepth = errors.New("flac: unsupported bit depth")

// containerDepth maps FLAC sample sizes onto the PCM depth they are stored in.
func containerDepth(bps uint8) (mpegh3da.BitDepth, error) {
	switch {
	case bps >= 4 && bps <= 8:
		return mpegh3da.Depth8, nil
	case bps > 8 && bps <= 16:
		return mpegh3da.Depth16, nil
	case bps > 16 && bps <= 24:
		return mpegh3da.Depth24, nil
	case bps > 24 && bps <= 32:
		return mpegh3da.Depth32, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrBitDepth, bps)
	}
}

// Decode reads a FLAC stream. Samples are scaled by the stream's native bit depth to [-1, 1).
// The returned format reports the PCM container depth (12-bit streams report 16).
func Decode(rs io.ReadSeeker) (mpegh3da.Buffer, mpegh3da.PCMFormat, error) {
	stream, err := goflac.New(rs)
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)

	depth, err := containerDepth(info.BitsPerSample)
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, err
	}

	format := mpegh3da.PCMFormat{
		SampleRate: int(info.SampleRate),
		BitDepth:   depth,
		Channels:   uint(channels), //nolint:gosec // channels comes from uint8, always fits in uint.
	}

	scale := float64(int64(1) << (info.BitsPerSample - 1))

	buf := make(mpegh3da.Buffer, channels)
	if info.NSamples > 0 {
		for ch := range buf {
			buf[ch] = make([]float64, 0, info.NSamples)
		}
	}

	for {
		audioFrame, parseErr := stream.ParseNext()
		if errors.Is(parseErr, io.EOF) {
			break
		}

		if parseErr != nil {
			return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%w: %w", fault.ErrReadFailure, parseErr)
		}

		appendFrame(buf, audioFrame.Subframes, int(audioFrame.BlockSize), scale)
	}

	return buf, format, nil
}

func appendFrame(buf mpegh3da.Buffer, subframes []*frame.Subframe, blockSize int, scale float64) {
	for ch := range buf {
		samples := subframes[ch].Samples[:blockSize]
		for _, s := range samples {
			buf[ch] = append(buf[ch], float64(s)/scale)
		}
	}
}
