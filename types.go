package mpegh3da

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Speaker describes one loudspeaker (or one input channel position).
// Azimuth is in degrees in [-180, 180], positive to the left of the listener.
// Elevation is in degrees in [-90, 90], positive upwards.
type Speaker struct {
	Azimuth        float64
	Elevation      float64
	LFE            bool
	ScreenRelative bool
	// Distance in meters, 0 when unknown.
	Distance float64
	// CalibrationGain is a linear gain, 0 when unknown (treated as 1).
	CalibrationGain float64
}

// Vector returns the unit Cartesian direction of the speaker: x front, y left, z up.
func (s Speaker) Vector() r3.Vec {
	return Direction(s.Azimuth, s.Elevation)
}

// Direction converts azimuth/elevation in degrees to a unit vector.
func Direction(azimuth, elevation float64) r3.Vec {
	az := azimuth * math.Pi / 180
	el := elevation * math.Pi / 180

	return r3.Vec{
		X: math.Cos(el) * math.Cos(az),
		Y: math.Cos(el) * math.Sin(az),
		Z: math.Sin(el),
	}
}

// Spherical converts a (not necessarily normalized) vector to azimuth/elevation in degrees.
func Spherical(v r3.Vec) (float64, float64) {
	r := r3.Norm(v)
	if r == 0 {
		return 0, 0
	}

	el := math.Asin(max(-1, min(1, v.Z/r))) * 180 / math.Pi
	az := math.Atan2(v.Y, v.X) * 180 / math.Pi

	return az, el
}

// WrapAzimuth folds an azimuth in degrees into (-180, 180].
func WrapAzimuth(az float64) float64 {
	az = math.Mod(az, 360)
	if az > 180 {
		az -= 360
	} else if az <= -180 {
		az += 360
	}

	return az
}

// CountLFE returns the number of LFE speakers in a layout.
func CountLFE(layout []Speaker) int {
	n := 0

	for _, s := range layout {
		if s.LFE {
			n++
		}
	}

	return n
}

// BitDepth represents the bit depth of PCM audio samples.
type BitDepth uint

// Standard PCM bit depths.
const (
	Depth8  BitDepth = 8
	Depth16 BitDepth = 16
	Depth24 BitDepth = 24
	Depth32 BitDepth = 32
)

// BytesPerSample returns the number of bytes needed to store one sample.
func (d BitDepth) BytesPerSample() int {
	switch d {
	case Depth8:
		return 1
	case Depth16:
		return 2
	case Depth24:
		return 3
	case Depth32:
		return 4
	default:
		panic(fmt.Sprintf("mpegh3da: BytesPerSample called with unsupported bit depth %d", d))
	}
}

// Scale returns the full-scale integer magnitude for the depth (2^(depth-1)).
func (d BitDepth) Scale() float64 {
	return float64(int64(1) << (d - 1))
}

// PCMFormat describes the format of decoded audio handed to the CLI pipelines.
type PCMFormat struct {
	SampleRate int
	BitDepth   BitDepth
	Channels   uint
}

var errUnsupportedBitDepth = errors.New("unsupported bit depth")

// ToBitDepth converts a numeric bit depth to the BitDepth type.
func ToBitDepth(bps uint8) (BitDepth, error) {
	switch BitDepth(bps) {
	case Depth8:
		return Depth8, nil
	case Depth16:
		return Depth16, nil
	case Depth24:
		return Depth24, nil
	case Depth32:
		return Depth32, nil
	default:
		return 0, fmt.Errorf("%d-bit: %w", bps, errUnsupportedBitDepth)
	}
}

// Buffer holds planar float samples, one slice per channel, nominally in [-1, 1].
type Buffer [][]float64

// NewBuffer allocates a zeroed planar buffer.
func NewBuffer(channels, frames int) Buffer {
	buf := make(Buffer, channels)
	for ch := range buf {
		buf[ch] = make([]float64, frames)
	}

	return buf
}

// Frames returns the number of samples per channel.
func (b Buffer) Frames() int {
	if len(b) == 0 {
		return 0
	}

	return len(b[0])
}
