package oam

import (
	"errors"
	"fmt"

	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

// FrameConfig describes the layout of an object metadata frame.
type FrameConfig struct {
	NumObjects int
	// SubFrames is the number of OAM sub-frames per audio frame.
	SubFrames int
	// UniformSpread omits the spread height and depth fields.
	UniformSpread bool
}

func (c FrameConfig) validate() error {
	if c.NumObjects <= 0 || c.SubFrames <= 0 {
		return fmt.Errorf("%w: %d objects, %d sub-frames", ErrConfig, c.NumObjects, c.SubFrames)
	}

	return nil
}

// fieldReader keeps the first read error so a syntax element can be parsed without checking
// every field.
type fieldReader struct {
	r   *bitstream.Reader
	err error
}

func (f *fieldReader) bits(n int) uint32 {
	if f.err != nil {
		return 0
	}

	v, err := f.r.ReadBits(n)
	if err != nil {
		f.err = err
	}

	return v
}

func (f *fieldReader) flag() bool { return f.bits(1) == 1 }

func (f *fieldReader) signed(n int) int32 {
	v := int32(f.bits(n))
	if v >= 1<<(n-1) {
		v -= 1 << n
	}

	return v
}

func (f *fieldReader) check(code int32, limit float64, step float64, name string) {
	if f.err == nil && (float64(code)*step > limit || float64(code)*step < -limit) {
		f.err = fmt.Errorf("%w: %s code %d", ErrInvalidValue, name, code)
	}
}

// DecodeFrame decodes one object metadata frame into cfg.SubFrames rows of cfg.NumObjects
// samples. An object whose update flag is clear repeats its previous sample; prev seeds the
// first sub-frame and may be nil, in which case Default is used.
func DecodeFrame(r *bitstream.Reader, cfg FrameConfig, prev []Sample) ([][]Sample, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	last := make([]Sample, cfg.NumObjects)
	for i := range last {
		if i < len(prev) {
			last[i] = prev[i]
		} else {
			last[i] = Default()
		}
	}

	f := &fieldReader{r: r}
	out := make([][]Sample, cfg.SubFrames)

	for sf := range cfg.SubFrames {
		out[sf] = make([]Sample, cfg.NumObjects)

		for o := range cfg.NumObjects {
			if f.flag() {
				last[o] = f.sample(cfg.UniformSpread)
			}

			out[sf][o] = last[o]
		}

		if f.err != nil {
			if errors.Is(f.err, bitstream.ErrOverrun) {
				return nil, fmt.Errorf("%w: sub-frame %d: %w", ErrTruncated, sf, f.err)
			}

			return nil, fmt.Errorf("sub-frame %d: %w", sf, f.err)
		}
	}

	return out, nil
}

func (f *fieldReader) sample(uniformSpread bool) Sample {
	az := f.signed(azimuthBits)
	f.check(az, maxAzimuth, azimuthStep, "azimuth")

	el := f.signed(elevationBits)
	f.check(el, maxElevation, elevationStep, "elevation")

	s := Sample{
		Azimuth:   float64(az) * azimuthStep,
		Elevation: float64(el) * elevationStep,
		Radius:    radiusOf(f.bits(radiusBits)),
		Gain:      gainOf(f.signed(gainBits)),
	}

	spread := int32(f.bits(spreadBits))
	f.check(spread, maxSpread, spreadStep, "spread")
	s.Spread = float64(spread) * spreadStep

	if uniformSpread {
		s.SpreadHeight = s.Spread

		return s
	}

	height := int32(f.bits(heightBits))
	f.check(height, maxHeight, heightStep, "spread height")
	s.SpreadHeight = float64(height) * heightStep
	s.SpreadDepth = float64(f.bits(depthBits)) * depthStep

	return s
}

// EncodeFrame writes frames (sub-frame major) with every update flag set. Values are
// quantized as by Quantize.
func EncodeFrame(w *bitstream.Writer, cfg FrameConfig, frames [][]Sample) error {
	if err := cfg.validate(); err != nil {
		return err
	}

	if len(frames) != cfg.SubFrames {
		return fmt.Errorf("%w: %d sub-frames given, want %d", ErrConfig, len(frames), cfg.SubFrames)
	}

	for sf, row := range frames {
		if len(row) != cfg.NumObjects {
			return fmt.Errorf("%w: sub-frame %d has %d objects, want %d", ErrConfig, sf, len(row), cfg.NumObjects)
		}

		for _, s := range row {
			if err := writeSample(w, s, cfg.UniformSpread); err != nil {
				return err
			}
		}
	}

	return nil
}

type field struct {
	v uint32
	n int
}

func writeSample(w *bitstream.Writer, s Sample, uniformSpread bool) error {
	fields := []field{
		{1, 1},
		{twos(signedCode(s.Azimuth, azimuthStep, azimuthBits, maxAzimuth), azimuthBits), azimuthBits},
		{twos(signedCode(s.Elevation, elevationStep, elevationBits, maxElevation), elevationBits), elevationBits},
		{radiusCode(s.Radius), radiusBits},
		{twos(gainCode(s.Gain), gainBits), gainBits},
		{unsignedCode(s.Spread, spreadStep, spreadBits, maxSpread), spreadBits},
	}

	if !uniformSpread {
		fields = append(fields,
			field{unsignedCode(s.SpreadHeight, heightStep, heightBits, maxHeight), heightBits},
			field{unsignedCode(s.SpreadDepth, depthStep, depthBits, maxDepth), depthBits},
		)
	}

	for _, fld := range fields {
		if err := w.WriteBits(fld.v, fld.n); err != nil {
			return err
		}
	}

	return nil
}

func twos(v int32, bits int) uint32 {
	return uint32(v) & (1<<bits - 1)
}
