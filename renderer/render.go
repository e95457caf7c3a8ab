package renderer

import (
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/mycophonic/mpegh3da/oam"
	"github.com/mycophonic/mpegh3da/vbap"
)

// RenderFrame renders one frame of object signals. in holds one channel per object with at
// least FrameLength samples; the rendered signal is added to out[ch][offset:offset+FrameLength].
func (r *Renderer) RenderFrame(in, out [][]float64, offset int) error {
	if r.closed {
		return ErrClosed
	}

	if err := r.checkBuffers(in, out, offset); err != nil {
		return err
	}

	oamLen := r.cfg.OAMFrameLength

	for sf := range r.subFrames {
		if err := r.targetGains(r.frameSamples(sf)); err != nil {
			return err
		}

		if !r.started {
			for o := range r.endGains {
				copy(r.startGains[o], r.endGains[o])
			}

			r.started = true
		}

		base := sf * oamLen

		for o := range r.cfg.NumObjects {
			src := in[o][base : base+oamLen]

			for k, ch := range r.meshToOut {
				ramp(out[ch][offset+base:offset+base+oamLen], src, r.startGains[o][k], r.endGains[o][k])
			}
		}

		// The gains reached become the start of the next sub-frame.
		r.startGains, r.endGains = r.endGains, r.startGains
	}

	return nil
}

// ramp adds src scaled by a gain moving linearly from start to end into dst. The last sample
// is scaled by end exactly.
func ramp(dst, src []float64, start, end float64) {
	n := len(dst)
	if n == 0 {
		return
	}

	if start == end {
		if end == 0 {
			return
		}

		for i := range dst {
			dst[i] += src[i] * end
		}

		return
	}

	step := (end - start) / float64(n)
	for i := range n - 1 {
		dst[i] += src[i] * (start + step*float64(i+1))
	}

	dst[n-1] += src[n-1] * end
}

// frameSamples returns the metadata rendered for sub-frame sf, concealing invalid metadata
// with the last valid samples. Before any valid metadata, objects are silent.
func (r *Renderer) frameSamples(sf int) []oam.Sample {
	if r.valid[sf] {
		if r.lastValid == nil {
			r.lastValid = make([]oam.Sample, r.cfg.NumObjects)
		}

		copy(r.lastValid, r.samples[sf])

		return r.samples[sf]
	}

	if r.lastValid != nil {
		r.logger.Debug("concealing object metadata", "subframe", sf)

		return r.lastValid
	}

	return nil
}

// targetGains computes endGains for samples; nil samples silence every object.
func (r *Renderer) targetGains(samples []oam.Sample) error {
	if samples == nil {
		for o := range r.endGains {
			clear(r.endGains[o])
		}

		return nil
	}

	one := func(o int) error {
		return r.panner.Gains(r.object(o, samples[o]), r.endGains[o])
	}

	if r.cfg.Parallelism < 2 {
		for o := range samples {
			if err := one(o); err != nil {
				return fmt.Errorf("object %d: %w", o, err)
			}
		}

		return nil
	}

	var g errgroup.Group

	g.SetLimit(r.cfg.Parallelism)

	for o := range samples {
		g.Go(func() error {
			if err := one(o); err != nil {
				return fmt.Errorf("object %d: %w", o, err)
			}

			return nil
		})
	}

	return g.Wait()
}

func (r *Renderer) object(o int, s oam.Sample) vbap.Object {
	height := s.SpreadHeight
	if r.cfg.UniformSpread {
		height = s.Spread
	}

	return vbap.Object{
		Azimuth:      s.Azimuth,
		Elevation:    s.Elevation,
		Gain:         s.Gain * r.prod.DistanceGain(o),
		Spread:       s.Spread,
		SpreadHeight: height,
		SpreadDepth:  s.SpreadDepth,
		Radius:       s.Radius,
	}
}

func (r *Renderer) checkBuffers(in, out [][]float64, offset int) error {
	if len(in) < r.cfg.NumObjects {
		return fmt.Errorf("%w: %d input channels for %d objects", ErrBufferSize, len(in), r.cfg.NumObjects)
	}

	if len(out) < r.channels {
		return fmt.Errorf("%w: %d output channels, want %d", ErrBufferSize, len(out), r.channels)
	}

	if offset < 0 {
		return fmt.Errorf("%w: negative offset %d", ErrBufferSize, offset)
	}

	for o := range r.cfg.NumObjects {
		if len(in[o]) < r.cfg.FrameLength {
			return fmt.Errorf("%w: object %d has %d samples, want %d", ErrBufferSize, o, len(in[o]), r.cfg.FrameLength)
		}
	}

	for ch := range r.channels {
		if len(out[ch]) < offset+r.cfg.FrameLength {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrBufferSize, ch, len(out[ch]), offset+r.cfg.FrameLength)
		}
	}

	return nil
}
