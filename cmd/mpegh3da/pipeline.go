package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/converter"
)

// frameSize is the block length handed to the converter and the renderer.
const frameSize = 1024

var errUnknownMode = errors.New("unknown processing mode")

//nolint:gochecknoglobals
var modes = []converter.ProcessingMode{
	converter.ModePassiveTimeDomain,
	converter.ModePassiveFrequencyDomain,
	converter.ModeActiveFrequencyDomain,
}

func parseMode(name string) (converter.ProcessingMode, error) {
	mode, ok := lo.Find(modes, func(m converter.ProcessingMode) bool { return m.String() == name })
	if !ok {
		return 0, fmt.Errorf("%w: %q (want one of %v)", errUnknownMode, name, modes)
	}

	return mode, nil
}

type conversion struct {
	inLayout    int
	outLayout   int
	mode        converter.ProcessingMode
	immersive   bool
	rendering3D bool
	sampleRate  int
}

// open builds a converter session from two CICP layouts.
func (c conversion) open(logger *slog.Logger) (*converter.Converter, error) {
	in, _, _, err := cicp.Geometry(c.inLayout)
	if err != nil {
		return nil, fmt.Errorf("input layout: %w", err)
	}

	out, _, _, err := cicp.Geometry(c.outLayout)
	if err != nil {
		return nil, fmt.Errorf("output layout: %w", err)
	}

	conv, err := converter.New(converter.Config{
		Mode:       c.mode,
		Output:     out,
		SampleRate: c.sampleRate,
		FrameSize:  frameSize,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	setup := []error{
		conv.AddInputSetup(in, 0, nil),
		conv.SetImmersiveDownmix(c.immersive),
		conv.SetRendering3DType(c.rendering3D),
	}

	if err := errors.Join(setup...); err != nil {
		_ = conv.Close()

		return nil, err
	}

	if err := conv.Open(); err != nil {
		_ = conv.Close()

		return nil, err
	}

	logger.Info("converter ready",
		"in", cicp.Name(c.inLayout),
		"out", cicp.Name(c.outLayout),
		"strategy", conv.Strategy().String(),
		"mode", c.mode.String(),
		"delay", conv.Delay())

	return conv, nil
}

// convertAll runs in through conv block by block and removes the converter latency, so the
// result is aligned with the input and has the same length.
func convertAll(ctx context.Context, conv *converter.Converter, in mpegh3da.Buffer, outChannels int) (mpegh3da.Buffer, error) {
	frames := in.Frames()
	delay := conv.Delay()
	blocks := (frames + delay + frameSize - 1) / frameSize

	inBlock := mpegh3da.NewBuffer(len(in), frameSize)
	outBlock := mpegh3da.NewBuffer(outChannels, frameSize)
	result := mpegh3da.NewBuffer(outChannels, frames)

	for b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pos := b * frameSize

		for ch := range inBlock {
			clear(inBlock[ch])

			if pos < frames {
				copy(inBlock[ch], in[ch][pos:min(pos+frameSize, frames)])
			}
		}

		if err := conv.Process(nil, inBlock, outBlock); err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}

		for ch := range outBlock {
			for i, v := range outBlock[ch] {
				if t := pos + i - delay; t >= 0 && t < frames {
					result[ch][t] = v
				}
			}
		}
	}

	return result, nil
}
