package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
	"github.com/mycophonic/mpegh3da/oam"
	"github.com/mycophonic/mpegh3da/renderer"
	"github.com/mycophonic/mpegh3da/vbap"
)

// oamFrameSize is the metadata sub-frame length used by render.
const oamFrameSize = 256

func renderCommand() *cli.Command {
	return &cli.Command{
		Name:  "render",
		Usage: "Render every input channel as a static audio object onto a loudspeaker layout",
		Flags: append(ioFlags(),
			&cli.FloatSliceFlag{Name: "az", Usage: "object azimuths in degrees, positive left"},
			&cli.FloatSliceFlag{Name: "el", Usage: "object elevations in degrees"},
			&cli.FloatSliceFlag{Name: "spread", Usage: "object spread widths in degrees"},
			&cli.FloatSliceFlag{Name: "gain", Usage: "object gains in dB"},
			&cli.FloatSliceFlag{Name: "radius", Usage: "object distances in meters"},
			&cli.FloatSliceFlag{Name: "depth", Usage: "object spread depths in meters (enhanced only)"},
			&cli.BoolFlag{Name: "enhanced", Usage: "use the enhanced spread algorithm"},
			&cli.BoolFlag{Name: "superset", Usage: "render small CICP layouts on their 5.0 or 6.1 superset"},
			&cli.IntFlag{Name: "parallelism", Value: 1, Usage: "goroutines computing object gains"},
		),
		Action: runRender,
	}
}

// at returns values[i], or def when the flag was given fewer values.
func at(values []float64, i int, def float64) float64 {
	if i < len(values) {
		return values[i]
	}

	return def
}

func objectSamples(cmd *cli.Command, objects int) []oam.Sample {
	out := make([]oam.Sample, objects)

	for o := range out {
		s := oam.Default()
		s.Azimuth = at(cmd.FloatSlice("az"), o, 0)
		s.Elevation = at(cmd.FloatSlice("el"), o, 0)
		s.Spread = at(cmd.FloatSlice("spread"), o, 0)
		s.SpreadHeight = s.Spread
		s.Gain = math.Pow(10, at(cmd.FloatSlice("gain"), o, 0)/20)
		s.Radius = at(cmd.FloatSlice("radius"), o, s.Radius)
		s.SpreadDepth = at(cmd.FloatSlice("depth"), o, 0)
		out[o] = s
	}

	return out
}

func runRender(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 0 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	buf, format, err := readAudio(cmd.String("input"))
	if err != nil {
		return err
	}

	mode := vbap.ModeLegacy
	if cmd.Bool("enhanced") {
		mode = vbap.ModeEnhanced
	}

	objects := len(buf)

	r, err := renderer.Open(renderer.Config{
		NumObjects:     objects,
		FrameLength:    frameSize,
		OAMFrameLength: oamFrameSize,
		CICPIndex:      int(cmd.Int("out-layout")),
		Mode:           mode,
		Superset:       cmd.Bool("superset"),
		Parallelism:    int(cmd.Int("parallelism")),
		Logger:         slog.Default(),
	})
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := renderAll(ctx, r, buf, objectSamples(cmd, objects))
	if err != nil {
		return err
	}

	if format.BitDepth, err = outputDepth(cmd, format.BitDepth); err != nil {
		return err
	}

	format.Channels = uint(r.Channels()) //nolint:gosec // layout sizes are small

	slog.Info("objects rendered", "objects", objects, "channels", r.Channels(), "frames", buf.Frames())

	return writeAudio(cmd.String("output"), out, format)
}

// renderAll feeds static metadata through the object metadata coding each frame, so the
// renderer sees exactly what a decoder would.
func renderAll(ctx context.Context, r *renderer.Renderer, in mpegh3da.Buffer, samples []oam.Sample) (mpegh3da.Buffer, error) {
	frames := in.Frames()
	blocks := (frames + frameSize - 1) / frameSize

	padded := mpegh3da.NewBuffer(len(in), blocks*frameSize)
	for ch := range in {
		copy(padded[ch], in[ch])
	}

	out := mpegh3da.NewBuffer(r.Channels(), blocks*frameSize)

	cfg := oam.FrameConfig{NumObjects: len(samples), SubFrames: r.SubFrames()}

	rows := make([][]oam.Sample, r.SubFrames())
	for sf := range rows {
		rows[sf] = samples
	}

	w := bitstream.NewWriter()
	if err := oam.EncodeFrame(w, cfg, rows); err != nil {
		return nil, err
	}

	payload, err := w.Bytes()
	if err != nil {
		return nil, err
	}

	block := make([][]float64, len(padded))

	for b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := r.ObjectMetadataFrame(payload); err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}

		pos := b * frameSize
		for o := range padded {
			block[o] = padded[o][pos : pos+frameSize]
		}

		if err := r.RenderFrame(block, out, pos); err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}
	}

	for ch := range out {
		out[ch] = out[ch][:frames]
	}

	return out, nil
}
