package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da"
)

func convertCommand() *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a channel-based file to another loudspeaker layout",
		Flags: append(ioFlags(),
			&cli.IntFlag{
				Name:  "in-layout",
				Usage: "CICP index of the input layout (default: guessed from the channel count)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "active-frequency",
				Usage: "processing mode: passive-time, passive-frequency or active-frequency",
			},
			&cli.BoolFlag{
				Name:  "immersive",
				Usage: "use the immersive downmix rules",
			},
			&cli.BoolFlag{
				Name:  "rendering-3d",
				Usage: "keep height impressions on horizontal layouts with virtual elevation",
			},
		),
		Action: runConvert,
	}
}

func runConvert(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 0 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	buf, format, err := readAudio(cmd.String("input"))
	if err != nil {
		return err
	}

	c, err := conversionFlags(cmd, format, int(cmd.Int("out-layout")))
	if err != nil {
		return err
	}

	out, outFormat, err := convertBuffer(ctx, c, buf, format)
	if err != nil {
		return err
	}

	if outFormat.BitDepth, err = outputDepth(cmd, format.BitDepth); err != nil {
		return err
	}

	return writeAudio(cmd.String("output"), out, outFormat)
}

// conversionFlags reads the conversion flags shared by convert and preview.
func conversionFlags(cmd *cli.Command, format mpegh3da.PCMFormat, outLayout int) (conversion, error) {
	inLayout, err := inputLayout(cmd, format.Channels)
	if err != nil {
		return conversion{}, err
	}

	mode, err := parseMode(cmd.String("mode"))
	if err != nil {
		return conversion{}, err
	}

	return conversion{
		inLayout:    inLayout,
		outLayout:   outLayout,
		mode:        mode,
		immersive:   cmd.Bool("immersive"),
		rendering3D: cmd.Bool("rendering-3d"),
		sampleRate:  format.SampleRate,
	}, nil
}

// convertBuffer converts buf with c and returns the output and its format.
func convertBuffer(
	ctx context.Context, c conversion, buf mpegh3da.Buffer, format mpegh3da.PCMFormat,
) (mpegh3da.Buffer, mpegh3da.PCMFormat, error) {
	conv, err := c.open(slog.Default())
	if err != nil {
		return nil, format, err
	}
	defer conv.Close()

	out, err := convertAll(ctx, conv, buf, conv.Outputs())
	if err != nil {
		return nil, format, err
	}

	format.Channels = uint(conv.Outputs()) //nolint:gosec // layout sizes are small

	return out, format, nil
}
