package main

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/oto/v2"
	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da"
)

// stereoLayout is the CICP index previews are converted to.
const stereoLayout = 2

// pollInterval is how often playback completion is checked.
const pollInterval = 50 * time.Millisecond

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Downmix a file to stereo and play it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "input file (WAV, FLAC or Ogg Vorbis)",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "in-layout",
				Usage: "CICP index of the input layout (default: guessed from the channel count)",
			},
			&cli.StringFlag{
				Name:  "mode",
				Value: "active-frequency",
				Usage: "processing mode: passive-time, passive-frequency or active-frequency",
			},
			&cli.BoolFlag{Name: "immersive", Usage: "use the immersive downmix rules"},
			&cli.BoolFlag{Name: "rendering-3d", Usage: "keep height impressions with virtual elevation"},
			&cli.BoolFlag{Name: "dry-run", Usage: "downmix without opening an audio device"},
		},
		Action: runPreview,
	}
}

func runPreview(ctx context.Context, cmd *cli.Command) error {
	if cmd.NArg() != 0 {
		return fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	buf, format, err := readAudio(cmd.String("input"))
	if err != nil {
		return err
	}

	c, err := conversionFlags(cmd, format, stereoLayout)
	if err != nil {
		return err
	}

	stereo, format, err := convertBuffer(ctx, c, buf, format)
	if err != nil {
		return err
	}

	seconds := float64(stereo.Frames()) / float64(format.SampleRate)

	if cmd.Bool("dry-run") {
		_, _ = fmt.Fprintf(cmd.Root().Writer, "%d frames, %.2fs at %d Hz\n", stereo.Frames(), seconds, format.SampleRate)

		return nil
	}

	return play(ctx, stereo, format.SampleRate)
}

// play blocks until buf has been played or ctx is done.
func play(ctx context.Context, buf mpegh3da.Buffer, sampleRate int) error {
	octx, ready, err := oto.NewContext(sampleRate, len(buf), oto.FormatSignedInt16LE)
	if err != nil {
		return fmt.Errorf("opening audio device: %w", err)
	}

	<-ready

	player := octx.NewPlayer(bytes.NewReader(interleaveS16(buf)))
	defer player.Close()

	player.Play()
	slog.Debug("playback started", "frames", buf.Frames(), "rate", sampleRate)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()

			return ctx.Err()
		case <-ticker.C:
		}
	}

	return player.Err()
}

func interleaveS16(buf mpegh3da.Buffer) []byte {
	channels := len(buf)
	out := make([]byte, buf.Frames()*channels*2)

	for ch, samples := range buf {
		for i, s := range samples {
			v := max(math.MinInt16, min(math.MaxInt16, math.Round(s*math.MaxInt16)))
			binary.LittleEndian.PutUint16(out[(i*channels+ch)*2:], uint16(int16(v))) //nolint:gosec // clamped to int16 range
		}
	}

	return out
}
