package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/detect"
	"github.com/mycophonic/mpegh3da/flac"
	"github.com/mycophonic/mpegh3da/vorbis"
	"github.com/mycophonic/mpegh3da/wav"
)

var (
	errUnsupportedFormat = errors.New("unsupported audio format")
	errInvalidArgCount   = errors.New("unexpected arguments")
)

type decodeFunc func(io.ReadSeeker) (mpegh3da.Buffer, mpegh3da.PCMFormat, error)

// readAudio decodes a WAV, FLAC or Ogg Vorbis file.
func readAudio(path string) (mpegh3da.Buffer, mpegh3da.PCMFormat, error) {
	file, err := os.Open(path) //nolint:gosec // CLI tool opens user-specified audio files
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer file.Close()

	codec, err := detect.Identify(file)
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("detecting format: %w", err)
	}

	var decode decodeFunc

	switch codec {
	case detect.WAV:
		decode = wav.Decode
	case detect.FLAC:
		decode = flac.Decode
	case detect.Vorbis:
		decode = vorbis.Decode
	case detect.Unknown:
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("%s: %w", path, errUnsupportedFormat)
	}

	buf, format, err := decode(file)
	if err != nil {
		return nil, mpegh3da.PCMFormat{}, fmt.Errorf("decoding %s %s: %w", codec, path, err)
	}

	return buf, format, nil
}

// writeAudio encodes buf as a WAV file.
func writeAudio(path string, buf mpegh3da.Buffer, format mpegh3da.PCMFormat) error {
	file, err := os.Create(path) //nolint:gosec // CLI tool creates user-specified output files
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	if err := wav.Encode(file, buf, format); err != nil {
		_ = file.Close()

		return fmt.Errorf("writing %s: %w", path, err)
	}

	return file.Close()
}

// inputLayout returns the in-layout flag, or the default layout for the channel count.
func inputLayout(cmd *cli.Command, channels uint) (int, error) {
	if cmd.IsSet("in-layout") {
		return int(cmd.Int("in-layout")), nil
	}

	return detect.DefaultLayout(channels)
}

// outputDepth returns the bit-depth flag, or the source depth when unset.
func outputDepth(cmd *cli.Command, source mpegh3da.BitDepth) (mpegh3da.BitDepth, error) {
	requested := cmd.Int("bit-depth")
	if requested == 0 {
		return source, nil
	}

	return mpegh3da.ToBitDepth(uint8(requested)) //nolint:gosec // validated by ToBitDepth
}

func ioFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "input",
			Aliases:  []string{"i"},
			Usage:    "input file (WAV, FLAC or Ogg Vorbis)",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "output",
			Aliases:  []string{"o"},
			Usage:    "output WAV file",
			Required: true,
		},
		&cli.IntFlag{
			Name:  "out-layout",
			Value: 2,
			Usage: "CICP index of the output loudspeaker layout",
		},
		&cli.IntFlag{
			Name:    "bit-depth",
			Aliases: []string{"b"},
			Usage:   "output bit depth (8, 16, 24, 32); 0 keeps the source depth",
		},
	}
}
