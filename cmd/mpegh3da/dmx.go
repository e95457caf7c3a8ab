package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/converter"
	"github.com/mycophonic/mpegh3da/dmx"
	"github.com/mycophonic/mpegh3da/internal/bitstream"
)

func dmxCommand() *cli.Command {
	return &cli.Command{
		Name:  "dmx",
		Usage: "Print the rule-derived downmix matrix of two layouts and its coded sizes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "in-layout", Value: 6, Usage: "CICP index of the input layout"},
			&cli.IntFlag{Name: "out-layout", Value: 2, Usage: "CICP index of the output layout"},
			&cli.IntFlag{Name: "precision", Value: 1, Usage: "gain precision level (0: 1 dB, 1: 0.5 dB, 2: 0.25 dB)"},
			&cli.BoolFlag{Name: "immersive", Usage: "use the immersive downmix rules"},
		},
		Action: runDmx,
	}
}

func runDmx(_ context.Context, cmd *cli.Command) error {
	inIdx, outIdx := int(cmd.Int("in-layout")), int(cmd.Int("out-layout"))

	in, err := cicp.Labels(inIdx)
	if err != nil {
		return err
	}

	out, err := cicp.Labels(outIdx)
	if err != nil {
		return err
	}

	assignments, err := converter.Resolve(in, out, converter.ResolveOptions{Immersive: cmd.Bool("immersive")})
	if err != nil {
		return err
	}

	inGeo, _, _, err := cicp.Geometry(inIdx)
	if err != nil {
		return err
	}

	outGeo, _, _, err := cicp.Geometry(outIdx)
	if err != nil {
		return err
	}

	params := dmx.Params{Input: inGeo, Output: outGeo, InputCICP: inIdx, OutputCICP: outIdx}
	matrix := &dmx.Matrix{Gains: converter.DownmixMatrix(assignments, len(in), len(out))}
	precision := int(cmd.Int("precision"))

	variants := []struct {
		name string
		opts dmx.EncodeOptions
	}{
		{"raw", dmx.EncodeOptions{Precision: precision, RawMask: true, RawGains: true}},
		{"run-length", dmx.EncodeOptions{Precision: precision}},
		{"template", dmx.EncodeOptions{Precision: precision, UseTemplate: true}},
	}

	w := cmd.Root().Writer

	var coded *dmx.Matrix

	for _, v := range variants {
		bw := bitstream.NewWriter()
		if err := dmx.Encode(bw, matrix, params, v.opts); err != nil {
			return fmt.Errorf("%s coding: %w", v.name, err)
		}

		bits := bw.Len()

		data, err := bw.Bytes()
		if err != nil {
			return err
		}

		if coded, err = dmx.Decode(bitstream.NewReader(data), params); err != nil {
			return fmt.Errorf("%s decoding: %w", v.name, err)
		}

		_, _ = fmt.Fprintf(w, "%-10s %4d bits\n", v.name, bits)
	}

	printMatrix(w, coded.Gains, in, out)

	return nil
}

func printMatrix(w io.Writer, gains [][]float64, in, out []cicp.Label) {
	names := lo.Map(in, func(l cicp.Label, _ int) string { return fmt.Sprintf("%8s", strings.TrimPrefix(l.String(), "CH_")) })
	_, _ = fmt.Fprintf(w, "%-8s %s\n", "", strings.Join(names, " "))

	for o, row := range gains {
		cells := lo.Map(row, func(g float64, _ int) string { return fmt.Sprintf("%8.4f", g) })
		_, _ = fmt.Fprintf(w, "%-8s %s\n", strings.TrimPrefix(out[o].String(), "CH_"), strings.Join(cells, " "))
	}
}
