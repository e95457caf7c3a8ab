// Package main provides the mpegh3da CLI: loudspeaker format conversion, object rendering and
// downmix matrix inspection.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/mycophonic/primordium/app"

	"github.com/mycophonic/mpegh3da/internal/logging"
	"github.com/mycophonic/mpegh3da/version"
)

func main() {
	ctx := context.Background()
	app.New(ctx, version.Name())

	appl := &cli.Command{
		Name:    version.Name(),
		Usage:   "MPEG-H 3D audio object rendering and format conversion",
		Version: version.Full(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log debug details (mesh, converter strategy) to stderr",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.Install(cmd.Bool("verbose"), os.Stderr)

			return ctx, nil
		},
		Commands: []*cli.Command{
			convertCommand(),
			renderCommand(),
			layoutsCommand(),
			dmxCommand(),
			previewCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "error: %v\n", err)

		os.Exit(1)
	}
}
