package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/urfave/cli/v3"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
)

func layoutsCommand() *cli.Command {
	return &cli.Command{
		Name:  "layouts",
		Usage: "List the supported CICP loudspeaker layouts",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "labels",
				Usage: "print the channel labels of every layout",
			},
		},
		Action: runLayouts,
	}
}

func runLayouts(_ context.Context, cmd *cli.Command) error {
	w := cmd.Root().Writer

	for _, idx := range cicp.Indices() {
		geo, n, lfe, err := cicp.Geometry(idx)
		if err != nil {
			return err
		}

		heights := lo.CountBy(geo, func(s mpegh3da.Speaker) bool { return s.Elevation > 0 })

		_, _ = fmt.Fprintf(w, "%2d  %-12s %2d ch  %d lfe  %2d height\n", idx, cicp.Name(idx), n, lfe, heights)

		if cmd.Bool("labels") {
			labels, err := cicp.Labels(idx)
			if err != nil {
				return err
			}

			names := lo.Map(labels, func(l cicp.Label, _ int) string { return l.String() })
			_, _ = fmt.Fprintf(w, "    %s\n", strings.Join(names, " "))
		}
	}

	return nil
}
