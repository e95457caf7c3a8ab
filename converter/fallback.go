package converter

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/hull"
	"github.com/mycophonic/mpegh3da/vbap"
)

// panMatrix builds an [output][input] matrix that pans every input channel at its geometry
// over the non-LFE outputs. LFE inputs feed the output LFE channels with equal power, or are
// panned at their direction when the output has none.
func panMatrix(inputs []inputChannel, numIn int, output []mpegh3da.Speaker, logger *slog.Logger) ([][]float64, error) {
	var mains, lfes []int

	mainSpeakers := make([]mpegh3da.Speaker, 0, len(output))

	for i, s := range output {
		if s.LFE {
			lfes = append(lfes, i)

			continue
		}

		mains = append(mains, i)
		mainSpeakers = append(mainSpeakers, s)
	}

	mesh, err := hull.Build(mainSpeakers, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	panner, err := vbap.NewPanner(mesh, vbap.Config{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}

	m := make([][]float64, len(output))
	for o := range m {
		m[o] = make([]float64, numIn)
	}

	gains := make([]float64, len(mains))

	for _, ch := range inputs {
		if ch.speaker.LFE && len(lfes) > 0 {
			g := 1 / math.Sqrt(float64(len(lfes)))
			for _, o := range lfes {
				m[o][ch.index] = g
			}

			continue
		}

		if err := panner.PointGains(mpegh3da.Direction(ch.speaker.Azimuth, ch.speaker.Elevation), gains); err != nil {
			return nil, err
		}

		for k, o := range mains {
			m[o][ch.index] = gains[k]
		}
	}

	return m, nil
}
