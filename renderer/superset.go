package renderer

import (
	"fmt"
	"log/slog"

	"github.com/samber/lo"

	"github.com/mycophonic/mpegh3da"
	"github.com/mycophonic/mpegh3da/cicp"
	"github.com/mycophonic/mpegh3da/converter"
	"github.com/mycophonic/mpegh3da/hull"
)

// supersets maps the CICP layouts rendered on a richer standard layout to that layout.
//
//nolint:gochecknoglobals
var supersets = map[int]int{
	1:  5,
	2:  5,
	3:  5,
	4:  11,
	10: 5,
}

// supersetMesh builds the mesh of the superset of the CICP layout index and folds it onto the
// layout's non-LFE speakers with the rule-derived downmix. It returns nil when index has no
// superset.
func supersetMesh(index int, logger *slog.Logger) (*hull.Mesh, error) {
	super, ok := supersets[index]
	if !ok {
		return nil, nil //nolint:nilnil // no superset is not an error
	}

	sub, err := cicp.Labels(index)
	if err != nil {
		return nil, err
	}

	full, err := cicp.Labels(super)
	if err != nil {
		return nil, err
	}

	sub = lo.Reject(sub, func(l cicp.Label, _ int) bool { return l.IsLFE() })
	full = lo.Reject(full, func(l cicp.Label, _ int) bool { return l.IsLFE() })

	speakers := lo.Map(full, func(l cicp.Label, _ int) mpegh3da.Speaker { return l.Speaker() })

	mesh, err := hull.Build(speakers, logger)
	if err != nil {
		return nil, err
	}

	as, err := converter.Resolve(full, sub, converter.ResolveOptions{})
	if err != nil {
		return nil, err
	}

	if err := mesh.ComposeSuperset(converter.DownmixMatrix(as, len(full), len(sub))); err != nil {
		return nil, fmt.Errorf("superset %d: %w", super, err)
	}

	return mesh, nil
}
