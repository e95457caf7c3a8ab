package hull

import "errors"

var (
	// ErrTooFewSpeakers is returned when fewer than one real speaker is given.
	ErrTooFewSpeakers = errors.New("hull: at least one non-LFE speaker is required")
	// ErrSpeakersTooClose is returned when two speakers violate the minimum angular spacing.
	ErrSpeakersTooClose = errors.New("hull: speakers closer than the minimum angular spacing")
	// ErrDegenerate is returned when no non-coplanar seed tetrahedron exists.
	ErrDegenerate = errors.New("hull: degenerate vertex set")
	// ErrNoConvergence is returned when ghost energy redistribution does not converge.
	ErrNoConvergence = errors.New("hull: ghost downmix did not converge")
	// ErrDimension is returned when a composed matrix has the wrong shape.
	ErrDimension = errors.New("hull: matrix dimension mismatch")
	// ErrLFE is returned when an LFE speaker is passed to the mesh builder.
	ErrLFE = errors.New("hull: LFE speakers cannot be part of the mesh")
)
