package vbap

import "errors"

var (
	// ErrDegenerateTriplet is returned when a mesh triangle has a near-singular basis.
	ErrDegenerateTriplet = errors.New("vbap: degenerate speaker triplet")
	// ErrNoMesh is returned when a panner is built without a mesh.
	ErrNoMesh = errors.New("vbap: nil mesh")
	// ErrOutputSize is returned when the destination slice does not match the output count.
	ErrOutputSize = errors.New("vbap: output slice size mismatch")
)
