package converter

import "errors"

var (
	// ErrMissingRule is returned when an input channel has no applicable rule.
	ErrMissingRule = errors.New("converter: missing downmix rule")
	// ErrConfig is returned for an invalid session configuration.
	ErrConfig = errors.New("converter: invalid configuration")
	// ErrBufferSize is returned when Process buffers are too small.
	ErrBufferSize = errors.New("converter: buffer size mismatch")
	// ErrAperture is returned when a tangent-law half aperture is outside (0, 90) degrees.
	ErrAperture = errors.New("converter: panning aperture out of range")
	// ErrState is returned when a call is made in the wrong session state.
	ErrState = errors.New("converter: invalid session state")
)
