package renderer

import "errors"

var (
	// ErrConfig is returned by Open for an invalid configuration.
	ErrConfig = errors.New("renderer: invalid configuration")
	// ErrBufferSize is returned when RenderFrame buffers are too small.
	ErrBufferSize = errors.New("renderer: buffer size mismatch")
	// ErrClosed is returned when a closed renderer is used.
	ErrClosed = errors.New("renderer: closed")
	// ErrSubFrame is returned for an out-of-range sub-frame index.
	ErrSubFrame = errors.New("renderer: sub-frame out of range")
)
