package oam

import "errors"

var (
	// ErrTruncated is returned when a payload ends inside a syntax element.
	ErrTruncated = errors.New("oam: truncated payload")
	// ErrInvalidValue is returned for a coded value outside its legal range.
	ErrInvalidValue = errors.New("oam: value out of range")
	// ErrConfig is returned for an invalid frame configuration.
	ErrConfig = errors.New("oam: invalid frame configuration")
)
