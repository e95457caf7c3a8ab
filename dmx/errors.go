package dmx

import "errors"

var (
	// ErrTemplate is returned when a payload uses a compact template that the layouts do not have.
	ErrTemplate = errors.New("dmx: no compact template for layout pair")
	// ErrMatrixTooLarge is returned for layouts beyond the coded channel limits.
	ErrMatrixTooLarge = errors.New("dmx: matrix too large")
	// ErrUnexpectedGroup is returned for a group id with no parameters or seen twice.
	ErrUnexpectedGroup = errors.New("dmx: unexpected group")
	// ErrInvalidValue is returned for a coded value outside its legal range.
	ErrInvalidValue = errors.New("dmx: value out of range")
	// ErrTruncated is returned when a payload ends inside a syntax element.
	ErrTruncated = errors.New("dmx: truncated payload")
	// ErrConfig is returned for invalid parameters or an unencodable matrix.
	ErrConfig = errors.New("dmx: invalid parameters")
)
