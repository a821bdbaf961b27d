package sequencer

import "github.com/pkg/errors"

// Error taxonomy. Callers match with errors.Is; the returned values are
// wrapped with the offending indices or parameters.
var (
	// ErrOutOfRange is returned when a track or step index is outside the pattern.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidParameter is returned for rejected transport parameters (non-positive tempo).
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrResolution is reported when an active cell cannot be turned into an instruction.
	ErrResolution = errors.New("cannot resolve instruction")
)
