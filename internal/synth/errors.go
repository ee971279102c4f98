package synth

import "errors"

// Sentinel errors.
var (
	ErrInvalidConfig = errors.New("invalid synth config")
	ErrMissedEvents  = errors.New("injected incidents not detected")
	ErrUnexpected    = errors.New("unexpected response")
)
