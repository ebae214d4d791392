package registrar

import "errors"

// Sentinel errors for registration.
var (
	// ErrInvalidConfig indicates a Config that fails validation.
	ErrInvalidConfig = errors.New("registrar: invalid config")

	// ErrNilSink indicates New was called without a metrics sink.
	ErrNilSink = errors.New("registrar: sink is nil")
)
