package mapper

import "errors"

var (
	// ErrInvalidMapper indicates a mapper configuration is incomplete or malformed.
	ErrInvalidMapper = errors.New("mapper: invalid mapper configuration")

	// ErrNilMapper indicates a nil mapper was added to a registry.
	ErrNilMapper = errors.New("mapper: mapper is nil")
)
