package config

import "errors"

var (
	// ErrInvalidConfig wraps every validation failure.
	ErrInvalidConfig = errors.New("config: invalid configuration")

	// ErrMissingEnv is returned when a ${VAR} reference is not set.
	ErrMissingEnv = errors.New("config: missing required environment variables")
)
