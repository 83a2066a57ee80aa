package config

import "errors"

var (
	// ErrInvalidConfig indicates the configuration failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedConfig indicates the configuration file could not be parsed.
	ErrMalformedConfig = errors.New("malformed configuration file")
)
