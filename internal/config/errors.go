package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure, including bad scoring weights.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps file, env and decode failures in Load.
	ErrLoadConfig = errors.New("load config failed")
)
