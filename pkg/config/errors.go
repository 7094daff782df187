package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be parsed into the config struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrConfigNotLoaded is returned when a cached config cannot be found after parsing.
	ErrConfigNotLoaded = errors.New("configuration has not been loaded")

	// ErrNilPointer is returned when a nil pointer is provided to a loader.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrReadingFile is returned when the configuration file cannot be read.
	ErrReadingFile = errors.New("failed to read config file")

	// ErrParsingFile is returned when the configuration file is not valid YAML.
	ErrParsingFile = errors.New("failed to parse config file")
)
