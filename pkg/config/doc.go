// Package config loads typed configuration from the environment and, when a
// deployment prefers it, from a YAML file.
//
// Values are described with `env` and `envDefault` struct tags understood by
// github.com/caarlos0/env/v11. A `.env` file in the working directory is read
// once through github.com/joho/godotenv before the first parse.
//
// # Environment
//
// Load parses the environment into a struct and caches the result per type,
// so every caller that asks for the same config type gets the same values:
//
//	var cfg dispatch.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning an error and is meant for main. Reset
// drops the cache; tests use it to reload after changing variables.
//
// # Files
//
// LoadFile decodes YAML (gopkg.in/yaml.v3) into the struct and then applies the
// environment. Variables that are set override the file, while `envDefault`
// values only fill fields the file did not provide. Durations use Go syntax
// such as "500ms" or "30s". File results are not cached.
//
// # Errors
//
// ErrParsingConfig, ErrReadingFile and ErrParsingFile are joined with the
// underlying cause, so callers match them with errors.Is.
package config
