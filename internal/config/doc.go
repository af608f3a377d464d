// Package config loads and merges reviewerd configuration from defaults,
// the platform config file, environment variables, and CLI flag overrides,
// in that order of increasing precedence.
package config
