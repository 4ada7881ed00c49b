// Package config loads, validates, and live-reloads the TOML pipeline
// configuration. Defaults cover every field, so a missing config file
// is a fully working setup.
package config
