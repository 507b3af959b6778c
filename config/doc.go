// Package config loads remoter runtime settings.
//
// Settings come from an optional YAML/JSON/TOML file, an optional .env
// file and REMOTER_* environment variables, in increasing precedence.
//
// # Usage
//
//	settings, err := config.LoadSettings(config.WithConfigFile("remoter.settings.yml"))
//
// Nested keys map to underscore-separated variables, so
// REMOTER_TELEMETRY_SAMPLE_RATE sets telemetry.sample_rate.
package config
